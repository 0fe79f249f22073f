package compose

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/listingpress/listingpress/internal/classify"
	"github.com/listingpress/listingpress/internal/config"
	"github.com/listingpress/listingpress/internal/domain"
)

// maxHighlights caps pass-through highlights on the brochure.
const maxHighlights = 8

// maxKeywords caps the generated keyword list.
const maxKeywords = 10

// defaultHighlights is used when the listing carries none of its own.
var defaultHighlights = []string{
	"Professionally managed property",
	"Convenient access to major routes",
}

// OfflineComposer is the deterministic, network-free composition path. Given
// the same listing and preview dimensions it always produces byte-identical
// output.
type OfflineComposer struct {
	phrases config.PhraseTables
	printer *message.Printer
}

func NewOfflineComposer(phrases config.PhraseTables) *OfflineComposer {
	return &OfflineComposer{
		phrases: phrases,
		printer: message.NewPrinter(language.AmericanEnglish),
	}
}

// Compose generates the full contract output from listing facts and preview
// aspect ratios. No filename or declared-type hints are available here.
func (o *OfflineComposer) Compose(listing *domain.Listing, previews []PhotoPreview) *Result {
	entries := make([]ClassificationEntry, len(previews))
	for i, p := range previews {
		class, conf := classify.ByStats(classify.Stats{Width: p.Width, Height: p.Height})
		entries[i] = ClassificationEntry{
			Classification:  string(class),
			Confidence:      conf,
			RecommendedZone: ZoneForClassification(class),
		}
	}

	return &Result{
		PhotoClassifications: entries,
		PropertyOverview:     o.Overview(listing),
		TaglineSuggestion:    o.Tagline(listing),
		HighlightsEnhanced:   o.Highlights(listing),
		SEOKeywords:          o.Keywords(listing),
	}
}

// Overview builds the property overview from the transaction-type phrase
// table plus size, zoning, and year-built facts and the top highlights.
func (o *OfflineComposer) Overview(listing *domain.Listing) string {
	var b strings.Builder

	b.WriteString(o.phrase(o.phrases.Overview, listing.TransactionType, "A notable commercial property"))
	if listing.City != "" {
		fmt.Fprintf(&b, " in %s", listing.City)
	}
	b.WriteString(".")

	if listing.BuildingSF > 0 {
		fmt.Fprintf(&b, " The property offers %s SF of building area", o.formatSF(listing.BuildingSF))
		if listing.Zoning != "" {
			fmt.Fprintf(&b, " zoned %s", listing.Zoning)
		}
		b.WriteString(".")
	} else if listing.Zoning != "" {
		fmt.Fprintf(&b, " The property is zoned %s.", listing.Zoning)
	}

	if listing.LotAcres > 0 {
		fmt.Fprintf(&b, " The site spans %.2f acres.", listing.LotAcres)
	}
	if listing.YearBuilt > 0 {
		fmt.Fprintf(&b, " Built in %d.", listing.YearBuilt)
	}

	if top := topHighlights(listing.Highlights, 3); len(top) > 0 {
		fmt.Fprintf(&b, " Key features include %s.", joinNatural(top))
	}

	return b.String()
}

// Tagline combines the tagline phrase table with size and city.
func (o *OfflineComposer) Tagline(listing *domain.Listing) string {
	lead := o.phrase(o.phrases.Tagline, listing.TransactionType, "Commercial space that works")

	var detail string
	switch {
	case listing.BuildingSF > 0 && listing.City != "":
		detail = fmt.Sprintf("%s SF in %s", o.formatSF(listing.BuildingSF), listing.City)
	case listing.City != "":
		detail = listing.City
	case listing.BuildingSF > 0:
		detail = o.formatSF(listing.BuildingSF) + " SF"
	}

	if detail == "" {
		return lead
	}
	return lead + ": " + detail
}

// Highlights passes through up to 8 listing highlights verbatim, or the two
// generic defaults when the listing has none.
func (o *OfflineComposer) Highlights(listing *domain.Listing) []string {
	var out []string
	for _, h := range listing.Highlights {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		out = append(out, h)
		if len(out) == maxHighlights {
			break
		}
	}
	if len(out) == 0 {
		return append([]string(nil), defaultHighlights...)
	}
	return out
}

// Keywords derives up to 10 search keywords from city, transaction type,
// zoning, and the property name.
func (o *OfflineComposer) Keywords(listing *domain.Listing) []string {
	var out []string
	add := func(kw string) {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" || len(out) >= maxKeywords {
			return
		}
		for _, existing := range out {
			if existing == kw {
				return
			}
		}
		out = append(out, kw)
	}

	if listing.City != "" {
		add(listing.City + " commercial real estate")
		add(listing.City + " " + strings.ReplaceAll(listing.TransactionType, "_", " "))
	}
	add(strings.ReplaceAll(listing.TransactionType, "_", " "))
	if listing.Zoning != "" {
		add(listing.Zoning + " zoning")
		if listing.City != "" {
			add(listing.Zoning + " property " + listing.City)
		}
	}
	add(listing.Name)
	add("commercial property")
	if listing.BuildingSF > 0 {
		add("commercial building " + o.formatSF(listing.BuildingSF) + " sf")
	}
	if listing.State != "" {
		add(listing.State + " commercial property")
	}

	return out
}

// phrase looks up a transaction type in a table with a default fallback.
func (o *OfflineComposer) phrase(table map[string]string, transactionType, fallback string) string {
	if p, ok := table[transactionType]; ok && p != "" {
		return p
	}
	if p, ok := table["default"]; ok && p != "" {
		return p
	}
	return fallback
}

// formatSF renders square footage with digit grouping, e.g. "10,000".
func (o *OfflineComposer) formatSF(sf float64) string {
	return o.printer.Sprintf("%d", int64(sf+0.5))
}

func topHighlights(highlights []string, n int) []string {
	var out []string
	for _, h := range highlights {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		out = append(out, h)
		if len(out) == n {
			break
		}
	}
	return out
}

// joinNatural joins items as "a", "a and b", or "a, b and c".
func joinNatural(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " and " + items[1]
	default:
		return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
	}
}
