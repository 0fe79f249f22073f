package compose

import (
	"strings"
	"testing"

	"github.com/listingpress/listingpress/internal/config"
	"github.com/listingpress/listingpress/internal/domain"
)

func testPhrases() config.PhraseTables {
	return config.PhraseTables{
		Overview: map[string]string{
			"for_sale":  "An exceptional acquisition opportunity",
			"for_lease": "A premier leasing opportunity",
			"default":   "A notable commercial property",
		},
		Tagline: map[string]string{
			"for_sale": "Own a landmark",
			"default":  "Commercial space that works",
		},
	}
}

func fortMyersListing() *domain.Listing {
	return &domain.Listing{
		ID:              "lst-1",
		TransactionType: "for_sale",
		City:            "Fort Myers",
		BuildingSF:      10000,
		Zoning:          "C-1",
	}
}

func TestOfflineOverviewFortMyers(t *testing.T) {
	o := NewOfflineComposer(testPhrases())

	overview := o.Overview(fortMyersListing())
	if overview == "" {
		t.Fatal("overview must not be empty")
	}
	if !strings.Contains(overview, "Fort Myers") {
		t.Errorf("overview should mention the city: %q", overview)
	}
	if !strings.Contains(overview, "10,000") {
		t.Errorf("overview should contain grouped square footage: %q", overview)
	}
	if !strings.Contains(overview, "C-1") {
		t.Errorf("overview should mention zoning: %q", overview)
	}
}

func TestOfflineTaglineFortMyers(t *testing.T) {
	o := NewOfflineComposer(testPhrases())

	tagline := o.Tagline(fortMyersListing())
	if !strings.Contains(tagline, "Fort Myers") {
		t.Errorf("tagline should mention the city: %q", tagline)
	}
	if !strings.HasPrefix(tagline, "Own a landmark") {
		t.Errorf("tagline should start with the for_sale phrase: %q", tagline)
	}
}

func TestOfflineComposeZeroPhotos(t *testing.T) {
	o := NewOfflineComposer(testPhrases())

	result := o.Compose(fortMyersListing(), nil)

	if len(result.PhotoClassifications) != 0 {
		t.Errorf("expected no classifications for zero photos, got %d", len(result.PhotoClassifications))
	}
	if result.PropertyOverview == "" || result.TaglineSuggestion == "" {
		t.Error("overview and tagline must be non-empty")
	}
	if len(result.HighlightsEnhanced) == 0 || len(result.SEOKeywords) == 0 {
		t.Error("highlights and keywords must be non-empty")
	}
}

func TestOfflineDeterministic(t *testing.T) {
	o := NewOfflineComposer(testPhrases())
	listing := &domain.Listing{
		TransactionType: "for_lease",
		City:            "Naples",
		BuildingSF:      24500,
		YearBuilt:       1998,
		Highlights:      []string{"Corner lot", "New roof 2021", "Ample parking", "Signalized intersection"},
	}
	previews := []PhotoPreview{
		{Width: 3000, Height: 1000},
		{Width: 1600, Height: 1000},
		{Width: 700, Height: 1000},
	}

	first := o.Compose(listing, previews)
	second := o.Compose(listing, previews)

	if first.PropertyOverview != second.PropertyOverview {
		t.Error("overview is not deterministic")
	}
	if first.TaglineSuggestion != second.TaglineSuggestion {
		t.Error("tagline is not deterministic")
	}
	if strings.Join(first.SEOKeywords, "|") != strings.Join(second.SEOKeywords, "|") {
		t.Error("keywords are not deterministic")
	}
	if len(first.PhotoClassifications) != 3 {
		t.Fatalf("expected 3 classifications, got %d", len(first.PhotoClassifications))
	}

	// Aspect-only classification: 3.0 aerial, 1.6 exterior, 0.7 interior.
	if first.PhotoClassifications[0].Classification != string(domain.ClassAerial) {
		t.Errorf("expected aerial for 3:1 preview, got %s", first.PhotoClassifications[0].Classification)
	}
	if first.PhotoClassifications[1].Classification != string(domain.ClassExterior) {
		t.Errorf("expected exterior for 1.6:1 preview, got %s", first.PhotoClassifications[1].Classification)
	}
	if first.PhotoClassifications[2].Classification != string(domain.ClassInterior) {
		t.Errorf("expected interior for 0.7:1 preview, got %s", first.PhotoClassifications[2].Classification)
	}
}

func TestOfflineHighlightsPassThrough(t *testing.T) {
	o := NewOfflineComposer(testPhrases())

	listing := &domain.Listing{Highlights: []string{"One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine", "Ten"}}
	got := o.Highlights(listing)
	if len(got) != 8 {
		t.Errorf("expected highlights capped at 8, got %d", len(got))
	}
	if got[0] != "One" {
		t.Errorf("highlights must pass through verbatim, got %q", got[0])
	}
}

func TestOfflineHighlightsDefaults(t *testing.T) {
	o := NewOfflineComposer(testPhrases())

	got := o.Highlights(&domain.Listing{})
	if len(got) != 2 {
		t.Errorf("expected 2 default highlights, got %d", len(got))
	}
}

func TestOfflineKeywordsCapAndDedup(t *testing.T) {
	o := NewOfflineComposer(testPhrases())
	listing := &domain.Listing{
		Name:            "Gateway Commerce Center",
		TransactionType: "for_sale",
		City:            "Fort Myers",
		State:           "FL",
		Zoning:          "C-1",
		BuildingSF:      10000,
	}

	keywords := o.Keywords(listing)
	if len(keywords) == 0 || len(keywords) > 10 {
		t.Fatalf("expected 1..10 keywords, got %d", len(keywords))
	}
	seen := map[string]bool{}
	for _, kw := range keywords {
		if kw != strings.ToLower(kw) {
			t.Errorf("keyword not lowercase: %q", kw)
		}
		if seen[kw] {
			t.Errorf("duplicate keyword %q", kw)
		}
		seen[kw] = true
	}
	if !seen["fort myers commercial real estate"] {
		t.Errorf("expected city keyword, got %v", keywords)
	}
}

func TestOfflineUnknownTransactionUsesDefaultPhrase(t *testing.T) {
	o := NewOfflineComposer(testPhrases())

	overview := o.Overview(&domain.Listing{TransactionType: "auction", City: "Tampa"})
	if !strings.HasPrefix(overview, "A notable commercial property") {
		t.Errorf("expected default phrase, got %q", overview)
	}
}
