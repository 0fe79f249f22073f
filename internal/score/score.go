// Package score computes the deterministic 0-100 quality score for an
// assembled brochure draft.
package score

import (
	"github.com/listingpress/listingpress/internal/domain"
)

// Scoring weights. These are contract values; the report breaks the total
// down by the same labels.
const (
	maxDataCompleteness = 40.0
	requiredFieldPoints = 5.0
	optionalFieldPoints = 2.5

	maxPhotoCoverage = 30.0
	anyZonePoints    = 15.0
	perZonePoints    = 5.0
	perZoneCap       = 15.0

	maxContentQuality = 20.0
	overviewPoints    = 10.0
	highlightPoints   = 5.0
	taglinePoints     = 5.0

	brandCompliancePoints = 10.0

	overviewLengthMin = 100
	highlightCountMin = 4
)

// Input gathers everything the scorer looks at.
type Input struct {
	Listing      *domain.Listing
	Content      *domain.AIContent
	FilledZones  int  // distinct zones that received a processed image
	BrandApplied bool // brand tokens were merged into the template data
}

// Score computes the weighted quality report. The total is capped at 100.
func Score(in Input) domain.QualityReport {
	data := dataCompleteness(in.Listing)
	photos := photoCoverage(in.FilledZones)
	content := contentQuality(in.Content)

	brand := 0.0
	if in.BrandApplied {
		brand = brandCompliancePoints
	}

	total := data + photos + content + brand
	if total > 100 {
		total = 100
	}

	return domain.QualityReport{
		Subscores: []domain.QualitySubscore{
			{Label: "data_completeness", Score: data, Max: maxDataCompleteness},
			{Label: "photo_coverage", Score: photos, Max: maxPhotoCoverage},
			{Label: "content_quality", Score: content, Max: maxContentQuality},
			{Label: "brand_compliance", Score: brand, Max: brandCompliancePoints},
		},
		Total: total,
	}
}

// dataCompleteness awards 5 points per required field and 2.5 per optional
// field, capped at 40.
func dataCompleteness(listing *domain.Listing) float64 {
	if listing == nil {
		return 0
	}

	points := 0.0
	required := []bool{
		listing.Name != "",
		listing.Address != "",
		listing.City != "",
		listing.TransactionType != "",
	}
	for _, ok := range required {
		if ok {
			points += requiredFieldPoints
		}
	}

	optional := []bool{
		listing.SalePrice > 0,
		listing.LeaseRateSF > 0,
		listing.BuildingSF > 0,
		listing.LotAcres > 0,
		listing.Zoning != "",
		listing.YearBuilt > 0,
		len(listing.Brokers) > 0,
		listing.Overview != "",
	}
	for _, ok := range optional {
		if ok {
			points += optionalFieldPoints
		}
	}

	if points > maxDataCompleteness {
		points = maxDataCompleteness
	}
	return points
}

// photoCoverage awards 15 for producing any zone image at all, plus 5 per
// additional distinct filled zone up to another 15.
func photoCoverage(filledZones int) float64 {
	if filledZones <= 0 {
		return 0
	}
	extra := float64(filledZones-1) * perZonePoints
	if extra > perZoneCap {
		extra = perZoneCap
	}
	return anyZonePoints + extra
}

// contentQuality checks overview length, highlight count, and tagline presence.
func contentQuality(content *domain.AIContent) float64 {
	if content == nil {
		return 0
	}
	points := 0.0
	if len(content.Overview) > overviewLengthMin {
		points += overviewPoints
	}
	if len(content.Highlights) >= highlightCountMin {
		points += highlightPoints
	}
	if content.Tagline != "" {
		points += taglinePoints
	}
	return points
}
