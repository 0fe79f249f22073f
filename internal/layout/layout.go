// Package layout defines the page templates that make up a brochure and
// matches classified photos to their zones.
package layout

import "github.com/listingpress/listingpress/internal/domain"

// ZoneSpec is a named rectangular slot on a page template. Accepts lists the
// photo classifications the zone will take, in priority order.
type ZoneSpec struct {
	Name    string
	Width   int // target pixels at print resolution
	Height  int
	Accepts []domain.Classification
}

// Accepted reports whether the zone takes a photo of the given classification.
func (z ZoneSpec) Accepted(c domain.Classification) bool {
	for _, a := range z.Accepts {
		if a == c {
			return true
		}
	}
	return false
}

// TemplatePage is one page definition: a template id plus its ordered zones.
type TemplatePage struct {
	ID    string
	Zones []ZoneSpec
}

// Page template identifiers.
const (
	PageCover     = "cover"
	PageDetails   = "details"
	PageGallery   = "gallery"
	PageAerial    = "aerial"
	PageFloorPlan = "floor_plan"
	PageBack      = "back"
)

// pages is the registry of known page templates.
var pages = map[string]TemplatePage{
	PageCover: {
		ID: PageCover,
		Zones: []ZoneSpec{
			{Name: "hero", Width: 2400, Height: 1350, Accepts: []domain.Classification{domain.ClassExterior, domain.ClassAerial, domain.ClassLandscape}},
			{Name: "cover_strip", Width: 800, Height: 600, Accepts: []domain.Classification{domain.ClassInterior, domain.ClassDetail, domain.ClassExterior}},
		},
	},
	PageDetails: {
		ID: PageDetails,
		Zones: []ZoneSpec{
			{Name: "feature", Width: 1200, Height: 900, Accepts: []domain.Classification{domain.ClassInterior, domain.ClassExterior, domain.ClassWarehouse}},
			{Name: "secondary", Width: 800, Height: 600, Accepts: []domain.Classification{domain.ClassDetail, domain.ClassInterior, domain.ClassParking}},
		},
	},
	PageGallery: {
		ID: PageGallery,
		Zones: []ZoneSpec{
			{Name: "gallery_1", Width: 1000, Height: 750, Accepts: []domain.Classification{domain.ClassInterior, domain.ClassExterior, domain.ClassWarehouse, domain.ClassDetail}},
			{Name: "gallery_2", Width: 1000, Height: 750, Accepts: []domain.Classification{domain.ClassInterior, domain.ClassExterior, domain.ClassWarehouse, domain.ClassDetail}},
			{Name: "gallery_3", Width: 1000, Height: 750, Accepts: []domain.Classification{domain.ClassInterior, domain.ClassExterior, domain.ClassParking, domain.ClassLandscape}},
			{Name: "gallery_4", Width: 1000, Height: 750, Accepts: []domain.Classification{domain.ClassDetail, domain.ClassInterior, domain.ClassExterior, domain.ClassLandscape}},
		},
	},
	PageAerial: {
		ID: PageAerial,
		Zones: []ZoneSpec{
			{Name: "aerial_main", Width: 2400, Height: 1200, Accepts: []domain.Classification{domain.ClassAerial, domain.ClassLandscape}},
		},
	},
	PageFloorPlan: {
		ID: PageFloorPlan,
		Zones: []ZoneSpec{
			{Name: "plan", Width: 1800, Height: 1400, Accepts: []domain.Classification{domain.ClassFloorPlan}},
		},
	},
	PageBack: {
		ID: PageBack,
		Zones: []ZoneSpec{
			{Name: "closing", Width: 1600, Height: 900, Accepts: []domain.Classification{domain.ClassExterior, domain.ClassAerial, domain.ClassInterior}},
		},
	},
}

// sequences maps a listing transaction type to its ordered page templates.
var sequences = map[string][]string{
	"for_sale":          {PageCover, PageDetails, PageAerial, PageGallery, PageBack},
	"for_lease":         {PageCover, PageDetails, PageFloorPlan, PageGallery, PageBack},
	"for_sale_or_lease": {PageCover, PageDetails, PageAerial, PageFloorPlan, PageGallery, PageBack},
	"sold":              {PageCover, PageDetails, PageBack},
	"leased":            {PageCover, PageDetails, PageBack},
}

// defaultSequence covers unknown transaction types.
var defaultSequence = []string{PageCover, PageDetails, PageGallery}

// SequenceFor returns the page-template id sequence for a transaction type.
func SequenceFor(transactionType string) []string {
	if seq, ok := sequences[transactionType]; ok {
		return append([]string(nil), seq...)
	}
	return append([]string(nil), defaultSequence...)
}

// Page looks up a page template by id.
func Page(id string) (TemplatePage, bool) {
	p, ok := pages[id]
	return p, ok
}

// Pages resolves a sequence of template ids to page definitions, skipping
// unknown ids.
func Pages(ids []string) []TemplatePage {
	out := make([]TemplatePage, 0, len(ids))
	for _, id := range ids {
		if p, ok := pages[id]; ok {
			out = append(out, p)
		}
	}
	return out
}
