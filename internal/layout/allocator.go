package layout

import "github.com/listingpress/listingpress/internal/domain"

// Assignment pairs a photo with the zone spec it will fill.
type Assignment struct {
	Photo domain.Photo
	Spec  ZoneSpec
}

// Allocate matches classified photos to a page's zones using greedy
// first-fit: zones are processed in declaration order, and each zone takes
// the first photo in the pool whose classification it accepts. A selected
// photo is removed from the pool, so it fills at most one zone on this page.
// Zones with no matching photo are left out of the result and render as
// placeholders downstream.
//
// The caller passes the full classified pool for every page; allocation for
// one page never affects another page's pool. This is deliberately a simple,
// order-sensitive assignment, not an optimal matching.
func Allocate(pool []domain.Photo, page TemplatePage) map[string]Assignment {
	// Own copy so the caller's slice survives intact.
	remaining := append([]domain.Photo(nil), pool...)

	result := make(map[string]Assignment, len(page.Zones))
	for _, zone := range page.Zones {
		for i, photo := range remaining {
			if zone.Accepted(photo.Classification) {
				result[zone.Name] = Assignment{Photo: photo, Spec: zone}
				remaining = append(remaining[:i], remaining[i+1:]...)
				break
			}
		}
	}
	return result
}
