package compose

import (
	"fmt"
	"strings"

	"github.com/listingpress/listingpress/internal/domain"
)

// buildListingContext renders the listing facts as the user message shared
// by every AI provider.
func buildListingContext(listing *domain.Listing, photoCount int) string {
	var b strings.Builder

	b.WriteString("Compose brochure content for this property.\n\n")
	if listing.Name != "" {
		fmt.Fprintf(&b, "Property: %s\n", listing.Name)
	}
	if listing.Address != "" {
		fmt.Fprintf(&b, "Address: %s\n", listing.Address)
	}
	if listing.City != "" {
		city := listing.City
		if listing.State != "" {
			city += ", " + listing.State
		}
		fmt.Fprintf(&b, "City: %s\n", city)
	}
	fmt.Fprintf(&b, "Transaction: %s\n", listing.TransactionType)
	if listing.SalePrice > 0 {
		fmt.Fprintf(&b, "Sale price: $%.0f\n", listing.SalePrice)
	}
	if listing.LeaseRateSF > 0 {
		fmt.Fprintf(&b, "Lease rate: $%.2f/SF/year\n", listing.LeaseRateSF)
	}
	if listing.BuildingSF > 0 {
		fmt.Fprintf(&b, "Building size: %.0f SF\n", listing.BuildingSF)
	}
	if listing.LotAcres > 0 {
		fmt.Fprintf(&b, "Lot size: %.2f acres\n", listing.LotAcres)
	}
	if listing.Zoning != "" {
		fmt.Fprintf(&b, "Zoning: %s\n", listing.Zoning)
	}
	if listing.YearBuilt > 0 {
		fmt.Fprintf(&b, "Year built: %d\n", listing.YearBuilt)
	}
	if listing.Overview != "" {
		fmt.Fprintf(&b, "Existing overview: %s\n", listing.Overview)
	}
	if len(listing.Highlights) > 0 {
		b.WriteString("Existing highlights:\n")
		for _, h := range listing.Highlights {
			fmt.Fprintf(&b, "- %s\n", h)
		}
	}
	fmt.Fprintf(&b, "\n%d photos follow in order.\n", photoCount)

	return b.String()
}
