package render

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/listingpress/listingpress/internal/domain"
)

// BrokerView holds broker contact fields formatted for the page templates.
type BrokerView struct {
	Name  string
	Title string
	Phone string
	Email string
}

// BrandView carries the brokerage identity applied to every page.
type BrandView struct {
	Name           string
	LogoPath       string
	PrimaryColor   string
	SecondaryColor string
	AccentColor    string
	FontFamily     string
	Disclaimer     string
	Offices        []domain.OfficeAddress
}

// DocumentData is the listing-level data shared by all pages of a brochure.
type DocumentData struct {
	Name             string
	AddressLine      string
	TransactionLabel string
	PriceLine        string
	MonthlyEstimate  string
	PriceSF          string
	BuildingSF       string
	LotAcres         string
	Zoning           string
	YearBuilt        string
	Overview         string
	Tagline          string
	Highlights       []string
	Brokers          []BrokerView
	Brand            BrandView
}

// PageView names one page of the document and maps its zone names to
// image file paths relative to the render directory.
type PageView struct {
	ID    string
	Zones map[string]string
}

var transactionLabels = map[string]string{
	"for_sale":          "For Sale",
	"for_lease":         "For Lease",
	"for_sale_or_lease": "For Sale or Lease",
	"sold":              "Sold",
	"leased":            "Leased",
}

var printer = message.NewPrinter(language.AmericanEnglish)

// AssembleDocument flattens a listing, AI content and brand into the data
// the page templates consume.
func AssembleDocument(listing domain.Listing, content domain.AIContent, brand domain.Brand, logoPath string) DocumentData {
	doc := DocumentData{
		Name:             listing.Name,
		AddressLine:      addressLine(listing),
		TransactionLabel: transactionLabel(listing.TransactionType),
		Zoning:           listing.Zoning,
		Overview:         content.Overview,
		Tagline:          content.Tagline,
		Highlights:       content.Highlights,
		Brand: BrandView{
			Name:           brand.Name,
			LogoPath:       logoPath,
			PrimaryColor:   brand.PrimaryColor,
			SecondaryColor: brand.SecondaryColor,
			AccentColor:    brand.AccentColor,
			FontFamily:     brand.FontFamily,
			Disclaimer:     brand.Disclaimer,
			Offices:        brand.Offices,
		},
	}

	if listing.BuildingSF > 0 {
		doc.BuildingSF = printer.Sprintf("%.0f SF", listing.BuildingSF)
	}
	if listing.LotAcres > 0 {
		doc.LotAcres = fmt.Sprintf("%.2f Acres", listing.LotAcres)
	}
	if listing.YearBuilt > 0 {
		doc.YearBuilt = fmt.Sprintf("%d", listing.YearBuilt)
	}

	doc.PriceLine, doc.MonthlyEstimate, doc.PriceSF = priceLines(listing)

	for _, b := range listing.Brokers {
		doc.Brokers = append(doc.Brokers, BrokerView{
			Name:  b.Name,
			Title: b.Title,
			Phone: b.Phone,
			Email: b.Email,
		})
	}
	return doc
}

// priceLines derives the headline price, an estimated monthly rent for
// leases, and the per-square-foot figure when both price and size exist.
func priceLines(listing domain.Listing) (price, monthly, perSF string) {
	switch listing.TransactionType {
	case "for_lease", "leased":
		if listing.LeaseRateSF > 0 {
			price = printer.Sprintf("$%.2f/SF/YR", listing.LeaseRateSF)
			if listing.BuildingSF > 0 {
				monthlyRent := listing.LeaseRateSF * listing.BuildingSF / 12.0
				monthly = printer.Sprintf("Est. $%.0f/month", monthlyRent)
			}
		}
	default:
		if listing.SalePrice > 0 {
			price = printer.Sprintf("$%.0f", listing.SalePrice)
			if listing.BuildingSF > 0 {
				perSF = printer.Sprintf("$%.2f/SF", listing.SalePrice/listing.BuildingSF)
			}
		}
	}
	return price, monthly, perSF
}

func transactionLabel(transactionType string) string {
	if label, ok := transactionLabels[transactionType]; ok {
		return label
	}
	return "For Sale"
}

func addressLine(listing domain.Listing) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{listing.Address, listing.City, listing.State} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, p)
		}
	}
	line := strings.Join(parts, ", ")
	if line != "" && listing.Zip != "" {
		line += " " + listing.Zip
	}
	return line
}
