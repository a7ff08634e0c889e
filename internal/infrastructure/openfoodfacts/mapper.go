package openfoodfacts

import (
	"strings"

	"github.com/allergenapp/backend/internal/domain"
)

const unknownProductName = "Unknown Product"

// productResponse is the /api/v0/product/{barcode}.json envelope
type productResponse struct {
	Code    string  `json:"code"`
	Status  int     `json:"status"`
	Product product `json:"product"`
}

// searchResponse is the /cgi/search.pl envelope
type searchResponse struct {
	Count    int       `json:"count"`
	Products []product `json:"products"`
}

type product struct {
	Code            string   `json:"code"`
	ProductName     string   `json:"product_name"`
	ProductNameEn   string   `json:"product_name_en"`
	GenericName     string   `json:"generic_name"`
	Brands          string   `json:"brands"`
	ImageURL        string   `json:"image_url"`
	IngredientsText string   `json:"ingredients_text"`
	AllergensTags   []string `json:"allergens_tags"`
}

// MapProduct converts an Open Food Facts product into a tag-shaped record
func MapProduct(p product) domain.TagRecord {
	return domain.TagRecord{
		Found:           true,
		Barcode:         p.Code,
		Name:            productName(p),
		Brands:          strings.TrimSpace(p.Brands),
		ImageURL:        p.ImageURL,
		IngredientsText: p.IngredientsText,
		AllergensTags:   p.AllergensTags,
	}
}

// productName picks the first non-empty of the localized name fields
func productName(p product) string {
	for _, name := range []string{p.ProductName, p.ProductNameEn, p.GenericName} {
		if name = strings.TrimSpace(name); name != "" {
			return name
		}
	}
	return unknownProductName
}
