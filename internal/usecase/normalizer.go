package usecase

import (
	"regexp"
	"strings"

	"github.com/allergenapp/backend/internal/domain"
)

// Runs of whitespace inside ingredient text
var whitespaceRunPattern = regexp.MustCompile(`\s+`)

// Normalize converts any raw product shape into the canonical product.
// found is false for not-found records and for label analysis records,
// which are classified through ClassifyVision instead.
func Normalize(raw domain.RawProductRecord) (product domain.NormalizedProduct, found bool) {
	switch record := raw.(type) {
	case domain.CatalogRecord:
		if !record.Found {
			return domain.NormalizedProduct{}, false
		}
		return domain.NormalizedProduct{
			Summary:           domain.ProductSummary{Name: record.Name, Barcode: record.Barcode},
			DeclaredAllergens: normalizeDeclared(record.Allergens),
			IngredientText:    normalizeIngredientText(record.Ingredients.Text()),
		}, true

	case domain.TagRecord:
		if !record.Found {
			return domain.NormalizedProduct{}, false
		}
		return domain.NormalizedProduct{
			Summary: domain.ProductSummary{
				Name:     record.Name,
				Barcode:  record.Barcode,
				Brands:   record.Brands,
				ImageURL: record.ImageURL,
			},
			DeclaredAllergens: normalizeDeclared(record.AllergensTags),
			IngredientText:    normalizeIngredientText(record.IngredientsText),
		}, true

	default:
		return domain.NormalizedProduct{}, false
	}
}

// StripTagPrefix removes every colon-delimited prefix, "en:milk" -> "milk"
func StripTagPrefix(tag string) string {
	if idx := strings.LastIndex(tag, ":"); idx >= 0 {
		tag = tag[idx+1:]
	}
	return strings.TrimSpace(tag)
}

func normalizeDeclared(allergens []string) []string {
	var declared []string
	seen := make(map[string]bool, len(allergens))
	for _, a := range allergens {
		name := StripTagPrefix(a)
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			continue
		}
		seen[key] = true
		declared = append(declared, name)
	}
	return declared
}

func normalizeIngredientText(text string) string {
	text = whitespaceRunPattern.ReplaceAllString(text, " ")
	return strings.ToLower(strings.TrimSpace(text))
}
