package usecase

import (
	"strings"

	"go.uber.org/zap"

	"github.com/allergenapp/backend/internal/domain"
)

// AllergenMatcher finds a user's allergens in a normalized product
type AllergenMatcher struct {
	logger *zap.Logger
}

// NewAllergenMatcher creates a matcher. A nil logger disables debug output.
func NewAllergenMatcher(logger *zap.Logger) *AllergenMatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AllergenMatcher{logger: logger}
}

// Match runs two passes over the product:
//  1. declared allergens, matched when either side contains the other
//     (case-insensitive); the declared spelling is reported
//  2. ingredient text, matched when it contains the user's allergen;
//     the user's spelling is reported
//
// Output keeps first-seen order and is unique under case-folding.
func (m *AllergenMatcher) Match(product domain.NormalizedProduct, userAllergens []string) domain.MatchResult {
	terms := cleanTerms(userAllergens)
	if len(terms) == 0 {
		return domain.MatchResult{}
	}

	var detected []string
	seen := make(map[string]bool)
	add := func(name string) {
		key := strings.ToLower(name)
		if seen[key] {
			return
		}
		seen[key] = true
		detected = append(detected, name)
	}

	for _, declared := range product.DeclaredAllergens {
		declaredLower := strings.ToLower(declared)
		if declaredLower == "" {
			continue
		}
		for _, term := range terms {
			termLower := strings.ToLower(term)
			if strings.Contains(declaredLower, termLower) || strings.Contains(termLower, declaredLower) {
				add(declared)
				break
			}
		}
	}

	if product.IngredientText != "" {
		for _, term := range terms {
			if strings.Contains(product.IngredientText, strings.ToLower(term)) {
				add(term)
			}
		}
	}

	m.logger.Debug("allergen match",
		zap.String("product", product.Summary.Name),
		zap.Strings("user_allergens", terms),
		zap.Strings("detected", detected))

	return domain.MatchResult{DetectedAllergens: detected}
}

// cleanTerms trims entries and drops blanks; an empty term would match everything
func cleanTerms(values []string) []string {
	terms := make([]string, 0, len(values))
	for _, v := range values {
		if t := strings.TrimSpace(v); t != "" {
			terms = append(terms, t)
		}
	}
	return terms
}
