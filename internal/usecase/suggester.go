package usecase

import (
	"strings"

	"github.com/allergenapp/backend/internal/domain"
)

// AlternativeSuggester proposes safer products for detected allergens
type AlternativeSuggester struct {
	table []domain.SwapGroup
}

// NewAlternativeSuggester creates a suggester over an ordered swap table.
// A nil table falls back to domain.SafeSwaps.
func NewAlternativeSuggester(table []domain.SwapGroup) *AlternativeSuggester {
	if table == nil {
		table = domain.SafeSwaps
	}
	return &AlternativeSuggester{table: table}
}

// Suggest returns, for each detected allergen in order, the options of the
// one table key the allergen contains (case-insensitive). Each option is
// tagged with the detected allergen. Results are concatenated without
// de-duplication.
func (s *AlternativeSuggester) Suggest(detected []string) []domain.Alternative {
	var alternatives []domain.Alternative
	for _, allergen := range detected {
		alternatives = append(alternatives, s.ForAllergen(allergen)...)
	}
	return alternatives
}

// ForAllergen returns the swaps for a single detected allergen
func (s *AlternativeSuggester) ForAllergen(allergen string) []domain.Alternative {
	group, ok := s.lookup(allergen)
	if !ok {
		return nil
	}

	alternatives := make([]domain.Alternative, 0, len(group.Options))
	for _, option := range group.Options {
		alternatives = append(alternatives, domain.Alternative{
			Name:        option.Name,
			Icon:        option.Icon,
			ForAllergen: allergen,
		})
	}
	return alternatives
}

// lookup picks the longest table key contained in the allergen, so
// "Shellfish" resolves to Shellfish rather than Fish. Ties keep table order.
func (s *AlternativeSuggester) lookup(allergen string) (domain.SwapGroup, bool) {
	allergenLower := strings.ToLower(strings.TrimSpace(allergen))
	if allergenLower == "" {
		return domain.SwapGroup{}, false
	}

	best := -1
	for i, group := range s.table {
		key := strings.ToLower(group.Allergen)
		if key == "" || !strings.Contains(allergenLower, key) {
			continue
		}
		if best < 0 || len(key) > len(s.table[best].Allergen) {
			best = i
		}
	}
	if best < 0 {
		return domain.SwapGroup{}, false
	}
	return s.table[best], true
}
