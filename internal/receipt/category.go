package receipt

import (
	"strings"

	"gitlab.com/yelinaung/expense-approval/internal/models"
)

// MatchCategory finds the company category that best fits a model-suggested
// name, or nil when nothing fits.
// Matching strategy:
// 1. Exact match (case-insensitive)
// 2. Category contains the suggestion, shortest name wins
// 3. Suggestion contains the category, longest name wins
// 4. Any significant word in common.
func MatchCategory(suggested string, categories []models.Category) *models.Category {
	needle := strings.ToLower(strings.TrimSpace(suggested))
	if needle == "" || strings.EqualFold(needle, DefaultCategory) {
		return nil
	}

	for i := range categories {
		if strings.EqualFold(strings.TrimSpace(categories[i].Name), needle) {
			return &categories[i]
		}
	}

	var best *models.Category
	for i := range categories {
		name := strings.ToLower(categories[i].Name)
		if strings.Contains(name, needle) && (best == nil || len(name) < len(best.Name)) {
			best = &categories[i]
		}
	}
	if best != nil {
		return best
	}

	for i := range categories {
		name := strings.ToLower(categories[i].Name)
		if name != "" && strings.Contains(needle, name) && (best == nil || len(name) > len(best.Name)) {
			best = &categories[i]
		}
	}
	if best != nil {
		return best
	}

	words := significantWords(suggested)
	for i := range categories {
		for cw := range significantWords(categories[i].Name) {
			if _, ok := words[cw]; ok {
				return &categories[i]
			}
		}
	}
	return nil
}

var stopWords = map[string]struct{}{"and": {}, "the": {}, "for": {}}

// significantWords splits on separators and drops short and stop words.
func significantWords(s string) map[string]struct{} {
	s = strings.NewReplacer("-", " ", "/", " ", "&", " ", ",", " ").Replace(strings.ToLower(s))
	out := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		if _, stop := stopWords[w]; len(w) >= 3 && !stop {
			out[w] = struct{}{}
		}
	}
	return out
}
