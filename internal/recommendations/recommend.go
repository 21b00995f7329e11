// Package recommendations reduces ranked candidates to one winner per
// category.
package recommendations

import "github.com/cgoncalves94/entity-recognition-backend/internal/scoring"

// Recommendation names the best-fit technology for one category.
type Recommendation struct {
	Category       string `json:"category"`
	Recommendation string `json:"recommendation"`
}

// Recommend picks the highest-scoring entity per distinct category.
// Comparison is strict, so the first entity seen wins ties. Categories keep
// their first-seen order; empty input yields empty output.
func Recommend(scored []scoring.ScoredEntity) []Recommendation {
	best := make(map[string]scoring.ScoredEntity)
	var order []string
	for _, entity := range scored {
		current, ok := best[entity.Category]
		if !ok {
			best[entity.Category] = entity
			order = append(order, entity.Category)
			continue
		}
		if current.Score < entity.Score {
			best[entity.Category] = entity
		}
	}

	out := make([]Recommendation, 0, len(order))
	for _, category := range order {
		out = append(out, Recommendation{
			Category:       category,
			Recommendation: best[category].EntityName,
		})
	}
	return out
}
