// Package scoring ranks candidate technologies by semantic closeness to the
// user's text and to the classified topic.
package scoring

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/cgoncalves94/entity-recognition-backend/internal/embeddings"
	"github.com/cgoncalves94/entity-recognition-backend/internal/entities"
	"github.com/cgoncalves94/entity-recognition-backend/internal/lexicon"
)

// MentionBoost is added to the combined score when the candidate's literal
// name occurs in the user input.
const MentionBoost = 0.2

// Embedder is the embedding surface the scorer needs.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// ScoredEntity is one ranked candidate. Score is normalized to [0,1]
// within its category.
type ScoredEntity struct {
	EntityName string  `json:"entity_name"`
	Score      float64 `json:"score"`
	Category   string  `json:"category"`
}

// Scorer combines embedding similarity, topic relevance and an explicit
// mention boost. The static lexicon score is intentionally not part of the
// combined score.
type Scorer struct {
	lex      *lexicon.Lexicon
	embedder Embedder
}

// NewScorer builds a scorer over the loaded lexicon.
func NewScorer(lex *lexicon.Lexicon, embedder Embedder) *Scorer {
	return &Scorer{lex: lex, embedder: embedder}
}

// Score ranks the extracted entities against the user input and topic
// keywords. Entities declaring related technologies fan out into those
// candidates instead of themselves. Output is grouped by category in
// first-seen order, each category sorted descending by normalized score.
func (s *Scorer) Score(ctx context.Context, extracted []entities.ExtractedEntity, topicKeywords []string, userInput string) ([]ScoredEntity, error) {
	if len(extracted) == 0 {
		return nil, nil
	}

	inputVec, err := s.embedder.EmbedText(ctx, userInput)
	if err != nil {
		return nil, fmt.Errorf("scoring: embed input: %w", err)
	}

	lowerInput := strings.ToLower(userInput)
	explicit := make(map[string]struct{})
	for _, e := range extracted {
		if strings.Contains(lowerInput, strings.ToLower(e.Entity)) {
			explicit[e.Entity] = struct{}{}
		}
	}

	candidates := expandRelated(extracted, s.lex)

	// One batched lookup each for keywords and candidate texts; similarity
	// is averaged per keyword rather than embedding the concatenation.
	keywordVecs, err := s.embedder.EmbedTexts(ctx, topicKeywords)
	if err != nil {
		return nil, fmt.Errorf("scoring: embed topic keywords: %w", err)
	}
	candidateTexts := make([]string, len(candidates))
	for i, name := range candidates {
		candidateTexts[i] = s.entityText(name)
	}
	candidateVecs, err := s.embedder.EmbedTexts(ctx, candidateTexts)
	if err != nil {
		return nil, fmt.Errorf("scoring: embed candidates: %w", err)
	}

	buckets := make(map[string]*bucket)
	var categoryOrder []string
	for i, name := range candidates {
		entityVec := candidateVecs[i]
		combined := embeddings.Cosine(inputVec, entityVec) + meanRelevance(keywordVecs, entityVec)
		if _, mentioned := explicit[name]; mentioned {
			combined += MentionBoost
		}

		category := lexicon.DefaultCategory
		if entity, ok := s.lex.Get(name); ok {
			category = entity.Category
		}
		b, ok := buckets[category]
		if !ok {
			b = &bucket{scores: make(map[string]float64)}
			buckets[category] = b
			categoryOrder = append(categoryOrder, category)
		}
		if _, seen := b.scores[name]; !seen {
			b.order = append(b.order, name)
		}
		b.scores[name] = combined
	}

	var out []ScoredEntity
	for _, category := range categoryOrder {
		out = append(out, buckets[category].normalized(category)...)
	}
	return out, nil
}

// entityText builds the text embedded for a candidate: description,
// category and type, looked up fresh from the lexicon with empty defaults.
func (s *Scorer) entityText(name string) string {
	var entity lexicon.TechEntity
	if e, ok := s.lex.Get(name); ok {
		entity = e
	}
	return entity.Description + " " + entity.Category + " " + entity.Type
}

// expandRelated substitutes an entity's related technologies in place of
// the entity itself when the lexicon declares any.
func expandRelated(extracted []entities.ExtractedEntity, lex *lexicon.Lexicon) []string {
	var out []string
	for _, e := range extracted {
		if entity, ok := lex.Get(e.Entity); ok && len(entity.RelatedTechnologies) > 0 {
			out = append(out, entity.RelatedTechnologies...)
			continue
		}
		out = append(out, e.Entity)
	}
	return out
}

// meanRelevance averages keyword similarity; an empty keyword list
// contributes nothing instead of dividing by zero.
func meanRelevance(keywordVecs [][]float32, entityVec []float32) float64 {
	if len(keywordVecs) == 0 {
		return 0
	}
	var sum float64
	for _, kv := range keywordVecs {
		sum += embeddings.Cosine(kv, entityVec)
	}
	return sum / float64(len(keywordVecs))
}

type bucket struct {
	order  []string
	scores map[string]float64
}

// normalized divides by the category max and sorts descending. The sort is
// stable so insertion order breaks ties.
func (b *bucket) normalized(category string) []ScoredEntity {
	maxScore := 1.0
	first := true
	for _, score := range b.scores {
		if first || score > maxScore {
			maxScore = score
			first = false
		}
	}
	if maxScore == 0 {
		maxScore = 1
	}
	out := make([]ScoredEntity, 0, len(b.order))
	for _, name := range b.order {
		out = append(out, ScoredEntity{
			EntityName: name,
			Score:      b.scores[name] / maxScore,
			Category:   category,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}
