// Package pipeline wires extraction, classification, scoring and
// recommendation into the two entry points the transport layer consumes.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cgoncalves94/entity-recognition-backend/internal/blueprints"
	"github.com/cgoncalves94/entity-recognition-backend/internal/entities"
	"github.com/cgoncalves94/entity-recognition-backend/internal/recommendations"
	"github.com/cgoncalves94/entity-recognition-backend/internal/scoring"
	"github.com/cgoncalves94/entity-recognition-backend/internal/shared/telemetry"
	"github.com/cgoncalves94/entity-recognition-backend/internal/topics"
)

// defaultWorkers bounds the per-batch fan-out. Texts share only read-only
// state, so the limit exists to cap concurrent model inference, not for
// correctness.
const defaultWorkers = 4

// TextResult is the pipeline output for one input text.
type TextResult struct {
	InputText          string                            `json:"input_text"`
	PredictedTopicName string                            `json:"predicted_topic_name"`
	ExtractedEntities  []scoring.ScoredEntity            `json:"extracted_entities"`
	Recommendations    []recommendations.Recommendation  `json:"recommendations"`
}

// Classifier assigns a topic to a text.
type Classifier interface {
	Classify(ctx context.Context, text string) (topics.Result, error)
}

// Scorer ranks extracted entities for a text.
type Scorer interface {
	Score(ctx context.Context, extracted []entities.ExtractedEntity, topicKeywords []string, userInput string) ([]scoring.ScoredEntity, error)
}

// Service runs the recognition pipeline over batches of texts. All held
// state is read-only after construction.
type Service struct {
	matcher    *entities.Matcher
	classifier Classifier
	scorer     Scorer
	blueprints *blueprints.Matcher
	workers    int
}

// Option tunes service construction.
type Option func(*Service)

// WithWorkers overrides the batch fan-out bound.
func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// NewService assembles the pipeline from its already-loaded components.
func NewService(matcher *entities.Matcher, classifier Classifier, scorer Scorer, blueprintMatcher *blueprints.Matcher, opts ...Option) *Service {
	s := &Service{
		matcher:    matcher,
		classifier: classifier,
		scorer:     scorer,
		blueprints: blueprintMatcher,
		workers:    defaultWorkers,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Process runs the pipeline over each text, preserving input order in the
// output. Texts are processed concurrently under a bounded worker pool; the
// first failure fails the whole batch.
func (s *Service) Process(ctx context.Context, texts []string) ([]TextResult, error) {
	requestID := uuid.NewString()
	start := time.Now()
	telemetry.Info("pipeline process start", map[string]any{
		"request_id": requestID,
		"texts":      len(texts),
	})

	results := make([]TextResult, len(texts))
	errs := make([]error, len(texts))
	sem := make(chan struct{}, s.workers)
	var wg sync.WaitGroup
	for i, text := range texts {
		wg.Add(1)
		go func(i int, text string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return
			}
			results[i], errs[i] = s.processText(ctx, text)
		}(i, text)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			telemetry.Error("pipeline process failed", map[string]any{
				"request_id": requestID,
				"text_index": i,
				"err":        err.Error(),
			})
			return nil, fmt.Errorf("pipeline: process text %d: %w", i, err)
		}
	}

	telemetry.Info("pipeline process done", map[string]any{
		"request_id":  requestID,
		"texts":       len(texts),
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return results, nil
}

func (s *Service) processText(ctx context.Context, text string) (TextResult, error) {
	extracted, err := s.matcher.Extract(text)
	if err != nil {
		return TextResult{}, err
	}

	topic, err := s.classifier.Classify(ctx, classificationInput(text, extracted))
	if err != nil {
		return TextResult{}, err
	}

	scored, err := s.scorer.Score(ctx, extracted, topic.Keywords, text)
	if err != nil {
		return TextResult{}, err
	}

	return TextResult{
		InputText:          text,
		PredictedTopicName: topic.TopicName,
		ExtractedEntities:  scored,
		Recommendations:    recommendations.Recommend(scored),
	}, nil
}

// classificationInput appends the extracted entity categories to the text,
// biasing classification toward the detected technical domain.
func classificationInput(text string, extracted []entities.ExtractedEntity) string {
	if len(extracted) == 0 {
		return text
	}
	categories := make([]string, len(extracted))
	for i, e := range extracted {
		categories[i] = e.Category
	}
	return text + ". " + strings.Join(categories, ", ")
}

// Match selects blueprints for previously produced recommendations. The
// matching criteria are the recommendation names plus any extracted entity
// names the caller carries alongside them.
func (s *Service) Match(recs []recommendations.Recommendation, extractedNames []string) ([]blueprints.Match, error) {
	seen := make(map[string]struct{}, len(recs)+len(extractedNames))
	criteria := make([]string, 0, len(recs)+len(extractedNames))
	add := func(name string) {
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		criteria = append(criteria, name)
	}
	for _, rec := range recs {
		add(rec.Recommendation)
	}
	for _, name := range extractedNames {
		add(name)
	}

	matches, err := s.blueprints.Match(criteria)
	if err != nil {
		return nil, err
	}
	telemetry.Info("blueprint match done", map[string]any{
		"criteria": len(criteria),
		"matches":  len(matches),
	})
	return matches, nil
}
