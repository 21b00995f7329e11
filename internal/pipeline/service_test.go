package pipeline

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/cgoncalves94/entity-recognition-backend/internal/blueprints"
	"github.com/cgoncalves94/entity-recognition-backend/internal/entities"
	"github.com/cgoncalves94/entity-recognition-backend/internal/lexicon"
	"github.com/cgoncalves94/entity-recognition-backend/internal/recommendations"
	"github.com/cgoncalves94/entity-recognition-backend/internal/scoring"
	"github.com/cgoncalves94/entity-recognition-backend/internal/topics"
)

type fakeClassifier struct {
	mu     sync.Mutex
	inputs []string
	result topics.Result
	err    error
}

func (f *fakeClassifier) Classify(_ context.Context, text string) (topics.Result, error) {
	f.mu.Lock()
	f.inputs = append(f.inputs, text)
	f.mu.Unlock()
	if f.err != nil {
		return topics.Result{}, f.err
	}
	return f.result, nil
}

// fakeScorer echoes the extracted entities with fixed scores so pipeline
// output can be asserted without embedding math.
type fakeScorer struct {
	mu       sync.Mutex
	keywords [][]string
	scores   map[string]float64
	err      error
}

func (f *fakeScorer) Score(_ context.Context, extracted []entities.ExtractedEntity, topicKeywords []string, _ string) ([]scoring.ScoredEntity, error) {
	f.mu.Lock()
	f.keywords = append(f.keywords, topicKeywords)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]scoring.ScoredEntity, 0, len(extracted))
	for _, e := range extracted {
		score := 1.0
		if s, ok := f.scores[e.Entity]; ok {
			score = s
		}
		out = append(out, scoring.ScoredEntity{EntityName: e.Entity, Score: score, Category: e.Category})
	}
	return out, nil
}

func testLexicon(t *testing.T) *lexicon.Lexicon {
	t.Helper()
	lex, err := lexicon.New(map[string]lexicon.TechEntity{
		"MySQL": {
			Type:     "relational",
			Category: "Databases",
			Patterns: []lexicon.Pattern{{{Text: "mysql"}}},
		},
		"React": {
			Type:     "framework",
			Category: "Frontend",
			Patterns: []lexicon.Pattern{{{Text: "react"}}},
		},
	})
	if err != nil {
		t.Fatalf("lexicon.New: %v", err)
	}
	return lex
}

func testBlueprints() *blueprints.Matcher {
	return blueprints.NewMatcher([]blueprints.Blueprint{
		{Name: "web-db", Path: "stacks/web-db", Tags: []string{"MySQL", "React"}, Type: "Fullstack"},
		{Name: "db-only", Path: "stacks/db-only", Tags: []string{"MySQL"}, Type: "Backend"},
	}, blueprints.PolicyBestEffort)
}

func TestProcessSingleText(t *testing.T) {
	classifier := &fakeClassifier{result: topics.Result{TopicName: "Web Development", Keywords: []string{"web", "frontend"}}}
	scorer := &fakeScorer{scores: map[string]float64{"MySQL": 1.0, "React": 0.8}}
	svc := NewService(entities.NewMatcher(testLexicon(t)), classifier, scorer, testBlueprints())

	got, err := svc.Process(context.Background(), []string{"I use MySQL and React"})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 result, got %d", len(got))
	}
	res := got[0]
	if res.InputText != "I use MySQL and React" {
		t.Errorf("unexpected input text %q", res.InputText)
	}
	if res.PredictedTopicName != "Web Development" {
		t.Errorf("unexpected topic %q", res.PredictedTopicName)
	}
	wantEntities := []scoring.ScoredEntity{
		{EntityName: "MySQL", Score: 1.0, Category: "Databases"},
		{EntityName: "React", Score: 0.8, Category: "Frontend"},
	}
	if !reflect.DeepEqual(res.ExtractedEntities, wantEntities) {
		t.Errorf("entities = %+v, want %+v", res.ExtractedEntities, wantEntities)
	}
	wantRecs := []recommendations.Recommendation{
		{Category: "Databases", Recommendation: "MySQL"},
		{Category: "Frontend", Recommendation: "React"},
	}
	if !reflect.DeepEqual(res.Recommendations, wantRecs) {
		t.Errorf("recommendations = %+v, want %+v", res.Recommendations, wantRecs)
	}
	if want := [][]string{{"web", "frontend"}}; !reflect.DeepEqual(scorer.keywords, want) {
		t.Errorf("scorer keywords = %+v, want %+v", scorer.keywords, want)
	}
}

func TestProcessAppendsCategoriesForClassification(t *testing.T) {
	classifier := &fakeClassifier{result: topics.Result{TopicName: "Web Development"}}
	svc := NewService(entities.NewMatcher(testLexicon(t)), classifier, &fakeScorer{}, testBlueprints())

	if _, err := svc.Process(context.Background(), []string{"I use MySQL and React"}); err != nil {
		t.Fatalf("Process: %v", err)
	}
	want := "I use MySQL and React. Databases, Frontend"
	if len(classifier.inputs) != 1 || classifier.inputs[0] != want {
		t.Errorf("classifier input = %q, want %q", classifier.inputs, want)
	}
}

func TestProcessNoEntitiesLeavesTextUnchanged(t *testing.T) {
	classifier := &fakeClassifier{result: topics.Result{TopicName: "Unknown Topic"}}
	svc := NewService(entities.NewMatcher(testLexicon(t)), classifier, &fakeScorer{}, testBlueprints())

	got, err := svc.Process(context.Background(), []string{"nothing technical here"})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if classifier.inputs[0] != "nothing technical here" {
		t.Errorf("classifier input = %q, want original text", classifier.inputs[0])
	}
	if len(got[0].ExtractedEntities) != 0 {
		t.Errorf("expected no entities, got %+v", got[0].ExtractedEntities)
	}
	if len(got[0].Recommendations) != 0 {
		t.Errorf("expected no recommendations, got %+v", got[0].Recommendations)
	}
}

func TestProcessPreservesInputOrder(t *testing.T) {
	classifier := &fakeClassifier{result: topics.Result{TopicName: "Web Development"}}
	svc := NewService(entities.NewMatcher(testLexicon(t)), classifier, &fakeScorer{}, testBlueprints(), WithWorkers(2))

	texts := []string{
		"first mentions MySQL",
		"second mentions React",
		"third mentions MySQL and React",
		"fourth has nothing",
	}
	got, err := svc.Process(context.Background(), texts)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(got) != len(texts) {
		t.Fatalf("expected %d results, got %d", len(texts), len(got))
	}
	for i, res := range got {
		if res.InputText != texts[i] {
			t.Errorf("result %d input = %q, want %q", i, res.InputText, texts[i])
		}
	}
	if len(got[2].ExtractedEntities) != 2 {
		t.Errorf("third text entities = %+v, want two", got[2].ExtractedEntities)
	}
}

func TestProcessPropagatesFailure(t *testing.T) {
	wantErr := errors.New("model unavailable")
	classifier := &fakeClassifier{err: wantErr}
	svc := NewService(entities.NewMatcher(testLexicon(t)), classifier, &fakeScorer{}, testBlueprints())

	_, err := svc.Process(context.Background(), []string{"I use MySQL"})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped %v, got %v", wantErr, err)
	}
}

func TestProcessEmptyBatch(t *testing.T) {
	svc := NewService(entities.NewMatcher(testLexicon(t)), &fakeClassifier{}, &fakeScorer{}, testBlueprints())

	got, err := svc.Process(context.Background(), nil)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty results, got %+v", got)
	}
}

func TestMatchUnionsCriteria(t *testing.T) {
	svc := NewService(entities.NewMatcher(testLexicon(t)), &fakeClassifier{}, &fakeScorer{}, testBlueprints())

	recs := []recommendations.Recommendation{
		{Category: "Databases", Recommendation: "MySQL"},
	}
	got, err := svc.Match(recs, []string{"MySQL", "React"})
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	want := []blueprints.Match{
		{Name: "web-db", Path: "stacks/web-db", MatchedTags: []string{"MySQL", "React"}},
		{Name: "db-only", Path: "stacks/db-only", MatchedTags: []string{"MySQL"}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Match = %+v, want %+v", got, want)
	}
}

func TestMatchEmptyCriteria(t *testing.T) {
	svc := NewService(entities.NewMatcher(testLexicon(t)), &fakeClassifier{}, &fakeScorer{}, testBlueprints())

	_, err := svc.Match(nil, nil)
	if !errors.Is(err, blueprints.ErrNoRecommendations) {
		t.Fatalf("expected ErrNoRecommendations, got %v", err)
	}
}
