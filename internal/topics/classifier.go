package topics

import (
	"context"
	"fmt"

	"github.com/cgoncalves94/entity-recognition-backend/internal/embeddings"
)

// Embedder is the embedding surface the classifier needs.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Result of classifying one text.
type Result struct {
	TopicName string   `json:"topic_name"`
	Keywords  []string `json:"keywords"`
}

// defaultTopKeywords caps how many keywords a Result carries.
const defaultTopKeywords = 10

// defaultOutlierThreshold is the minimum centroid similarity below which a
// text is assigned the outlier topic.
const defaultOutlierThreshold = 0.30

type centroid struct {
	id       int
	keywords []string
	vector   []float32
}

// Classifier assigns texts to the nearest topic centroid. Centroids are
// computed once from the catalog's keyword embeddings at construction; the
// classifier is read-only afterwards and safe for concurrent use.
type Classifier struct {
	embedder  Embedder
	names     map[int]string
	centroids []centroid
	outlier   []string
	topN      int
	threshold float64
}

// Option tunes classifier construction.
type Option func(*Classifier)

// WithTopKeywords overrides the number of keywords returned per result.
func WithTopKeywords(n int) Option {
	return func(c *Classifier) {
		if n > 0 {
			c.topN = n
		}
	}
}

// WithOutlierThreshold overrides the minimum similarity for a regular
// topic assignment.
func WithOutlierThreshold(threshold float64) Option {
	return func(c *Classifier) {
		c.threshold = threshold
	}
}

// NewClassifier builds the id→name table and topic centroids from the
// catalog. Each centroid is the mean of its topic's keyword embeddings;
// keyword lookups are batched per topic.
func NewClassifier(ctx context.Context, embedder Embedder, catalog []CatalogEntry, opts ...Option) (*Classifier, error) {
	c := &Classifier{
		embedder:  embedder,
		names:     make(map[int]string, len(catalog)),
		topN:      defaultTopKeywords,
		threshold: defaultOutlierThreshold,
	}
	for _, opt := range opts {
		opt(c)
	}

	for _, entry := range catalog {
		if entry.ID == OutlierID {
			c.outlier = entry.Keywords
			continue
		}
		c.names[entry.ID] = entry.Name
		vectors, err := embedder.EmbedTexts(ctx, entry.Keywords)
		if err != nil {
			return nil, fmt.Errorf("topics: embed keywords for topic %d: %w", entry.ID, err)
		}
		c.centroids = append(c.centroids, centroid{
			id:       entry.ID,
			keywords: entry.Keywords,
			vector:   meanVector(vectors),
		})
	}
	return c, nil
}

// Classify embeds the text and picks the nearest topic centroid. Outlier
// assignments and ids missing from the name table both yield UnknownTopic
// rather than an error.
func (c *Classifier) Classify(ctx context.Context, text string) (Result, error) {
	vec, err := c.embedder.EmbedText(ctx, text)
	if err != nil {
		return Result{}, fmt.Errorf("topics: embed text: %w", err)
	}

	bestID := OutlierID
	bestKeywords := c.outlier
	bestScore := c.threshold
	for _, cen := range c.centroids {
		score := embeddings.Cosine(vec, cen.vector)
		if score > bestScore {
			bestID = cen.id
			bestKeywords = cen.keywords
			bestScore = score
		}
	}

	name, ok := c.names[bestID]
	if bestID == OutlierID || !ok {
		name = UnknownTopic
	}
	keywords := bestKeywords
	if len(keywords) > c.topN {
		keywords = keywords[:c.topN]
	}
	out := make([]string, len(keywords))
	copy(out, keywords)
	return Result{TopicName: name, Keywords: out}, nil
}

func meanVector(vectors [][]float32) []float32 {
	if len(vectors) == 0 {
		return nil
	}
	dim := len(vectors[0])
	mean := make([]float32, dim)
	for _, vec := range vectors {
		for i := 0; i < dim && i < len(vec); i++ {
			mean[i] += vec[i]
		}
	}
	inv := float32(1) / float32(len(vectors))
	for i := range mean {
		mean[i] *= inv
	}
	return mean
}
