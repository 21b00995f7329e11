package blueprints

import (
	"context"
	"fmt"
	"os"
)

// Store loads the blueprint corpus from an external source, once at
// startup.
type Store interface {
	Load(ctx context.Context) ([]Blueprint, error)
}

// FileStore reads the corpus from a JSON document.
type FileStore struct {
	Path string
}

// Load reads and validates the corpus file.
func (s FileStore) Load(_ context.Context) ([]Blueprint, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("blueprints: read corpus %s: %w", s.Path, err)
	}
	return ParseCorpus(data)
}

// MemoryStore serves a fixed corpus, mainly for tests.
type MemoryStore struct {
	Blueprints []Blueprint
}

// Load returns the corpus as provided.
func (s MemoryStore) Load(_ context.Context) ([]Blueprint, error) {
	if len(s.Blueprints) == 0 {
		return nil, fmt.Errorf("blueprints: empty corpus")
	}
	return s.Blueprints, nil
}
