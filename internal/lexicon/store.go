package lexicon

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// Store loads the entity corpus from an external source. Loading happens
// once at startup; a failure here is fatal.
type Store interface {
	Load(ctx context.Context) (*Lexicon, error)
}

// FileStore reads the corpus from a JSON document mapping entity name to
// entity fields.
type FileStore struct {
	Path string
}

// Load reads and validates the corpus file.
func (s FileStore) Load(_ context.Context) (*Lexicon, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("lexicon: read corpus %s: %w", s.Path, err)
	}
	var raw map[string]TechEntity
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("lexicon: decode corpus %s: %w", s.Path, err)
	}
	return New(raw)
}

// MemoryStore serves a fixed entity map, mainly for tests.
type MemoryStore struct {
	Entities map[string]TechEntity
}

// Load validates the in-memory entity map.
func (s MemoryStore) Load(_ context.Context) (*Lexicon, error) {
	return New(s.Entities)
}
