package blueprints

import (
	"context"
	"path/filepath"
	"testing"
)

func TestFileStoreLoadFlattensGroups(t *testing.T) {
	store := FileStore{Path: filepath.Join("testdata", "blueprints.json")}
	corpus, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(corpus) != 5 {
		t.Fatalf("expected 5 blueprints after flattening, got %d", len(corpus))
	}

	byName := make(map[string]Blueprint, len(corpus))
	for _, bp := range corpus {
		byName[bp.Name] = bp
	}
	if byName["Node.js Express Starter"].Type != "backend" {
		t.Fatalf("grouped blueprint lost its group type: %+v", byName["Node.js Express Starter"])
	}
	if byName["AWS Configure"].Type != "cloud" {
		t.Fatalf("flat blueprint type mishandled: %+v", byName["AWS Configure"])
	}
	if byName["React SPA"].Type != DefaultType {
		t.Fatalf("expected default type %q, got %q", DefaultType, byName["React SPA"].Type)
	}
}

func TestParseCorpusRejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{name: "not_json", data: `{`},
		{name: "empty", data: `[]`},
		{name: "missing_name", data: `[{"path":"p","tags":["X"]}]`},
		{name: "missing_tags", data: `[{"name":"N","path":"p"}]`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseCorpus([]byte(tc.data)); err == nil {
				t.Fatalf("expected parse error")
			}
		})
	}
}
