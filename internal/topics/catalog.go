package topics

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// OutlierID is the reserved noise topic produced by density-based topic
// models for texts that fit no cluster.
const OutlierID = -1

// UnknownTopic is the sentinel label for the outlier topic and for any
// topic id missing from the catalog.
const UnknownTopic = "Unknown Topic"

// CatalogEntry describes one topic of the pretrained model: its id, its
// human-readable name and its representative keywords.
type CatalogEntry struct {
	ID       int      `json:"id"`
	Name     string   `json:"name"`
	Keywords []string `json:"keywords"`
}

// LoadCatalog reads the topic catalog JSON. A missing or malformed catalog
// is a fatal startup error.
func LoadCatalog(path string) ([]CatalogEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("topics: read catalog %s: %w", path, err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates catalog entries.
func ParseCatalog(data []byte) ([]CatalogEntry, error) {
	var entries []CatalogEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("topics: decode catalog: %w", err)
	}
	seen := make(map[int]struct{}, len(entries))
	regular := 0
	for _, entry := range entries {
		if _, dup := seen[entry.ID]; dup {
			return nil, fmt.Errorf("topics: duplicate topic id %d", entry.ID)
		}
		seen[entry.ID] = struct{}{}
		if entry.ID == OutlierID {
			continue
		}
		regular++
		if strings.TrimSpace(entry.Name) == "" {
			return nil, fmt.Errorf("topics: topic %d has no name", entry.ID)
		}
		if len(entry.Keywords) == 0 {
			return nil, fmt.Errorf("topics: topic %d has no keywords", entry.ID)
		}
	}
	if regular == 0 {
		return nil, fmt.Errorf("topics: catalog has no regular topics")
	}
	return entries, nil
}
