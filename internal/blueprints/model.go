package blueprints

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DefaultType buckets blueprints that declare no grouping type.
const DefaultType = "Other"

// Blueprint describes one starter template in the corpus.
type Blueprint struct {
	Name        string   `json:"name"`
	Path        string   `json:"path"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Type        string   `json:"type,omitempty"`
}

// Match is a selected blueprint annotated with the tags that drove the
// selection.
type Match struct {
	Name        string   `json:"name"`
	Path        string   `json:"path"`
	Description string   `json:"description"`
	MatchedTags []string `json:"matched_tags"`
}

// corpusEntry accepts both corpus shapes: a flat blueprint object, or a
// group object carrying a type and nested blueprints.
type corpusEntry struct {
	Name        string      `json:"name"`
	Path        string      `json:"path"`
	Description string      `json:"description"`
	Tags        []string    `json:"tags"`
	Type        string      `json:"type"`
	Blueprints  []Blueprint `json:"blueprints"`
}

// ParseCorpus decodes a corpus document. Grouped entries flatten into
// blueprints stamped with the group type; a missing type falls back to
// DefaultType.
func ParseCorpus(data []byte) ([]Blueprint, error) {
	var entries []corpusEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("blueprints: decode corpus: %w", err)
	}
	var out []Blueprint
	for i, entry := range entries {
		groupType := entry.Type
		if strings.TrimSpace(groupType) == "" {
			groupType = DefaultType
		}
		if len(entry.Blueprints) > 0 {
			for _, bp := range entry.Blueprints {
				bp.Type = groupType
				if err := validate(bp); err != nil {
					return nil, fmt.Errorf("blueprints: corpus entry %d: %w", i, err)
				}
				out = append(out, bp)
			}
			continue
		}
		flat := Blueprint{
			Name:        entry.Name,
			Path:        entry.Path,
			Description: entry.Description,
			Tags:        entry.Tags,
			Type:        groupType,
		}
		if err := validate(flat); err != nil {
			return nil, fmt.Errorf("blueprints: corpus entry %d: %w", i, err)
		}
		out = append(out, flat)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("blueprints: empty corpus")
	}
	return out, nil
}

func validate(bp Blueprint) error {
	if strings.TrimSpace(bp.Name) == "" {
		return fmt.Errorf("blueprint with empty name")
	}
	if len(bp.Tags) == 0 {
		return fmt.Errorf("blueprint %q has no tags", bp.Name)
	}
	return nil
}
