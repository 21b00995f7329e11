package lexicon

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultCategory is assigned to entities loaded without a category.
const DefaultCategory = "Uncategorized"

// TokenRule matches a single input token. Exactly one of Text or Fuzzy is
// set: Text compares case-insensitively, Fuzzy tolerates a bounded edit
// distance (derived from the target length when Distance is zero).
type TokenRule struct {
	Text     string `json:"text,omitempty"`
	Fuzzy    string `json:"fuzzy,omitempty"`
	Distance int    `json:"distance,omitempty"`
}

// Pattern is an ordered token sequence matched against consecutive tokens.
type Pattern []TokenRule

// TechEntity is one known technology in the corpus. Records are immutable
// after load.
type TechEntity struct {
	Type                string    `json:"type"`
	Category            string    `json:"category"`
	Description         string    `json:"description"`
	Score               float64   `json:"score"`
	Patterns            []Pattern `json:"patterns"`
	RelatedTechnologies []string  `json:"relatedTechnologies,omitempty"`
}

// Lexicon is the read-only corpus of known technology entities. Safe for
// unlimited concurrent readers.
type Lexicon struct {
	entities map[string]TechEntity
	names    []string
}

// New validates the raw entity map and builds a Lexicon. Validation failures
// are fatal configuration errors: the caller should not start with a
// partially usable corpus.
func New(raw map[string]TechEntity) (*Lexicon, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("lexicon: empty entity corpus")
	}
	entities := make(map[string]TechEntity, len(raw))
	names := make([]string, 0, len(raw))
	for name, entity := range raw {
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("lexicon: entity with empty name")
		}
		if strings.TrimSpace(entity.Category) == "" {
			entity.Category = DefaultCategory
		}
		for pi, pattern := range entity.Patterns {
			if len(pattern) == 0 {
				return nil, fmt.Errorf("lexicon: entity %q pattern %d is empty", name, pi)
			}
			for ri, rule := range pattern {
				if err := validateRule(rule); err != nil {
					return nil, fmt.Errorf("lexicon: entity %q pattern %d rule %d: %w", name, pi, ri, err)
				}
			}
		}
		entities[name] = entity
		names = append(names, name)
	}
	for name, entity := range entities {
		for _, related := range entity.RelatedTechnologies {
			if _, ok := entities[related]; !ok {
				return nil, fmt.Errorf("lexicon: entity %q references unknown related technology %q", name, related)
			}
		}
	}
	sort.Strings(names)
	return &Lexicon{entities: entities, names: names}, nil
}

func validateRule(rule TokenRule) error {
	hasText := strings.TrimSpace(rule.Text) != ""
	hasFuzzy := strings.TrimSpace(rule.Fuzzy) != ""
	if hasText == hasFuzzy {
		return fmt.Errorf("rule must set exactly one of text or fuzzy")
	}
	if rule.Distance < 0 {
		return fmt.Errorf("negative fuzzy distance %d", rule.Distance)
	}
	if rule.Distance > 0 && !hasFuzzy {
		return fmt.Errorf("distance set on a non-fuzzy rule")
	}
	return nil
}

// Get returns the entity for a canonical name.
func (l *Lexicon) Get(name string) (TechEntity, bool) {
	entity, ok := l.entities[name]
	return entity, ok
}

// Names returns all entity names in sorted order.
func (l *Lexicon) Names() []string {
	out := make([]string, len(l.names))
	copy(out, l.names)
	return out
}

// Len reports the number of entities in the corpus.
func (l *Lexicon) Len() int {
	return len(l.entities)
}
