package entities

import (
	"fmt"
	"strings"

	"github.com/cgoncalves94/entity-recognition-backend/internal/lexicon"
)

// maxFuzzySpan bounds how many adjacent tokens a fuzzy rule may join, so a
// misspelling split across tokens ("Google Croud") still reaches its target
// ("googlecloud").
const maxFuzzySpan = 3

// ExtractedEntity is a lexicon hit found in a text, denormalized at
// extraction time. Repeated mentions are reported repeatedly.
type ExtractedEntity struct {
	Entity      string  `json:"entity"`
	Type        string  `json:"type"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Score       float64 `json:"score"`
}

// DesyncError reports a matcher hit whose key is missing from the lexicon.
// The matcher is built from the lexicon, so this is an internal consistency
// failure, not a per-request condition.
type DesyncError struct {
	Entity string
}

func (e DesyncError) Error() string {
	return fmt.Sprintf("entities: matched entity %q is not in the lexicon", e.Entity)
}

type compiledPattern struct {
	entity string
	rules  []lexicon.TokenRule
}

// Matcher scans tokenized text for lexicon patterns. Building it is a pure
// function of the lexicon; construct once at startup and share across
// requests.
type Matcher struct {
	lex      *lexicon.Lexicon
	patterns []compiledPattern
}

// NewMatcher compiles every pattern in the lexicon.
func NewMatcher(lex *lexicon.Lexicon) *Matcher {
	var patterns []compiledPattern
	for _, name := range lex.Names() {
		entity, _ := lex.Get(name)
		for _, pattern := range entity.Patterns {
			rules := make([]lexicon.TokenRule, len(pattern))
			for i, rule := range pattern {
				rules[i] = normalizeRule(rule)
			}
			patterns = append(patterns, compiledPattern{entity: name, rules: rules})
		}
	}
	return &Matcher{lex: lex, patterns: patterns}
}

func normalizeRule(rule lexicon.TokenRule) lexicon.TokenRule {
	rule.Text = strings.ToLower(rule.Text)
	rule.Fuzzy = strings.ToLower(rule.Fuzzy)
	if rule.Fuzzy != "" && rule.Distance == 0 {
		rule.Distance = defaultTolerance(rule.Fuzzy)
	}
	return rule
}

// defaultTolerance scales the permitted edit distance with target length.
func defaultTolerance(target string) int {
	tol := len(target) / 4
	if tol < 1 {
		tol = 1
	}
	return tol
}

// Extract returns one ExtractedEntity per pattern hit, in order of
// appearance. An entity matches at most once per start position even when
// several of its alias patterns fire there.
func (m *Matcher) Extract(text string) ([]ExtractedEntity, error) {
	tokens := Tokenize(text)
	var out []ExtractedEntity
	for pos := range tokens {
		seenAt := make(map[string]struct{})
		for _, cp := range m.patterns {
			if _, dup := seenAt[cp.entity]; dup {
				continue
			}
			if !matchAt(tokens, pos, cp.rules) {
				continue
			}
			seenAt[cp.entity] = struct{}{}
			entity, ok := m.lex.Get(cp.entity)
			if !ok {
				return nil, DesyncError{Entity: cp.entity}
			}
			out = append(out, ExtractedEntity{
				Entity:      cp.entity,
				Type:        entity.Type,
				Category:    entity.Category,
				Description: entity.Description,
				Score:       entity.Score,
			})
		}
	}
	return out, nil
}

// matchAt applies a rule sequence to tokens starting at pos. Exact rules
// consume one token; fuzzy rules consume the shortest span (up to
// maxFuzzySpan) whose concatenation is within the edit tolerance.
func matchAt(tokens []string, pos int, rules []lexicon.TokenRule) bool {
	i := pos
	for _, rule := range rules {
		if i >= len(tokens) {
			return false
		}
		if rule.Text != "" {
			if tokens[i] != rule.Text {
				return false
			}
			i++
			continue
		}
		consumed, ok := fuzzyConsume(tokens, i, rule.Fuzzy, rule.Distance)
		if !ok {
			return false
		}
		i += consumed
	}
	return true
}

func fuzzyConsume(tokens []string, pos int, target string, tolerance int) (int, bool) {
	joined := ""
	for span := 1; span <= maxFuzzySpan && pos+span <= len(tokens); span++ {
		joined += tokens[pos+span-1]
		if len(joined) > len(target)+tolerance {
			break
		}
		if levenshtein(joined, target) <= tolerance {
			return span, true
		}
	}
	return 0, false
}
