package blueprints

import (
	"errors"
	"fmt"
	"strings"
)

// Policy selects the blueprint eligibility rule.
type Policy string

const (
	// PolicyBestEffort picks the blueprint with the most matched tags per
	// group, ties broken by fewest total tags. Zero matched tags never wins.
	PolicyBestEffort Policy = "best-effort"
	// PolicyCoverage requires every tag of a blueprint to be covered by the
	// matching criteria; among covered blueprints the most tags wins.
	PolicyCoverage Policy = "coverage"
)

// ErrNoRecommendations reports that there was nothing to match against.
// Callers distinguish this from a successful run that matched nothing.
var ErrNoRecommendations = errors.New("blueprints: no recommendations to match")

// ParsePolicy resolves a configured policy name.
func ParsePolicy(raw string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(raw))) {
	case PolicyBestEffort, "":
		return PolicyBestEffort, nil
	case PolicyCoverage:
		return PolicyCoverage, nil
	default:
		return "", fmt.Errorf("blueprints: unknown match policy %q", raw)
	}
}

// Matcher selects the best blueprint per grouping type for a set of
// matching criteria (recommendation names plus extracted entity names).
type Matcher struct {
	corpus []Blueprint
	policy Policy
}

// NewMatcher builds a matcher over a loaded corpus.
func NewMatcher(corpus []Blueprint, policy Policy) *Matcher {
	if policy == "" {
		policy = PolicyBestEffort
	}
	return &Matcher{corpus: corpus, policy: policy}
}

// Match returns at most one Match per blueprint group. Groups without a
// qualifying winner are omitted; group order follows corpus order. An empty
// criteria set returns ErrNoRecommendations.
func (m *Matcher) Match(criteria []string) ([]Match, error) {
	criteriaSet := make(map[string]struct{}, len(criteria))
	for _, c := range criteria {
		if trimmed := strings.TrimSpace(c); trimmed != "" {
			criteriaSet[trimmed] = struct{}{}
		}
	}
	if len(criteriaSet) == 0 {
		return nil, ErrNoRecommendations
	}

	groups := make(map[string][]Blueprint)
	var groupOrder []string
	for _, bp := range m.corpus {
		groupType := bp.Type
		if groupType == "" {
			groupType = DefaultType
		}
		if _, seen := groups[groupType]; !seen {
			groupOrder = append(groupOrder, groupType)
		}
		groups[groupType] = append(groups[groupType], bp)
	}

	var matches []Match
	for _, groupType := range groupOrder {
		var winner *Match
		switch m.policy {
		case PolicyCoverage:
			winner = bestCovered(groups[groupType], criteriaSet)
		default:
			winner = bestEffort(groups[groupType], criteriaSet)
		}
		if winner != nil {
			matches = append(matches, *winner)
		}
	}
	return matches, nil
}

// bestCovered requires full tag coverage; among fully covered blueprints the
// one with the most matched tags wins, first seen on ties.
func bestCovered(group []Blueprint, criteria map[string]struct{}) *Match {
	var best *Match
	highest := 0
	for _, bp := range group {
		matched := matchedTags(bp, criteria)
		if len(matched) == len(bp.Tags) && len(matched) > highest {
			best = &Match{
				Name:        bp.Name,
				Path:        bp.Path,
				Description: bp.Description,
				MatchedTags: matched,
			}
			highest = len(matched)
		}
	}
	return best
}

// bestEffort picks the most matched tags, ties broken by fewest total tags.
// A winner with zero matched tags is discarded.
func bestEffort(group []Blueprint, criteria map[string]struct{}) *Match {
	var best *Match
	maxMatched := 0
	minTotal := int(^uint(0) >> 1)
	for _, bp := range group {
		matched := matchedTags(bp, criteria)
		if len(matched) > maxMatched || (len(matched) == maxMatched && len(bp.Tags) < minTotal) {
			best = &Match{
				Name:        bp.Name,
				Path:        bp.Path,
				Description: bp.Description,
				MatchedTags: matched,
			}
			maxMatched = len(matched)
			minTotal = len(bp.Tags)
		}
	}
	if best == nil || len(best.MatchedTags) == 0 {
		return nil
	}
	return best
}

// matchedTags preserves blueprint tag order so results are deterministic.
func matchedTags(bp Blueprint, criteria map[string]struct{}) []string {
	var out []string
	for _, tag := range bp.Tags {
		if _, ok := criteria[tag]; ok {
			out = append(out, tag)
		}
	}
	return out
}
