package entity

import (
	"regexp"
	"strings"
)

// substringConfidence is a fixed placeholder score, not a calibrated
// probability. A future scored matcher can replace it behind the Matcher
// interface.
const substringConfidence = 0.9

var intentPatterns = []struct {
	action  string
	pattern *regexp.Regexp
}{
	{"create-task", regexp.MustCompile(`(?i)(?:add|create)(?:\s+a)?\s+task:?\s+(.+)`)},
	{"finish-reading", regexp.MustCompile(`(?i)finish(?:ed)?\s+reading\s+(.+)`)},
	{"start-learning", regexp.MustCompile(`(?i)start(?:ed)?\s+learning\s+(.+)`)},
	{"set-goal", regexp.MustCompile(`(?i)(?:set|new)\s+goal:?\s+(.+)`)},
}

// SubstringMatcher is the default strategy: case-insensitive substring
// containment for entities, fixed regex patterns for intents.
type SubstringMatcher struct{}

// NewSubstringMatcher returns the default matcher.
func NewSubstringMatcher() *SubstringMatcher {
	return &SubstringMatcher{}
}

// MatchEntities reports candidates whose display name or alias appears in
// the message, ignoring case.
func (m *SubstringMatcher) MatchEntities(message string, candidates []Candidate) []Match {
	lower := strings.ToLower(message)

	var matches []Match
	for _, c := range candidates {
		if m.contains(lower, c.DisplayName) || m.containsAny(lower, c.Aliases) {
			matches = append(matches, Match{
				Type:        c.Type,
				ID:          c.ID,
				DisplayName: c.DisplayName,
				Confidence:  substringConfidence,
			})
		}
	}
	return matches
}

func (m *SubstringMatcher) contains(lowerMessage, name string) bool {
	return name != "" && strings.Contains(lowerMessage, strings.ToLower(name))
}

func (m *SubstringMatcher) containsAny(lowerMessage string, names []string) bool {
	for _, name := range names {
		if m.contains(lowerMessage, name) {
			return true
		}
	}
	return false
}

// DetectIntents runs every intent pattern over the message. Patterns fire
// independently, so one message can yield several suggestions.
func (m *SubstringMatcher) DetectIntents(message string) []Suggestion {
	var suggestions []Suggestion
	for _, p := range intentPatterns {
		if sub := p.pattern.FindStringSubmatch(message); sub != nil {
			suggestions = append(suggestions, Suggestion{
				Action: p.action,
				Text:   strings.TrimSpace(sub[1]),
			})
		}
	}
	return suggestions
}
