// Package entity scans chat messages for references to the user's domain
// records (books, projects, goals, skills) and for actionable intents. It is
// advisory only: it annotates prompts and response metadata, never mutates
// domain state, and its failures never block a chat request.
package entity

import (
	"context"

	"github.com/lumahq/luma/internal/db"
	"github.com/lumahq/luma/internal/logging"
)

// Match is one recognized entity reference.
type Match struct {
	Type        string  `json:"type"` // book, project, goal, skill
	ID          string  `json:"id"`
	DisplayName string  `json:"displayName"`
	Confidence  float64 `json:"confidence"`
}

// Suggestion is an actionable intent extracted from the message.
type Suggestion struct {
	Action string `json:"action"` // create-task, finish-reading, start-learning, set-goal
	Text   string `json:"text"`
}

// Result groups matches per collection plus any intent suggestions.
type Result struct {
	Books       []Match      `json:"books"`
	Projects    []Match      `json:"projects"`
	Goals       []Match      `json:"goals"`
	Skills      []Match      `json:"skills"`
	Suggestions []Suggestion `json:"suggestions"`
}

// Empty reports whether nothing was recognized.
func (r *Result) Empty() bool {
	return len(r.Books) == 0 && len(r.Projects) == 0 && len(r.Goals) == 0 &&
		len(r.Skills) == 0 && len(r.Suggestions) == 0
}

// Candidate is one known entity offered to a Matcher. Aliases carry
// secondary match keys (a book's author, for instance).
type Candidate struct {
	Type        string
	ID          string
	DisplayName string
	Aliases     []string
}

// Matcher is the pluggable matching strategy. The matching policy is
// heuristic and expected to evolve, so it hides behind this interface
// rather than being baked into the linker.
type Matcher interface {
	MatchEntities(message string, candidates []Candidate) []Match
	DetectIntents(message string) []Suggestion
}

// Source supplies the read-only domain collections to scan against.
// Satisfied by db.Store.
type Source interface {
	ListBooks(ctx context.Context, userID string) ([]db.Book, error)
	ListProjects(ctx context.Context, userID string) ([]db.Project, error)
	ListGoals(ctx context.Context, userID string) ([]db.Goal, error)
	ListSkills(ctx context.Context, userID string) ([]db.Skill, error)
}

// Linker detects entity references and intents in a message.
type Linker struct {
	source  Source
	matcher Matcher
}

// NewLinker creates an entity linker. A nil matcher gets the default
// substring strategy.
func NewLinker(source Source, matcher Matcher) *Linker {
	if matcher == nil {
		matcher = NewSubstringMatcher()
	}
	return &Linker{source: source, matcher: matcher}
}

// DetectEntities scans the message against the user's collections. A failed
// collection fetch is logged and skipped so one bad table never blocks the
// chat path.
func (l *Linker) DetectEntities(ctx context.Context, userID, message string) *Result {
	result := &Result{}

	if books, err := l.source.ListBooks(ctx, userID); err != nil {
		logging.Warnf("Entity detection skipping books: %v", err)
	} else {
		result.Books = l.matcher.MatchEntities(message, bookCandidates(books))
	}

	if projects, err := l.source.ListProjects(ctx, userID); err != nil {
		logging.Warnf("Entity detection skipping projects: %v", err)
	} else {
		result.Projects = l.matcher.MatchEntities(message, projectCandidates(projects))
	}

	if goals, err := l.source.ListGoals(ctx, userID); err != nil {
		logging.Warnf("Entity detection skipping goals: %v", err)
	} else {
		result.Goals = l.matcher.MatchEntities(message, goalCandidates(goals))
	}

	if skills, err := l.source.ListSkills(ctx, userID); err != nil {
		logging.Warnf("Entity detection skipping skills: %v", err)
	} else {
		result.Skills = l.matcher.MatchEntities(message, skillCandidates(skills))
	}

	result.Suggestions = l.matcher.DetectIntents(message)
	return result
}

func bookCandidates(books []db.Book) []Candidate {
	out := make([]Candidate, 0, len(books))
	for _, b := range books {
		c := Candidate{Type: "book", ID: b.ID, DisplayName: b.Title}
		if b.Author != "" {
			c.Aliases = []string{b.Author}
		}
		out = append(out, c)
	}
	return out
}

func projectCandidates(projects []db.Project) []Candidate {
	out := make([]Candidate, 0, len(projects))
	for _, p := range projects {
		out = append(out, Candidate{Type: "project", ID: p.ID, DisplayName: p.Name})
	}
	return out
}

func goalCandidates(goals []db.Goal) []Candidate {
	out := make([]Candidate, 0, len(goals))
	for _, g := range goals {
		out = append(out, Candidate{Type: "goal", ID: g.ID, DisplayName: g.Title})
	}
	return out
}

func skillCandidates(skills []db.Skill) []Candidate {
	out := make([]Candidate, 0, len(skills))
	for _, s := range skills {
		out = append(out, Candidate{Type: "skill", ID: s.ID, DisplayName: s.Name})
	}
	return out
}
