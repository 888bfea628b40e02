// Package domain builds read-only snapshots of the user's productivity data
// for prompt context and dashboard display. Context kinds form a closed enum
// with one explicit builder per kind.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownContext is returned for context names outside the enum.
var ErrUnknownContext = errors.New("unknown context")

// Context selects which slice of the user's data a summary covers.
type Context int

const (
	General Context = iota
	Productivity
	Finance
	Learning
	Goals
)

// contextNames is the wire representation of each kind.
var contextNames = map[Context]string{
	General:      "general",
	Productivity: "productivity",
	Finance:      "finance",
	Learning:     "learning",
	Goals:        "goals",
}

func (c Context) String() string {
	if name, ok := contextNames[c]; ok {
		return name
	}
	return "unknown"
}

// ParseContext maps a wire name to a context kind. Unknown names are an
// error so handlers can reject them with a 400.
func ParseContext(name string) (Context, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "general":
		return General, nil
	case "productivity":
		return Productivity, nil
	case "finance":
		return Finance, nil
	case "learning":
		return Learning, nil
	case "goals":
		return Goals, nil
	default:
		return General, fmt.Errorf("%w %q", ErrUnknownContext, name)
	}
}

// ContextInfo describes one catalog entry for the contexts endpoint.
type ContextInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Catalog lists every context kind with a human description.
func Catalog() []ContextInfo {
	return []ContextInfo{
		{Name: General.String(), Description: "Cross-cutting overview of tasks, finances, learning, and goals"},
		{Name: Productivity.String(), Description: "Open tasks and active projects"},
		{Name: Finance.String(), Description: "Current month budget categories and income"},
		{Name: Learning.String(), Description: "Skills in progress and the reading list"},
		{Name: Goals.String(), Description: "Goals with target dates and progress"},
	}
}
