package domain

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/lumahq/luma/internal/db"
)

type fakeReader struct {
	tasks      []db.Task
	projects   []db.Project
	goals      []db.Goal
	skills     []db.Skill
	books      []db.Book
	categories []db.BudgetCategory
	income     []db.IncomeEntry
}

func (f *fakeReader) ListTasks(ctx context.Context, userID string) ([]db.Task, error) {
	return f.tasks, nil
}
func (f *fakeReader) ListProjects(ctx context.Context, userID string) ([]db.Project, error) {
	return f.projects, nil
}
func (f *fakeReader) ListGoals(ctx context.Context, userID string) ([]db.Goal, error) {
	return f.goals, nil
}
func (f *fakeReader) ListSkills(ctx context.Context, userID string) ([]db.Skill, error) {
	return f.skills, nil
}
func (f *fakeReader) ListBooks(ctx context.Context, userID string) ([]db.Book, error) {
	return f.books, nil
}
func (f *fakeReader) ListBudgetCategories(ctx context.Context, userID, month string) ([]db.BudgetCategory, error) {
	return f.categories, nil
}
func (f *fakeReader) ListIncomeEntries(ctx context.Context, userID, month string) ([]db.IncomeEntry, error) {
	return f.income, nil
}

func TestParseContext(t *testing.T) {
	valid := map[string]Context{
		"general":      General,
		"productivity": Productivity,
		"FINANCE":      Finance,
		"learning":     Learning,
		"goals":        Goals,
		"":             General,
	}
	for name, want := range valid {
		got, err := ParseContext(name)
		if err != nil {
			t.Errorf("ParseContext(%q) failed: %v", name, err)
		}
		if got != want {
			t.Errorf("ParseContext(%q) = %v, want %v", name, got, want)
		}
	}

	if _, err := ParseContext("astrology"); err == nil {
		t.Error("expected error for unknown context")
	}
}

func TestCatalogCoversAllKinds(t *testing.T) {
	catalog := Catalog()
	if len(catalog) != 5 {
		t.Fatalf("expected 5 catalog entries, got %d", len(catalog))
	}
	for _, info := range catalog {
		if _, err := ParseContext(info.Name); err != nil {
			t.Errorf("catalog entry %q does not parse: %v", info.Name, err)
		}
	}
}

func TestBuildProductivity(t *testing.T) {
	reader := &fakeReader{
		tasks: []db.Task{
			{ID: "t1", Title: "Water plants", Status: "open", DueDate: "2026-09-01"},
			{ID: "t2", Title: "Old chore", Status: "done"},
		},
		projects: []db.Project{{ID: "p1", Name: "Garden Redesign", Status: "active"}},
	}

	sum, err := NewBuilder(reader).Build(context.Background(), "u1", Productivity)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if !strings.Contains(sum.Text, "Water plants") {
		t.Errorf("expected open task in text, got %q", sum.Text)
	}
	if strings.Contains(sum.Text, "Old chore") {
		t.Errorf("done tasks must not appear, got %q", sum.Text)
	}
	if !strings.Contains(sum.Text, "Garden Redesign") {
		t.Errorf("expected active project in text, got %q", sum.Text)
	}
}

func TestBuildFinanceTotals(t *testing.T) {
	reader := &fakeReader{
		categories: []db.BudgetCategory{
			{Name: "Groceries", Planned: 400, Spent: 250},
			{Name: "Transport", Planned: 100, Spent: 80},
		},
		income: []db.IncomeEntry{{Source: "Salary", Amount: 3000}},
	}

	b := NewBuilder(reader)
	b.now = func() time.Time { return time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC) }

	sum, err := b.Build(context.Background(), "u1", Finance)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if sum.Data["planned"].(float64) != 500 || sum.Data["spent"].(float64) != 330 {
		t.Errorf("unexpected totals: %+v", sum.Data)
	}
	if !strings.Contains(sum.Text, "2026-08") {
		t.Errorf("expected current month in text, got %q", sum.Text)
	}
}

func TestBuildGeneralCounts(t *testing.T) {
	reader := &fakeReader{
		tasks:  []db.Task{{Status: "open"}, {Status: "open"}, {Status: "done"}},
		goals:  []db.Goal{{Title: "g"}},
		skills: []db.Skill{{Name: "s"}},
		books:  []db.Book{{Title: "b", Status: "reading"}},
	}

	sum, err := NewBuilder(reader).Build(context.Background(), "u1", General)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if !strings.Contains(sum.Text, "2 open tasks") {
		t.Errorf("expected open task count, got %q", sum.Text)
	}
}
