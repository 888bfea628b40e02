package domain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lumahq/luma/internal/db"
)

// Reader supplies the read-only domain collections. Satisfied by db.Store;
// the gateway never writes these tables.
type Reader interface {
	ListTasks(ctx context.Context, userID string) ([]db.Task, error)
	ListProjects(ctx context.Context, userID string) ([]db.Project, error)
	ListGoals(ctx context.Context, userID string) ([]db.Goal, error)
	ListSkills(ctx context.Context, userID string) ([]db.Skill, error)
	ListBooks(ctx context.Context, userID string) ([]db.Book, error)
	ListBudgetCategories(ctx context.Context, userID, month string) ([]db.BudgetCategory, error)
	ListIncomeEntries(ctx context.Context, userID, month string) ([]db.IncomeEntry, error)
}

// Summary is one built snapshot: prompt-ready text plus the structured data
// behind it for API responses.
type Summary struct {
	Context string         `json:"context"`
	Text    string         `json:"text"`
	Data    map[string]any `json:"data"`
}

// Builder assembles summaries from the snapshot tables.
type Builder struct {
	reader Reader
	now    func() time.Time
}

// NewBuilder creates a summary builder over a domain reader.
func NewBuilder(reader Reader) *Builder {
	return &Builder{reader: reader, now: time.Now}
}

// Build produces the summary for one context kind.
func (b *Builder) Build(ctx context.Context, userID string, kind Context) (*Summary, error) {
	switch kind {
	case Productivity:
		return b.buildProductivity(ctx, userID)
	case Finance:
		return b.buildFinance(ctx, userID)
	case Learning:
		return b.buildLearning(ctx, userID)
	case Goals:
		return b.buildGoals(ctx, userID)
	case General:
		return b.buildGeneral(ctx, userID)
	default:
		return nil, fmt.Errorf("unknown context kind %d", kind)
	}
}

func (b *Builder) buildProductivity(ctx context.Context, userID string) (*Summary, error) {
	tasks, err := b.reader.ListTasks(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read tasks: %w", err)
	}
	projects, err := b.reader.ListProjects(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read projects: %w", err)
	}

	open := 0
	var text strings.Builder
	text.WriteString("Open tasks:\n")
	for _, t := range tasks {
		if t.Status != "open" {
			continue
		}
		open++
		text.WriteString("- " + t.Title)
		if t.DueDate != "" {
			text.WriteString(" (due " + t.DueDate + ")")
		}
		text.WriteString("\n")
	}
	if open == 0 {
		text.WriteString("- none\n")
	}
	text.WriteString("Active projects:\n")
	active := 0
	for _, p := range projects {
		if p.Status != "active" {
			continue
		}
		active++
		text.WriteString("- " + p.Name + "\n")
	}
	if active == 0 {
		text.WriteString("- none\n")
	}

	return &Summary{
		Context: Productivity.String(),
		Text:    text.String(),
		Data: map[string]any{
			"tasks":    tasks,
			"projects": projects,
		},
	}, nil
}

func (b *Builder) buildFinance(ctx context.Context, userID string) (*Summary, error) {
	month := b.now().Format("2006-01")
	categories, err := b.reader.ListBudgetCategories(ctx, userID, month)
	if err != nil {
		return nil, fmt.Errorf("failed to read budget categories: %w", err)
	}
	income, err := b.reader.ListIncomeEntries(ctx, userID, month)
	if err != nil {
		return nil, fmt.Errorf("failed to read income entries: %w", err)
	}

	var planned, spent, totalIncome float64
	var text strings.Builder
	text.WriteString("Budget for " + month + ":\n")
	for _, c := range categories {
		planned += c.Planned
		spent += c.Spent
		fmt.Fprintf(&text, "- %s: spent %.2f of %.2f\n", c.Name, c.Spent, c.Planned)
	}
	for _, e := range income {
		totalIncome += e.Amount
	}
	fmt.Fprintf(&text, "Totals: income %.2f, planned %.2f, spent %.2f\n", totalIncome, planned, spent)

	return &Summary{
		Context: Finance.String(),
		Text:    text.String(),
		Data: map[string]any{
			"month":       month,
			"categories":  categories,
			"income":      income,
			"totalIncome": totalIncome,
			"planned":     planned,
			"spent":       spent,
		},
	}, nil
}

func (b *Builder) buildLearning(ctx context.Context, userID string) (*Summary, error) {
	skills, err := b.reader.ListSkills(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read skills: %w", err)
	}
	books, err := b.reader.ListBooks(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read books: %w", err)
	}

	var text strings.Builder
	text.WriteString("Skills in progress:\n")
	for _, s := range skills {
		fmt.Fprintf(&text, "- %s (%.0f hours practiced)\n", s.Name, s.HoursPracticed)
	}
	text.WriteString("Reading list:\n")
	for _, bk := range books {
		line := "- " + bk.Title
		if bk.Author != "" {
			line += " by " + bk.Author
		}
		text.WriteString(line + " [" + bk.Status + "]\n")
	}

	return &Summary{
		Context: Learning.String(),
		Text:    text.String(),
		Data: map[string]any{
			"skills": skills,
			"books":  books,
		},
	}, nil
}

func (b *Builder) buildGoals(ctx context.Context, userID string) (*Summary, error) {
	goals, err := b.reader.ListGoals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read goals: %w", err)
	}

	var text strings.Builder
	text.WriteString("Goals:\n")
	for _, g := range goals {
		fmt.Fprintf(&text, "- %s: %.0f%% complete", g.Title, g.Progress*100)
		if g.TargetDate != "" {
			text.WriteString(" (target " + g.TargetDate + ")")
		}
		text.WriteString("\n")
	}
	if len(goals) == 0 {
		text.WriteString("- none\n")
	}

	return &Summary{
		Context: Goals.String(),
		Text:    text.String(),
		Data:    map[string]any{"goals": goals},
	}, nil
}

// buildGeneral stitches a short line from each area rather than the full
// per-area detail.
func (b *Builder) buildGeneral(ctx context.Context, userID string) (*Summary, error) {
	tasks, err := b.reader.ListTasks(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read tasks: %w", err)
	}
	goals, err := b.reader.ListGoals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read goals: %w", err)
	}
	skills, err := b.reader.ListSkills(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read skills: %w", err)
	}
	books, err := b.reader.ListBooks(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read books: %w", err)
	}

	open := 0
	for _, t := range tasks {
		if t.Status == "open" {
			open++
		}
	}
	reading := 0
	for _, bk := range books {
		if bk.Status == "reading" {
			reading++
		}
	}

	text := fmt.Sprintf("The user has %d open tasks, %d goals, %d skills in progress, and %d books being read.\n",
		open, len(goals), len(skills), reading)

	return &Summary{
		Context: General.String(),
		Text:    text,
		Data: map[string]any{
			"openTasks":  open,
			"goalCount":  len(goals),
			"skillCount": len(skills),
			"reading":    reading,
		},
	}, nil
}
