package db

import (
	"context"
	"database/sql"
)

// Domain snapshot reads. These tables belong to the host productivity app;
// the gateway consumes them read-only to build prompt context.

// Task is a to-do item snapshot.
type Task struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Status   string `json:"status"`
	Priority string `json:"priority,omitempty"`
	DueDate  string `json:"dueDate,omitempty"`
}

// Project is a project snapshot.
type Project struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// Goal is a goal snapshot.
type Goal struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	TargetDate string  `json:"targetDate,omitempty"`
	Progress   float64 `json:"progress"`
}

// Skill is a skill snapshot.
type Skill struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Level          string  `json:"level,omitempty"`
	HoursPracticed float64 `json:"hoursPracticed"`
}

// Book is a reading-list snapshot.
type Book struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author,omitempty"`
	Status string `json:"status"`
}

// BudgetCategory is one month's planned vs spent for a category.
type BudgetCategory struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Planned float64 `json:"planned"`
	Spent   float64 `json:"spent"`
	Month   string  `json:"month"`
}

// IncomeEntry is one income record for a month.
type IncomeEntry struct {
	ID     string  `json:"id"`
	Source string  `json:"source"`
	Amount float64 `json:"amount"`
	Month  string  `json:"month"`
}

// ListTasks returns a user's tasks, open first.
func (s *Store) ListTasks(ctx context.Context, userID string) ([]Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, status, priority, due_date FROM tasks
		WHERE user_id = ? ORDER BY status != 'open', created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		var t Task
		var priority, dueDate sql.NullString
		if err := rows.Scan(&t.ID, &t.Title, &t.Status, &priority, &dueDate); err != nil {
			return nil, err
		}
		t.Priority = priority.String
		t.DueDate = dueDate.String
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// ListProjects returns a user's projects.
func (s *Store) ListProjects(ctx context.Context, userID string) ([]Project, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, status FROM projects WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Status); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// ListGoals returns a user's goals.
func (s *Store) ListGoals(ctx context.Context, userID string) ([]Goal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, target_date, progress FROM goals WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var goals []Goal
	for rows.Next() {
		var g Goal
		var targetDate sql.NullString
		if err := rows.Scan(&g.ID, &g.Title, &targetDate, &g.Progress); err != nil {
			return nil, err
		}
		g.TargetDate = targetDate.String
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

// ListSkills returns a user's skills.
func (s *Store) ListSkills(ctx context.Context, userID string) ([]Skill, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, level, hours_practiced FROM skills WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var skills []Skill
	for rows.Next() {
		var sk Skill
		var level sql.NullString
		if err := rows.Scan(&sk.ID, &sk.Name, &level, &sk.HoursPracticed); err != nil {
			return nil, err
		}
		sk.Level = level.String
		skills = append(skills, sk)
	}
	return skills, rows.Err()
}

// ListBooks returns a user's reading list.
func (s *Store) ListBooks(ctx context.Context, userID string) ([]Book, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, author, status FROM books WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []Book
	for rows.Next() {
		var b Book
		var author sql.NullString
		if err := rows.Scan(&b.ID, &b.Title, &author, &b.Status); err != nil {
			return nil, err
		}
		b.Author = author.String
		books = append(books, b)
	}
	return books, rows.Err()
}

// ListBudgetCategories returns budget categories for a month.
func (s *Store) ListBudgetCategories(ctx context.Context, userID, month string) ([]BudgetCategory, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, planned, spent, month FROM budget_categories
		WHERE user_id = ? AND month = ? ORDER BY name`, userID, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []BudgetCategory
	for rows.Next() {
		var c BudgetCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.Planned, &c.Spent, &c.Month); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// ListIncomeEntries returns income entries for a month.
func (s *Store) ListIncomeEntries(ctx context.Context, userID, month string) ([]IncomeEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, amount, month FROM income_entries
		WHERE user_id = ? AND month = ? ORDER BY amount DESC`, userID, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []IncomeEntry
	for rows.Next() {
		var e IncomeEntry
		if err := rows.Scan(&e.ID, &e.Source, &e.Amount, &e.Month); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
