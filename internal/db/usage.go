package db

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PeriodKind distinguishes the two ledger granularities.
type PeriodKind string

const (
	PeriodDaily   PeriodKind = "daily"
	PeriodMonthly PeriodKind = "monthly"
)

// UsageEntry is one ledger row: accumulated spend for a user in a period.
type UsageEntry struct {
	UserID       string  `json:"userId"`
	PeriodKind   string  `json:"periodKind"`
	Period       string  `json:"period"`
	TotalCost    float64 `json:"totalCost"`
	RequestCount int     `json:"requestCount"`
}

// AddUsage accumulates cost into a ledger row, creating it lazily on the
// first request of a period. The conditional upsert makes the increment
// atomic, so recorded spend is monotonically non-decreasing.
func (s *Store) AddUsage(ctx context.Context, userID string, kind PeriodKind, period string, cost float64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO usage_ledger (user_id, period_kind, period, total_cost, request_count, updated_at)
		VALUES (?, ?, ?, ?, 1, ?)
		ON CONFLICT (user_id, period_kind, period)
		DO UPDATE SET total_cost = total_cost + excluded.total_cost,
		              request_count = request_count + 1,
		              updated_at = excluded.updated_at`,
		userID, string(kind), period, cost, time.Now().Unix())
	return err
}

// GetUsage returns accumulated spend for a user in a period, zero if the
// period has no entry yet.
func (s *Store) GetUsage(ctx context.Context, userID string, kind PeriodKind, period string) (float64, error) {
	var total float64
	err := s.db.QueryRowContext(ctx, `
		SELECT total_cost FROM usage_ledger
		WHERE user_id = ? AND period_kind = ? AND period = ?`,
		userID, string(kind), period).Scan(&total)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil // no row yet means no spend this period
	}
	if err != nil {
		return 0, err
	}
	return total, nil
}

// ListUsageSince returns ledger rows of a kind with period >= since,
// newest first. Period strings sort lexicographically (2026-08-29, 2026-08).
func (s *Store) ListUsageSince(ctx context.Context, userID string, kind PeriodKind, since string) ([]UsageEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, period_kind, period, total_cost, request_count
		FROM usage_ledger
		WHERE user_id = ? AND period_kind = ? AND period >= ?
		ORDER BY period DESC`,
		userID, string(kind), since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []UsageEntry
	for rows.Next() {
		var e UsageEntry
		if err := rows.Scan(&e.UserID, &e.PeriodKind, &e.Period, &e.TotalCost, &e.RequestCount); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// PurgeUsageBefore deletes ledger rows older than the retention cutoffs
// (daily rows before dailyCutoff, monthly rows before monthlyCutoff).
func (s *Store) PurgeUsageBefore(ctx context.Context, dailyCutoff, monthlyCutoff string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM usage_ledger
		WHERE (period_kind = 'daily' AND period < ?)
		   OR (period_kind = 'monthly' AND period < ?)`,
		dailyCutoff, monthlyCutoff)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}
