package db

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ConversationSummary is the rolling compressed memory for one session.
// Each summarization pass overwrites the previous summary.
type ConversationSummary struct {
	UserID       string `json:"userId"`
	SessionID    string `json:"sessionId"`
	Summary      string `json:"summary"`
	MessageCount int    `json:"messageCount"`
	UpdatedAt    int64  `json:"updatedAt"`
}

// UpsertSummary stores or replaces the summary for a session.
func (s *Store) UpsertSummary(ctx context.Context, sum ConversationSummary) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversation_summaries (user_id, session_id, summary, message_count, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, session_id)
		DO UPDATE SET summary = excluded.summary,
		              message_count = excluded.message_count,
		              updated_at = excluded.updated_at`,
		sum.UserID, sum.SessionID, sum.Summary, sum.MessageCount, time.Now().Unix())
	return err
}

// GetSummary fetches the summary for a session, nil if none exists yet.
func (s *Store) GetSummary(ctx context.Context, userID, sessionID string) (*ConversationSummary, error) {
	var sum ConversationSummary
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, session_id, summary, message_count, updated_at
		FROM conversation_summaries WHERE user_id = ? AND session_id = ?`,
		userID, sessionID).Scan(&sum.UserID, &sum.SessionID, &sum.Summary,
		&sum.MessageCount, &sum.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &sum, nil
}
