package db

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ChatSession groups an append-only conversation under (userId, projectId).
type ChatSession struct {
	ID           string `json:"id"`
	UserID       string `json:"userId"`
	ProjectID    string `json:"projectId,omitempty"`
	Title        string `json:"title"`
	MessageCount int    `json:"messageCount"`
	CreatedAt    int64  `json:"createdAt"`
	UpdatedAt    int64  `json:"updatedAt"`
}

// ChatMessage is one stored conversation turn.
type ChatMessage struct {
	ID        string `json:"id"`
	SessionID string `json:"sessionId"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	Tokens    int    `json:"tokens"`
	Model     string `json:"model,omitempty"`
	Cost      float64 `json:"cost"`
	Metadata  string `json:"metadata,omitempty"`
	CreatedAt int64  `json:"createdAt"`
}

// ErrSessionNotFound is returned when a session ID does not exist.
var ErrSessionNotFound = errors.New("session not found")

// CreateSession inserts a new chat session.
func (s *Store) CreateSession(ctx context.Context, sess ChatSession) error {
	now := time.Now().Unix()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_sessions (id, user_id, project_id, title, message_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, 0, ?, ?)`,
		sess.ID, sess.UserID, nullable(sess.ProjectID), sess.Title, now, now)
	return err
}

// GetSession fetches a session by ID, scoped to the owning user.
func (s *Store) GetSession(ctx context.Context, userID, sessionID string) (*ChatSession, error) {
	var sess ChatSession
	var projectID sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, project_id, title, message_count, created_at, updated_at
		FROM chat_sessions WHERE id = ? AND user_id = ?`,
		sessionID, userID).Scan(&sess.ID, &sess.UserID, &projectID, &sess.Title,
		&sess.MessageCount, &sess.CreatedAt, &sess.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	sess.ProjectID = projectID.String
	return &sess, nil
}

// ListSessions returns a user's sessions, most recently active first.
func (s *Store) ListSessions(ctx context.Context, userID string) ([]ChatSession, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, project_id, title, message_count, created_at, updated_at
		FROM chat_sessions WHERE user_id = ? ORDER BY updated_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []ChatSession
	for rows.Next() {
		var sess ChatSession
		var projectID sql.NullString
		if err := rows.Scan(&sess.ID, &sess.UserID, &projectID, &sess.Title,
			&sess.MessageCount, &sess.CreatedAt, &sess.UpdatedAt); err != nil {
			return nil, err
		}
		sess.ProjectID = projectID.String
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// AppendMessage appends a message to a session and bumps its counters.
// Conversations are append-only; there is no update or delete path.
func (s *Store) AppendMessage(ctx context.Context, msg ChatMessage) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	if msg.CreatedAt == 0 {
		msg.CreatedAt = now
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO chat_messages (id, session_id, role, content, tokens, model, cost, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.SessionID, msg.Role, msg.Content, msg.Tokens,
		nullable(msg.Model), msg.Cost, nullable(msg.Metadata), msg.CreatedAt)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE chat_sessions SET message_count = message_count + 1, updated_at = ?
		WHERE id = ?`, now, msg.SessionID)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// GetMessages returns a session's messages oldest first. limit <= 0 means all.
func (s *Store) GetMessages(ctx context.Context, sessionID string, limit int) ([]ChatMessage, error) {
	query := `
		SELECT id, session_id, role, content, tokens, model, cost, metadata, created_at
		FROM chat_messages WHERE session_id = ? ORDER BY created_at ASC, id ASC`
	args := []any{sessionID}
	if limit > 0 {
		// Take the newest N, then re-sort ascending below.
		query = `
			SELECT id, session_id, role, content, tokens, model, cost, metadata, created_at
			FROM (
				SELECT id, session_id, role, content, tokens, model, cost, metadata, created_at
				FROM chat_messages WHERE session_id = ? ORDER BY created_at DESC, id DESC LIMIT ?
			) ORDER BY created_at ASC, id ASC`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []ChatMessage
	for rows.Next() {
		var msg ChatMessage
		var model, metadata sql.NullString
		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.Role, &msg.Content,
			&msg.Tokens, &model, &msg.Cost, &metadata, &msg.CreatedAt); err != nil {
			return nil, err
		}
		msg.Model = model.String
		msg.Metadata = metadata.String
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
