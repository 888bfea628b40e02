package db

import (
	"context"
	"encoding/json"
	"time"
)

// GetMessageEmbedding fetches a cached embedding keyed by (session, message).
func (s *Store) GetMessageEmbedding(ctx context.Context, sessionID, messageID, model string) ([]float32, bool) {
	var blob []byte
	var storedModel string
	err := s.db.QueryRowContext(ctx, `
		SELECT model, embedding FROM embedding_cache
		WHERE session_id = ? AND message_id = ?`,
		sessionID, messageID).Scan(&storedModel, &blob)
	if err != nil || storedModel != model {
		return nil, false
	}

	var embedding []float32
	if err := json.Unmarshal(blob, &embedding); err != nil {
		return nil, false
	}
	return embedding, true
}

// PutMessageEmbedding stores an embedding for a message. Cache writes are
// best-effort; a failed write only costs a recompute later.
func (s *Store) PutMessageEmbedding(ctx context.Context, sessionID, messageID, model string, embedding []float32) {
	blob, err := json.Marshal(embedding)
	if err != nil {
		return
	}
	_, _ = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO embedding_cache (session_id, message_id, model, dimensions, embedding, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		sessionID, messageID, model, len(embedding), blob, time.Now().Unix())
}

// GetTextEmbedding fetches a cached ad-hoc text embedding by content hash.
func (s *Store) GetTextEmbedding(ctx context.Context, contentHash, model string) ([]float32, bool) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT embedding FROM text_embedding_cache
		WHERE content_hash = ? AND model = ?`,
		contentHash, model).Scan(&blob)
	if err != nil {
		return nil, false
	}

	var embedding []float32
	if err := json.Unmarshal(blob, &embedding); err != nil {
		return nil, false
	}
	return embedding, true
}

// PutTextEmbedding stores an ad-hoc text embedding, best-effort.
func (s *Store) PutTextEmbedding(ctx context.Context, contentHash, model string, embedding []float32) {
	blob, err := json.Marshal(embedding)
	if err != nil {
		return
	}
	_, _ = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO text_embedding_cache (content_hash, model, dimensions, embedding, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		contentHash, model, len(embedding), blob, time.Now().Unix())
}
