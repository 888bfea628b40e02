// Package contextsel picks which prior messages fit into a bounded prompt
// window, blending semantic relevance with recency. It never fails a
// request: when embeddings are unavailable it degrades to a pure recency
// window.
package contextsel

import (
	"context"
	"sort"

	"github.com/lumahq/luma/internal/db"
	"github.com/lumahq/luma/internal/embeddings"
	"github.com/lumahq/luma/internal/logging"
)

const (
	similarityWeight = 0.7
	recencyWeight    = 0.3
	// The two most recent messages are always kept verbatim so the model
	// sees the immediate turn even when it is semantically dissimilar.
	alwaysKeepRecent = 2
)

// Embedder is the slice of the embedding service the selector needs.
type Embedder interface {
	HasProvider() bool
	EmbedText(ctx context.Context, text string) ([]float32, error)
	EmbedMessage(ctx context.Context, sessionID, messageID, text string) ([]float32, error)
}

// Selector ranks conversation history for prompt assembly.
type Selector struct {
	embedder Embedder
}

// NewSelector creates a context selector over an embedding service.
func NewSelector(embedder Embedder) *Selector {
	return &Selector{embedder: embedder}
}

type scoredMessage struct {
	index int
	score float64
}

// SelectRelevant returns at most maxMessages history entries ordered
// oldest to newest. The two most recent messages are always included;
// the rest are the highest scoring by blended similarity and recency.
func (s *Selector) SelectRelevant(ctx context.Context, sessionID, newMessageText string, history []db.ChatMessage, maxMessages int) []db.ChatMessage {
	if maxMessages <= 0 || len(history) == 0 {
		return nil
	}
	if len(history) <= maxMessages {
		out := make([]db.ChatMessage, len(history))
		copy(out, history)
		return out
	}

	if s.embedder == nil || !s.embedder.HasProvider() {
		return recentWindow(history, maxMessages)
	}

	queryEmbedding, err := s.embedder.EmbedText(ctx, newMessageText)
	if err != nil || len(queryEmbedding) == 0 {
		if err != nil {
			logging.Warnf("Context selection falling back to recency: %v", err)
		}
		return recentWindow(history, maxMessages)
	}

	scored := make([]scoredMessage, 0, len(history))
	for i, msg := range history {
		similarity := 0.0
		embedding, err := s.embedder.EmbedMessage(ctx, sessionID, msg.ID, msg.Content)
		if err == nil {
			similarity = embeddings.CosineSimilarity(queryEmbedding, embedding)
		}
		recency := float64(i) / float64(len(history))
		scored = append(scored, scoredMessage{
			index: i,
			score: similarityWeight*similarity + recencyWeight*recency,
		})
	}

	sort.SliceStable(scored, func(a, b int) bool {
		return scored[a].score > scored[b].score
	})

	// The recent slots are reserved first so a tight cap sheds the
	// lowest scorers, never the newest turns. Remaining slots go to
	// the top scorers.
	keepRecent := alwaysKeepRecent
	if keepRecent > maxMessages {
		keepRecent = maxMessages
	}
	picked := make([]int, 0, maxMessages)
	taken := make(map[int]bool, maxMessages)
	for i := len(history) - keepRecent; i < len(history); i++ {
		picked = append(picked, i)
		taken[i] = true
	}
	for _, sm := range scored {
		if len(picked) >= maxMessages {
			break
		}
		if taken[sm.index] {
			continue
		}
		picked = append(picked, sm.index)
		taken[sm.index] = true
	}

	// Oldest to newest for prompt assembly.
	sort.Ints(picked)
	out := make([]db.ChatMessage, 0, len(picked))
	for _, idx := range picked {
		out = append(out, history[idx])
	}
	return out
}

func recentWindow(history []db.ChatMessage, maxMessages int) []db.ChatMessage {
	if len(history) <= maxMessages {
		maxMessages = len(history)
	}
	out := make([]db.ChatMessage, maxMessages)
	copy(out, history[len(history)-maxMessages:])
	return out
}
