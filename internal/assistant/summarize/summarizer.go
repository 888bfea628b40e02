// Package summarize compresses long conversations into a short rolling
// summary so memory does not grow without bound. Summaries are stored for
// later retrieval and are not fed back into prompt assembly.
package summarize

import (
	"context"
	"fmt"
	"strings"

	"github.com/lumahq/luma/internal/assistant/cost"
	"github.com/lumahq/luma/internal/db"
	"github.com/lumahq/luma/internal/provider"
)

const (
	// DefaultThreshold is the message count below which summarization is
	// not worth its cost.
	DefaultThreshold = 5

	summaryMaxTokens = 300

	summarySystemPrompt = "You summarize conversations. Produce a concise summary that retains " +
		"decisions made, key insights, and open action items. Write plain prose, no preamble."
)

// Store persists summaries with overwrite semantics. Satisfied by db.Store.
type Store interface {
	UpsertSummary(ctx context.Context, sum db.ConversationSummary) error
	GetSummary(ctx context.Context, userID, sessionID string) (*db.ConversationSummary, error)
}

// Recorder charges summarization calls to the spend ledger. Satisfied by
// cost.Governor.
type Recorder interface {
	CostFor(model string, inputTokens, outputTokens int) float64
	RecordActual(ctx context.Context, userID string, usage cost.Actual) error
}

// Summarizer produces rolling conversation summaries via a low-cost model.
type Summarizer struct {
	store     Store
	chat      provider.Chat
	recorder  Recorder
	model     string
	threshold int
}

// NewSummarizer creates a summarizer. Threshold <= 0 uses the default.
func NewSummarizer(store Store, chat provider.Chat, recorder Recorder, model string, threshold int) *Summarizer {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Summarizer{
		store:     store,
		chat:      chat,
		recorder:  recorder,
		model:     model,
		threshold: threshold,
	}
}

// MaybeSummarize summarizes the conversation when it has reached the
// threshold, replacing any previous summary for the session. Below the
// threshold it returns nil without calling the model.
func (s *Summarizer) MaybeSummarize(ctx context.Context, userID, sessionID string, messages []db.ChatMessage) (*db.ConversationSummary, error) {
	if len(messages) < s.threshold {
		return nil, nil
	}

	resp, err := s.chat.Complete(ctx, &provider.ChatRequest{
		Model:     s.model,
		System:    summarySystemPrompt,
		Messages:  []provider.Message{{Role: "user", Content: transcript(messages)}},
		MaxTokens: summaryMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("summarization call failed: %w", err)
	}
	if strings.TrimSpace(resp.Content) == "" {
		return nil, fmt.Errorf("summarization returned empty content")
	}

	if s.recorder != nil {
		actual := cost.Actual{
			Model:        s.model,
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
			Cost:         s.recorder.CostFor(s.model, resp.Usage.InputTokens, resp.Usage.OutputTokens),
		}
		if err := s.recorder.RecordActual(ctx, userID, actual); err != nil {
			return nil, fmt.Errorf("failed to record summarization cost: %w", err)
		}
	}

	sum := db.ConversationSummary{
		UserID:       userID,
		SessionID:    sessionID,
		Summary:      strings.TrimSpace(resp.Content),
		MessageCount: len(messages),
	}
	if err := s.store.UpsertSummary(ctx, sum); err != nil {
		return nil, fmt.Errorf("failed to store summary: %w", err)
	}
	return &sum, nil
}

// Get returns the stored summary for a session, nil if none exists.
func (s *Summarizer) Get(ctx context.Context, userID, sessionID string) (*db.ConversationSummary, error) {
	return s.store.GetSummary(ctx, userID, sessionID)
}

func transcript(messages []db.ChatMessage) string {
	var b strings.Builder
	b.WriteString("Summarize this conversation:\n\n")
	for _, m := range messages {
		b.WriteString(m.Role)
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	return b.String()
}
