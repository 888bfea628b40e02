package summarize

import (
	"context"
	"fmt"
	"testing"

	"github.com/lumahq/luma/internal/assistant/cost"
	"github.com/lumahq/luma/internal/db"
	"github.com/lumahq/luma/internal/provider"
)

type memSummaryStore struct {
	summaries map[string]db.ConversationSummary
}

func newMemSummaryStore() *memSummaryStore {
	return &memSummaryStore{summaries: make(map[string]db.ConversationSummary)}
}

func (m *memSummaryStore) UpsertSummary(ctx context.Context, sum db.ConversationSummary) error {
	m.summaries[sum.UserID+"|"+sum.SessionID] = sum
	return nil
}

func (m *memSummaryStore) GetSummary(ctx context.Context, userID, sessionID string) (*db.ConversationSummary, error) {
	if sum, ok := m.summaries[userID+"|"+sessionID]; ok {
		return &sum, nil
	}
	return nil, nil
}

type fakeChat struct {
	response string
	calls    int
}

func (f *fakeChat) ID() string { return "fake" }

func (f *fakeChat) Complete(ctx context.Context, req *provider.ChatRequest) (*provider.ChatResponse, error) {
	f.calls++
	return &provider.ChatResponse{
		Content: f.response,
		Usage:   provider.Usage{InputTokens: 100, OutputTokens: 50},
	}, nil
}

func (f *fakeChat) Stream(ctx context.Context, req *provider.ChatRequest) (<-chan provider.StreamEvent, error) {
	return nil, fmt.Errorf("not streamed")
}

type fakeRecorder struct {
	recorded []cost.Actual
}

func (f *fakeRecorder) CostFor(model string, in, out int) float64 {
	return float64(in+out) / 1_000_000
}

func (f *fakeRecorder) RecordActual(ctx context.Context, userID string, usage cost.Actual) error {
	f.recorded = append(f.recorded, usage)
	return nil
}

func messages(n int) []db.ChatMessage {
	out := make([]db.ChatMessage, n)
	for i := range out {
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		out[i] = db.ChatMessage{ID: fmt.Sprintf("m%d", i+1), Role: role, Content: fmt.Sprintf("turn %d", i+1)}
	}
	return out
}

func TestMaybeSummarizeBelowThreshold(t *testing.T) {
	chat := &fakeChat{response: "a summary"}
	s := NewSummarizer(newMemSummaryStore(), chat, &fakeRecorder{}, "gpt-4o-mini", 5)

	sum, err := s.MaybeSummarize(context.Background(), "u1", "s1", messages(4))
	if err != nil {
		t.Fatalf("MaybeSummarize failed: %v", err)
	}
	if sum != nil {
		t.Errorf("expected no summary below threshold, got %+v", sum)
	}
	if chat.calls != 0 {
		t.Errorf("expected no model call below threshold, got %d", chat.calls)
	}
}

func TestMaybeSummarizeAtThreshold(t *testing.T) {
	store := newMemSummaryStore()
	chat := &fakeChat{response: "They planned a garden and agreed to buy seeds."}
	recorder := &fakeRecorder{}
	s := NewSummarizer(store, chat, recorder, "gpt-4o-mini", 5)

	sum, err := s.MaybeSummarize(context.Background(), "u1", "s1", messages(5))
	if err != nil {
		t.Fatalf("MaybeSummarize failed: %v", err)
	}
	if sum == nil || sum.Summary == "" {
		t.Fatal("expected a non-empty summary at the threshold")
	}
	if sum.MessageCount != 5 {
		t.Errorf("expected message count 5, got %d", sum.MessageCount)
	}

	stored, _ := store.GetSummary(context.Background(), "u1", "s1")
	if stored == nil || stored.Summary != sum.Summary {
		t.Error("expected summary persisted to the store")
	}

	if len(recorder.recorded) != 1 {
		t.Fatalf("expected one recorded cost, got %d", len(recorder.recorded))
	}
	if recorder.recorded[0].Model != "gpt-4o-mini" {
		t.Errorf("expected cost recorded under the summary model, got %s", recorder.recorded[0].Model)
	}
}

func TestMaybeSummarizeOverwrites(t *testing.T) {
	store := newMemSummaryStore()
	chat := &fakeChat{response: "first summary"}
	s := NewSummarizer(store, chat, &fakeRecorder{}, "gpt-4o-mini", 5)

	if _, err := s.MaybeSummarize(context.Background(), "u1", "s1", messages(5)); err != nil {
		t.Fatalf("first pass failed: %v", err)
	}

	chat.response = "second summary"
	if _, err := s.MaybeSummarize(context.Background(), "u1", "s1", messages(7)); err != nil {
		t.Fatalf("second pass failed: %v", err)
	}

	stored, _ := store.GetSummary(context.Background(), "u1", "s1")
	if stored.Summary != "second summary" {
		t.Errorf("expected overwrite, got %q", stored.Summary)
	}
	if stored.MessageCount != 7 {
		t.Errorf("expected message count 7 after overwrite, got %d", stored.MessageCount)
	}
}
