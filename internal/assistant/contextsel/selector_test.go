package contextsel

import (
	"context"
	"fmt"
	"testing"

	"github.com/lumahq/luma/internal/db"
)

// fakeEmbedder serves canned vectors keyed by message ID. A nil vectors map
// simulates a dead embedding backend.
type fakeEmbedder struct {
	query   []float32
	vectors map[string][]float32
	fail    bool
}

func (f *fakeEmbedder) HasProvider() bool { return true }

func (f *fakeEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if f.fail {
		return nil, fmt.Errorf("embedding backend down")
	}
	return f.query, nil
}

func (f *fakeEmbedder) EmbedMessage(ctx context.Context, sessionID, messageID, text string) ([]float32, error) {
	if f.fail {
		return nil, fmt.Errorf("embedding backend down")
	}
	if v, ok := f.vectors[messageID]; ok {
		return v, nil
	}
	return []float32{0, 1}, nil
}

func makeHistory(t *testing.T, n int) []db.ChatMessage {
	t.Helper()
	history := make([]db.ChatMessage, n)
	for i := range history {
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		history[i] = db.ChatMessage{
			ID:      fmt.Sprintf("m%d", i+1),
			Role:    role,
			Content: fmt.Sprintf("message %d", i+1),
		}
	}
	return history
}

func TestSelectRelevantSevenMessagesMaxFive(t *testing.T) {
	history := makeHistory(t, 7)
	embedder := &fakeEmbedder{
		query: []float32{1, 0},
		vectors: map[string][]float32{
			"m1": {1, 0}, // semantically close to the query
			"m3": {1, 0},
			"m5": {1, 0},
		},
	}

	selected := NewSelector(embedder).SelectRelevant(context.Background(), "s1", "query", history, 5)

	if len(selected) != 5 {
		t.Fatalf("expected exactly 5 messages, got %d", len(selected))
	}
	// Last two of the output must be the original last two, in order.
	if selected[3].ID != "m6" || selected[4].ID != "m7" {
		t.Errorf("expected m6, m7 as final two, got %s, %s", selected[3].ID, selected[4].ID)
	}
	// The semantically similar old messages beat the middle ones.
	if selected[0].ID != "m1" {
		t.Errorf("expected m1 first, got %s", selected[0].ID)
	}
	// No duplicates.
	seen := make(map[string]bool)
	for _, m := range selected {
		if seen[m.ID] {
			t.Errorf("duplicate message %s in selection", m.ID)
		}
		seen[m.ID] = true
	}
}

func TestSelectRelevantTightCapKeepsNewestTurn(t *testing.T) {
	history := makeHistory(t, 5)
	// m1 scores far above everything else, but the newest turn still wins
	// the only slot.
	embedder := &fakeEmbedder{
		query:   []float32{1, 0},
		vectors: map[string][]float32{"m1": {1, 0}},
	}

	selected := NewSelector(embedder).SelectRelevant(context.Background(), "s1", "query", history, 1)
	if len(selected) != 1 || selected[0].ID != "m5" {
		t.Fatalf("expected only the newest message m5, got %v", selected)
	}

	selected = NewSelector(embedder).SelectRelevant(context.Background(), "s1", "query", history, 2)
	if len(selected) != 2 || selected[0].ID != "m4" || selected[1].ID != "m5" {
		t.Fatalf("expected the two newest messages m4, m5, got %v", selected)
	}
}

func TestSelectRelevantOrdering(t *testing.T) {
	history := makeHistory(t, 10)
	embedder := &fakeEmbedder{query: []float32{1, 0}, vectors: map[string][]float32{}}

	selected := NewSelector(embedder).SelectRelevant(context.Background(), "s1", "query", history, 6)

	// Output must be oldest to newest regardless of score order.
	last := -1
	for _, m := range selected {
		var n int
		fmt.Sscanf(m.ID, "m%d", &n)
		if n <= last {
			t.Fatalf("selection not in chronological order: %v after m%d", m.ID, last)
		}
		last = n
	}
}

func TestSelectRelevantShortHistoryReturnsAll(t *testing.T) {
	history := makeHistory(t, 3)
	selected := NewSelector(&fakeEmbedder{}).SelectRelevant(context.Background(), "s1", "query", history, 5)
	if len(selected) != 3 {
		t.Fatalf("expected all 3 messages, got %d", len(selected))
	}
}

func TestSelectRelevantFallsBackToRecency(t *testing.T) {
	history := makeHistory(t, 8)
	embedder := &fakeEmbedder{fail: true}

	selected := NewSelector(embedder).SelectRelevant(context.Background(), "s1", "query", history, 4)

	if len(selected) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(selected))
	}
	for i, want := range []string{"m5", "m6", "m7", "m8"} {
		if selected[i].ID != want {
			t.Errorf("recency fallback position %d: expected %s, got %s", i, want, selected[i].ID)
		}
	}
}

func TestSelectRelevantNilEmbedder(t *testing.T) {
	history := makeHistory(t, 8)
	selected := NewSelector(nil).SelectRelevant(context.Background(), "s1", "query", history, 4)
	if len(selected) != 4 || selected[3].ID != "m8" {
		t.Fatalf("expected recency window without an embedder, got %v", selected)
	}
}
