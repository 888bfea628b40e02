package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewSQLite(filepath.Join(t.TempDir(), "luma.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestUsageLedgerAccumulates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	total, err := store.GetUsage(ctx, "u1", PeriodDaily, "2026-08-29")
	require.NoError(t, err)
	require.Zero(t, total)

	require.NoError(t, store.AddUsage(ctx, "u1", PeriodDaily, "2026-08-29", 0.10))
	require.NoError(t, store.AddUsage(ctx, "u1", PeriodDaily, "2026-08-29", 0.25))

	total, err = store.GetUsage(ctx, "u1", PeriodDaily, "2026-08-29")
	require.NoError(t, err)
	require.InDelta(t, 0.35, total, 1e-9)

	entries, err := store.ListUsageSince(ctx, "u1", PeriodDaily, "2026-08-01")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, 2, entries[0].RequestCount)
}

func TestUsageLedgerIsolatedByUserAndPeriod(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddUsage(ctx, "u1", PeriodDaily, "2026-08-29", 1.00))
	require.NoError(t, store.AddUsage(ctx, "u2", PeriodDaily, "2026-08-29", 2.00))
	require.NoError(t, store.AddUsage(ctx, "u1", PeriodMonthly, "2026-08", 3.00))

	total, err := store.GetUsage(ctx, "u1", PeriodDaily, "2026-08-29")
	require.NoError(t, err)
	require.InDelta(t, 1.00, total, 1e-9)

	total, err = store.GetUsage(ctx, "u1", PeriodMonthly, "2026-08")
	require.NoError(t, err)
	require.InDelta(t, 3.00, total, 1e-9)

	total, err = store.GetUsage(ctx, "u1", PeriodDaily, "2026-08-28")
	require.NoError(t, err)
	require.Zero(t, total)
}

func TestGetUsageSurfacesStoreErrors(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddUsage(ctx, "u1", PeriodDaily, "2026-08-29", 9.50))
	require.NoError(t, store.Close())

	// A broken store must not read as zero spend; budget checks depend
	// on this error surfacing.
	_, err := store.GetUsage(ctx, "u1", PeriodDaily, "2026-08-29")
	require.Error(t, err)
}

func TestPurgeUsageBefore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddUsage(ctx, "u1", PeriodDaily, "2026-07-01", 1.00))
	require.NoError(t, store.AddUsage(ctx, "u1", PeriodDaily, "2026-08-29", 1.00))
	require.NoError(t, store.AddUsage(ctx, "u1", PeriodMonthly, "2025-07", 1.00))
	require.NoError(t, store.AddUsage(ctx, "u1", PeriodMonthly, "2026-08", 1.00))

	n, err := store.PurgeUsageBefore(ctx, "2026-08-01", "2026-01")
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	total, err := store.GetUsage(ctx, "u1", PeriodDaily, "2026-08-29")
	require.NoError(t, err)
	require.InDelta(t, 1.00, total, 1e-9)
	total, err = store.GetUsage(ctx, "u1", PeriodDaily, "2026-07-01")
	require.NoError(t, err)
	require.Zero(t, total)
}

func TestSessionLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateSession(ctx, ChatSession{
		ID: "s1", UserID: "u1", Title: "Plan my week",
	}))

	sess, err := store.GetSession(ctx, "u1", "s1")
	require.NoError(t, err)
	require.Equal(t, "Plan my week", sess.Title)
	require.Zero(t, sess.MessageCount)

	// Sessions are scoped to their owner.
	_, err = store.GetSession(ctx, "u2", "s1")
	require.ErrorIs(t, err, ErrSessionNotFound)

	_, err = store.GetSession(ctx, "u1", "missing")
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestAppendMessageBumpsSessionCount(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateSession(ctx, ChatSession{ID: "s1", UserID: "u1", Title: "t"}))
	require.NoError(t, store.AppendMessage(ctx, ChatMessage{
		ID: "m1", SessionID: "s1", Role: "user", Content: "hello", Tokens: 2, CreatedAt: 100,
	}))
	require.NoError(t, store.AppendMessage(ctx, ChatMessage{
		ID: "m2", SessionID: "s1", Role: "assistant", Content: "hi there", Tokens: 3,
		Model: "gpt-4o-mini", Cost: 0.0001, CreatedAt: 200,
	}))

	sess, err := store.GetSession(ctx, "u1", "s1")
	require.NoError(t, err)
	require.Equal(t, 2, sess.MessageCount)

	msgs, err := store.GetMessages(ctx, "s1", 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.Equal(t, "user", msgs[0].Role)
	require.Equal(t, "assistant", msgs[1].Role)
	require.Equal(t, "gpt-4o-mini", msgs[1].Model)
}

func TestGetMessagesLimitKeepsNewestInOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateSession(ctx, ChatSession{ID: "s1", UserID: "u1", Title: "t"}))
	for i, id := range []string{"m1", "m2", "m3", "m4"} {
		require.NoError(t, store.AppendMessage(ctx, ChatMessage{
			ID: id, SessionID: "s1", Role: "user", Content: id, CreatedAt: int64(100 + i),
		}))
	}

	msgs, err := store.GetMessages(ctx, "s1", 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.Equal(t, "m3", msgs[0].ID)
	require.Equal(t, "m4", msgs[1].ID)
}

func TestSummaryOverwrite(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	sum, err := store.GetSummary(ctx, "u1", "s1")
	require.NoError(t, err)
	require.Nil(t, sum)

	require.NoError(t, store.UpsertSummary(ctx, ConversationSummary{
		UserID: "u1", SessionID: "s1", Summary: "first", MessageCount: 5,
	}))
	require.NoError(t, store.UpsertSummary(ctx, ConversationSummary{
		UserID: "u1", SessionID: "s1", Summary: "second", MessageCount: 10,
	}))

	sum, err = store.GetSummary(ctx, "u1", "s1")
	require.NoError(t, err)
	require.Equal(t, "second", sum.Summary)
	require.Equal(t, 10, sum.MessageCount)
}

func TestEmbeddingCacheRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, ok := store.GetMessageEmbedding(ctx, "s1", "m1", "text-embedding-3-small")
	require.False(t, ok)

	vec := []float32{0.1, 0.2, 0.3}
	store.PutMessageEmbedding(ctx, "s1", "m1", "text-embedding-3-small", vec)

	got, ok := store.GetMessageEmbedding(ctx, "s1", "m1", "text-embedding-3-small")
	require.True(t, ok)
	require.Equal(t, vec, got)

	// A different model invalidates the cached entry.
	_, ok = store.GetMessageEmbedding(ctx, "s1", "m1", "nomic-embed-text")
	require.False(t, ok)
}

func TestTextEmbeddingCacheRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, ok := store.GetTextEmbedding(ctx, "abc123", "text-embedding-3-small")
	require.False(t, ok)

	vec := []float32{0.4, 0.5}
	store.PutTextEmbedding(ctx, "abc123", "text-embedding-3-small", vec)

	got, ok := store.GetTextEmbedding(ctx, "abc123", "text-embedding-3-small")
	require.True(t, ok)
	require.Equal(t, vec, got)

	// Same hash under another model is a separate entry.
	_, ok = store.GetTextEmbedding(ctx, "abc123", "nomic-embed-text")
	require.False(t, ok)
}
