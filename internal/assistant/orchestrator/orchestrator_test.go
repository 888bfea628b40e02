package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/lumahq/luma/internal/assistant/cost"
	"github.com/lumahq/luma/internal/config"
	"github.com/lumahq/luma/internal/db"
	"github.com/lumahq/luma/internal/provider"
)

type memHistory struct {
	mu       sync.Mutex
	sessions map[string]db.ChatSession
	messages map[string][]db.ChatMessage
}

func newMemHistory() *memHistory {
	return &memHistory{
		sessions: make(map[string]db.ChatSession),
		messages: make(map[string][]db.ChatMessage),
	}
}

func (m *memHistory) CreateSession(ctx context.Context, sess db.ChatSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.ID] = sess
	return nil
}

func (m *memHistory) GetSession(ctx context.Context, userID, sessionID string) (*db.ChatSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[sessionID]
	if !ok || sess.UserID != userID {
		return nil, db.ErrSessionNotFound
	}
	return &sess, nil
}

func (m *memHistory) AppendMessage(ctx context.Context, msg db.ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages[msg.SessionID] = append(m.messages[msg.SessionID], msg)
	return nil
}

func (m *memHistory) GetMessages(ctx context.Context, sessionID string, limit int) ([]db.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msgs := m.messages[sessionID]
	out := make([]db.ChatMessage, len(msgs))
	copy(out, msgs)
	return out, nil
}

type memUsage struct {
	mu     sync.Mutex
	totals map[string]float64
}

func newMemUsage() *memUsage { return &memUsage{totals: make(map[string]float64)} }

func (m *memUsage) AddUsage(_ context.Context, userID string, kind db.PeriodKind, period string, c float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totals[userID+"|"+string(kind)+"|"+period] += c
	return nil
}

func (m *memUsage) GetUsage(_ context.Context, userID string, kind db.PeriodKind, period string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totals[userID+"|"+string(kind)+"|"+period], nil
}

func (m *memUsage) PurgeUsageBefore(_ context.Context, d, mo string) (int64, error) { return 0, nil }

func (m *memUsage) total() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum float64
	for _, v := range m.totals {
		sum += v
	}
	return sum
}

type scriptedChat struct {
	deltas   []string
	usage    *provider.Usage
	response string
	calls    int
}

func (c *scriptedChat) ID() string { return "openai" }

func (c *scriptedChat) Complete(ctx context.Context, req *provider.ChatRequest) (*provider.ChatResponse, error) {
	c.calls++
	usage := provider.Usage{InputTokens: 20, OutputTokens: 10}
	if c.usage != nil {
		usage = *c.usage
	}
	return &provider.ChatResponse{Content: c.response, Usage: usage}, nil
}

func (c *scriptedChat) Stream(ctx context.Context, req *provider.ChatRequest) (<-chan provider.StreamEvent, error) {
	c.calls++
	events := make(chan provider.StreamEvent, len(c.deltas)+2)
	go func() {
		defer close(events)
		for _, d := range c.deltas {
			events <- provider.StreamEvent{Type: provider.EventTypeText, Text: d}
		}
		if c.usage != nil {
			events <- provider.StreamEvent{Type: provider.EventTypeUsage, Usage: c.usage}
		}
		events <- provider.StreamEvent{Type: provider.EventTypeDone}
	}()
	return events, nil
}

type frameRecorder struct {
	frames    []Frame
	failAfter int // fail writes after this many frames; 0 means never
}

func (f *frameRecorder) WriteFrame(frame Frame) error {
	if f.failAfter > 0 && len(f.frames) >= f.failAfter {
		return fmt.Errorf("broken pipe")
	}
	f.frames = append(f.frames, frame)
	return nil
}

func newTestOrchestrator(t *testing.T, chat provider.Chat, limits config.Limits) (*Orchestrator, *memHistory, *memUsage) {
	t.Helper()
	history := newMemHistory()
	usage := newMemUsage()
	catalog := provider.NewCatalog("")
	governor := cost.NewGovernor(usage, catalog, limits, 1000, 0.8)

	o := New(Deps{
		History:   history,
		Governor:  governor,
		Catalog:   catalog,
		Providers: map[string]provider.Chat{"openai": chat},
	}, Config{
		DefaultModel:   "gpt-4o-mini",
		RequestTimeout: 5 * time.Second,
	})
	return o, history, usage
}

func defaultLimits() config.Limits {
	return config.Limits{PerRequest: 0.50, Daily: 5, Monthly: 50}
}

func TestChatPersistsExchange(t *testing.T) {
	chat := &scriptedChat{response: "Plant them in spring."}
	o, history, usage := newTestOrchestrator(t, chat, defaultLimits())

	result, err := o.Chat(context.Background(), &Request{
		UserID:   "u1",
		UserName: "Sam",
		Message:  "When should I plant tulips?",
	})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if result.Denied != nil {
		t.Fatalf("unexpected denial: %+v", result.Denied)
	}
	if result.Response != "Plant them in spring." {
		t.Errorf("unexpected response: %q", result.Response)
	}
	if result.Metadata.SessionID == "" {
		t.Error("expected a session to be created")
	}

	msgs, _ := history.GetMessages(context.Background(), result.Metadata.SessionID, 0)
	if len(msgs) != 2 {
		t.Fatalf("expected 2 persisted messages, got %d", len(msgs))
	}
	if msgs[0].Role != "user" || msgs[1].Role != "assistant" {
		t.Errorf("unexpected roles: %s, %s", msgs[0].Role, msgs[1].Role)
	}
	// Input tokens on the user half, output tokens on the assistant half.
	if msgs[0].Tokens != 20 || msgs[1].Tokens != 10 {
		t.Errorf("token attribution wrong: user=%d assistant=%d", msgs[0].Tokens, msgs[1].Tokens)
	}
	var meta map[string]string
	json.Unmarshal([]byte(msgs[0].Metadata), &meta)
	if meta["tokenType"] != "input" {
		t.Errorf("expected input token attribution on user message, got %v", meta)
	}

	if usage.total() == 0 {
		t.Error("expected actual cost recorded to the ledger")
	}
}

func TestChatBudgetDenied(t *testing.T) {
	chat := &scriptedChat{response: "should not run"}
	// A per-request ceiling of 0 denies any estimate above zero.
	o, _, _ := newTestOrchestrator(t, chat, config.Limits{PerRequest: 0.0000001, Daily: 5, Monthly: 50})

	result, err := o.Chat(context.Background(), &Request{UserID: "u1", Message: "hello"})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if result.Denied == nil {
		t.Fatal("expected budget denial")
	}
	if result.Denied.LimitType != cost.LimitRequest {
		t.Errorf("expected request limit type, got %s", result.Denied.LimitType)
	}
	if chat.calls != 0 {
		t.Error("provider must not be called after a denial")
	}
}

func TestChatEmptyMessage(t *testing.T) {
	o, _, _ := newTestOrchestrator(t, &scriptedChat{}, defaultLimits())
	if _, err := o.Chat(context.Background(), &Request{UserID: "u1"}); err != ErrEmptyMessage {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
}

type failingChat struct{ err error }

func (c *failingChat) ID() string { return "openai" }

func (c *failingChat) Complete(context.Context, *provider.ChatRequest) (*provider.ChatResponse, error) {
	return nil, c.err
}

func (c *failingChat) Stream(context.Context, *provider.ChatRequest) (<-chan provider.StreamEvent, error) {
	return nil, c.err
}

func TestChatRateLimitSurfacesWithoutSpend(t *testing.T) {
	chat := &failingChat{err: &provider.Error{Code: "rate_limit_exceeded", Message: "slow down"}}
	o, _, usage := newTestOrchestrator(t, chat, defaultLimits())

	_, err := o.Chat(context.Background(), &Request{UserID: "u1", Message: "hi"})
	if err == nil {
		t.Fatal("expected the provider failure to surface")
	}
	if !provider.IsRateLimitOrAuth(err) {
		t.Errorf("rate limit classification lost through wrapping: %v", err)
	}
	if !strings.Contains(err.Error(), "rate_limit") {
		t.Errorf("expected the failure reason in the error, got: %v", err)
	}
	if usage.total() != 0 {
		t.Errorf("no spend may be recorded for a failed completion, got %v", usage.total())
	}
}

func TestTruncateKeepsRuneBoundary(t *testing.T) {
	title := truncate("a"+strings.Repeat("日", 30), 60)
	if !utf8.ValidString(title) {
		t.Errorf("truncated title is not valid UTF-8: %q", title)
	}
	if len(title) > 60 {
		t.Errorf("title exceeds the byte limit: %d", len(title))
	}
	if title != "a"+strings.Repeat("日", 19) {
		t.Errorf("unexpected truncation: %q", title)
	}

	if got := truncate("short", 60); got != "short" {
		t.Errorf("strings under the limit must pass through, got %q", got)
	}
}

func TestChatStreamAccumulatesDeltas(t *testing.T) {
	chat := &scriptedChat{
		deltas: []string{"Hi", " there", "!"},
		usage:  &provider.Usage{InputTokens: 5, OutputTokens: 3},
	}
	o, _, usage := newTestOrchestrator(t, chat, defaultLimits())

	fw := &frameRecorder{}
	result, err := o.ChatStream(context.Background(), &Request{UserID: "u1", Message: "greet me"}, fw)
	if err != nil {
		t.Fatalf("ChatStream failed: %v", err)
	}
	if result.Response != "Hi there!" {
		t.Errorf("expected accumulated response %q, got %q", "Hi there!", result.Response)
	}

	var contents, dones int
	var sawMetadata bool
	for _, f := range fw.frames {
		switch f.Type {
		case "content":
			contents++
		case "metadata":
			sawMetadata = true
		case "done":
			dones++
		}
	}
	if contents != 3 {
		t.Errorf("expected 3 content frames, got %d", contents)
	}
	if !sawMetadata {
		t.Error("expected a metadata frame before done")
	}
	if dones != 1 {
		t.Errorf("expected exactly one done frame, got %d", dones)
	}
	if fw.frames[len(fw.frames)-1].Type != "done" {
		t.Errorf("stream must terminate with done, got %s", fw.frames[len(fw.frames)-1].Type)
	}

	if usage.total() == 0 {
		t.Error("expected streamed usage recorded to the ledger")
	}
}

func TestChatStreamDisconnectStillFinalizesCost(t *testing.T) {
	chat := &scriptedChat{
		deltas: []string{"Hi", " there", "!"},
		usage:  &provider.Usage{InputTokens: 5, OutputTokens: 3},
	}
	o, history, usage := newTestOrchestrator(t, chat, defaultLimits())

	fw := &frameRecorder{failAfter: 1}
	result, err := o.ChatStream(context.Background(), &Request{UserID: "u1", Message: "greet me"}, fw)
	if err != nil {
		t.Fatalf("ChatStream failed: %v", err)
	}

	if len(fw.frames) != 1 {
		t.Errorf("expected forwarding to stop after the disconnect, got %d frames", len(fw.frames))
	}
	// Partial generation still costs money.
	if usage.total() == 0 {
		t.Error("expected cost finalized despite the disconnect")
	}
	msgs, _ := history.GetMessages(context.Background(), result.Metadata.SessionID, 0)
	if len(msgs) != 2 {
		t.Errorf("expected exchange persisted despite the disconnect, got %d messages", len(msgs))
	}
}

func TestChatStreamEstimatesWhenNoUsageFrame(t *testing.T) {
	chat := &scriptedChat{deltas: []string{"Hello world"}}
	o, _, usage := newTestOrchestrator(t, chat, defaultLimits())

	fw := &frameRecorder{}
	if _, err := o.ChatStream(context.Background(), &Request{UserID: "u1", Message: "hi"}, fw); err != nil {
		t.Fatalf("ChatStream failed: %v", err)
	}
	if usage.total() == 0 {
		t.Error("expected estimated cost recorded when the provider sent no usage frame")
	}
}

func TestChatContinuesSession(t *testing.T) {
	chat := &scriptedChat{response: "second answer"}
	o, history, _ := newTestOrchestrator(t, chat, defaultLimits())

	first, err := o.Chat(context.Background(), &Request{UserID: "u1", Message: "first question"})
	if err != nil {
		t.Fatalf("first turn failed: %v", err)
	}

	second, err := o.Chat(context.Background(), &Request{
		UserID:    "u1",
		Message:   "follow up",
		SessionID: first.Metadata.SessionID,
	})
	if err != nil {
		t.Fatalf("second turn failed: %v", err)
	}
	if second.Metadata.SessionID != first.Metadata.SessionID {
		t.Error("expected the same session across turns")
	}

	msgs, _ := history.GetMessages(context.Background(), first.Metadata.SessionID, 0)
	if len(msgs) != 4 {
		t.Errorf("expected 4 messages after two turns, got %d", len(msgs))
	}
}

func TestChatUnknownSession(t *testing.T) {
	o, _, _ := newTestOrchestrator(t, &scriptedChat{}, defaultLimits())
	_, err := o.Chat(context.Background(), &Request{UserID: "u1", Message: "hi", SessionID: "nope"})
	if err == nil {
		t.Fatal("expected error for unknown session")
	}
}
