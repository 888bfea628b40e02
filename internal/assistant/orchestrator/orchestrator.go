// Package orchestrator is the chat entry point: it budget-checks a request,
// assembles the prompt from domain context and conversation history,
// dispatches to an LLM provider (blocking or streaming), records spend, and
// persists the exchange.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/lumahq/luma/internal/assistant/contextsel"
	"github.com/lumahq/luma/internal/assistant/cost"
	"github.com/lumahq/luma/internal/assistant/domain"
	"github.com/lumahq/luma/internal/assistant/entity"
	"github.com/lumahq/luma/internal/assistant/summarize"
	"github.com/lumahq/luma/internal/db"
	"github.com/lumahq/luma/internal/logging"
	"github.com/lumahq/luma/internal/provider"
)

// ErrEmptyMessage is returned for requests without message text.
var ErrEmptyMessage = errors.New("message is required")

// History is the chat-history store slice the orchestrator needs.
// Satisfied by db.Store.
type History interface {
	CreateSession(ctx context.Context, sess db.ChatSession) error
	GetSession(ctx context.Context, userID, sessionID string) (*db.ChatSession, error)
	AppendMessage(ctx context.Context, msg db.ChatMessage) error
	GetMessages(ctx context.Context, sessionID string, limit int) ([]db.ChatMessage, error)
}

// Request is one inbound chat turn.
type Request struct {
	UserID         string
	UserName       string
	Message        string
	Model          string
	ProjectID      string
	SessionID      string
	Context        string
	Temperature    float64
	MaxTokens      int
	IncludeContext bool
}

// TokenCounts reports real token categories; input and output are never
// split evenly.
type TokenCounts struct {
	Input  int `json:"input"`
	Output int `json:"output"`
	Total  int `json:"total"`
}

// Metadata describes a completed exchange.
type Metadata struct {
	Model          string         `json:"model"`
	Context        string         `json:"context"`
	EntityLinks    *entity.Result `json:"entityLinks,omitempty"`
	Tokens         TokenCounts    `json:"tokens"`
	Cost           float64        `json:"cost"`
	ResponseTimeMs int64          `json:"responseTime"`
	SessionID      string         `json:"sessionId"`
	Warnings       []string       `json:"warnings,omitempty"`
}

// Result is the outcome of a chat turn. A non-nil Denied means the budget
// governor refused the request; that is a quota outcome, not an error.
type Result struct {
	Response string       `json:"response"`
	Denied   *cost.Decision `json:"denied,omitempty"`
	Metadata Metadata     `json:"metadata"`
}

// Config carries the orchestrator's tunables.
type Config struct {
	DefaultModel       string
	AnalysisModel      string
	MaxContextMessages int
	RequestTimeout     time.Duration
	TranscribeModel    string
	TTSModel           string
	TTSVoice           string
}

// Deps wires the orchestrator's collaborators. Selector, Linker, Summarizer,
// Domains, and Speech are advisory or optional; a nil value disables that
// stage.
type Deps struct {
	History    History
	Governor   *cost.Governor
	Selector   *contextsel.Selector
	Linker     *entity.Linker
	Summarizer *summarize.Summarizer
	Domains    *domain.Builder
	Catalog    *provider.Catalog
	Providers  map[string]provider.Chat
	Speech     Speech
}

// Orchestrator runs the chat pipeline.
type Orchestrator struct {
	history    History
	governor   *cost.Governor
	selector   *contextsel.Selector
	linker     *entity.Linker
	summarizer *summarize.Summarizer
	domains    *domain.Builder
	catalog    *provider.Catalog
	providers  map[string]provider.Chat
	speech     Speech
	cfg        Config
}

// New creates an orchestrator.
func New(deps Deps, cfg Config) *Orchestrator {
	if cfg.MaxContextMessages <= 0 {
		cfg.MaxContextMessages = 10
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 120 * time.Second
	}
	return &Orchestrator{
		history:    deps.History,
		governor:   deps.Governor,
		selector:   deps.Selector,
		linker:     deps.Linker,
		summarizer: deps.Summarizer,
		domains:    deps.Domains,
		catalog:    deps.Catalog,
		providers:  deps.Providers,
		speech:     deps.Speech,
		cfg:        cfg,
	}
}

// prepared carries the pipeline state between the budget check and dispatch.
type prepared struct {
	model       string
	chat        provider.Chat
	session     *db.ChatSession
	contextName string
	entities    *entity.Result
	providerReq *provider.ChatRequest
	estimate    cost.Estimate
	start       time.Time
}

// prepare runs the pre-dispatch stages: validation, budget check, entity
// detection, domain summary, session resolution, and context selection.
// A denied budget comes back as a Result, not an error.
func (o *Orchestrator) prepare(ctx context.Context, req *Request) (*prepared, *Result, error) {
	if req.Message == "" {
		return nil, nil, ErrEmptyMessage
	}

	model := req.Model
	if model == "" {
		model = o.cfg.DefaultModel
	}
	chat, err := o.providerFor(model)
	if err != nil {
		return nil, nil, err
	}

	contextKind, err := domain.ParseContext(req.Context)
	if err != nil {
		return nil, nil, err
	}

	estimate := o.governor.EstimateCost(model, len(req.Message), req.MaxTokens)
	decision, err := o.governor.CheckBudget(ctx, req.UserID, estimate)
	if err != nil {
		return nil, nil, fmt.Errorf("budget check failed: %w", err)
	}
	if !decision.Allowed {
		d := decision
		return nil, &Result{Denied: &d, Metadata: Metadata{Model: model, Context: contextKind.String()}}, nil
	}

	// Advisory stages: failures degrade, never block.
	var entities *entity.Result
	if o.linker != nil {
		entities = o.linker.DetectEntities(ctx, req.UserID, req.Message)
	}
	domainText := ""
	if o.domains != nil {
		if summary, err := o.domains.Build(ctx, req.UserID, contextKind); err != nil {
			logging.Warnf("Domain summary unavailable for %s: %v", contextKind, err)
		} else {
			domainText = summary.Text
		}
	}

	session, history, err := o.resolveSession(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	var selected []db.ChatMessage
	if req.IncludeContext && o.selector != nil && len(history) > 0 {
		selected = o.selector.SelectRelevant(ctx, session.ID, req.Message, history, o.cfg.MaxContextMessages)
	}

	messages := make([]provider.Message, 0, len(selected)+1)
	for _, m := range selected {
		messages = append(messages, provider.Message{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, provider.Message{Role: "user", Content: req.Message})

	return &prepared{
		model:       model,
		chat:        chat,
		session:     session,
		contextName: contextKind.String(),
		entities:    entities,
		providerReq: &provider.ChatRequest{
			Model:       model,
			System:      systemPrompt(req.UserName, domainText, entities),
			Messages:    messages,
			MaxTokens:   req.MaxTokens,
			Temperature: req.Temperature,
		},
		estimate: estimate,
		start:    time.Now(),
	}, nil, nil
}

func (o *Orchestrator) providerFor(model string) (provider.Chat, error) {
	providerID := o.catalog.ProviderFor(model)
	if chat, ok := o.providers[providerID]; ok {
		return chat, nil
	}
	// Unknown model: route to the default model's provider.
	if chat, ok := o.providers[o.catalog.ProviderFor(o.cfg.DefaultModel)]; ok {
		return chat, nil
	}
	return nil, fmt.Errorf("no provider configured for model %q", model)
}

func (o *Orchestrator) resolveSession(ctx context.Context, req *Request) (*db.ChatSession, []db.ChatMessage, error) {
	if req.SessionID == "" {
		sess := db.ChatSession{
			ID:        uuid.NewString(),
			UserID:    req.UserID,
			ProjectID: req.ProjectID,
			Title:     truncate(req.Message, 60),
		}
		if err := o.history.CreateSession(ctx, sess); err != nil {
			return nil, nil, fmt.Errorf("failed to create session: %w", err)
		}
		return &sess, nil, nil
	}

	sess, err := o.history.GetSession(ctx, req.UserID, req.SessionID)
	if err != nil {
		return nil, nil, err
	}
	history, err := o.history.GetMessages(ctx, sess.ID, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load history: %w", err)
	}
	return sess, history, nil
}

// Chat runs the non-streaming pipeline.
func (o *Orchestrator) Chat(ctx context.Context, req *Request) (*Result, error) {
	p, denied, err := o.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	if denied != nil {
		return denied, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, o.cfg.RequestTimeout)
	defer cancel()

	resp, err := p.chat.Complete(callCtx, p.providerReq)
	if err != nil {
		// Fail closed: no actual cost recorded, the estimate is never
		// applied as spend. Rate-limit and auth failures surface to the
		// caller instead of being retried; retrying those without
		// backoff only digs the hole deeper.
		reason := provider.ClassifyErrorReason(err)
		if provider.IsRateLimitOrAuth(err) {
			logging.Errorf("Provider refused request (%s): %v", reason, err)
		} else {
			logging.Errorf("Completion failed (%s): %v", reason, err)
		}
		return nil, fmt.Errorf("completion failed (%s): %w", reason, err)
	}

	meta, err := o.finalize(ctx, req, p, resp.Content, resp.Usage, 0)
	if err != nil {
		return nil, err
	}
	return &Result{Response: resp.Content, Metadata: meta}, nil
}

// finalize records actual spend, persists both message halves, computes
// warnings, and fires the summarizer. extraCost covers voice sub-calls that
// must land in the same ledger record.
func (o *Orchestrator) finalize(ctx context.Context, req *Request, p *prepared, content string, usage provider.Usage, extraCost float64) (Metadata, error) {
	elapsed := time.Since(p.start).Milliseconds()

	inputCost := o.governor.CostFor(p.model, usage.InputTokens, 0)
	outputCost := o.governor.CostFor(p.model, 0, usage.OutputTokens)
	totalCost := inputCost + outputCost + extraCost

	if err := o.governor.RecordActual(ctx, req.UserID, cost.Actual{
		Model:          p.model,
		InputTokens:    usage.InputTokens,
		OutputTokens:   usage.OutputTokens,
		Cost:           totalCost,
		ResponseTimeMs: elapsed,
	}); err != nil {
		return Metadata{}, fmt.Errorf("failed to record usage: %w", err)
	}

	o.persistExchange(ctx, req, p, content, usage, inputCost, outputCost)

	warnings, err := o.governor.Warnings(ctx, req.UserID)
	if err != nil {
		logging.Warnf("Warning evaluation failed: %v", err)
	}

	o.triggerSummarizer(req.UserID, p.session.ID)

	return Metadata{
		Model:       p.model,
		Context:     p.contextName,
		EntityLinks: p.entities,
		Tokens: TokenCounts{
			Input:  usage.InputTokens,
			Output: usage.OutputTokens,
			Total:  usage.InputTokens + usage.OutputTokens,
		},
		Cost:           totalCost,
		ResponseTimeMs: elapsed,
		SessionID:      p.session.ID,
		Warnings:       warnings,
	}, nil
}

// persistExchange stores the user and assistant halves. Input tokens and
// their cost go on the user entry, output tokens on the assistant entry.
// This is a reporting convention carried over for compatibility, not a
// billing rule. Persistence failures are logged; the response already
// happened and must not be withheld.
func (o *Orchestrator) persistExchange(ctx context.Context, req *Request, p *prepared, content string, usage provider.Usage, inputCost, outputCost float64) {
	userMeta, _ := json.Marshal(map[string]any{"tokenType": "input"})
	if err := o.history.AppendMessage(ctx, db.ChatMessage{
		ID:        uuid.NewString(),
		SessionID: p.session.ID,
		Role:      "user",
		Content:   req.Message,
		Tokens:    usage.InputTokens,
		Model:     p.model,
		Cost:      inputCost,
		Metadata:  string(userMeta),
	}); err != nil {
		logging.Errorf("Failed to persist user message: %v", err)
		return
	}

	assistantMeta, _ := json.Marshal(map[string]any{"tokenType": "output"})
	if err := o.history.AppendMessage(ctx, db.ChatMessage{
		ID:        uuid.NewString(),
		SessionID: p.session.ID,
		Role:      "assistant",
		Content:   content,
		Tokens:    usage.OutputTokens,
		Model:     p.model,
		Cost:      outputCost,
		Metadata:  string(assistantMeta),
	}); err != nil {
		logging.Errorf("Failed to persist assistant message: %v", err)
	}
}

// triggerSummarizer fires summarization without blocking the response.
// Failures are logged and swallowed; summarization is advisory.
func (o *Orchestrator) triggerSummarizer(userID, sessionID string) {
	if o.summarizer == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		messages, err := o.history.GetMessages(ctx, sessionID, 0)
		if err != nil {
			logging.Warnf("Summarizer could not load history: %v", err)
			return
		}
		if _, err := o.summarizer.MaybeSummarize(ctx, userID, sessionID, messages); err != nil {
			logging.Warnf("Summarization failed for session %s: %v", sessionID, err)
		}
	}()
}

func systemPrompt(userName, domainText string, entities *entity.Result) string {
	prompt := "You are Luma, a personal productivity assistant"
	if userName != "" {
		prompt += " helping " + userName
	}
	prompt += ". Be concise and practical."
	if domainText != "" {
		prompt += "\n\nCurrent snapshot of the user's data:\n" + domainText
	}
	if entities != nil && !entities.Empty() {
		if refs := entityReferences(entities); refs != "" {
			prompt += "\n\nThe message references these records:\n" + refs
		}
	}
	return prompt
}

func entityReferences(r *entity.Result) string {
	var out string
	appendMatches := func(matches []entity.Match) {
		for _, m := range matches {
			out += fmt.Sprintf("- %s: %s\n", m.Type, m.DisplayName)
		}
	}
	appendMatches(r.Books)
	appendMatches(r.Projects)
	appendMatches(r.Goals)
	appendMatches(r.Skills)
	return out
}

// truncate cuts s to at most max bytes without splitting a rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
