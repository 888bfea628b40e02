package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/lumahq/luma/internal/assistant/cost"
	"github.com/lumahq/luma/internal/assistant/domain"
	"github.com/lumahq/luma/internal/logging"
	"github.com/lumahq/luma/internal/provider"
)

// AnalyzeRequest asks for a one-shot deeper analysis of a domain snapshot.
type AnalyzeRequest struct {
	UserID   string
	UserName string
	Context  string
	Focus    string
	Model    string
}

// AnalyzeResult is the analysis outcome.
type AnalyzeResult struct {
	Analysis string         `json:"analysis"`
	Denied   *cost.Decision `json:"denied,omitempty"`
	Metadata Metadata       `json:"metadata"`
}

// Analyze runs a single budget-governed LLM pass over a domain summary.
// Nothing is persisted to chat history; the result is ephemeral.
func (o *Orchestrator) Analyze(ctx context.Context, req *AnalyzeRequest) (*AnalyzeResult, error) {
	kind, err := domain.ParseContext(req.Context)
	if err != nil {
		return nil, err
	}
	if o.domains == nil {
		return nil, fmt.Errorf("domain summaries not configured")
	}
	summary, err := o.domains.Build(ctx, req.UserID, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s summary: %w", kind, err)
	}

	model := req.Model
	if model == "" {
		model = o.cfg.AnalysisModel
	}
	if model == "" {
		model = o.cfg.DefaultModel
	}
	chat, err := o.providerFor(model)
	if err != nil {
		return nil, err
	}

	prompt := "Analyze this snapshot of the user's data and point out patterns, risks, and concrete next steps.\n\n" + summary.Text
	if req.Focus != "" {
		prompt += "\nFocus on: " + req.Focus
	}

	estimate := o.governor.EstimateCost(model, len(prompt), 0)
	decision, err := o.governor.CheckBudget(ctx, req.UserID, estimate)
	if err != nil {
		return nil, fmt.Errorf("budget check failed: %w", err)
	}
	if !decision.Allowed {
		d := decision
		return &AnalyzeResult{Denied: &d, Metadata: Metadata{Model: model, Context: kind.String()}}, nil
	}

	start := time.Now()
	callCtx, cancel := context.WithTimeout(ctx, o.cfg.RequestTimeout)
	defer cancel()

	resp, err := chat.Complete(callCtx, &provider.ChatRequest{
		Model:    model,
		System:   systemPrompt(req.UserName, "", nil),
		Messages: []provider.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return nil, fmt.Errorf("analysis failed: %w", err)
	}
	elapsed := time.Since(start).Milliseconds()

	totalCost := o.governor.CostFor(model, resp.Usage.InputTokens, resp.Usage.OutputTokens)
	if err := o.governor.RecordActual(ctx, req.UserID, cost.Actual{
		Model:          model,
		InputTokens:    resp.Usage.InputTokens,
		OutputTokens:   resp.Usage.OutputTokens,
		Cost:           totalCost,
		ResponseTimeMs: elapsed,
	}); err != nil {
		return nil, fmt.Errorf("failed to record usage: %w", err)
	}

	warnings, err := o.governor.Warnings(ctx, req.UserID)
	if err != nil {
		logging.Warnf("Warning evaluation failed: %v", err)
	}

	return &AnalyzeResult{
		Analysis: resp.Content,
		Metadata: Metadata{
			Model:   model,
			Context: kind.String(),
			Tokens: TokenCounts{
				Input:  resp.Usage.InputTokens,
				Output: resp.Usage.OutputTokens,
				Total:  resp.Usage.InputTokens + resp.Usage.OutputTokens,
			},
			Cost:           totalCost,
			ResponseTimeMs: elapsed,
			Warnings:       warnings,
		},
	}, nil
}
