// Package cost enforces per-user spend ceilings for LLM calls. Three
// independent ceilings apply: per-request, daily, and monthly. Denial is a
// normal control-flow outcome carried in a Decision value, never an error.
package cost

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lumahq/luma/internal/config"
	"github.com/lumahq/luma/internal/db"
	"github.com/lumahq/luma/internal/provider"
)

// LimitType identifies which ceiling a decision refers to.
type LimitType string

const (
	LimitRequest LimitType = "request"
	LimitDaily   LimitType = "daily"
	LimitMonthly LimitType = "monthly"
)

// Estimate is a request-scoped cost projection computed before the call.
// Never persisted.
type Estimate struct {
	Model        string  `json:"model"`
	InputTokens  int     `json:"estimatedInputTokens"`
	OutputTokens int     `json:"estimatedOutputTokens"`
	Cost         float64 `json:"estimatedCost"`
}

// Actual is what a completed call really consumed.
type Actual struct {
	Model          string  `json:"model"`
	InputTokens    int     `json:"inputTokens"`
	OutputTokens   int     `json:"outputTokens"`
	Cost           float64 `json:"actualCost"`
	ResponseTimeMs int64   `json:"responseTimeMs"`
}

// Decision is the outcome of a budget check. When denied it carries the
// ceiling type, current usage, and remaining headroom so callers can present
// an actionable message instead of a bare forbidden.
type Decision struct {
	Allowed         bool      `json:"allowed"`
	LimitType       LimitType `json:"limitType,omitempty"`
	Reason          string    `json:"reason,omitempty"`
	CurrentUsage    float64   `json:"currentUsage"`
	RemainingBudget float64   `json:"remainingBudget"`
}

// Pricer resolves a model to its price tier. Satisfied by provider.Catalog.
type Pricer interface {
	Pricing(model string) provider.ModelPricing
}

// UsageStore is the injected spend ledger. db.Store implements it with an
// atomic conditional upsert; the check-then-record window between CheckBudget
// and RecordActual is still open across concurrent requests, bounded by the
// per-request ceiling.
type UsageStore interface {
	AddUsage(ctx context.Context, userID string, kind db.PeriodKind, period string, cost float64) error
	GetUsage(ctx context.Context, userID string, kind db.PeriodKind, period string) (float64, error)
	PurgeUsageBefore(ctx context.Context, dailyCutoff, monthlyCutoff string) (int64, error)
}

// Governor tracks spend against the three ceilings.
type Governor struct {
	mu               sync.RWMutex
	limits           config.Limits
	warnRatio        float64
	defaultMaxOutput int
	pricer           Pricer
	store            UsageStore
	now              func() time.Time
}

// NewGovernor creates a cost governor over a usage store and price catalog.
func NewGovernor(store UsageStore, pricer Pricer, limits config.Limits, defaultMaxOutput int, warnRatio float64) *Governor {
	if defaultMaxOutput <= 0 {
		defaultMaxOutput = 1000
	}
	if warnRatio <= 0 {
		warnRatio = 0.8
	}
	return &Governor{
		limits:           limits,
		warnRatio:        warnRatio,
		defaultMaxOutput: defaultMaxOutput,
		pricer:           pricer,
		store:            store,
		now:              time.Now,
	}
}

// Limits returns the current ceilings.
func (g *Governor) Limits() config.Limits {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.limits
}

// SetLimits updates the ceilings at runtime. Process-wide, not per-user.
func (g *Governor) SetLimits(l config.Limits) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if l.PerRequest > 0 {
		g.limits.PerRequest = l.PerRequest
	}
	if l.Daily > 0 {
		g.limits.Daily = l.Daily
	}
	if l.Monthly > 0 {
		g.limits.Monthly = l.Monthly
	}
}

// EstimateCost projects the cost of a call before making it. Input tokens
// are approximated as ceil(chars/4); output tokens default to the configured
// cap when the caller gives none.
func (g *Governor) EstimateCost(model string, inputLength, maxOutputTokens int) Estimate {
	inputTokens := (inputLength + 3) / 4
	outputTokens := maxOutputTokens
	if outputTokens <= 0 {
		g.mu.RLock()
		outputTokens = g.defaultMaxOutput
		g.mu.RUnlock()
	}
	return Estimate{
		Model:        model,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		Cost:         g.CostFor(model, inputTokens, outputTokens),
	}
}

// CostFor prices a token count against the catalog. Prices are $ per 1M
// tokens.
func (g *Governor) CostFor(model string, inputTokens, outputTokens int) float64 {
	p := g.pricer.Pricing(model)
	return float64(inputTokens)*p.Input/1_000_000 + float64(outputTokens)*p.Output/1_000_000
}

// CheckBudget evaluates the three ceilings in order: per-request, daily,
// monthly. Any one is sufficient to deny. A spend exactly equal to a ceiling
// is allowed; only exceeding it denies.
func (g *Governor) CheckBudget(ctx context.Context, userID string, est Estimate) (Decision, error) {
	g.mu.RLock()
	limits := g.limits
	g.mu.RUnlock()

	if est.Cost > limits.PerRequest {
		return Decision{
			LimitType:       LimitRequest,
			Reason:          fmt.Sprintf("estimated cost $%.4f exceeds per-request limit $%.2f", est.Cost, limits.PerRequest),
			RemainingBudget: limits.PerRequest,
		}, nil
	}

	now := g.now()
	daily, err := g.store.GetUsage(ctx, userID, db.PeriodDaily, dayPeriod(now))
	if err != nil {
		return Decision{}, fmt.Errorf("failed to read daily usage: %w", err)
	}
	if daily+est.Cost > limits.Daily {
		return Decision{
			LimitType:       LimitDaily,
			Reason:          fmt.Sprintf("daily spend $%.2f plus estimated $%.4f exceeds limit $%.2f", daily, est.Cost, limits.Daily),
			CurrentUsage:    daily,
			RemainingBudget: limits.Daily - daily,
		}, nil
	}

	monthly, err := g.store.GetUsage(ctx, userID, db.PeriodMonthly, monthPeriod(now))
	if err != nil {
		return Decision{}, fmt.Errorf("failed to read monthly usage: %w", err)
	}
	if monthly+est.Cost > limits.Monthly {
		return Decision{
			LimitType:       LimitMonthly,
			Reason:          fmt.Sprintf("monthly spend $%.2f plus estimated $%.4f exceeds limit $%.2f", monthly, est.Cost, limits.Monthly),
			CurrentUsage:    monthly,
			RemainingBudget: limits.Monthly - monthly,
		}, nil
	}

	return Decision{
		Allowed:         true,
		CurrentUsage:    daily,
		RemainingBudget: limits.Daily - daily,
	}, nil
}

// RecordActual adds a completed call's real cost to the daily and monthly
// ledger rows.
func (g *Governor) RecordActual(ctx context.Context, userID string, usage Actual) error {
	now := g.now()
	if err := g.store.AddUsage(ctx, userID, db.PeriodDaily, dayPeriod(now), usage.Cost); err != nil {
		return fmt.Errorf("failed to record daily usage: %w", err)
	}
	if err := g.store.AddUsage(ctx, userID, db.PeriodMonthly, monthPeriod(now), usage.Cost); err != nil {
		return fmt.Errorf("failed to record monthly usage: %w", err)
	}
	return nil
}

// Warnings returns advisory messages for any period at or past the warning
// ratio of its ceiling. Evaluated after actual cost is recorded; distinct
// from hard denial.
func (g *Governor) Warnings(ctx context.Context, userID string) ([]string, error) {
	g.mu.RLock()
	limits := g.limits
	ratio := g.warnRatio
	g.mu.RUnlock()

	now := g.now()
	var warnings []string

	daily, err := g.store.GetUsage(ctx, userID, db.PeriodDaily, dayPeriod(now))
	if err != nil {
		return nil, err
	}
	if limits.Daily > 0 && daily >= ratio*limits.Daily {
		warnings = append(warnings, fmt.Sprintf("daily spend $%.2f is at %.0f%% of the $%.2f limit",
			daily, daily/limits.Daily*100, limits.Daily))
	}

	monthly, err := g.store.GetUsage(ctx, userID, db.PeriodMonthly, monthPeriod(now))
	if err != nil {
		return nil, err
	}
	if limits.Monthly > 0 && monthly >= ratio*limits.Monthly {
		warnings = append(warnings, fmt.Sprintf("monthly spend $%.2f is at %.0f%% of the $%.2f limit",
			monthly, monthly/limits.Monthly*100, limits.Monthly))
	}

	return warnings, nil
}

func dayPeriod(t time.Time) string {
	return t.Format("2006-01-02")
}

func monthPeriod(t time.Time) string {
	return t.Format("2006-01")
}
