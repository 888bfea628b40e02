package assistant

import (
	"context"
	"time"

	"github.com/lumahq/luma/internal/db"
	"github.com/lumahq/luma/internal/logging"
	"github.com/lumahq/luma/internal/middleware"
	"github.com/lumahq/luma/internal/svc"
	"github.com/lumahq/luma/internal/types"
)

type UsageLogic struct {
	logging.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewUsageLogic(ctx context.Context, svcCtx *svc.ServiceContext) *UsageLogic {
	return &UsageLogic{
		Logger: logging.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// Usage reports current spend against limits plus a historical series for
// the requested period.
func (l *UsageLogic) Usage(req *types.UsageRequest) (*types.UsageResponse, error) {
	userID := middleware.GetUserID(l.ctx)
	now := time.Now()
	today := now.Format("2006-01-02")
	month := now.Format("2006-01")

	daily, err := l.svcCtx.Store.GetUsage(l.ctx, userID, db.PeriodDaily, today)
	if err != nil {
		return nil, err
	}
	monthly, err := l.svcCtx.Store.GetUsage(l.ctx, userID, db.PeriodMonthly, month)
	if err != nil {
		return nil, err
	}

	kind, since := historyWindow(req.Period, now)
	entries, err := l.svcCtx.Store.ListUsageSince(l.ctx, userID, kind, since)
	if err != nil {
		return nil, err
	}
	history := make([]types.UsagePeriod, 0, len(entries))
	for _, e := range entries {
		history = append(history, types.UsagePeriod{
			Period:       e.Period,
			TotalCost:    e.TotalCost,
			RequestCount: e.RequestCount,
		})
	}

	limits := l.svcCtx.Governor.Limits()
	return &types.UsageResponse{
		DailyUsage:   daily,
		DailyLimit:   limits.Daily,
		MonthlyUsage: monthly,
		MonthlyLimit: limits.Monthly,
		PerRequest:   limits.PerRequest,
		History:      history,
	}, nil
}

// historyWindow maps a period name to the ledger granularity and start
// period for the historical series.
func historyWindow(period string, now time.Time) (db.PeriodKind, string) {
	switch period {
	case "week":
		return db.PeriodDaily, now.AddDate(0, 0, -7).Format("2006-01-02")
	case "month":
		return db.PeriodDaily, now.AddDate(0, -1, 0).Format("2006-01-02")
	case "year":
		return db.PeriodMonthly, now.AddDate(-1, 0, 0).Format("2006-01")
	default: // current
		return db.PeriodDaily, now.Format("2006-01-02")
	}
}
