package assistant

import (
	"context"

	"github.com/lumahq/luma/internal/config"
	"github.com/lumahq/luma/internal/logging"
	"github.com/lumahq/luma/internal/svc"
	"github.com/lumahq/luma/internal/types"
)

type LimitsLogic struct {
	logging.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewLimitsLogic(ctx context.Context, svcCtx *svc.ServiceContext) *LimitsLogic {
	return &LimitsLogic{
		Logger: logging.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// UpdateLimits changes the cost ceilings at runtime. The change is
// process-wide, not per-user, and does not survive restart.
func (l *LimitsLogic) UpdateLimits(req *types.LimitsRequest) (*types.LimitsResponse, error) {
	l.svcCtx.Governor.SetLimits(config.Limits{
		PerRequest: req.PerRequest,
		Daily:      req.Daily,
		Monthly:    req.Monthly,
	})

	limits := l.svcCtx.Governor.Limits()
	l.Infof("Cost ceilings updated: perRequest=%.2f daily=%.2f monthly=%.2f",
		limits.PerRequest, limits.Daily, limits.Monthly)

	return &types.LimitsResponse{
		PerRequest: limits.PerRequest,
		Daily:      limits.Daily,
		Monthly:    limits.Monthly,
	}, nil
}
