package assistant

import (
	"context"

	"github.com/lumahq/luma/internal/assistant/orchestrator"
	"github.com/lumahq/luma/internal/logging"
	"github.com/lumahq/luma/internal/middleware"
	"github.com/lumahq/luma/internal/svc"
	"github.com/lumahq/luma/internal/types"
)

type AnalyzeLogic struct {
	logging.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewAnalyzeLogic(ctx context.Context, svcCtx *svc.ServiceContext) *AnalyzeLogic {
	return &AnalyzeLogic{
		Logger: logging.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// Analyze runs a one-shot deeper analysis over a domain summary.
func (l *AnalyzeLogic) Analyze(req *types.AnalyzeRequest) (*orchestrator.AnalyzeResult, error) {
	result, err := l.svcCtx.Orchestrator.Analyze(l.ctx, &orchestrator.AnalyzeRequest{
		UserID:   middleware.GetUserID(l.ctx),
		UserName: middleware.GetUserName(l.ctx),
		Context:  req.Context,
		Focus:    req.Focus,
		Model:    req.Model,
	})
	if err != nil {
		l.Errorf("Analysis failed: %v", err)
		return nil, err
	}
	return result, nil
}
