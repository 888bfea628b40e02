package assistant

import (
	"context"

	"github.com/lumahq/luma/internal/assistant/domain"
	"github.com/lumahq/luma/internal/logging"
	"github.com/lumahq/luma/internal/middleware"
	"github.com/lumahq/luma/internal/svc"
)

type SummaryLogic struct {
	logging.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewSummaryLogic(ctx context.Context, svcCtx *svc.ServiceContext) *SummaryLogic {
	return &SummaryLogic{
		Logger: logging.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// Summary builds a read-only domain snapshot for the named context.
// An unknown name is a validation error for the handler to map to 400.
func (l *SummaryLogic) Summary(contextName string) (*domain.Summary, error) {
	kind, err := domain.ParseContext(contextName)
	if err != nil {
		return nil, err
	}
	return l.svcCtx.Domains.Build(l.ctx, middleware.GetUserID(l.ctx), kind)
}

// Contexts returns the static catalog of summary contexts.
func (l *SummaryLogic) Contexts() []domain.ContextInfo {
	return domain.Catalog()
}
