package assistant

import (
	"context"
	"sort"

	"github.com/lumahq/luma/internal/logging"
	"github.com/lumahq/luma/internal/provider"
	"github.com/lumahq/luma/internal/svc"
)

type ModelsLogic struct {
	logging.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewModelsLogic(ctx context.Context, svcCtx *svc.ServiceContext) *ModelsLogic {
	return &ModelsLogic{
		Logger: logging.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// Models returns the pricing catalog sorted by provider then ID.
func (l *ModelsLogic) Models() []provider.ModelInfo {
	models := l.svcCtx.Catalog.Models()
	sort.Slice(models, func(a, b int) bool {
		if models[a].Provider != models[b].Provider {
			return models[a].Provider < models[b].Provider
		}
		return models[a].ID < models[b].ID
	})
	return models
}
