package assistant

import (
	"net/http"

	"github.com/lumahq/luma/internal/httputil"
	"github.com/lumahq/luma/internal/logic/assistant"
	"github.com/lumahq/luma/internal/svc"
)

// Model catalog with pricing
func ListModelsHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := assistant.NewModelsLogic(r.Context(), svcCtx)
		httputil.OkJSON(w, l.Models())
	}
}
