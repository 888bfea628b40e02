package assistant

import (
	"net/http"

	"github.com/lumahq/luma/internal/httputil"
	"github.com/lumahq/luma/internal/logic/assistant"
	"github.com/lumahq/luma/internal/svc"
	"github.com/lumahq/luma/internal/types"
)

// Current spend against limits plus a historical series
func UsageHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.UsageRequest
		if err := httputil.Parse(r, &req); err != nil {
			httputil.Error(w, err)
			return
		}

		l := assistant.NewUsageLogic(r.Context(), svcCtx)
		resp, err := l.Usage(&req)
		if err != nil {
			writeError(w, err)
			return
		}
		httputil.OkJSON(w, resp)
	}
}
