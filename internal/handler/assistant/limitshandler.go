package assistant

import (
	"net/http"

	"github.com/lumahq/luma/internal/httputil"
	"github.com/lumahq/luma/internal/logic/assistant"
	"github.com/lumahq/luma/internal/svc"
	"github.com/lumahq/luma/internal/types"
)

// Runtime update of the three cost ceilings
func UpdateLimitsHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.LimitsRequest
		if err := httputil.Parse(r, &req); err != nil {
			httputil.Error(w, err)
			return
		}

		l := assistant.NewLimitsLogic(r.Context(), svcCtx)
		resp, err := l.UpdateLimits(&req)
		if err != nil {
			writeError(w, err)
			return
		}
		httputil.OkJSON(w, resp)
	}
}
