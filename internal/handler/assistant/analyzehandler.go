package assistant

import (
	"net/http"

	"github.com/lumahq/luma/internal/httputil"
	"github.com/lumahq/luma/internal/logic/assistant"
	"github.com/lumahq/luma/internal/svc"
	"github.com/lumahq/luma/internal/types"
)

// One-shot deeper analysis over a domain summary
func AnalyzeHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.AnalyzeRequest
		if err := httputil.Parse(r, &req); err != nil {
			httputil.Error(w, err)
			return
		}

		l := assistant.NewAnalyzeLogic(r.Context(), svcCtx)
		result, err := l.Analyze(&req)
		if err != nil {
			writeError(w, err)
			return
		}
		if result.Denied != nil {
			writeDenial(w, result.Denied)
			return
		}
		httputil.OkJSON(w, types.AnalyzeResponse{
			Analysis: result.Analysis,
			Metadata: result.Metadata,
		})
	}
}
