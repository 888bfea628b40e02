package assistant

import (
	"net/http"

	"github.com/lumahq/luma/internal/httputil"
	"github.com/lumahq/luma/internal/logic/assistant"
	"github.com/lumahq/luma/internal/svc"
)

// Domain snapshot for the general context
func SummaryHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := assistant.NewSummaryLogic(r.Context(), svcCtx)
		resp, err := l.Summary("")
		if err != nil {
			writeError(w, err)
			return
		}
		httputil.OkJSON(w, resp)
	}
}

// Domain snapshot for a named context; 400 on unknown names
func SummaryContextHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := assistant.NewSummaryLogic(r.Context(), svcCtx)
		resp, err := l.Summary(httputil.PathVar(r, "context"))
		if err != nil {
			writeError(w, err)
			return
		}
		httputil.OkJSON(w, resp)
	}
}

// Static catalog of summary contexts
func ContextsHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := assistant.NewSummaryLogic(r.Context(), svcCtx)
		httputil.OkJSON(w, l.Contexts())
	}
}
