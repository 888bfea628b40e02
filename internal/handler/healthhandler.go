package handler

import (
	"net/http"

	"github.com/lumahq/luma/internal/httputil"
	"github.com/lumahq/luma/internal/svc"
	"github.com/lumahq/luma/internal/types"
)

// Version is set at build time via ldflags.
var Version = "dev"

// HealthCheckHandler reports liveness. No auth; used by the desktop shell
// to detect when the local server is up.
func HealthCheckHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httputil.OkJSON(w, types.HealthResponse{
			Status:  "ok",
			Version: Version,
		})
	}
}
