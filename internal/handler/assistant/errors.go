package assistant

import (
	"errors"
	"net/http"

	"github.com/lumahq/luma/internal/assistant/cost"
	"github.com/lumahq/luma/internal/assistant/domain"
	"github.com/lumahq/luma/internal/assistant/orchestrator"
	"github.com/lumahq/luma/internal/db"
	"github.com/lumahq/luma/internal/httputil"
)

// writeError maps pipeline errors to HTTP statuses. Provider failures come
// back sanitized; their details are already logged server-side.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, orchestrator.ErrEmptyMessage),
		errors.Is(err, orchestrator.ErrEmptyAudio),
		errors.Is(err, domain.ErrUnknownContext):
		httputil.BadRequest(w, err.Error())
	case errors.Is(err, db.ErrSessionNotFound):
		httputil.ErrorWithCode(w, http.StatusNotFound, err.Error())
	default:
		httputil.InternalError(w, "assistant request failed")
	}
}

// writeDenial sends a 429 with machine-readable limit details.
func writeDenial(w http.ResponseWriter, d *cost.Decision) {
	httputil.TooManyRequests(w, d.Reason, d)
}
