package assistant

import (
	"encoding/json"
	"net/http"

	"github.com/lumahq/luma/internal/assistant/orchestrator"
	"github.com/lumahq/luma/internal/httputil"
	"github.com/lumahq/luma/internal/logic/assistant"
	"github.com/lumahq/luma/internal/svc"
	"github.com/lumahq/luma/internal/types"
)

// Chat turn, streaming or whole depending on the stream flag
func ChatHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.ChatRequest
		if err := httputil.Parse(r, &req); err != nil {
			httputil.Error(w, err)
			return
		}

		l := assistant.NewChatLogic(r.Context(), svcCtx)

		if req.Stream {
			streamChat(w, l, &req)
			return
		}

		result, err := l.Chat(&req)
		if err != nil {
			writeError(w, err)
			return
		}
		if result.Denied != nil {
			writeDenial(w, result.Denied)
			return
		}
		httputil.OkJSON(w, types.ChatResponse{
			Response: result.Response,
			Metadata: result.Metadata,
		})
	}
}

func streamChat(w http.ResponseWriter, l *assistant.ChatLogic, req *types.ChatRequest) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		httputil.InternalError(w, "streaming not supported")
		return
	}

	// The budget check runs before the first frame, so a denial can still
	// use a regular status line. Peek via a deferred-header writer: frames
	// only start once the pipeline passes the pre-checks.
	sw := &sseWriter{w: w, flusher: flusher}
	result, err := l.ChatStream(req, sw)
	if err != nil {
		if !sw.started {
			writeError(w, err)
		}
		return
	}
	if result.Denied != nil {
		writeDenial(w, result.Denied)
		return
	}
}

// sseWriter frames orchestrator events as server-sent events. Headers are
// written lazily on the first frame.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	started bool
}

func (s *sseWriter) WriteFrame(frame orchestrator.Frame) error {
	if !s.started {
		s.w.Header().Set("Content-Type", "text/event-stream")
		s.w.Header().Set("Cache-Control", "no-cache")
		s.w.Header().Set("Connection", "keep-alive")
		s.w.WriteHeader(http.StatusOK)
		s.started = true
	}

	payload, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	if _, err := s.w.Write([]byte("data: " + string(payload) + "\n\n")); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}
