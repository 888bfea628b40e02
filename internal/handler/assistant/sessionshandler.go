package assistant

import (
	"net/http"

	"github.com/lumahq/luma/internal/db"
	"github.com/lumahq/luma/internal/httputil"
	"github.com/lumahq/luma/internal/logic/assistant"
	"github.com/lumahq/luma/internal/svc"
	"github.com/lumahq/luma/internal/types"
)

// List the user's chat sessions
func ListSessionsHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := assistant.NewSessionsLogic(r.Context(), svcCtx)
		sessions, err := l.ListSessions()
		if err != nil {
			writeError(w, err)
			return
		}
		if sessions == nil {
			sessions = []db.ChatSession{}
		}
		httputil.OkJSON(w, sessions)
	}
}

// Messages of one session, oldest first
func SessionMessagesHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.SessionMessagesRequest
		if err := httputil.Parse(r, &req); err != nil {
			httputil.Error(w, err)
			return
		}

		l := assistant.NewSessionsLogic(r.Context(), svcCtx)
		messages, err := l.SessionMessages(&req)
		if err != nil {
			writeError(w, err)
			return
		}
		if messages == nil {
			messages = []db.ChatMessage{}
		}
		httputil.OkJSON(w, messages)
	}
}
