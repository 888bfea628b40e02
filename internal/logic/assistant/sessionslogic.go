package assistant

import (
	"context"

	"github.com/lumahq/luma/internal/db"
	"github.com/lumahq/luma/internal/logging"
	"github.com/lumahq/luma/internal/middleware"
	"github.com/lumahq/luma/internal/svc"
	"github.com/lumahq/luma/internal/types"
)

type SessionsLogic struct {
	logging.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewSessionsLogic(ctx context.Context, svcCtx *svc.ServiceContext) *SessionsLogic {
	return &SessionsLogic{
		Logger: logging.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// ListSessions returns the user's chat sessions, most recent first.
func (l *SessionsLogic) ListSessions() ([]db.ChatSession, error) {
	return l.svcCtx.Store.ListSessions(l.ctx, middleware.GetUserID(l.ctx))
}

// SessionMessages returns a session's messages oldest first, owner-scoped.
func (l *SessionsLogic) SessionMessages(req *types.SessionMessagesRequest) ([]db.ChatMessage, error) {
	userID := middleware.GetUserID(l.ctx)
	if _, err := l.svcCtx.Store.GetSession(l.ctx, userID, req.Id); err != nil {
		return nil, err
	}
	return l.svcCtx.Store.GetMessages(l.ctx, req.Id, req.Limit)
}
