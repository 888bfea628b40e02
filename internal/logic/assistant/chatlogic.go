package assistant

import (
	"context"

	"github.com/lumahq/luma/internal/assistant/orchestrator"
	"github.com/lumahq/luma/internal/logging"
	"github.com/lumahq/luma/internal/middleware"
	"github.com/lumahq/luma/internal/svc"
	"github.com/lumahq/luma/internal/types"
)

type ChatLogic struct {
	logging.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewChatLogic(ctx context.Context, svcCtx *svc.ServiceContext) *ChatLogic {
	return &ChatLogic{
		Logger: logging.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *ChatLogic) request(req *types.ChatRequest) *orchestrator.Request {
	// History selection is on unless the client explicitly turns it off.
	includeContext := req.IncludeContext == nil || *req.IncludeContext
	return &orchestrator.Request{
		UserID:         middleware.GetUserID(l.ctx),
		UserName:       middleware.GetUserName(l.ctx),
		Message:        req.Message,
		Model:          req.Model,
		ProjectID:      req.ProjectId,
		SessionID:      req.SessionId,
		Context:        req.Context,
		Temperature:    req.Temperature,
		MaxTokens:      req.MaxTokens,
		IncludeContext: includeContext,
	}
}

// Chat runs a non-streaming chat turn.
func (l *ChatLogic) Chat(req *types.ChatRequest) (*orchestrator.Result, error) {
	result, err := l.svcCtx.Orchestrator.Chat(l.ctx, l.request(req))
	if err != nil {
		l.Errorf("Chat failed: %v", err)
		return nil, err
	}
	return result, nil
}

// ChatStream runs a streaming chat turn, forwarding frames to fw.
func (l *ChatLogic) ChatStream(req *types.ChatRequest, fw orchestrator.FrameWriter) (*orchestrator.Result, error) {
	result, err := l.svcCtx.Orchestrator.ChatStream(l.ctx, l.request(req), fw)
	if err != nil {
		l.Errorf("Chat stream failed: %v", err)
		return nil, err
	}
	return result, nil
}
