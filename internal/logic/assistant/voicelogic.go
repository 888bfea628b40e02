package assistant

import (
	"context"

	"github.com/lumahq/luma/internal/assistant/orchestrator"
	"github.com/lumahq/luma/internal/logging"
	"github.com/lumahq/luma/internal/middleware"
	"github.com/lumahq/luma/internal/svc"
	"github.com/lumahq/luma/internal/types"
)

type VoiceLogic struct {
	logging.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewVoiceLogic(ctx context.Context, svcCtx *svc.ServiceContext) *VoiceLogic {
	return &VoiceLogic{
		Logger: logging.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// Voice runs a speech-to-text, chat, text-to-speech turn.
func (l *VoiceLogic) Voice(req *types.VoiceRequest) (*orchestrator.VoiceResult, error) {
	result, err := l.svcCtx.Orchestrator.Voice(l.ctx, &orchestrator.VoiceRequest{
		UserID:        middleware.GetUserID(l.ctx),
		UserName:      middleware.GetUserName(l.ctx),
		AudioData:     req.AudioData,
		Model:         req.Model,
		Language:      req.Language,
		ProjectID:     req.ProjectId,
		SessionID:     req.SessionId,
		Context:       req.Context,
		ResponseVoice: req.ResponseVoice,
	})
	if err != nil {
		l.Errorf("Voice request failed: %v", err)
		return nil, err
	}
	return result, nil
}
