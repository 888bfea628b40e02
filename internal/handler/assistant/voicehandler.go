package assistant

import (
	"net/http"

	"github.com/lumahq/luma/internal/httputil"
	"github.com/lumahq/luma/internal/logic/assistant"
	"github.com/lumahq/luma/internal/svc"
	"github.com/lumahq/luma/internal/types"
)

// Voice turn: transcription, chat, synthesis
func VoiceHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.VoiceRequest
		if err := httputil.Parse(r, &req); err != nil {
			httputil.Error(w, err)
			return
		}

		l := assistant.NewVoiceLogic(r.Context(), svcCtx)
		result, err := l.Voice(&req)
		if err != nil {
			writeError(w, err)
			return
		}
		if result.Denied != nil {
			writeDenial(w, result.Denied)
			return
		}
		httputil.OkJSON(w, types.VoiceResponse{
			Transcription: result.Transcription,
			Response:      result.Response,
			Audio:         result.Audio,
			Metadata:      result.Metadata,
		})
	}
}
