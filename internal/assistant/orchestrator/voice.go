package orchestrator

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/lumahq/luma/internal/assistant/cost"
	"github.com/lumahq/luma/internal/logging"
	"github.com/lumahq/luma/internal/voice"
)

// ErrEmptyAudio is returned for voice requests without audio data.
var ErrEmptyAudio = errors.New("audioData is required")

// Speech is the speech-to-text and text-to-speech collaborator.
// Satisfied by voice.Client.
type Speech interface {
	Transcribe(ctx context.Context, audio []byte, model, language string) (*voice.Transcription, error)
	Speak(ctx context.Context, text, model, voiceName string) ([]byte, error)
}

// Speech pricing. Whisper bills per minute of audio, TTS per character.
const (
	whisperPerMinute   = 0.006
	ttsPerMillionChars = 15.00
)

// VoiceRequest is one inbound voice turn. AudioData is base64.
type VoiceRequest struct {
	UserID        string
	UserName      string
	AudioData     string
	Model         string
	Language      string
	ProjectID     string
	SessionID     string
	Context       string
	ResponseVoice string
}

// VoiceResult is the outcome of a voice turn. Audio is base64.
type VoiceResult struct {
	Transcription string         `json:"transcription"`
	Response      string         `json:"response"`
	Audio         string         `json:"audio"`
	Denied        *cost.Decision `json:"denied,omitempty"`
	Metadata      Metadata       `json:"metadata"`
}

// Voice runs speech-to-text, the regular chat pipeline, and text-to-speech.
// The three sub-costs land in one ledger record: they are a single governed
// transaction even though they hit three provider endpoints.
func (o *Orchestrator) Voice(ctx context.Context, req *VoiceRequest) (*VoiceResult, error) {
	if req.AudioData == "" {
		return nil, ErrEmptyAudio
	}
	if o.speech == nil {
		return nil, errors.New("speech provider not configured")
	}
	audio, err := base64.StdEncoding.DecodeString(req.AudioData)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 audio: %w", err)
	}

	sttCtx, sttCancel := context.WithTimeout(ctx, o.cfg.RequestTimeout)
	defer sttCancel()

	transcription, err := o.speech.Transcribe(sttCtx, audio, o.cfg.TranscribeModel, req.Language)
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}
	if transcription.Text == "" {
		return nil, errors.New("transcription produced no text")
	}
	sttCost := transcription.DurationSecs / 60 * whisperPerMinute

	chatReq := &Request{
		UserID:         req.UserID,
		UserName:       req.UserName,
		Message:        transcription.Text,
		Model:          req.Model,
		ProjectID:      req.ProjectID,
		SessionID:      req.SessionID,
		Context:        req.Context,
		IncludeContext: true,
	}

	p, denied, err := o.prepare(ctx, chatReq)
	if err != nil {
		return nil, err
	}
	if denied != nil {
		// The transcription already ran and consumed quota; charge it even
		// though the chat half was refused.
		if recErr := o.governor.RecordActual(ctx, req.UserID, cost.Actual{
			Model: o.cfg.TranscribeModel,
			Cost:  sttCost,
		}); recErr != nil {
			logging.Errorf("Failed to record transcription cost: %v", recErr)
		}
		return &VoiceResult{
			Transcription: transcription.Text,
			Denied:        denied.Denied,
			Metadata:      denied.Metadata,
		}, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, o.cfg.RequestTimeout)
	defer cancel()

	resp, err := p.chat.Complete(callCtx, p.providerReq)
	if err != nil {
		return nil, fmt.Errorf("completion failed: %w", err)
	}

	ttsVoice := req.ResponseVoice
	if ttsVoice == "" {
		ttsVoice = o.cfg.TTSVoice
	}

	ttsCtx, ttsCancel := context.WithTimeout(ctx, o.cfg.RequestTimeout)
	defer ttsCancel()

	var audioOut string
	var ttsCost float64
	if speech, err := o.speech.Speak(ttsCtx, resp.Content, o.cfg.TTSModel, ttsVoice); err != nil {
		// The text response stands on its own; synthesis is best effort.
		logging.Warnf("Speech synthesis failed: %v", err)
	} else {
		audioOut = base64.StdEncoding.EncodeToString(speech)
		ttsCost = float64(len(resp.Content)) / 1_000_000 * ttsPerMillionChars
	}

	meta, err := o.finalize(ctx, chatReq, p, resp.Content, resp.Usage, sttCost+ttsCost)
	if err != nil {
		return nil, err
	}

	return &VoiceResult{
		Transcription: transcription.Text,
		Response:      resp.Content,
		Audio:         audioOut,
		Metadata:      meta,
	}, nil
}
