package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lumahq/luma/internal/logging"
	"github.com/lumahq/luma/internal/provider"
)

// Frame is one server-sent event in a streaming response.
type Frame struct {
	Type     string    `json:"type"` // content, metadata, done, error
	Content  string    `json:"content,omitempty"`
	Metadata *Metadata `json:"metadata,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// FrameWriter delivers frames to the client. Implementations flush each
// frame immediately.
type FrameWriter interface {
	WriteFrame(frame Frame) error
}

// ChatStream runs the streaming pipeline. Content deltas are forwarded as
// they arrive, followed by one metadata frame and one done frame. A budget
// denial is returned before any frame is written so the caller can still
// send a regular HTTP status.
//
// If the client disconnects mid-stream, forwarding stops but cost
// accounting is still finalized from whatever usage the provider reported;
// partial generation still costs money.
func (o *Orchestrator) ChatStream(ctx context.Context, req *Request, fw FrameWriter) (*Result, error) {
	p, denied, err := o.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	if denied != nil {
		return denied, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, o.cfg.RequestTimeout)
	defer cancel()

	events, err := p.chat.Stream(callCtx, p.providerReq)
	if err != nil {
		return nil, err
	}

	var (
		full         strings.Builder
		usage        *provider.Usage
		disconnected bool
		streamErr    error
	)

	for event := range events {
		switch event.Type {
		case provider.EventTypeText:
			full.WriteString(event.Text)
			if disconnected {
				continue
			}
			if err := fw.WriteFrame(Frame{Type: "content", Content: event.Text}); err != nil {
				logging.Warnf("Client disconnected mid-stream: %v", err)
				disconnected = true
			}

		case provider.EventTypeUsage:
			usage = event.Usage

		case provider.EventTypeError:
			streamErr = event.Error
		}
	}

	if streamErr != nil && full.Len() == 0 && usage == nil {
		// Nothing generated, nothing consumed: fail closed without charge.
		reason := provider.ClassifyErrorReason(streamErr)
		logging.Errorf("Stream failed before any output (%s): %v", reason, streamErr)
		if !disconnected {
			fw.WriteFrame(Frame{Type: "error", Error: "generation failed"})
		}
		return nil, fmt.Errorf("generation failed (%s): %w", reason, streamErr)
	}

	content := full.String()
	actual := o.usageOrEstimate(p, content, usage)

	// Finalize on a fresh context: the request context may already be
	// canceled by a disconnect, but the spend happened.
	finCtx, finCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer finCancel()

	meta, err := o.finalize(finCtx, req, p, content, actual, 0)
	if err != nil {
		return nil, err
	}

	if streamErr != nil {
		if !disconnected {
			fw.WriteFrame(Frame{Type: "error", Error: "generation interrupted"})
		}
		return &Result{Response: content, Metadata: meta}, nil
	}

	if !disconnected {
		if err := fw.WriteFrame(Frame{Type: "metadata", Metadata: &meta}); err == nil {
			fw.WriteFrame(Frame{Type: "done"})
		}
	}
	return &Result{Response: content, Metadata: meta}, nil
}

// usageOrEstimate falls back to character-based token estimates when the
// provider sent no final usage frame.
func (o *Orchestrator) usageOrEstimate(p *prepared, content string, usage *provider.Usage) provider.Usage {
	if usage != nil {
		return *usage
	}
	inputChars := len(p.providerReq.System)
	for _, m := range p.providerReq.Messages {
		inputChars += len(m.Content)
	}
	return provider.Usage{
		InputTokens:  (inputChars + 3) / 4,
		OutputTokens: (len(content) + 3) / 4,
	}
}
