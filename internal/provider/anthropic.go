package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"

	"github.com/lumahq/luma/internal/logging"
)

const anthropicDefaultMaxTokens = 1024

// Anthropic implements the Chat interface using the official SDK.
type Anthropic struct {
	client anthropic.Client
	model  string
}

// NewAnthropic creates an Anthropic chat provider.
func NewAnthropic(apiKey, model string) *Anthropic {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &Anthropic{client: client, model: model}
}

// ID returns the provider identifier
func (p *Anthropic) ID() string {
	return "anthropic"
}

func (p *Anthropic) params(req *ChatRequest) anthropic.MessageNewParams {
	model := p.model
	if req.Model != "" {
		model = req.Model
	}

	maxTokens := anthropicDefaultMaxTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}

	var messages []anthropic.MessageParam
	for _, msg := range req.Messages {
		// Skip empty content; the API rejects empty text blocks.
		if msg.Content == "" {
			continue
		}
		switch msg.Role {
		case "assistant":
			messages = append(messages, anthropic.MessageParam{
				Role:    anthropic.MessageParamRoleAssistant,
				Content: []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(msg.Content)},
			})
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
		Messages:  messages,
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}
	return params
}

// Complete sends a blocking completion request.
func (p *Anthropic) Complete(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	params := p.params(req)
	logging.Debugf("[anthropic] completion: model=%s messages=%d", params.Model, len(params.Messages))

	message, err := p.client.Messages.New(ctx, params)
	if err != nil {
		// The SDK error carries only the HTTP status; derive the type
		// from it so callers can classify without string matching.
		var apierr *anthropic.Error
		if errors.As(err, &apierr) {
			return nil, &Error{
				Type:    typeForStatus(apierr.StatusCode),
				Message: fmt.Sprintf("anthropic completion failed: %v", err),
			}
		}
		return nil, &Error{Message: fmt.Sprintf("anthropic completion failed: %v", err)}
	}

	var content string
	for _, block := range message.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			content += text.Text
		}
	}

	return &ChatResponse{
		Content: content,
		Usage: Usage{
			InputTokens:  int(message.Usage.InputTokens),
			OutputTokens: int(message.Usage.OutputTokens),
		},
	}, nil
}

// Stream sends a request and returns streaming events.
func (p *Anthropic) Stream(ctx context.Context, req *ChatRequest) (<-chan StreamEvent, error) {
	stream := p.client.Messages.NewStreaming(ctx, p.params(req))
	events := make(chan StreamEvent, 64)
	go p.handleStream(stream, events)
	return events, nil
}

func (p *Anthropic) handleStream(stream *ssestream.Stream[anthropic.MessageStreamEventUnion], events chan<- StreamEvent) {
	defer close(events)

	var usage Usage
	for stream.Next() {
		event := stream.Current()

		switch event.Type {
		case "message_start":
			start := event.AsMessageStart()
			usage.InputTokens = int(start.Message.Usage.InputTokens)

		case "content_block_delta":
			delta := event.AsContentBlockDelta()
			if d, ok := delta.Delta.AsAny().(anthropic.TextDelta); ok {
				events <- StreamEvent{Type: EventTypeText, Text: d.Text}
			}

		case "message_delta":
			delta := event.AsMessageDelta()
			usage.OutputTokens = int(delta.Usage.OutputTokens)

		case "message_stop":
			if usage.InputTokens > 0 || usage.OutputTokens > 0 {
				u := usage
				events <- StreamEvent{Type: EventTypeUsage, Usage: &u}
			}
			events <- StreamEvent{Type: EventTypeDone}
			return
		}
	}

	if err := stream.Err(); err != nil {
		logging.Errorf("[anthropic] stream error: %v", err)
		events <- StreamEvent{Type: EventTypeError, Error: err}
		return
	}

	events <- StreamEvent{Type: EventTypeDone}
}
