package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/ssestream"
	"github.com/openai/openai-go/shared"

	"github.com/lumahq/luma/internal/logging"
)

// OpenAI implements the Chat interface using the official SDK.
type OpenAI struct {
	client openai.Client
	model  string
}

// NewOpenAI creates an OpenAI chat provider. Model is the default; per
// request overrides come from the catalog-validated request model.
func NewOpenAI(apiKey, model string) *OpenAI {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAI{client: client, model: model}
}

// ID returns the provider identifier
func (p *OpenAI) ID() string {
	return "openai"
}

func (p *OpenAI) params(req *ChatRequest) openai.ChatCompletionNewParams {
	model := p.model
	if req.Model != "" {
		model = req.Model
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	for _, msg := range req.Messages {
		switch msg.Role {
		case "assistant":
			messages = append(messages, openai.AssistantMessage(msg.Content))
		case "system":
			messages = append(messages, openai.SystemMessage(msg.Content))
		default:
			messages = append(messages, openai.UserMessage(msg.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(model),
		Messages: messages,
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	return params
}

// Complete sends a blocking completion request.
func (p *OpenAI) Complete(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	params := p.params(req)
	logging.Debugf("[openai] completion: model=%s messages=%d", params.Model, len(params.Messages))

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apierr *openai.Error
		if errors.As(err, &apierr) {
			return nil, &Error{
				Code:    apierr.Code,
				Type:    apierr.Type,
				Message: fmt.Sprintf("openai completion failed: %v", err),
			}
		}
		return nil, &Error{Message: fmt.Sprintf("openai completion failed: %v", err)}
	}
	if len(completion.Choices) == 0 {
		return nil, &Error{Message: "openai returned no choices"}
	}

	return &ChatResponse{
		Content: completion.Choices[0].Message.Content,
		Usage: Usage{
			InputTokens:  int(completion.Usage.PromptTokens),
			OutputTokens: int(completion.Usage.CompletionTokens),
		},
	}, nil
}

// Stream sends a request and returns streaming events. A usage event is
// emitted before done when the provider sends a final usage frame.
func (p *OpenAI) Stream(ctx context.Context, req *ChatRequest) (<-chan StreamEvent, error) {
	params := p.params(req)
	params.StreamOptions = openai.ChatCompletionStreamOptionsParam{
		IncludeUsage: openai.Bool(true),
	}

	stream := p.client.Chat.Completions.NewStreaming(ctx, params)
	events := make(chan StreamEvent, 64)
	go p.handleStream(stream, events)
	return events, nil
}

func (p *OpenAI) handleStream(stream *ssestream.Stream[openai.ChatCompletionChunk], events chan<- StreamEvent) {
	defer close(events)

	acc := openai.ChatCompletionAccumulator{}
	for stream.Next() {
		chunk := stream.Current()
		acc.AddChunk(chunk)

		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
			events <- StreamEvent{Type: EventTypeText, Text: chunk.Choices[0].Delta.Content}
		}
	}

	if err := stream.Err(); err != nil {
		logging.Errorf("[openai] stream error: %v", err)
		events <- StreamEvent{Type: EventTypeError, Error: err}
		return
	}

	if acc.Usage.PromptTokens > 0 || acc.Usage.CompletionTokens > 0 {
		events <- StreamEvent{Type: EventTypeUsage, Usage: &Usage{
			InputTokens:  int(acc.Usage.PromptTokens),
			OutputTokens: int(acc.Usage.CompletionTokens),
		}}
	}
	events <- StreamEvent{Type: EventTypeDone}
}
