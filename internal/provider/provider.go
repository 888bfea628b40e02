package provider

import (
	"context"
)

// StreamEventType defines the type of streaming event
type StreamEventType string

const (
	EventTypeText  StreamEventType = "text"
	EventTypeUsage StreamEventType = "usage"
	EventTypeError StreamEventType = "error"
	EventTypeDone  StreamEventType = "done"
)

// StreamEvent is one event from a streaming completion.
type StreamEvent struct {
	Type  StreamEventType `json:"type"`
	Text  string          `json:"text,omitempty"`
	Usage *Usage          `json:"usage,omitempty"`
	Error error           `json:"error,omitempty"`
}

// Message is one prompt turn sent to a provider.
type Message struct {
	Role    string `json:"role"` // system, user, assistant
	Content string `json:"content"`
}

// ChatRequest is a provider-agnostic completion request.
type ChatRequest struct {
	Model       string    `json:"model"`
	System      string    `json:"system,omitempty"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

// Usage is the provider-reported token consumption for one call.
type Usage struct {
	InputTokens  int `json:"inputTokens"`
	OutputTokens int `json:"outputTokens"`
}

// ChatResponse is a completed (non-streaming) completion.
type ChatResponse struct {
	Content string `json:"content"`
	Usage   Usage  `json:"usage"`
}

// Chat is the interface all completion providers implement.
type Chat interface {
	// ID returns the provider identifier (e.g. "openai", "anthropic")
	ID() string

	// Complete sends a request and blocks for the full response.
	Complete(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// Stream sends a request and returns a channel of streaming events.
	// The channel is closed after a done or error event.
	Stream(ctx context.Context, req *ChatRequest) (<-chan StreamEvent, error)
}
