// Package voice reaches the OpenAI speech endpoints over plain HTTP:
// multipart upload for transcription, JSON for synthesis.
package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// Transcription is the speech-to-text result. DurationSecs feeds per-minute
// cost accounting.
type Transcription struct {
	Text         string  `json:"text"`
	DurationSecs float64 `json:"duration"`
	Language     string  `json:"language,omitempty"`
}

// Client calls the speech endpoints.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewClient creates a speech client. An empty baseURL uses the OpenAI API.
func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

// Transcribe converts audio bytes to text. The verbose_json format carries
// the audio duration needed for cost accounting.
func (c *Client) Transcribe(ctx context.Context, audio []byte, model, language string) (*Transcription, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", "audio.webm")
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(audio); err != nil {
		return nil, err
	}
	writer.WriteField("model", model)
	writer.WriteField("response_format", "verbose_json")
	if language != "" {
		writer.WriteField("language", language)
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/audio/transcriptions", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcription request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("transcription API error: %s - %s", resp.Status, string(respBody))
	}

	var result Transcription
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode transcription: %w", err)
	}
	return &result, nil
}

// Speak synthesizes speech for the given text and returns raw audio bytes.
func (c *Client) Speak(ctx context.Context, text, model, voiceName string) ([]byte, error) {
	payload, err := json.Marshal(map[string]any{
		"model": model,
		"input": text,
		"voice": voiceName,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/audio/speech", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("speech request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("speech API error: %s - %s", resp.Status, string(respBody))
	}

	return io.ReadAll(resp.Body)
}
