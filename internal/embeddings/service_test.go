package embeddings

import (
	"context"
	"math"
	"testing"
)

type countingProvider struct {
	calls int
}

func (p *countingProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	p.calls++
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

func (p *countingProvider) Dimensions() int { return 3 }
func (p *countingProvider) Model() string   { return "test-model" }

type memCache struct {
	messages map[string][]float32
	texts    map[string][]float32
}

func newMemCache() *memCache {
	return &memCache{messages: map[string][]float32{}, texts: map[string][]float32{}}
}

func (c *memCache) GetMessageEmbedding(_ context.Context, sessionID, messageID, model string) ([]float32, bool) {
	v, ok := c.messages[sessionID+"/"+messageID+"/"+model]
	return v, ok
}

func (c *memCache) PutMessageEmbedding(_ context.Context, sessionID, messageID, model string, embedding []float32) {
	c.messages[sessionID+"/"+messageID+"/"+model] = embedding
}

func (c *memCache) GetTextEmbedding(_ context.Context, contentHash, model string) ([]float32, bool) {
	v, ok := c.texts[contentHash+"/"+model]
	return v, ok
}

func (c *memCache) PutTextEmbedding(_ context.Context, contentHash, model string, embedding []float32) {
	c.texts[contentHash+"/"+model] = embedding
}

func TestEmbedMessageCacheFirst(t *testing.T) {
	provider := &countingProvider{}
	svc := NewService(provider, newMemCache())
	ctx := context.Background()

	if _, err := svc.EmbedMessage(ctx, "s1", "m1", "hello"); err != nil {
		t.Fatalf("EmbedMessage: %v", err)
	}
	if _, err := svc.EmbedMessage(ctx, "s1", "m1", "hello"); err != nil {
		t.Fatalf("EmbedMessage: %v", err)
	}
	if provider.calls != 1 {
		t.Errorf("provider called %d times, want 1 (second hit cached)", provider.calls)
	}

	if _, err := svc.EmbedMessage(ctx, "s1", "m2", "other"); err != nil {
		t.Fatalf("EmbedMessage: %v", err)
	}
	if provider.calls != 2 {
		t.Errorf("provider called %d times, want 2", provider.calls)
	}
}

func TestEmbedTextCachedByContentHash(t *testing.T) {
	provider := &countingProvider{}
	svc := NewService(provider, newMemCache())
	ctx := context.Background()

	if _, err := svc.EmbedText(ctx, "plan my week"); err != nil {
		t.Fatalf("EmbedText: %v", err)
	}
	if _, err := svc.EmbedText(ctx, "plan my week"); err != nil {
		t.Fatalf("EmbedText: %v", err)
	}
	if provider.calls != 1 {
		t.Errorf("provider called %d times, want 1 (same content hashes equal)", provider.calls)
	}

	if _, err := svc.EmbedText(ctx, "different text"); err != nil {
		t.Fatalf("EmbedText: %v", err)
	}
	if provider.calls != 2 {
		t.Errorf("provider called %d times, want 2", provider.calls)
	}
}

func TestEmbedWithoutProvider(t *testing.T) {
	svc := NewService(nil, nil)
	if svc.HasProvider() {
		t.Error("HasProvider = true for nil provider")
	}
	if _, err := svc.EmbedText(context.Background(), "x"); err == nil {
		t.Error("expected error without provider")
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 0}, []float32{1, 0}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"length mismatch", []float32{1, 0}, []float32{1}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("CosineSimilarity = %v, want %v", got, tt.want)
			}
		})
	}
}
