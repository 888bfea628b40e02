package embeddings

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sync"
)

// Provider generates vector embeddings for text.
type Provider interface {
	// Embed generates embeddings for the given texts
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	// Dimensions returns the embedding dimension size
	Dimensions() int
	// Model returns the model identifier
	Model() string
}

// Cache memoizes embeddings so text is not re-embedded on every turn:
// per conversation message for history, and by content hash for ad-hoc
// texts. Implemented by db.Store; entries are caches, not sources of truth.
type Cache interface {
	GetMessageEmbedding(ctx context.Context, sessionID, messageID, model string) ([]float32, bool)
	PutMessageEmbedding(ctx context.Context, sessionID, messageID, model string, embedding []float32)
	GetTextEmbedding(ctx context.Context, contentHash, model string) ([]float32, bool)
	PutTextEmbedding(ctx context.Context, contentHash, model string, embedding []float32)
}

// Service provides embedding generation with caching.
type Service struct {
	mu       sync.RWMutex
	provider Provider
	cache    Cache
}

// NewService creates an embedding service. Cache may be nil, in which case
// every call recomputes.
func NewService(provider Provider, cache Cache) *Service {
	return &Service{provider: provider, cache: cache}
}

// SetProvider swaps the embedding provider.
func (s *Service) SetProvider(p Provider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.provider = p
}

// HasProvider returns true if an embedding provider is configured.
func (s *Service) HasProvider() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.provider != nil
}

// Model returns the current embedding model identifier.
func (s *Service) Model() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.provider == nil {
		return ""
	}
	return s.provider.Model()
}

// EmbedText embeds a single ad-hoc text, cached by content hash.
func (s *Service) EmbedText(ctx context.Context, text string) ([]float32, error) {
	s.mu.RLock()
	provider := s.provider
	cache := s.cache
	s.mu.RUnlock()

	if provider == nil {
		return nil, fmt.Errorf("no embedding provider configured")
	}

	model := provider.Model()
	hash := hashText(text)
	if cache != nil {
		if embedding, ok := cache.GetTextEmbedding(ctx, hash, model); ok {
			return embedding, nil
		}
	}

	results, err := provider.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no embedding generated")
	}

	if cache != nil {
		cache.PutTextEmbedding(ctx, hash, model, results[0])
	}
	return results[0], nil
}

// hashText returns the cache key for ad-hoc text.
func hashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// EmbedMessage embeds one conversation message, cache-first.
func (s *Service) EmbedMessage(ctx context.Context, sessionID, messageID, text string) ([]float32, error) {
	s.mu.RLock()
	provider := s.provider
	cache := s.cache
	s.mu.RUnlock()

	if provider == nil {
		return nil, fmt.Errorf("no embedding provider configured")
	}

	model := provider.Model()
	if cache != nil {
		if embedding, ok := cache.GetMessageEmbedding(ctx, sessionID, messageID, model); ok {
			return embedding, nil
		}
	}

	results, err := provider.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no embedding generated")
	}

	if cache != nil {
		cache.PutMessageEmbedding(ctx, sessionID, messageID, model, results[0])
	}
	return results[0], nil
}

// CosineSimilarity computes the cosine similarity between two vectors.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
