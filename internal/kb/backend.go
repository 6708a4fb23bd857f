// File path: internal/kb/backend.go
package kb

import (
	"context"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/nicodishanthj/Katral_bw/internal/llm/providers"
)

// EmbeddingBackend supplies vectors to the index. Backends that cannot
// embed return nil vectors and the index scores lexically.
type EmbeddingBackend interface {
	Name() string
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// LexicalFallbackBackend never embeds.
type LexicalFallbackBackend struct{}

func (LexicalFallbackBackend) Name() string { return "lexical" }

func (LexicalFallbackBackend) Embed(context.Context, []string) ([][]float32, error) {
	return nil, nil
}

func (LexicalFallbackBackend) EmbedQuery(context.Context, string) ([]float32, error) {
	return nil, nil
}

const queryCacheSize = 256

// VectorBackend embeds through a provider and caches query vectors.
type VectorBackend struct {
	embedder providers.Embedder
	queries  *lru.Cache[string, []float32]
}

func NewVectorBackend(embedder providers.Embedder) (*VectorBackend, error) {
	if embedder == nil {
		return nil, errors.New("kb: vector backend requires an embedder")
	}
	cache, err := lru.New[string, []float32](queryCacheSize)
	if err != nil {
		return nil, fmt.Errorf("kb: query cache: %w", err)
	}
	return &VectorBackend{embedder: embedder, queries: cache}, nil
}

func (b *VectorBackend) Name() string {
	return "vector/" + b.embedder.Name()
}

func (b *VectorBackend) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := b.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("kb: embedder returned %d vectors for %d texts", len(vectors), len(texts))
	}
	for i, vec := range vectors {
		if len(vec) == 0 {
			return nil, fmt.Errorf("kb: embedder returned empty vector for text %d", i)
		}
	}
	return vectors, nil
}

func (b *VectorBackend) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if vec, ok := b.queries.Get(text); ok {
		return vec, nil
	}
	vectors, err := b.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	b.queries.Add(text, vectors[0])
	return vectors[0], nil
}

// SelectBackend returns a VectorBackend when an embedder is configured and
// the lexical fallback otherwise.
func SelectBackend(embedder providers.Embedder) EmbeddingBackend {
	if embedder == nil {
		return LexicalFallbackBackend{}
	}
	backend, err := NewVectorBackend(embedder)
	if err != nil {
		return LexicalFallbackBackend{}
	}
	return backend
}
