// File path: internal/llm/providers/ollama.go
package providers

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"

	"github.com/nicodishanthj/Katral_bw/internal/common"
)

// OllamaEmbedder computes embeddings with a local Ollama server through
// langchaingo.
type OllamaEmbedder struct {
	embedder embeddings.Embedder
	model    string
}

func NewOllamaEmbedder(serverURL, model string) (*OllamaEmbedder, error) {
	if model == "" {
		model = "nomic-embed-text"
	}
	opts := []ollama.Option{ollama.WithModel(model)}
	if serverURL != "" {
		opts = append(opts, ollama.WithServerURL(serverURL))
	}
	client, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("ollama client: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(client)
	if err != nil {
		return nil, fmt.Errorf("ollama embedder: %w", err)
	}
	common.Logger().Info("llm: Ollama embedder configured", "server", serverURL, "embed_model", model)
	return &OllamaEmbedder{embedder: embedder, model: model}, nil
}

func (o *OllamaEmbedder) Embed(ctx context.Context, input []string) ([][]float32, error) {
	if len(input) == 0 {
		return nil, nil
	}
	vectors, err := o.embedder.EmbedDocuments(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("ollama embeddings: %w", err)
	}
	if len(vectors) != len(input) {
		return nil, fmt.Errorf("ollama embeddings: got %d vectors for %d inputs", len(vectors), len(input))
	}
	return vectors, nil
}

func (o *OllamaEmbedder) Name() string {
	return "ollama"
}
