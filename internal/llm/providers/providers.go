// File path: internal/llm/providers/providers.go
package providers

import "context"

// Embedder turns texts into vectors, one per input, in input order.
type Embedder interface {
	Embed(ctx context.Context, input []string) ([][]float32, error)
	Name() string
}
