// Package embed turns text into fixed-length vectors via an external
// embedding service.
package embed

import "context"

// Embedder produces a fixed-length embedding vector for a piece of text.
// Implementations may call out over the network; callers must treat
// Embed as slow and fallible.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Func adapts a plain function to the Embedder interface.
type Func func(ctx context.Context, text string) ([]float32, error)

// Embed implements Embedder.
func (f Func) Embed(ctx context.Context, text string) ([]float32, error) {
	return f(ctx, text)
}
