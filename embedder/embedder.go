package embedder

import "context"

// Embedder turns text into a fixed-dimension embedding vector. Implementations
// are stateless and safe for concurrent use; the only shared mutable state is
// an optional cache backend.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ZeroVector is the documented fallback for empty input and malformed
// provider responses. Callers never branch on a missing embedding; they
// receive a zero vector of the configured dimension instead.
func ZeroVector(dimension int) []float32 {
	return make([]float32, dimension)
}
