package domain

import (
	"context"
)

// VectorEncoder defines the interface for generating sentence embeddings.
// Implementations must be stateless per call and safe for concurrent use:
// the curator may encode from several scoring goroutines at once.
type VectorEncoder interface {
	Encode(ctx context.Context, texts []string) ([][]float32, error)
	Version() string
}
