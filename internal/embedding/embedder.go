// Package embedding provides text embedding providers and caching.
package embedding

import (
	"context"
	"fmt"
)

// Embedder maps text to fixed-dimension vectors. The dimension and provider
// identity are fixed for the life of an index: the index manager records
// ProviderID in the persisted header and refuses to open an index written by
// a different provider.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	ProviderID() string
	Close() error
}

// ProviderError wraps a failure of the embedding provider (timeout, quota,
// unavailable). Provider errors are retryable with bounded backoff, unlike
// configuration errors which are fatal.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("embedding provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }
