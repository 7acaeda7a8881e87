package health

import "context"

// StorePinger is the search engine probe; the Redis store satisfies it.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker is the embedding provider probe, typically a model listing.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}
