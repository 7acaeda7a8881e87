package search

import (
	"context"

	domq "github.com/kailas-cloud/qdex/internal/domain/question"
	"github.com/kailas-cloud/qdex/internal/domain/search/filter"
	"github.com/kailas-cloud/qdex/internal/domain/search/result"
)

// Repository defines the storage contract for per-index search operations.
type Repository interface {
	SearchKNN(
		ctx context.Context, index string,
		vector []float32, filters filter.Expression, k, efRuntime int,
	) ([]result.Hit, error)

	Suggest(ctx context.Context, index, prefix string, size int) ([]result.Subject, error)
	Recent(ctx context.Context, index string, size int) ([]result.Subject, error)
	CountBy(ctx context.Context, index, field string, limit int) ([]result.Bucket, error)
}

// RecordFinder drains filtered record listings.
type RecordFinder interface {
	Find(ctx context.Context, index string, filters filter.Expression, limit int) ([]domq.Question, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
