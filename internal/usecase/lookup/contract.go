package lookup

import (
	"context"

	domq "github.com/kailas-cloud/qdex/internal/domain/question"
	"github.com/kailas-cloud/qdex/internal/domain/search/filter"
)

// Repository defines the storage contract for record reads.
type Repository interface {
	Get(ctx context.Context, index, id string) (domq.Question, error)
	List(ctx context.Context, index string, offset, limit int) ([]domq.Question, int, error)
	Find(ctx context.Context, index string, filters filter.Expression, limit int) ([]domq.Question, error)
}

// IndexChecker reports whether a session index exists.
type IndexChecker interface {
	Exists(ctx context.Context, name string) (bool, error)
}
