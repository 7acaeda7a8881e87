package question

import (
	"context"

	domq "github.com/kailas-cloud/qdex/internal/domain/question"
)

// Repository defines the storage contract for question writes.
type Repository interface {
	NextQno(ctx context.Context, index string) (int64, error)
	Insert(ctx context.Context, index string, q domq.Question) error
	UpdateAnswer(ctx context.Context, index, id string, u domq.AnswerUpdate) error
}

// IndexChecker reports whether a session index exists.
type IndexChecker interface {
	Exists(ctx context.Context, name string) (bool, error)
}

// Embedder vectorizes the question text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
