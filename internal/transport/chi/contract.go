package chi

import (
	"context"

	domq "github.com/kailas-cloud/qdex/internal/domain/question"
	"github.com/kailas-cloud/qdex/internal/domain/search/request"
	"github.com/kailas-cloud/qdex/internal/domain/search/result"
	domsession "github.com/kailas-cloud/qdex/internal/domain/session"
	healthuc "github.com/kailas-cloud/qdex/internal/usecase/health"
	lookupuc "github.com/kailas-cloud/qdex/internal/usecase/lookup"
	questionuc "github.com/kailas-cloud/qdex/internal/usecase/question"
)

// SessionService manages session indices.
type SessionService interface {
	Create(ctx context.Context, chamber, version string) (domsession.Session, error)
	Delete(ctx context.Context, chamber, version string) (domsession.Session, bool, error)
	List(ctx context.Context) ([]string, error)
}

// QuestionService writes question records.
type QuestionService interface {
	Create(ctx context.Context, chamber, version string, in domq.Input) (questionuc.Created, error)
	UpdateAnswer(ctx context.Context, index, id, answer string, styled *string) error
}

// SearchService answers semantic, completion and aggregation queries.
type SearchService interface {
	Search(ctx context.Context, req *request.Request) ([]result.Hit, error)
	Suggest(ctx context.Context, req *request.Suggest) ([]string, error)
	Recents(ctx context.Context, indices []string) ([]string, error)
	Participants(ctx context.Context, indices []string, kind domq.ParticipantType) ([]result.Bucket, error)
	Unanswered(ctx context.Context, index string) ([]domq.Question, error)
	UnansweredFor(ctx context.Context, index string, kind domq.ParticipantType, id string) ([]domq.Question, error)
}

// LookupService serves direct record reads.
type LookupService interface {
	Get(ctx context.Context, index, id string) (domq.Question, error)
	List(ctx context.Context, index string, offset, limit int) (lookupuc.Page, error)
	ByParticipant(ctx context.Context, index string, kind domq.ParticipantType, id string) ([]domq.Question, error)
}

// HealthService reports component health.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}
