package search

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/qdex/internal/domain"
	domq "github.com/kailas-cloud/qdex/internal/domain/question"
	"github.com/kailas-cloud/qdex/internal/domain/search/filter"
	"github.com/kailas-cloud/qdex/internal/domain/search/request"
	"github.com/kailas-cloud/qdex/internal/domain/search/result"
	domsession "github.com/kailas-cloud/qdex/internal/domain/session"
)

// Config shapes the queries the service issues.
type Config struct {
	// Oversampling multiplies k into the HNSW EF_RUNTIME candidate list.
	Oversampling int
	// MaxBuckets caps distinct-participant aggregation output.
	MaxBuckets int
	// RecentsSize is how many recently answered subjects Recents returns.
	RecentsSize int
	// MaxListSize caps unanswered listings.
	MaxListSize int
}

func (c *Config) applyDefaults() {
	if c.Oversampling <= 0 {
		c.Oversampling = 10
	}
	if c.MaxBuckets <= 0 {
		c.MaxBuckets = 1000
	}
	if c.RecentsSize <= 0 {
		c.RecentsSize = 10
	}
	if c.MaxListSize <= 0 {
		c.MaxListSize = 10000
	}
}

// Service builds and runs read queries across one or more session indices.
type Service struct {
	repo    Repository
	records RecordFinder
	embed   Embedder
	cfg     Config
	fanout  prometheus.Observer
}

// New creates a search service. fanout may be nil.
func New(repo Repository, records RecordFinder, embed Embedder, cfg Config, fanout prometheus.Observer) *Service {
	cfg.applyDefaults()
	return &Service{repo: repo, records: records, embed: embed, cfg: cfg, fanout: fanout}
}

// Search embeds the question once, runs a pre-filtered KNN query on every
// index concurrently, merges by score, drops hits under min_score and
// truncates to size.
func (s *Service) Search(ctx context.Context, req *request.Request) ([]result.Hit, error) {
	vec, err := s.embed.Embed(ctx, req.Question())
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	k := req.Size()
	ef := k * s.cfg.Oversampling

	perIndex, err := fanOut(ctx, s, req.Indices(), func(ctx context.Context, index string) ([]result.Hit, error) {
		return s.repo.SearchKNN(ctx, index, vec, req.Filters(), k, ef)
	})
	if err != nil {
		return nil, fmt.Errorf("search knn: %w", err)
	}

	hits := slices.Concat(perIndex...)
	slices.SortStableFunc(hits, func(a, b result.Hit) int {
		return cmp.Compare(b.Score(), a.Score())
	})

	if minScore := req.MinScore(); minScore > 0 {
		hits = slices.DeleteFunc(hits, func(h result.Hit) bool { return h.Score() < minScore })
	}
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Suggest completes a typed subject prefix. Duplicate subjects are returned once,
// most recently answered first.
func (s *Service) Suggest(ctx context.Context, req *request.Suggest) ([]string, error) {
	perIndex, err := fanOut(ctx, s, req.Indices(), func(ctx context.Context, index string) ([]result.Subject, error) {
		return s.repo.Suggest(ctx, index, req.Prefix(), req.Size())
	})
	if err != nil {
		return nil, fmt.Errorf("suggest: %w", err)
	}
	return newestSubjects(perIndex, req.Size(), true), nil
}

// Recents returns the subjects of the most recently answered records.
func (s *Service) Recents(ctx context.Context, indices []string) ([]string, error) {
	if err := validateIndices(indices); err != nil {
		return nil, err
	}
	size := s.cfg.RecentsSize
	perIndex, err := fanOut(ctx, s, indices, func(ctx context.Context, index string) ([]result.Subject, error) {
		return s.repo.Recent(ctx, index, size)
	})
	if err != nil {
		return nil, fmt.Errorf("recents: %w", err)
	}
	return newestSubjects(perIndex, size, false), nil
}

// Participants counts records per distinct mp or ministry name. Counts from
// several indices are summed; output is ordered by count, then name.
func (s *Service) Participants(ctx context.Context, indices []string, kind domq.ParticipantType) ([]result.Bucket, error) {
	if !kind.IsValid() {
		return nil, domain.Invalidf("user_type must be %q or %q", domq.ParticipantMP, domq.ParticipantMinistry)
	}
	if err := validateIndices(indices); err != nil {
		return nil, err
	}

	field := kind.NameField()
	perIndex, err := fanOut(ctx, s, indices, func(ctx context.Context, index string) ([]result.Bucket, error) {
		return s.repo.CountBy(ctx, index, field, s.cfg.MaxBuckets)
	})
	if err != nil {
		return nil, fmt.Errorf("aggregate %s: %w", field, err)
	}

	if len(perIndex) == 1 {
		return perIndex[0], nil
	}

	totals := make(map[string]int)
	for _, buckets := range perIndex {
		for _, b := range buckets {
			totals[b.Value] += b.Count
		}
	}
	merged := make([]result.Bucket, 0, len(totals))
	for v, c := range totals {
		merged = append(merged, result.Bucket{Value: v, Count: c})
	}
	slices.SortFunc(merged, func(a, b result.Bucket) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return strings.Compare(a.Value, b.Value)
	})
	if len(merged) > s.cfg.MaxBuckets {
		merged = merged[:s.cfg.MaxBuckets]
	}
	return merged, nil
}

// Unanswered returns every record of index that has no answer field, by qno.
// A record whose answer is the empty string counts as answered.
func (s *Service) Unanswered(ctx context.Context, index string) ([]domq.Question, error) {
	return s.unanswered(ctx, index)
}

// UnansweredFor is Unanswered restricted to one mp or ministry id.
func (s *Service) UnansweredFor(
	ctx context.Context, index string, kind domq.ParticipantType, id string,
) ([]domq.Question, error) {
	if !kind.IsValid() {
		return nil, domain.Invalidf("user_type must be %q or %q", domq.ParticipantMP, domq.ParticipantMinistry)
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.Invalidf("id is required")
	}
	byID, err := filter.NewMatch(kind.IDField(), id)
	if err != nil {
		return nil, domain.Invalid(err)
	}
	return s.unanswered(ctx, index, byID)
}

func (s *Service) unanswered(ctx context.Context, index string, extra ...filter.Condition) ([]domq.Question, error) {
	if err := domsession.ValidateName(index); err != nil {
		return nil, domain.Invalid(err)
	}

	missing, err := filter.NewMissing(domq.FieldAnswer)
	if err != nil {
		return nil, err
	}
	expr, err := filter.All(append([]filter.Condition{missing}, extra...)...)
	if err != nil {
		return nil, domain.Invalid(err)
	}

	qs, err := s.records.Find(ctx, index, expr, s.cfg.MaxListSize)
	if err != nil {
		return nil, fmt.Errorf("find unanswered: %w", err)
	}
	return qs, nil
}

// fanOut runs fn for every index concurrently and returns results in index order.
// The first error cancels the rest.
func fanOut[T any](
	ctx context.Context, s *Service, indices []string,
	fn func(ctx context.Context, index string) ([]T, error),
) ([][]T, error) {
	if s.fanout != nil {
		s.fanout.Observe(float64(len(indices)))
	}

	out := make([][]T, len(indices))
	if len(indices) == 1 {
		res, err := fn(ctx, indices[0])
		if err != nil {
			return nil, fmt.Errorf("index %s: %w", indices[0], err)
		}
		out[0] = res
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, index := range indices {
		g.Go(func() error {
			res, err := fn(gctx, index)
			if err != nil {
				return fmt.Errorf("index %s: %w", index, err)
			}
			out[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// newestSubjects merges per-index subject lists by answered timestamp, newest first.
func newestSubjects(perIndex [][]result.Subject, size int, dedupe bool) []string {
	all := slices.Concat(perIndex...)
	slices.SortStableFunc(all, func(a, b result.Subject) int {
		return cmp.Compare(b.AnsweredTS, a.AnsweredTS)
	})

	out := make([]string, 0, min(size, len(all)))
	seen := make(map[string]struct{}, len(all))
	for _, sub := range all {
		if len(out) == size {
			break
		}
		if dedupe {
			if _, ok := seen[sub.Text]; ok {
				continue
			}
			seen[sub.Text] = struct{}{}
		}
		out = append(out, sub.Text)
	}
	return out
}

func validateIndices(indices []string) error {
	if len(indices) == 0 {
		return domain.Invalidf("at least one index is required")
	}
	if len(indices) > domsession.MaxNamesPerRequest {
		return domain.Invalidf("too many indices (max %d)", domsession.MaxNamesPerRequest)
	}
	for _, name := range indices {
		if err := domsession.ValidateName(name); err != nil {
			return domain.Invalid(err)
		}
	}
	return nil
}
