package search

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/qdex/internal/db"
	"github.com/kailas-cloud/qdex/internal/domain"
	"github.com/kailas-cloud/qdex/internal/domain/question"
	"github.com/kailas-cloud/qdex/internal/domain/search/filter"
	"github.com/kailas-cloud/qdex/internal/domain/search/result"
	"github.com/kailas-cloud/qdex/internal/repository/keyspace"
)

// subjectFields are returned by suggestion and recents queries.
var subjectFields = []string{question.FieldSubject, question.FieldAnsweredTS}

// Suggestion paging: each page holds size*suggestOverfetch rows and at most
// suggestMaxScan matching rows are read per index.
const (
	suggestOverfetch = 4
	suggestMaxScan   = 1000
)

// store is the consumer interface for search operations (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	Search(ctx context.Context, q *db.Query) (*db.SearchResult, error)
	AggregateCount(ctx context.Context, q *db.GroupCountQuery) ([]db.GroupCount, error)
}

// Repo implements usecase/search.Repository.
type Repo struct {
	store store
	keys  keyspace.Keyspace
}

// New creates a search repository.
func New(s store, keys keyspace.Keyspace) *Repo {
	return &Repo{store: s, keys: keys}
}

// SearchKNN runs a KNN query over one session with filters applied as a
// pre-filter on the candidate set. efRuntime widens the HNSW candidate list.
func (r *Repo) SearchKNN(
	ctx context.Context, name string,
	vector []float32, filters filter.Expression, k, efRuntime int,
) ([]result.Hit, error) {
	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    r.keys.Index(name),
		Filters:      filters,
		Vector:       vector,
		VectorField:  question.FieldVector,
		K:            k,
		EFRuntime:    efRuntime,
		ReturnFields: question.PublicFields,
	})
	if err != nil {
		return nil, fmt.Errorf("search knn %s: %w", name, storeErr(err))
	}
	if sr == nil || len(sr.Entries) == 0 {
		return nil, nil
	}

	hits := make([]result.Hit, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		q := publicFromFields(r.keys.IDFromRecord(name, e.Key), e.Fields)
		hits = append(hits, result.New(q, e.Score, name))
	}
	return hits, nil
}

// Suggest returns up to size distinct subjects whose words start with prefix,
// newest answers first. Pages are over-fetched so repeated subjects do not
// crowd out other matches.
func (r *Repo) Suggest(ctx context.Context, name, prefix string, size int) ([]result.Subject, error) {
	cond, err := filter.NewPrefix(question.FieldSubject, prefix)
	if err != nil {
		return nil, domain.Invalid(err)
	}
	expr, err := filter.All(cond)
	if err != nil {
		return nil, domain.Invalid(err)
	}

	pageSize := size * suggestOverfetch
	out := make([]result.Subject, 0, size)
	seen := make(map[string]struct{}, size)
	for offset := 0; offset < suggestMaxScan; offset += pageSize {
		page, total, err := r.subjects(ctx, name, expr, offset, pageSize)
		if err != nil {
			return nil, err
		}
		for _, sub := range page {
			if _, dup := seen[sub.Text]; dup {
				continue
			}
			seen[sub.Text] = struct{}{}
			out = append(out, sub)
			if len(out) == size {
				return out, nil
			}
		}
		if offset+pageSize >= total {
			break
		}
	}
	return out, nil
}

// Recent returns the subjects of the most recently answered records.
func (r *Repo) Recent(ctx context.Context, name string, size int) ([]result.Subject, error) {
	out, _, err := r.subjects(ctx, name, filter.Expression{}, 0, size)
	return out, err
}

func (r *Repo) subjects(
	ctx context.Context, name string, filters filter.Expression, offset, limit int,
) ([]result.Subject, int, error) {
	sr, err := r.store.Search(ctx, &db.Query{
		IndexName:    r.keys.Index(name),
		Filters:      filters,
		SortBy:       question.FieldAnsweredTS,
		SortDesc:     true,
		Offset:       offset,
		Limit:        limit,
		ReturnFields: subjectFields,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("search subjects %s: %w", name, storeErr(err))
	}
	if sr == nil {
		return nil, 0, nil
	}

	out := make([]result.Subject, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		text := e.Fields[question.FieldSubject]
		if text == "" {
			continue
		}
		ts, _ := strconv.ParseInt(e.Fields[question.FieldAnsweredTS], 10, 64)
		out = append(out, result.Subject{Text: text, AnsweredTS: ts})
	}
	return out, sr.Total, nil
}

// CountBy groups a session's records by field and counts each value, largest first.
func (r *Repo) CountBy(ctx context.Context, name, field string, limit int) ([]result.Bucket, error) {
	groups, err := r.store.AggregateCount(ctx, &db.GroupCountQuery{
		IndexName: r.keys.Index(name),
		GroupBy:   field,
		Limit:     limit,
	})
	if err != nil {
		return nil, fmt.Errorf("aggregate %s by %s: %w", name, field, storeErr(err))
	}

	buckets := make([]result.Bucket, 0, len(groups))
	for _, g := range groups {
		buckets = append(buckets, result.Bucket{Value: g.Value, Count: g.Count})
	}
	return buckets, nil
}

// publicFromFields rebuilds the public view of a record from returned fields.
func publicFromFields(id string, m map[string]string) question.Question {
	qno, _ := strconv.ParseInt(m[question.FieldQno], 10, 64)
	answer, answered := m[question.FieldAnswer]

	snap := question.Snapshot{
		ID:       id,
		Qno:      qno,
		Starred:  strings.EqualFold(m[question.FieldStarred], "true"),
		Subject:  m[question.FieldSubject],
		MP:       m[question.FieldMP],
		Ministry: m[question.FieldMinistry],
		Question: m[question.FieldQuestion],
		Answer:   answer,
		Answered: answered,
	}
	if on := m[question.FieldAnsweredOn]; on != "" {
		if d, err := question.ParseDate(on); err == nil {
			snap.AnsweredOn = d
		}
	}
	return question.Reconstruct(snap)
}

// storeErr maps a missing FT index to the domain error and anything else to unavailability.
func storeErr(err error) error {
	if errors.Is(err, db.ErrIndexNotFound) {
		return domain.ErrIndexNotFound
	}
	return domain.Unavailable(err)
}
