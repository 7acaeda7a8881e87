package question

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/qdex/internal/db"
	"github.com/kailas-cloud/qdex/internal/domain"
	domq "github.com/kailas-cloud/qdex/internal/domain/question"
	"github.com/kailas-cloud/qdex/internal/domain/search/filter"
	"github.com/kailas-cloud/qdex/internal/repository/keyspace"
)

// pageSize is the FT.SEARCH page used when draining a result set.
const pageSize = 500

// store is the consumer interface for question records (ISP).
//
//nolint:interfacebloat // record writes, the qno sequence and reads share one repo
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Exists(ctx context.Context, key string) (bool, error)
	SetNX(ctx context.Context, key string, value []byte) (bool, error)
	Incr(ctx context.Context, key string) (int64, error)
	Search(ctx context.Context, q *db.Query) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index string, filters filter.Expression) (int, error)
}

// Repo implements usecase/question.Repository and usecase/lookup.Repository.
type Repo struct {
	store store
	keys  keyspace.Keyspace
}

// New creates a question repository.
func New(s store, keys keyspace.Keyspace) *Repo {
	return &Repo{store: s, keys: keys}
}

// NextQno returns the next sequence number of a session.
// The counter is seeded once from the current record count so indices
// populated before the counter existed continue after their last record.
// INCR is atomic, so concurrent writers never share a qno.
func (r *Repo) NextQno(ctx context.Context, name string) (int64, error) {
	seq := r.keys.Sequence(name)

	seeded, err := r.store.Exists(ctx, seq)
	if err != nil {
		return 0, fmt.Errorf("check sequence %s: %w", name, domain.Unavailable(err))
	}
	if !seeded {
		count, err := r.store.SearchCount(ctx, r.keys.Index(name), filter.Expression{})
		if err != nil {
			return 0, fmt.Errorf("count records %s: %w", name, storeErr(err))
		}
		// SET NX: a concurrent seeder that got there first wins.
		if _, err := r.store.SetNX(ctx, seq, []byte(strconv.Itoa(count))); err != nil {
			return 0, fmt.Errorf("seed sequence %s: %w", name, domain.Unavailable(err))
		}
	}

	n, err := r.store.Incr(ctx, seq)
	if err != nil {
		return 0, fmt.Errorf("incr sequence %s: %w", name, domain.Unavailable(err))
	}
	return n, nil
}

// Insert writes a stamped question record.
func (r *Repo) Insert(ctx context.Context, name string, q domq.Question) error {
	if err := r.store.HSet(ctx, r.keys.Record(name, q.ID()), toHash(&q)); err != nil {
		return fmt.Errorf("hset question %s/%s: %w", name, q.ID(), domain.Unavailable(err))
	}
	return nil
}

// UpdateAnswer overwrites only answer and, when supplied, answer_styled.
func (r *Repo) UpdateAnswer(ctx context.Context, name, id string, u domq.AnswerUpdate) error {
	key := r.keys.Record(name, id)

	ok, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check question %s/%s: %w", name, id, domain.Unavailable(err))
	}
	if !ok {
		return domain.ErrQuestionNotFound
	}

	fields := map[string]string{domq.FieldAnswer: u.Answer()}
	if styled, ok := u.Styled(); ok {
		fields[domq.FieldAnswerStyled] = styled
	}

	if err := r.store.HSet(ctx, key, fields); err != nil {
		return fmt.Errorf("hset answer %s/%s: %w", name, id, domain.Unavailable(err))
	}
	return nil
}

// Get reads one record by id.
func (r *Repo) Get(ctx context.Context, name, id string) (domq.Question, error) {
	m, err := r.store.HGetAll(ctx, r.keys.Record(name, id))
	if err != nil {
		return domq.Question{}, fmt.Errorf("hgetall question %s/%s: %w", name, id, domain.Unavailable(err))
	}
	if len(m) == 0 {
		return domq.Question{}, domain.ErrQuestionNotFound
	}
	return fromHash(id, m), nil
}

// List returns one page of records ordered by qno and the total count.
func (r *Repo) List(ctx context.Context, name string, offset, limit int) ([]domq.Question, int, error) {
	sr, err := r.store.Search(ctx, &db.Query{
		IndexName:    r.keys.Index(name),
		SortBy:       domq.FieldQno,
		Offset:       offset,
		Limit:        limit,
		ReturnFields: domq.RecordFields,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("list questions %s: %w", name, storeErr(err))
	}
	return r.parse(name, sr), sr.Total, nil
}

// Find returns every record matching filters ordered by qno, up to max.
func (r *Repo) Find(ctx context.Context, name string, filters filter.Expression, limit int) ([]domq.Question, error) {
	var out []domq.Question
	for offset := 0; offset < limit; offset += pageSize {
		size := min(pageSize, limit-offset)
		sr, err := r.store.Search(ctx, &db.Query{
			IndexName:    r.keys.Index(name),
			Filters:      filters,
			SortBy:       domq.FieldQno,
			Offset:       offset,
			Limit:        size,
			ReturnFields: domq.RecordFields,
		})
		if err != nil {
			return nil, fmt.Errorf("find questions %s: %w", name, storeErr(err))
		}

		out = append(out, r.parse(name, sr)...)
		if len(sr.Entries) < size || offset+size >= sr.Total {
			break
		}
	}
	return out, nil
}

func (r *Repo) parse(name string, sr *db.SearchResult) []domq.Question {
	if sr == nil || len(sr.Entries) == 0 {
		return nil
	}
	out := make([]domq.Question, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		out = append(out, fromHash(r.keys.IDFromRecord(name, e.Key), e.Fields))
	}
	return out
}

// storeErr maps a missing FT index to the domain error and anything else to unavailability.
func storeErr(err error) error {
	if errors.Is(err, db.ErrIndexNotFound) {
		return domain.ErrIndexNotFound
	}
	return domain.Unavailable(err)
}
