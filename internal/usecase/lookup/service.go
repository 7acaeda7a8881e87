package lookup

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/qdex/internal/domain"
	domq "github.com/kailas-cloud/qdex/internal/domain/question"
	"github.com/kailas-cloud/qdex/internal/domain/search/filter"
	domsession "github.com/kailas-cloud/qdex/internal/domain/session"
)

// Page limits.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Page is one slice of an index listing.
type Page struct {
	Items  []domq.Question
	Total  int
	Offset int
	Limit  int
}

// Service serves direct record reads.
type Service struct {
	repo     Repository
	indices  IndexChecker
	maxItems int
}

// New creates a lookup service. maxItems caps ByParticipant results.
func New(repo Repository, indices IndexChecker, maxItems int) *Service {
	if maxItems <= 0 {
		maxItems = 10000
	}
	return &Service{repo: repo, indices: indices, maxItems: maxItems}
}

// Get returns one record by id.
func (s *Service) Get(ctx context.Context, index, id string) (domq.Question, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domq.Question{}, domain.Invalidf("id is required")
	}
	if err := s.requireIndex(ctx, index); err != nil {
		return domq.Question{}, err
	}

	q, err := s.repo.Get(ctx, index, id)
	if err != nil {
		return domq.Question{}, fmt.Errorf("get question: %w", err)
	}
	return q, nil
}

// List returns records ordered by qno. limit 0 means DefaultLimit.
func (s *Service) List(ctx context.Context, index string, offset, limit int) (Page, error) {
	if offset < 0 {
		return Page{}, domain.Invalidf("offset must not be negative")
	}
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit < 1 || limit > MaxLimit {
		return Page{}, domain.Invalidf("limit must be between 1 and %d", MaxLimit)
	}
	if err := domsession.ValidateName(index); err != nil {
		return Page{}, domain.Invalid(err)
	}

	items, total, err := s.repo.List(ctx, index, offset, limit)
	if err != nil {
		return Page{}, fmt.Errorf("list questions: %w", err)
	}
	return Page{Items: items, Total: total, Offset: offset, Limit: limit}, nil
}

// ByParticipant returns every record asked by an mp or addressed to a ministry, by qno.
func (s *Service) ByParticipant(
	ctx context.Context, index string, kind domq.ParticipantType, id string,
) ([]domq.Question, error) {
	if !kind.IsValid() {
		return nil, domain.Invalidf("user_type must be %q or %q", domq.ParticipantMP, domq.ParticipantMinistry)
	}
	if err := domsession.ValidateName(index); err != nil {
		return nil, domain.Invalid(err)
	}
	cond, err := filter.NewMatch(kind.IDField(), strings.TrimSpace(id))
	if err != nil {
		return nil, domain.Invalid(err)
	}
	expr, err := filter.All(cond)
	if err != nil {
		return nil, domain.Invalid(err)
	}

	qs, err := s.repo.Find(ctx, index, expr, s.maxItems)
	if err != nil {
		return nil, fmt.Errorf("find by %s: %w", kind, err)
	}
	return qs, nil
}

func (s *Service) requireIndex(ctx context.Context, index string) error {
	if err := domsession.ValidateName(index); err != nil {
		return domain.Invalid(err)
	}
	ok, err := s.indices.Exists(ctx, index)
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	if !ok {
		return fmt.Errorf("index %s: %w", index, domain.ErrIndexNotFound)
	}
	return nil
}
