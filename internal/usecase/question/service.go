package question

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/qdex/internal/domain"
	domq "github.com/kailas-cloud/qdex/internal/domain/question"
	domsession "github.com/kailas-cloud/qdex/internal/domain/session"
)

// MaxIDLength caps record ids received from clients.
const MaxIDLength = 128

// Created is the outcome of a successful write.
type Created struct {
	ID    string
	Qno   int64
	Index string
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used to stamp asked_on.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides record id generation.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) { s.newID = gen }
}

// WithWrittenCounter counts successful writes, labelled by index.
func WithWrittenCounter(c *prometheus.CounterVec) Option {
	return func(s *Service) { s.written = c }
}

// Service is the write gateway for question records.
// Authorization happens before it is called.
type Service struct {
	repo    Repository
	indices IndexChecker
	embed   Embedder
	logger  *zap.Logger
	now     func() time.Time
	newID   func() string
	written *prometheus.CounterVec
}

// New creates a question write service.
func New(repo Repository, indices IndexChecker, embed Embedder, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		repo:    repo,
		indices: indices,
		embed:   embed,
		logger:  logger,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates, numbers and stores a new question in the chamber/version index.
// Nothing is written when the index does not exist.
func (s *Service) Create(ctx context.Context, chamber, version string, in domq.Input) (Created, error) {
	sess, err := domsession.New(chamber, version)
	if err != nil {
		return Created{}, domain.Invalid(err)
	}
	q, err := domq.New(in)
	if err != nil {
		return Created{}, domain.Invalid(err)
	}
	index := sess.Name()

	if err := s.requireIndex(ctx, index); err != nil {
		return Created{}, err
	}

	vec, err := s.embed.Embed(ctx, q.Text())
	if err != nil {
		return Created{}, fmt.Errorf("vectorize question: %w", err)
	}

	qno, err := s.repo.NextQno(ctx, index)
	if err != nil {
		return Created{}, fmt.Errorf("next qno: %w", err)
	}

	stamped := q.Stamp(s.newID(), qno, s.now()).WithVector(vec)

	if err := s.repo.Insert(ctx, index, stamped); err != nil {
		s.logger.Warn("Question insert failed after qno was taken",
			zap.String("index", index),
			zap.Int64("qno", qno),
			zap.Error(err),
		)
		return Created{}, fmt.Errorf("insert question: %w", err)
	}

	if s.written != nil {
		s.written.WithLabelValues(index).Inc()
	}

	return Created{ID: stamped.ID(), Qno: qno, Index: index}, nil
}

// UpdateAnswer sets the answer of an existing record. Only answer and,
// when styled is non-nil, answer_styled change.
func (s *Service) UpdateAnswer(ctx context.Context, index, id, answer string, styled *string) error {
	index = strings.ToLower(strings.TrimSpace(index))
	if err := domsession.ValidateName(index); err != nil {
		return domain.Invalid(err)
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Invalidf("id is required")
	}
	if len(id) > MaxIDLength {
		return domain.Invalidf("id too long (max %d)", MaxIDLength)
	}
	u, err := domq.NewAnswerUpdate(answer, styled)
	if err != nil {
		return domain.Invalid(err)
	}

	if err := s.requireIndex(ctx, index); err != nil {
		return err
	}

	if err := s.repo.UpdateAnswer(ctx, index, id, u); err != nil {
		return fmt.Errorf("update answer: %w", err)
	}
	return nil
}

func (s *Service) requireIndex(ctx context.Context, index string) error {
	ok, err := s.indices.Exists(ctx, index)
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	if !ok {
		return fmt.Errorf("index %s: %w", index, domain.ErrIndexNotFound)
	}
	return nil
}
