package session

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/qdex/internal/domain"
	domsession "github.com/kailas-cloud/qdex/internal/domain/session"
)

// Service manages the lifecycle of per-session indices.
type Service struct {
	repo   Repository
	logger *zap.Logger
}

// New creates a session service.
func New(repo Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Create creates the index for chamber and version.
// An existing index yields domain.ErrIndexAlreadyExists and is left untouched.
func (s *Service) Create(ctx context.Context, chamber, version string) (domsession.Session, error) {
	sess, err := domsession.New(chamber, version)
	if err != nil {
		return domsession.Session{}, domain.Invalid(err)
	}

	exists, err := s.repo.Exists(ctx, sess.Name())
	if err != nil {
		return domsession.Session{}, fmt.Errorf("check index: %w", err)
	}
	if exists {
		return sess, domain.ErrIndexAlreadyExists
	}

	if err := s.repo.Create(ctx, sess.Name()); err != nil {
		return sess, fmt.Errorf("create index: %w", err)
	}

	s.logger.Info("Index created", zap.String("index", sess.Name()))
	return sess, nil
}

// Delete drops the index, its records and its qno sequence.
// deleted is false when there was nothing to drop.
func (s *Service) Delete(ctx context.Context, chamber, version string) (domsession.Session, bool, error) {
	sess, err := domsession.New(chamber, version)
	if err != nil {
		return domsession.Session{}, false, domain.Invalid(err)
	}

	deleted, err := s.repo.Drop(ctx, sess.Name())
	if err != nil {
		return sess, false, fmt.Errorf("drop index: %w", err)
	}

	if deleted {
		s.logger.Info("Index deleted", zap.String("index", sess.Name()))
	}
	return sess, deleted, nil
}

// List returns all session index names.
func (s *Service) List(ctx context.Context) ([]string, error) {
	names, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list indices: %w", err)
	}
	return names, nil
}

// Exists reports whether the named index is present.
func (s *Service) Exists(ctx context.Context, name string) (bool, error) {
	if err := domsession.ValidateName(name); err != nil {
		return false, domain.Invalid(err)
	}
	ok, err := s.repo.Exists(ctx, name)
	if err != nil {
		return false, fmt.Errorf("check index: %w", err)
	}
	return ok, nil
}
