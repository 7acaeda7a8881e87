package session

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/kailas-cloud/qdex/internal/db"
	"github.com/kailas-cloud/qdex/internal/domain"
	"github.com/kailas-cloud/qdex/internal/repository/keyspace"
)

// store is the consumer interface for session index operations (ISP).
type store interface {
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string, deleteDocs bool) error
	IndexExists(ctx context.Context, name string) (bool, error)
	ListIndexes(ctx context.Context) ([]string, error)
	Del(ctx context.Context, key string) error
}

// HNSWConfig holds HNSW index parameters.
type HNSWConfig struct {
	M           int // max edges per node (default 16)
	EFConstruct int // build-time candidate list size (default 200)
}

// Repo implements usecase/session.Repository.
type Repo struct {
	store     store
	keys      keyspace.Keyspace
	vectorDim int
	hnsw      HNSWConfig
}

// New creates a session index repository.
func New(s store, keys keyspace.Keyspace, vectorDim int, hnsw HNSWConfig) *Repo {
	if hnsw.M <= 0 {
		hnsw.M = 16
	}
	if hnsw.EFConstruct <= 0 {
		hnsw.EFConstruct = 200
	}
	return &Repo{store: s, keys: keys, vectorDim: vectorDim, hnsw: hnsw}
}

// Create runs FT.CREATE for the session. A lost race with a concurrent
// create surfaces as domain.ErrIndexAlreadyExists.
func (r *Repo) Create(ctx context.Context, name string) error {
	def, err := buildIndex(r.keys, name, r.vectorDim, r.hnsw)
	if err != nil {
		return fmt.Errorf("build index %s: %w", name, err)
	}

	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return domain.ErrIndexAlreadyExists
		}
		return fmt.Errorf("create index %s: %w", name, domain.Unavailable(err))
	}
	return nil
}

// Drop removes the index, its record hashes and the qno sequence.
// deleted is false when there was no such index.
func (r *Repo) Drop(ctx context.Context, name string) (bool, error) {
	if err := r.store.DropIndex(ctx, r.keys.Index(name), true); err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("drop index %s: %w", name, domain.Unavailable(err))
	}

	if err := r.store.Del(ctx, r.keys.Sequence(name)); err != nil {
		return true, fmt.Errorf("delete sequence %s: %w", name, domain.Unavailable(err))
	}
	return true, nil
}

// Exists reports whether the session index is present.
func (r *Repo) Exists(ctx context.Context, name string) (bool, error) {
	ok, err := r.store.IndexExists(ctx, r.keys.Index(name))
	if err != nil {
		return false, fmt.Errorf("check index %s: %w", name, domain.Unavailable(err))
	}
	return ok, nil
}

// List returns the names of all session indices in this keyspace, sorted.
func (r *Repo) List(ctx context.Context) ([]string, error) {
	indexes, err := r.store.ListIndexes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list indexes: %w", domain.Unavailable(err))
	}

	names := make([]string, 0, len(indexes))
	for _, idx := range indexes {
		if name, ok := r.keys.SessionFromIndex(idx); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}
