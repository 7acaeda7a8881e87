package embcache

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kailas-cloud/qdex/internal/db"
	"github.com/kailas-cloud/qdex/internal/domain"
	"github.com/kailas-cloud/qdex/internal/repository/keyspace"
)

const testModel = "sentence-transformers/all-MiniLM-L12-v2"

type mockEmbedder struct {
	result domain.EmbeddingResult
	err    error
	// gate, when set, blocks Embed until closed.
	gate  chan struct{}
	calls atomic.Int32
}

func (m *mockEmbedder) Embed(ctx context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls.Add(1)
	if m.gate != nil {
		<-m.gate
	}
	if err := ctx.Err(); err != nil {
		return domain.EmbeddingResult{}, err
	}
	return m.result, m.err
}

type mockKVStore struct {
	getFn        func(ctx context.Context, key string) ([]byte, error)
	setFn        func(ctx context.Context, key string, value []byte) error
	setWithTTLFn func(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockKVStore) Set(ctx context.Context, key string, value []byte) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value)
	}
	return nil
}

func (m *mockKVStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setWithTTLFn != nil {
		return m.setWithTTLFn(ctx, key, value, ttl)
	}
	return nil
}

func newTestCachedEmbedder(t *testing.T, inner *mockEmbedder, opts Options) (*CachedEmbedder, *mockKVStore) {
	t.Helper()
	if opts.Model == "" {
		opts.Model = testModel
	}
	ms := &mockKVStore{}
	return New(inner, ms, keyspace.New("qdex:"), opts), ms
}
