package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/qdex/internal/db"
	"github.com/kailas-cloud/qdex/internal/domain"
	"github.com/kailas-cloud/qdex/internal/repository/keyspace"
)

// Cache outcomes reported on the "result" label.
const (
	resultHit   = "hit"
	resultMiss  = "miss"
	resultStale = "stale"
)

// store is satisfied by the Redis store and MemoryStore.
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Options configures a CachedEmbedder.
type Options struct {
	// Model scopes cache keys so a model switch never serves old vectors.
	Model string
	// Dim rejects cached vectors of another width. 0 disables the check.
	Dim int
	// TTL of 0 keeps entries until the backend evicts them.
	TTL time.Duration
	// Timeout bounds a shared provider call, which outlives cancelled callers.
	Timeout    time.Duration
	CacheTotal *prometheus.CounterVec
	Logger     *zap.Logger
}

// CachedEmbedder memoizes question and query embeddings in a key-value store.
type CachedEmbedder struct {
	inner    domain.Embedder
	store    store
	keys     keyspace.Keyspace
	opts     Options
	inflight singleflight.Group
}

// New wraps inner with a cache on s.
func New(inner domain.Embedder, s store, keys keyspace.Keyspace, opts Options) *CachedEmbedder {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &CachedEmbedder{inner: inner, store: s, keys: keys, opts: opts}
}

// Embed returns the cached vector for text or computes and stores it.
// Hits report zero tokens. Concurrent misses on the same text share one
// provider call.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	key := c.cacheKey(text)

	if vec, ok := c.lookup(ctx, key); ok {
		return domain.EmbeddingResult{Embedding: vec}, nil
	}

	// The shared call is detached from the caller that started it, so one
	// cancelled request cannot fail the others waiting on the same text.
	leader := false
	ch := c.inflight.DoChan(key, func() (any, error) {
		leader = true
		sctx, cancel := c.sharedContext(ctx)
		defer cancel()
		res, err := c.inner.Embed(sctx, text)
		if err != nil {
			return domain.EmbeddingResult{}, err
		}
		c.put(sctx, key, res.Embedding)
		return res, nil
	})

	var r singleflight.Result
	select {
	case <-ctx.Done():
		return domain.EmbeddingResult{}, fmt.Errorf("embed text: %w", ctx.Err())
	case r = <-ch:
	}
	if r.Err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed text: %w", r.Err)
	}
	res, _ := r.Val.(domain.EmbeddingResult)
	if !leader {
		// Tokens are billed once, to the caller that ran the request.
		res.PromptTokens, res.TotalTokens = 0, 0
	}
	return res, nil
}

func (c *CachedEmbedder) sharedContext(ctx context.Context) (context.Context, context.CancelFunc) {
	detached := context.WithoutCancel(ctx)
	if c.opts.Timeout > 0 {
		return context.WithTimeout(detached, c.opts.Timeout)
	}
	return context.WithCancel(detached)
}

func (c *CachedEmbedder) cacheKey(text string) string {
	h := sha256.New()
	h.Write([]byte(c.opts.Model))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return c.keys.EmbeddingCache(hex.EncodeToString(h.Sum(nil)))
}

func (c *CachedEmbedder) lookup(ctx context.Context, key string) ([]float32, bool) {
	data, err := c.store.Get(ctx, key)
	switch {
	case errors.Is(err, db.ErrKeyNotFound):
		c.count(resultMiss)
		return nil, false
	case err != nil:
		c.opts.Logger.Warn("Embedding cache read failed", zap.String("key", key), zap.Error(err))
		c.count(resultMiss)
		return nil, false
	}

	vec, err := decodeVector(data)
	if err == nil && c.opts.Dim > 0 && len(vec) != c.opts.Dim {
		err = fmt.Errorf("cached vector has %d dims, want %d", len(vec), c.opts.Dim)
	}
	if err != nil {
		c.opts.Logger.Warn("Discarding cached embedding", zap.String("key", key), zap.Error(err))
		c.count(resultStale)
		return nil, false
	}

	c.count(resultHit)
	return vec, true
}

func (c *CachedEmbedder) count(result string) {
	if c.opts.CacheTotal != nil {
		c.opts.CacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *CachedEmbedder) put(ctx context.Context, key string, vec []float32) {
	data := encodeVector(vec)
	var err error
	if c.opts.TTL > 0 {
		err = c.store.SetWithTTL(ctx, key, data, c.opts.TTL)
	} else {
		err = c.store.Set(ctx, key, data)
	}
	if err != nil {
		c.opts.Logger.Warn("Embedding cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// encodeVector packs float32s little-endian, the layout FT vector fields use.
func encodeVector(v []float32) []byte {
	buf := make([]byte, 0, len(v)*4)
	for _, f := range v {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	return buf
}

func decodeVector(data []byte) ([]float32, error) {
	if len(data) == 0 || len(data)%4 != 0 {
		return nil, fmt.Errorf("malformed cache entry of %d bytes", len(data))
	}
	vec := make([]float32, 0, len(data)/4)
	for off := 0; off < len(data); off += 4 {
		vec = append(vec, math.Float32frombits(binary.LittleEndian.Uint32(data[off:])))
	}
	return vec, nil
}
