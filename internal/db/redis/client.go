package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/qdex/internal/db"
)

var _ db.Store = (*Store)(nil)

// readyPoll is the first interval between readiness probes; it doubles up to readyPollMax.
const (
	readyPoll    = 100 * time.Millisecond
	readyPollMax = 2 * time.Second
)

// Config holds connection parameters for a Redis store.
type Config struct {
	Addrs    []string
	Username string
	Password string
	DB       int
}

// Store implements db.Store on Redis 8 with the query engine (FT.*, INDEXMISSING).
type Store struct {
	client rueidis.Client
}

// NewStore creates a Redis store via rueidis. Client-side caching stays off:
// records are read through FT.SEARCH, which it cannot serve.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, errors.New("at least one redis address is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		ClientName:   "qdex",
		DisableCache: true,
		AlwaysRESP2:  true, // reply parsing expects RESP2 arrays from FT.SEARCH/FT.AGGREGATE
	})
	if err != nil {
		return nil, fmt.Errorf("connect redis %v: %w", cfg.Addrs, err)
	}
	return &Store{client: client}, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.do(ctx, s.b().Ping().Build()).Error(); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Close shuts down the client.
func (s *Store) Close() {
	s.client.Close()
}

// WaitForReady blocks until Redis answers and the query engine is loaded, or
// timeout expires. A server without FT.* commands is reported at once.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	wait := readyPoll
	var last error
	for {
		if last = s.Ping(ctx); last == nil {
			_, err := s.ListIndexes(ctx)
			if err == nil {
				return nil
			}
			if isRedisErr(err, "unknown command") {
				return fmt.Errorf("redis has no query engine (FT._LIST): %w", err)
			}
			last = err
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("redis not ready after %s: %w", timeout, errors.Join(ctx.Err(), last))
		case <-time.After(wait):
		}
		wait = min(wait*2, readyPollMax)
	}
}

func (s *Store) do(ctx context.Context, cmd rueidis.Completed) rueidis.RedisResult {
	return s.client.Do(ctx, cmd)
}

func (s *Store) b() rueidis.Builder {
	return s.client.B()
}

// isRedisErr reports whether err is a server error reply containing substr, ignoring case.
func isRedisErr(err error, substr string) bool {
	var re *rueidis.RedisError
	if !errors.As(err, &re) {
		return false
	}
	return strings.Contains(strings.ToLower(re.Error()), strings.ToLower(substr))
}
