package cmd

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/qdex/internal/config"
	dbRedis "github.com/kailas-cloud/qdex/internal/db/redis"
	"github.com/kailas-cloud/qdex/internal/domain"
	logpkg "github.com/kailas-cloud/qdex/internal/logger"
	"github.com/kailas-cloud/qdex/internal/metrics"
	"github.com/kailas-cloud/qdex/internal/repository/embcache"
	"github.com/kailas-cloud/qdex/internal/repository/keyspace"
	questionrepo "github.com/kailas-cloud/qdex/internal/repository/question"
	searchrepo "github.com/kailas-cloud/qdex/internal/repository/search"
	sessionrepo "github.com/kailas-cloud/qdex/internal/repository/session"
	chiTransport "github.com/kailas-cloud/qdex/internal/transport/chi"
	openaiEmb "github.com/kailas-cloud/qdex/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/qdex/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/qdex/internal/usecase/health"
	lookupuc "github.com/kailas-cloud/qdex/internal/usecase/lookup"
	questionuc "github.com/kailas-cloud/qdex/internal/usecase/question"
	searchuc "github.com/kailas-cloud/qdex/internal/usecase/search"
	sessionuc "github.com/kailas-cloud/qdex/internal/usecase/session"
)

// loadRuntime reads config/<env>.yaml and builds the process logger.
func loadRuntime(env string) (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(env)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("create logger: %w", err)
	}
	return cfg, logger, nil
}

// openStore connects to Redis and waits until it answers.
func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (*dbRedis.Store, error) {
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("create store: %w", err)
	}

	timeout := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
	if err := store.WaitForReady(ctx, timeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	logger.Info("Connected to database", zap.Strings("addrs", cfg.Database.Addrs))
	return store, nil
}

// sessions builds the index lifecycle service, shared by serve and the index commands.
func sessions(store *dbRedis.Store, cfg config.Config, logger *zap.Logger) *sessionuc.Service {
	keys := keyspace.New(cfg.Storage.KeyPrefix)
	repo := sessionrepo.New(store, keys, cfg.Embedding.Dimensions, sessionrepo.HNSWConfig{
		M:           cfg.Index.HNSWM,
		EFConstruct: cfg.Index.HNSWEFConstruct,
	})
	return sessionuc.New(repo, logger)
}

// buildEmbedder assembles the chain: OpenAI -> cache (optional) -> adapter.
// The provider is returned separately as the health probe target.
func buildEmbedder(
	store *dbRedis.Store, cfg config.Config, logger *zap.Logger,
) (*embeddinguc.Adapter, *openaiEmb.Embedder, error) {
	ec := cfg.Embedding
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:   ec.APIKey,
		BaseURL:  ec.BaseURL,
		Model:    ec.Model,
		Provider: ec.Provider,
		Timeout:  time.Duration(ec.TimeoutSec) * time.Second,
		Logger:   logger,
	})

	var inner domain.Embedder = base
	keys := keyspace.New(cfg.Storage.KeyPrefix)
	cacheOpts := embcache.Options{
		Model:      ec.Model,
		Dim:        ec.Dimensions,
		Timeout:    time.Duration(ec.TimeoutSec) * time.Second,
		CacheTotal: metrics.EmbeddingCacheTotal,
		Logger:     logger,
	}
	switch ec.Cache.Backend {
	case config.CacheRedis:
		cacheOpts.TTL = time.Duration(ec.Cache.TTLSec) * time.Second
		inner = embcache.New(base, store, keys, cacheOpts)
	case config.CacheMemory:
		mem, err := embcache.NewMemoryStore(ec.Cache.Size)
		if err != nil {
			return nil, nil, fmt.Errorf("embedding cache: %w", err)
		}
		inner = embcache.New(base, mem, keys, cacheOpts)
	}

	logger.Info("Embedder created",
		zap.String("provider", ec.Provider),
		zap.String("model", ec.Model),
		zap.Int("dimensions", ec.Dimensions),
		zap.String("cache", ec.Cache.Backend),
	)
	return embeddinguc.NewAdapter(inner, ec.Provider, ec.Model, ec.Dimensions, logger), base, nil
}

// buildServer is the composition root of the HTTP API.
func buildServer(store *dbRedis.Store, cfg config.Config, logger *zap.Logger) (*chiTransport.Server, error) {
	metrics.Register()

	embedder, provider, err := buildEmbedder(store, cfg, logger)
	if err != nil {
		return nil, err
	}

	keys := keyspace.New(cfg.Storage.KeyPrefix)
	questionRepo := questionrepo.New(store, keys)
	searchRepo := searchrepo.New(store, keys)

	sessionSvc := sessions(store, cfg, logger)
	questionSvc := questionuc.New(questionRepo, sessionSvc, embedder, logger,
		questionuc.WithWrittenCounter(metrics.QuestionsWrittenTotal))
	searchSvc := searchuc.New(searchRepo, questionRepo, embedder, searchuc.Config{
		Oversampling: cfg.Search.Oversampling,
		MaxBuckets:   cfg.Search.MaxBuckets,
		RecentsSize:  cfg.Search.RecentsSize,
		MaxListSize:  cfg.Search.MaxListSize,
	}, metrics.SearchFanoutIndices)
	lookupSvc := lookupuc.New(questionRepo, sessionSvc, cfg.Search.MaxListSize)
	healthSvc := healthuc.New(store, provider, logger)

	if cfg.Auth.Secret == "" {
		logger.Warn("auth.secret is empty, mutating endpoints are disabled")
	}

	return chiTransport.NewServer(chiTransport.Services{
		Sessions:  sessionSvc,
		Questions: questionSvc,
		Search:    searchSvc,
		Lookup:    lookupSvc,
		Health:    healthSvc,
	}, chiTransport.Options{
		Secret:         cfg.Auth.Secret,
		LegacyChambers: cfg.Search.LegacyChambers,
	}, logger), nil
}
