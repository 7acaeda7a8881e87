package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/qdex/internal/domain"
)

// Config holds the qdex API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Auth      AuthConfig      `yaml:"auth"`
	Index     IndexConfig     `yaml:"index"`
	Search    SearchConfig    `yaml:"search"`
	Storage   StorageConfig   `yaml:"storage"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds the shared secret gating mutating endpoints.
// An empty secret disables writes instead of opening them.
type AuthConfig struct {
	Secret string `yaml:"secret"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds Redis connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// IndexConfig holds HNSW parameters shared by every session index.
type IndexConfig struct {
	HNSWM           int `yaml:"hnsw_m"`
	HNSWEFConstruct int `yaml:"hnsw_ef_construction"`
}

// SearchConfig holds query shaping limits.
type SearchConfig struct {
	Oversampling   int      `yaml:"oversampling"`
	MaxBuckets     int      `yaml:"max_buckets"`
	RecentsSize    int      `yaml:"recents_size"`
	MaxListSize    int      `yaml:"max_list_size"`
	LegacyChambers []string `yaml:"legacy_chambers"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string      `yaml:"provider"`
	APIKey     string      `yaml:"api_key"`
	BaseURL    string      `yaml:"base_url"`
	Model      string      `yaml:"model"`
	Dimensions int         `yaml:"dimensions"`
	TimeoutSec int         `yaml:"timeout_sec"`
	Cache      CacheConfig `yaml:"cache"`
}

// CacheConfig selects the embedding cache backend.
type CacheConfig struct {
	Backend string `yaml:"backend"` // none (default), redis, memory
	Size    int    `yaml:"size"`    // memory backend capacity
	TTLSec  int    `yaml:"ttl_sec"` // redis backend expiry, 0 = no expiry
}

// Cache backends.
const (
	CacheNone   = "none"
	CacheRedis  = "redis"
	CacheMemory = "memory"
)

// PathEnv names a config file that overrides the per-environment lookup.
const PathEnv = "QDEX_CONFIG"

// Load reads the YAML config of env (local, prod, ...) from config/<env>.yaml,
// or the file named by QDEX_CONFIG when set.
func Load(env string) (Config, error) {
	path := os.Getenv(PathEnv)
	if path == "" {
		path = findConfigPath(env)
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse expands ${VAR} and ${VAR:-default} references in a YAML document,
// decodes it, applies defaults and validates the result.
func Parse(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(expandEnvVars(data), &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// GetEnv returns the ENV variable, or "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills unset and non-positive values.
func (c *Config) ApplyDefaults() {
	vec := domain.DefaultVectorConfig()

	positive(&c.HTTP.ReadTimeoutSec, 10)
	positive(&c.HTTP.WriteTimeoutSec, 30)
	positive(&c.HTTP.ShutdownSec, 10)
	positive(&c.Database.ReadinessTimeout, 10)

	nonEmpty(&c.Embedding.Provider, "openai")
	nonEmpty(&c.Embedding.Model, vec.Model)
	positive(&c.Embedding.Dimensions, vec.Dimensions)
	positive(&c.Embedding.TimeoutSec, 30)
	nonEmpty(&c.Embedding.Cache.Backend, CacheNone)
	positive(&c.Embedding.Cache.Size, 1000)

	positive(&c.Index.HNSWM, 16)
	positive(&c.Index.HNSWEFConstruct, 200)

	positive(&c.Search.Oversampling, 10)
	positive(&c.Search.MaxBuckets, 1000)
	positive(&c.Search.RecentsSize, 10)
	positive(&c.Search.MaxListSize, 10000)
	if len(c.Search.LegacyChambers) == 0 {
		c.Search.LegacyChambers = []string{"lok_sabha", "rajya_sabha"}
	}

	nonEmpty(&c.Storage.KeyPrefix, "qdex:")
}

func positive(v *int, def int) {
	if *v <= 0 {
		*v = def
	}
}

func nonEmpty(v *string, def string) {
	if *v == "" {
		*v = def
	}
}

// Validate reports every problem found, joined.
func (c *Config) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		fail("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		fail("database.addrs is required")
	}
	if want := domain.DefaultVectorConfig().Dimensions; c.Embedding.Dimensions != want {
		fail("embedding.dimensions must be %d to match the question index schema, got %d",
			want, c.Embedding.Dimensions)
	}
	switch c.Embedding.Cache.Backend {
	case CacheNone, CacheRedis, CacheMemory:
	default:
		fail("embedding.cache.backend must be %q, %q or %q, got %q",
			CacheNone, CacheRedis, CacheMemory, c.Embedding.Cache.Backend)
	}
	if c.Embedding.Cache.TTLSec < 0 {
		fail("embedding.cache.ttl_sec must not be negative, got %d", c.Embedding.Cache.TTLSec)
	}
	if c.Search.RecentsSize > c.Search.MaxListSize {
		fail("search.recents_size (%d) exceeds search.max_list_size (%d)",
			c.Search.RecentsSize, c.Search.MaxListSize)
	}
	if strings.ContainsAny(c.Storage.KeyPrefix, " \t\n*?[]") {
		fail("storage.key_prefix contains invalid characters: %q", c.Storage.KeyPrefix)
	}
	return errors.Join(errs...)
}

// findConfigPath looks in ./config first, then in the module root so tests
// running from a package directory find the same files.
func findConfigPath(env string) string {
	name := env + ".yaml"
	local := filepath.Join("config", name)
	if fileExists(local) {
		return local
	}

	_, file, _, _ := runtime.Caller(0)
	root := filepath.Dir(filepath.Dir(filepath.Dir(file))) // internal/config/config.go
	if path := filepath.Join(root, "config", name); fileExists(path) {
		return path
	}
	return local
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

var envRef = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars substitutes ${VAR} and ${VAR:-default}. An unset VAR with no
// default becomes empty.
func expandEnvVars(data []byte) []byte {
	return envRef.ReplaceAllFunc(data, func(ref []byte) []byte {
		name, def, hasDef := strings.Cut(string(ref[2:len(ref)-1]), ":-")
		if v := os.Getenv(name); v != "" || !hasDef {
			return []byte(v)
		}
		return []byte(def)
	})
}
