package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds all Promptsmith configuration.
type Config struct {
	Listen    string           `yaml:"listen" env:"PROMPTSMITH_LISTEN"`
	DBPath    string           `yaml:"db_path" env:"PROMPTSMITH_DB_PATH"`
	Providers []ProviderConfig `yaml:"providers"`
	Router    RouterConfig     `yaml:"router"`
	Cache     CacheConfig      `yaml:"cache"`
	Budget    BudgetConfig     `yaml:"budget"`
	Upstream  UpstreamConfig   `yaml:"upstream"`
	Server    ServerConfig     `yaml:"server"`
	Sanitize  SanitizeConfig   `yaml:"sanitize"`
}

// ProviderConfig defines an upstream generation provider.
// Type is "openai" (default) or "anthropic".
type ProviderConfig struct {
	Name   string `yaml:"name"`
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
	Type   string `yaml:"type"`
	Model  string `yaml:"model"`
}

// RouterConfig orders the providers tried for each generation.
// An empty order means the providers list order.
type RouterConfig struct {
	Order []string `yaml:"order"`
}

// CacheConfig controls the fingerprint cache.
type CacheConfig struct {
	Enabled             bool          `yaml:"enabled" env:"PROMPTSMITH_CACHE_ENABLED"`
	LocalSize           int           `yaml:"local_size" env:"PROMPTSMITH_CACHE_LOCAL_SIZE"`
	Backend             string        `yaml:"backend" env:"PROMPTSMITH_CACHE_BACKEND"` // none, redis or sqlite
	Redis               RedisConfig   `yaml:"redis"`
	WindowSize          int           `yaml:"window_size" env:"PROMPTSMITH_CACHE_WINDOW_SIZE"`
	SimilarityThreshold float64       `yaml:"similarity_threshold" env:"PROMPTSMITH_CACHE_SIMILARITY_THRESHOLD"`
	BaseTTL             time.Duration `yaml:"base_ttl" env:"PROMPTSMITH_CACHE_BASE_TTL"`
	MaxTTL              time.Duration `yaml:"max_ttl" env:"PROMPTSMITH_CACHE_MAX_TTL"`
	SharedTimeout       time.Duration `yaml:"shared_timeout" env:"PROMPTSMITH_CACHE_SHARED_TIMEOUT"`
}

// RedisConfig locates the shared Redis tier.
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"PROMPTSMITH_REDIS_ADDR"`
	Password string `yaml:"password" env:"PROMPTSMITH_REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"PROMPTSMITH_REDIS_DB"`
	Prefix   string `yaml:"prefix" env:"PROMPTSMITH_REDIS_PREFIX"`
}

// BudgetConfig overrides the generation budget table.
// Base is keyed by language, then category: base.ar.text: 650.
type BudgetConfig struct {
	Min  int                       `yaml:"min" env:"PROMPTSMITH_BUDGET_MIN"`
	Base map[string]map[string]int `yaml:"base"`
}

// UpstreamConfig controls calls to the generation providers.
type UpstreamConfig struct {
	Timeout        time.Duration `yaml:"timeout" env:"PROMPTSMITH_UPSTREAM_TIMEOUT"`
	MaxAttempts    int           `yaml:"max_attempts" env:"PROMPTSMITH_UPSTREAM_MAX_ATTEMPTS"`
	InitialBackoff time.Duration `yaml:"initial_backoff" env:"PROMPTSMITH_UPSTREAM_INITIAL_BACKOFF"`
}

// ServerConfig controls the HTTP front end.
type ServerConfig struct {
	RateLimit float64 `yaml:"rate_limit" env:"PROMPTSMITH_RATE_LIMIT"` // requests per second per client, 0 disables
	Burst     int     `yaml:"burst" env:"PROMPTSMITH_RATE_BURST"`
}

// SanitizeConfig extends the output filter.
type SanitizeConfig struct {
	ExtraTokens []string `yaml:"extra_tokens" env:"PROMPTSMITH_SANITIZE_EXTRA_TOKENS" envSeparator:","`
}

// Backends accepted by CacheConfig.Backend.
const (
	BackendNone   = "none"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Listen: ":8080",
		DBPath: "promptsmith.db",
		Cache: CacheConfig{
			Enabled:             true,
			LocalSize:           256,
			Backend:             BackendNone,
			Redis:               RedisConfig{Addr: "localhost:6379", Prefix: "promptsmith:"},
			WindowSize:          2000,
			SimilarityThreshold: 0.86,
			BaseTTL:             24 * time.Hour,
			MaxTTL:              30 * 24 * time.Hour,
			SharedTimeout:       500 * time.Millisecond,
		},
		Budget: BudgetConfig{
			Min: 60,
		},
		Upstream: UpstreamConfig{
			Timeout:        30 * time.Second,
			MaxAttempts:    3,
			InitialBackoff: time.Second,
		},
		Server: ServerConfig{
			RateLimit: 2,
			Burst:     10,
		},
	}
}

// Load reads a YAML config file, expands environment variables and applies
// PROMPTSMITH_* overrides. A missing file yields the defaults plus overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports configuration that cannot work.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case "", BackendNone, BackendRedis, BackendSQLite:
	default:
		return fmt.Errorf("config: unknown cache backend %q", c.Cache.Backend)
	}
	if t := c.Cache.SimilarityThreshold; t < 0 || t > 1 {
		return fmt.Errorf("config: similarity_threshold %v outside [0,1]", t)
	}
	names := make(map[string]bool, len(c.Providers))
	for _, p := range c.Providers {
		if p.Name == "" || p.URL == "" {
			return fmt.Errorf("config: provider needs name and url")
		}
		if names[p.Name] {
			return fmt.Errorf("config: duplicate provider %q", p.Name)
		}
		names[p.Name] = true
		switch p.Type {
		case "", "openai", "anthropic":
		default:
			return fmt.Errorf("config: provider %s has unknown type %q", p.Name, p.Type)
		}
	}
	for _, name := range c.Router.Order {
		if !names[name] {
			return fmt.Errorf("config: router order names unknown provider %q", name)
		}
	}
	return nil
}
