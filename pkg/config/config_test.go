package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Listen != ":8080" {
		t.Errorf("expected :8080, got %s", cfg.Listen)
	}
	if cfg.Cache.BaseTTL != 24*time.Hour {
		t.Errorf("expected 24h base TTL, got %v", cfg.Cache.BaseTTL)
	}
	if cfg.Cache.SimilarityThreshold != 0.86 {
		t.Errorf("expected 0.86 threshold, got %v", cfg.Cache.SimilarityThreshold)
	}
	if cfg.Cache.Backend != BackendNone {
		t.Errorf("expected no shared backend by default, got %s", cfg.Cache.Backend)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("TEST_API_KEY", "sk-test-123")

	path := writeConfig(t, `
listen: ":9090"
db_path: "test.db"
providers:
  - name: primary
    url: https://api.openai.com
    api_key: ${TEST_API_KEY}
    model: small-model
  - name: backup
    url: https://api.anthropic.com
    type: anthropic
router:
  order: [backup, primary]
cache:
  backend: redis
  redis:
    addr: redis:6379
  window_size: 500
  similarity_threshold: 0.9
  base_ttl: 12h
budget:
  min: 80
  base:
    ar:
      text: 700
upstream:
  timeout: 10s
  max_attempts: 5
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Listen != ":9090" {
		t.Errorf("expected :9090, got %s", cfg.Listen)
	}
	if cfg.Providers[0].APIKey != "sk-test-123" {
		t.Errorf("env var not expanded: got %s", cfg.Providers[0].APIKey)
	}
	if cfg.Providers[1].Type != "anthropic" {
		t.Errorf("expected anthropic type, got %s", cfg.Providers[1].Type)
	}
	if len(cfg.Router.Order) != 2 || cfg.Router.Order[0] != "backup" {
		t.Errorf("unexpected router order: %v", cfg.Router.Order)
	}
	if cfg.Cache.Backend != BackendRedis || cfg.Cache.Redis.Addr != "redis:6379" {
		t.Errorf("unexpected cache backend: %+v", cfg.Cache)
	}
	if cfg.Cache.Redis.Prefix != "promptsmith:" {
		t.Errorf("default prefix should survive a partial redis block, got %q", cfg.Cache.Redis.Prefix)
	}
	if cfg.Cache.WindowSize != 500 || cfg.Cache.SimilarityThreshold != 0.9 {
		t.Errorf("unexpected cache tuning: %+v", cfg.Cache)
	}
	if cfg.Cache.BaseTTL != 12*time.Hour {
		t.Errorf("expected 12h base TTL, got %v", cfg.Cache.BaseTTL)
	}
	if cfg.Cache.MaxTTL != 30*24*time.Hour {
		t.Errorf("max TTL default lost: %v", cfg.Cache.MaxTTL)
	}
	if cfg.Budget.Min != 80 || cfg.Budget.Base["ar"]["text"] != 700 {
		t.Errorf("unexpected budget: %+v", cfg.Budget)
	}
	if cfg.Upstream.Timeout != 10*time.Second || cfg.Upstream.MaxAttempts != 5 {
		t.Errorf("unexpected upstream: %+v", cfg.Upstream)
	}
	if cfg.Upstream.InitialBackoff != time.Second {
		t.Errorf("initial backoff default lost: %v", cfg.Upstream.InitialBackoff)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PROMPTSMITH_LISTEN", ":7070")
	t.Setenv("PROMPTSMITH_CACHE_BACKEND", "sqlite")
	t.Setenv("PROMPTSMITH_CACHE_SIMILARITY_THRESHOLD", "0.75")
	t.Setenv("PROMPTSMITH_UPSTREAM_TIMEOUT", "5s")
	t.Setenv("PROMPTSMITH_SANITIZE_EXTRA_TOKENS", "acme,globex")

	path := writeConfig(t, `
listen: ":9090"
cache:
  backend: redis
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Listen != ":7070" {
		t.Errorf("env should win over file, got %s", cfg.Listen)
	}
	if cfg.Cache.Backend != BackendSQLite {
		t.Errorf("expected sqlite backend, got %s", cfg.Cache.Backend)
	}
	if cfg.Cache.SimilarityThreshold != 0.75 {
		t.Errorf("expected 0.75, got %v", cfg.Cache.SimilarityThreshold)
	}
	if cfg.Upstream.Timeout != 5*time.Second {
		t.Errorf("expected 5s, got %v", cfg.Upstream.Timeout)
	}
	if len(cfg.Sanitize.ExtraTokens) != 2 || cfg.Sanitize.ExtraTokens[1] != "globex" {
		t.Errorf("unexpected extra tokens: %v", cfg.Sanitize.ExtraTokens)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Listen != ":8080" {
		t.Errorf("expected defaults, got %s", cfg.Listen)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad yaml", "listen: [", "parse config"},
		{"bad backend", "cache:\n  backend: memcached\n", "unknown cache backend"},
		{"bad threshold", "cache:\n  similarity_threshold: 1.5\n", "outside [0,1]"},
		{"duplicate provider", "providers:\n  - {name: a, url: http://x}\n  - {name: a, url: http://y}\n", "duplicate provider"},
		{"bad type", "providers:\n  - {name: a, url: http://x, type: grpc}\n", "unknown type"},
		{"unknown order", "providers:\n  - {name: a, url: http://x}\nrouter:\n  order: [b]\n", "unknown provider"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
