package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.RateLimit.MaxRequests)
	assert.Equal(t, time.Hour, cfg.Window())
	assert.Equal(t, []string{"vercel.app", "localhost"}, cfg.Auth.FrontendMarkers)
	assert.Equal(t, 10*time.Second, cfg.HTTP.PageTimeout())
	assert.Equal(t, 5*time.Second, cfg.HTTP.ProbeTimeout())
	assert.Equal(t, 3*time.Second, cfg.HTTP.RegistryTimeout())
	assert.Equal(t, 5, cfg.HTTP.MaxRedirects)
	assert.Equal(t, 1, cfg.Detection.MinSignals)
	assert.Equal(t, "https://api.wordpress.org", cfg.Registry.BaseURL)
	assert.True(t, cfg.Targets.BlockPrivate)
	assert.Contains(t, cfg.Targets.BlockedHosts, "localhost")

	h := cfg.HTTP.Headers()
	assert.Contains(t, h.Get("User-Agent"), "Mozilla/5.0")
	assert.Equal(t, "es-MX,es;q=0.9,en;q=0.8", h.Get("Accept-Language"))
	assert.True(t, strings.HasPrefix(h.Get("Accept"), "text/html"))
}

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
server:
  port: 9090
  request_timeout_seconds: 30
auth:
  enabled: true
  api_key: secret
  frontend_markers: ["example.app"]
rate_limit:
  max_requests: 3
  window_seconds: 60
  evict_interval_seconds: 0
http:
  user_agent: inspector-test
  page_timeout_seconds: 20
  max_redirects: 2
registry:
  enabled: false
  concurrency: 2
detection:
  min_signals: 2
logging:
  development: false
  level: warn
`
	require.NoError(t, os.WriteFile(path, []byte(configYAML), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout())
	assert.True(t, cfg.Auth.Enabled)
	assert.Equal(t, "secret", cfg.Auth.APIKey)
	assert.Equal(t, []string{"example.app"}, cfg.Auth.FrontendMarkers)
	assert.Equal(t, 3, cfg.RateLimit.MaxRequests)
	assert.Equal(t, time.Minute, cfg.Window())
	assert.Zero(t, cfg.EvictInterval())
	assert.Equal(t, "inspector-test", cfg.HTTP.Headers().Get("User-Agent"))
	assert.Equal(t, 20*time.Second, cfg.HTTP.PageTimeout())
	assert.Equal(t, 2, cfg.HTTP.MaxRedirects)
	assert.False(t, cfg.Registry.Enabled)
	assert.Equal(t, 2, cfg.Detection.MinSignals)
	assert.False(t, cfg.Logging.Development)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

// Not parallel: mutates process environment.
func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "7070")
	t.Setenv("WP_INSPECTOR_RATE_LIMIT_MAX_REQUESTS", "25")
	t.Setenv("WP_INSPECTOR_AUTH_FRONTEND_MARKERS", "a.example,b.example")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, 25, cfg.RateLimit.MaxRequests)
	assert.Equal(t, []string{"a.example", "b.example"}, cfg.Auth.FrontendMarkers)
}

func TestConfigValidateErrors(t *testing.T) {
	t.Parallel()

	base, err := Load("")
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"invalid port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"invalid request timeout", func(c *Config) { c.Server.RequestTimeoutSeconds = 0 }, "server.request_timeout_seconds"},
		{"auth missing api key", func(c *Config) { c.Auth.Enabled = true; c.Auth.APIKey = "" }, "auth.api_key"},
		{"zero rate limit", func(c *Config) { c.RateLimit.MaxRequests = 0 }, "rate_limit.max_requests"},
		{"zero window", func(c *Config) { c.RateLimit.WindowSeconds = 0 }, "rate_limit.window_seconds"},
		{"zero probe timeout", func(c *Config) { c.HTTP.ProbeTimeoutSeconds = 0 }, "http timeouts"},
		{"negative redirects", func(c *Config) { c.HTTP.MaxRedirects = -1 }, "http.max_redirects"},
		{"registry without url", func(c *Config) { c.Registry.BaseURL = "" }, "registry.base_url"},
		{"zero registry concurrency", func(c *Config) { c.Registry.Concurrency = 0 }, "registry.concurrency"},
		{"negative registry rate", func(c *Config) { c.Registry.RequestsPerSecond = -1 }, "registry.requests_per_second"},
		{"zero min signals", func(c *Config) { c.Detection.MinSignals = 0 }, "detection.min_signals"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := base
			cfg.Auth.FrontendMarkers = append([]string(nil), base.Auth.FrontendMarkers...)
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
