// Package config loads and validates inspector configuration via Viper.
package config

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Registry  RegistryConfig  `mapstructure:"registry"`
	Detection DetectionConfig `mapstructure:"detection"`
	Targets   TargetsConfig   `mapstructure:"targets"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port                  int `mapstructure:"port"`
	RequestTimeoutSeconds int `mapstructure:"request_timeout_seconds"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
	// FrontendMarkers are Referer/Origin substrings that identify the
	// browser front-end, whose callers are rate limited.
	FrontendMarkers []string `mapstructure:"frontend_markers"`
}

// RateLimitConfig sizes the per-IP fixed window applied to front-end callers.
type RateLimitConfig struct {
	MaxRequests          int `mapstructure:"max_requests"`
	WindowSeconds        int `mapstructure:"window_seconds"`
	EvictIntervalSeconds int `mapstructure:"evict_interval_seconds"`
}

// HTTPConfig configures outbound requests.
type HTTPConfig struct {
	UserAgent              string `mapstructure:"user_agent"`
	Accept                 string `mapstructure:"accept"`
	AcceptLanguage         string `mapstructure:"accept_language"`
	PageTimeoutSeconds     int    `mapstructure:"page_timeout_seconds"`
	ProbeTimeoutSeconds    int    `mapstructure:"probe_timeout_seconds"`
	RegistryTimeoutSeconds int    `mapstructure:"registry_timeout_seconds"`
	MaxRedirects           int    `mapstructure:"max_redirects"`
	MaxBodyBytes           int    `mapstructure:"max_body_bytes"`
}

// RegistryConfig points at the WordPress.org plugin API.
type RegistryConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	BaseURL           string  `mapstructure:"base_url"`
	Concurrency       int     `mapstructure:"concurrency"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
}

// DetectionConfig tunes the platform verdict.
type DetectionConfig struct {
	MinSignals int `mapstructure:"min_signals"`
}

// TargetsConfig lists hosts that may never be inspected.
type TargetsConfig struct {
	BlockedHosts []string `mapstructure:"blocked_hosts"`
	BlockPrivate bool     `mapstructure:"block_private"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// Load builds a Config from disk/environment. An empty path loads defaults
// and environment only.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("WP_INSPECTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("server.port", "WP_INSPECTOR_SERVER_PORT", "PORT"); err != nil {
		return Config{}, fmt.Errorf("bind port env: %w", err)
	}

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.request_timeout_seconds", 60)
	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.frontend_markers", []string{"vercel.app", "localhost"})
	v.SetDefault("rate_limit.max_requests", 10)
	v.SetDefault("rate_limit.window_seconds", 3600)
	v.SetDefault("rate_limit.evict_interval_seconds", 300)
	v.SetDefault("http.user_agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")
	v.SetDefault("http.accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	v.SetDefault("http.accept_language", "es-MX,es;q=0.9,en;q=0.8")
	v.SetDefault("http.page_timeout_seconds", 10)
	v.SetDefault("http.probe_timeout_seconds", 5)
	v.SetDefault("http.registry_timeout_seconds", 3)
	v.SetDefault("http.max_redirects", 5)
	v.SetDefault("http.max_body_bytes", 10*1024*1024)
	v.SetDefault("registry.enabled", true)
	v.SetDefault("registry.base_url", "https://api.wordpress.org")
	v.SetDefault("registry.concurrency", 8)
	v.SetDefault("registry.requests_per_second", 20)
	v.SetDefault("detection.min_signals", 1)
	v.SetDefault("targets.blocked_hosts", []string{"localhost", "*.localhost", "*.local", "*.internal"})
	v.SetDefault("targets.block_private", true)
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Server.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("server.request_timeout_seconds must be > 0")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	if c.RateLimit.MaxRequests <= 0 {
		return fmt.Errorf("rate_limit.max_requests must be > 0")
	}
	if c.RateLimit.WindowSeconds <= 0 {
		return fmt.Errorf("rate_limit.window_seconds must be > 0")
	}
	if c.HTTP.PageTimeoutSeconds <= 0 || c.HTTP.ProbeTimeoutSeconds <= 0 || c.HTTP.RegistryTimeoutSeconds <= 0 {
		return fmt.Errorf("http timeouts must be > 0")
	}
	if c.HTTP.MaxRedirects < 0 {
		return fmt.Errorf("http.max_redirects must be >= 0")
	}
	if c.Registry.Enabled && c.Registry.BaseURL == "" {
		return fmt.Errorf("registry.base_url must be set when the registry is enabled")
	}
	if c.Registry.Concurrency <= 0 {
		return fmt.Errorf("registry.concurrency must be > 0")
	}
	if c.Registry.RequestsPerSecond < 0 {
		return fmt.Errorf("registry.requests_per_second must be >= 0")
	}
	if c.Detection.MinSignals < 1 {
		return fmt.Errorf("detection.min_signals must be >= 1")
	}
	return nil
}

// RequestTimeout bounds a single API request end to end.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeoutSeconds) * time.Second
}

// Window returns the rate limit window.
func (c Config) Window() time.Duration {
	return time.Duration(c.RateLimit.WindowSeconds) * time.Second
}

// EvictInterval returns how often stale rate limit windows are dropped.
// Zero disables the eviction loop.
func (c Config) EvictInterval() time.Duration {
	return time.Duration(c.RateLimit.EvictIntervalSeconds) * time.Second
}

// PageTimeout returns the primary fetch timeout.
func (c HTTPConfig) PageTimeout() time.Duration {
	return time.Duration(c.PageTimeoutSeconds) * time.Second
}

// ProbeTimeout returns the timeout for probes, listings and stylesheets.
func (c HTTPConfig) ProbeTimeout() time.Duration {
	return time.Duration(c.ProbeTimeoutSeconds) * time.Second
}

// RegistryTimeout returns the per-lookup registry timeout.
func (c HTTPConfig) RegistryTimeout() time.Duration {
	return time.Duration(c.RegistryTimeoutSeconds) * time.Second
}

// Headers returns the browser-like headers sent on every outbound request.
func (c HTTPConfig) Headers() http.Header {
	h := http.Header{}
	if c.UserAgent != "" {
		h.Set("User-Agent", c.UserAgent)
	}
	if c.Accept != "" {
		h.Set("Accept", c.Accept)
	}
	if c.AcceptLanguage != "" {
		h.Set("Accept-Language", c.AcceptLanguage)
	}
	return h
}
