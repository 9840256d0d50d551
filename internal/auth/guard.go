// Package auth decides whether an API request may proceed: API key check,
// caller classification and per-IP rate limiting of front-end traffic.
package auth

import (
	"crypto/subtle"
	"net"
	"net/http"
	"strings"

	"github.com/JakeFAU/wp-inspector/internal/policy/ratelimit"
)

// Caller sources.
const (
	SourceFrontend = "frontend"
	SourceAPI      = "api"
)

// APIKeyHeader carries the shared secret.
const APIKeyHeader = "X-API-Key"

// Checker counts a request against a key's quota.
type Checker interface {
	Check(key string) ratelimit.Status
}

// Config controls the guard.
type Config struct {
	Enabled         bool
	APIKey          string
	FrontendMarkers []string
}

// Verdict is the guard's decision for one request.
type Verdict struct {
	Valid     bool
	Status    int
	Error     string
	RateLimit ratelimit.Status
	ClientIP  string
	Source    string
}

// Guard validates requests.
type Guard struct {
	cfg     Config
	limiter Checker
}

// New builds a Guard.
func New(cfg Config, limiter Checker) *Guard {
	return &Guard{cfg: cfg, limiter: limiter}
}

// Validate checks the API key first, then rate limits front-end callers.
// API callers are never limited.
func (g *Guard) Validate(r *http.Request) Verdict {
	ip := ClientIP(r)
	source := g.source(r)

	if g.cfg.Enabled && !keysEqual(r.Header.Get(APIKeyHeader), g.cfg.APIKey) {
		return Verdict{
			Status:   http.StatusUnauthorized,
			Error:    "Unauthorized",
			ClientIP: ip,
			Source:   source,
		}
	}

	if source != SourceFrontend || g.limiter == nil {
		return Verdict{Valid: true, Status: http.StatusOK, RateLimit: ratelimit.Unlimited(), ClientIP: ip, Source: source}
	}

	st := g.limiter.Check(ip)
	if !st.Allowed {
		return Verdict{
			Status:    http.StatusTooManyRequests,
			Error:     "Rate limit exceeded",
			RateLimit: st,
			ClientIP:  ip,
			Source:    source,
		}
	}
	return Verdict{Valid: true, Status: http.StatusOK, RateLimit: st, ClientIP: ip, Source: source}
}

func (g *Guard) source(r *http.Request) string {
	referer := r.Header.Get("Referer")
	origin := r.Header.Get("Origin")
	for _, marker := range g.cfg.FrontendMarkers {
		if marker == "" {
			continue
		}
		if strings.Contains(referer, marker) || strings.Contains(origin, marker) {
			return SourceFrontend
		}
	}
	return SourceAPI
}

// ClientIP returns the first X-Forwarded-For entry, then X-Real-IP, then the
// connection's remote address, then "unknown".
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	if r.RemoteAddr != "" {
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			return host
		}
		return r.RemoteAddr
	}
	return "unknown"
}

func keysEqual(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
