// Package ratelimit implements a fixed-window request limiter keyed by client
// address.
package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"
)

// UnlimitedQuota is reported for callers that are not rate limited.
const UnlimitedQuota = 999999

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// Config sizes the window.
type Config struct {
	MaxRequests int
	Window      time.Duration
}

// Status is the outcome of one Check.
type Status struct {
	Allowed        bool `json:"allowed"`
	Limit          int  `json:"limit"`
	Remaining      int  `json:"remaining"`
	Current        int  `json:"current"`
	ResetInSeconds int  `json:"resetInSeconds"`
	ResetInMinutes int  `json:"resetInMinutes"`
}

// Unlimited is the status reported for exempt callers.
func Unlimited() Status {
	return Status{Allowed: true, Limit: UnlimitedQuota, Remaining: UnlimitedQuota}
}

type window struct {
	count int
	start time.Time
}

// Limiter tracks one window per key. It is safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window
	cfg     Config
	clock   Clock
	logger  *zap.Logger
}

// New creates a new Limiter.
func New(cfg Config, clock Clock, logger *zap.Logger) *Limiter {
	if cfg.MaxRequests <= 0 {
		cfg.MaxRequests = 10
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Limiter{
		windows: make(map[string]*window),
		cfg:     cfg,
		clock:   clock,
		logger:  logger,
	}
}

// Check counts one request for key. The window starts on the first request
// and restarts on the first request after it has elapsed.
func (l *Limiter) Check(key string) Status {
	now := l.clock.Now()

	l.mu.Lock()
	w, ok := l.windows[key]
	switch {
	case !ok:
		w = &window{start: now}
		l.windows[key] = w
	case now.Sub(w.start) > l.cfg.Window:
		w.count = 0
		w.start = now
	}
	w.count++
	count, start := w.count, w.start
	l.mu.Unlock()

	resetIn := int(math.Ceil(start.Add(l.cfg.Window).Sub(now).Seconds()))
	resetIn = max(resetIn, 0)
	return Status{
		Allowed:        count <= l.cfg.MaxRequests,
		Limit:          l.cfg.MaxRequests,
		Remaining:      max(l.cfg.MaxRequests-count, 0),
		Current:        count,
		ResetInSeconds: resetIn,
		ResetInMinutes: int(math.Ceil(float64(resetIn) / 60)),
	}
}

// Evict drops windows that have fully elapsed and returns how many were
// removed.
func (l *Limiter) Evict() int {
	now := l.clock.Now()
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for key, w := range l.windows {
		if now.Sub(w.start) > l.cfg.Window {
			delete(l.windows, key)
			removed++
		}
	}
	return removed
}

// Run evicts stale windows every interval until ctx is done.
func (l *Limiter) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := l.Evict(); n > 0 {
				l.logger.Debug("evicted rate limit windows", zap.Int("count", n))
			}
		}
	}
}

// Reset forgets every window.
func (l *Limiter) Reset() {
	l.mu.Lock()
	l.windows = make(map[string]*window)
	l.mu.Unlock()
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}
