// Package app initializes and holds long-lived application services, acting as a dependency injection container.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/wp-inspector/internal/api"
	"github.com/JakeFAU/wp-inspector/internal/auth"
	"github.com/JakeFAU/wp-inspector/internal/clock/system"
	"github.com/JakeFAU/wp-inspector/internal/config"
	collyfetcher "github.com/JakeFAU/wp-inspector/internal/fetcher/colly"
	"github.com/JakeFAU/wp-inspector/internal/id/uuid"
	"github.com/JakeFAU/wp-inspector/internal/inspector"
	"github.com/JakeFAU/wp-inspector/internal/metrics"
	"github.com/JakeFAU/wp-inspector/internal/policy/blocklist"
	"github.com/JakeFAU/wp-inspector/internal/policy/ratelimit"
	"github.com/JakeFAU/wp-inspector/internal/registry"
)

const shutdownTimeout = 10 * time.Second

// App holds all the shared, long-lived services for the application.
// The rate limiter is the only piece with mutable state shared across
// requests; everything else is per-request.
type App struct {
	cfg       config.Config
	logger    *zap.Logger
	fetcher   inspector.Fetcher
	limiter   *ratelimit.Limiter
	inspector *inspector.Inspector
	server    *api.Server
}

// Options overrides collaborators, mainly for tests.
type Options struct {
	Fetcher inspector.Fetcher
	Clock   inspector.Clock
}

// GetLogger returns the shared zap logger instance.
func (a *App) GetLogger() *zap.Logger {
	return a.logger
}

// GetConfig returns the loaded configuration.
func (a *App) GetConfig() config.Config {
	return a.cfg
}

// GetInspector returns the inspection pipeline.
func (a *App) GetInspector() *inspector.Inspector {
	return a.inspector
}

// GetLimiter returns the per-IP rate limiter.
func (a *App) GetLimiter() *ratelimit.Limiter {
	return a.limiter
}

// Handler returns the HTTP handler serving the API.
func (a *App) Handler() http.Handler {
	return a.server.Handler()
}

// NewApp builds every service from cfg.
func NewApp(cfg config.Config, logger *zap.Logger, opts Options) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.Init()

	clock := opts.Clock
	if clock == nil {
		clock = system.New()
	}

	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = collyfetcher.New(collyfetcher.Config{
			UserAgent:    cfg.HTTP.UserAgent,
			Timeout:      cfg.HTTP.PageTimeout(),
			MaxBodyBytes: cfg.HTTP.MaxBodyBytes,
		}, logger.Named("fetcher"))
	}

	var reg inspector.Registry
	if cfg.Registry.Enabled {
		reg = registry.New(fetcher, registry.Config{
			BaseURL:           cfg.Registry.BaseURL,
			Timeout:           cfg.HTTP.RegistryTimeout(),
			Headers:           cfg.HTTP.Headers(),
			RequestsPerSecond: cfg.Registry.RequestsPerSecond,
			Burst:             cfg.Registry.Concurrency,
		})
	}

	insp := inspector.New(fetcher, reg, clock, inspector.Config{
		Headers:      cfg.HTTP.Headers(),
		PageTimeout:  cfg.HTTP.PageTimeout(),
		ProbeTimeout: cfg.HTTP.ProbeTimeout(),
		MaxRedirects: cfg.HTTP.MaxRedirects,
		MinSignals:   cfg.Detection.MinSignals,
		Targets:      blocklist.New(cfg.Targets.BlockedHosts, cfg.Targets.BlockPrivate),
	}, logger.Named("inspector"))

	limiter := ratelimit.New(ratelimit.Config{
		MaxRequests: cfg.RateLimit.MaxRequests,
		Window:      cfg.Window(),
	}, clock, logger.Named("ratelimit"))

	guard := auth.New(auth.Config{
		Enabled:         cfg.Auth.Enabled,
		APIKey:          cfg.Auth.APIKey,
		FrontendMarkers: cfg.Auth.FrontendMarkers,
	}, limiter)

	server := api.NewServer(insp, guard, uuid.New(), cfg, logger.Named("api"))

	return &App{
		cfg:       cfg,
		logger:    logger,
		fetcher:   fetcher,
		limiter:   limiter,
		inspector: insp,
		server:    server,
	}, nil
}

// Serve runs the HTTP server and the rate limiter eviction loop until ctx is
// done, then shuts the server down gracefully.
func (a *App) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go a.limiter.Run(ctx, a.cfg.EvictInterval())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           a.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server started", zap.Int("port", a.cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("shutting down http server")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

// Close flushes the logger. It is called by a Cobra hook after the command
// finishes execution.
func (a *App) Close() {
	a.logger.Debug("shutting down application services")
	a.limiter.Reset()
	// Sync on stderr-backed loggers returns EINVAL on some platforms; nothing to do about it.
	_ = a.logger.Sync()
}
