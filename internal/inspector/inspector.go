package inspector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JakeFAU/wp-inspector/internal/clock/system"
	"github.com/JakeFAU/wp-inspector/internal/metrics"
)

const notPlatformMessage = "This site does not appear to be built with WordPress"

// Config tunes outbound requests and detection.
type Config struct {
	// Headers are sent on every outbound request.
	Headers      http.Header
	PageTimeout  time.Duration
	ProbeTimeout time.Duration
	MaxRedirects int
	MinSignals   int
	// Targets, when set, vetoes hosts before anything is fetched.
	Targets HostPolicy
}

func (c Config) withDefaults() Config {
	if c.PageTimeout <= 0 {
		c.PageTimeout = 10 * time.Second
	}
	if c.ProbeTimeout <= 0 {
		c.ProbeTimeout = 5 * time.Second
	}
	if c.MaxRedirects <= 0 {
		c.MaxRedirects = 5
	}
	if c.MinSignals <= 0 {
		c.MinSignals = 1
	}
	return c
}

// Inspector runs the detection pipeline for one URL at a time. It holds no
// per-request state and is safe for concurrent use.
type Inspector struct {
	fetcher  Fetcher
	registry Registry
	clock    Clock
	cfg      Config
	logger   *zap.Logger
}

// New builds an Inspector. registry may be nil to skip enrichment.
func New(fetcher Fetcher, registry Registry, clock Clock, cfg Config, logger *zap.Logger) *Inspector {
	if clock == nil {
		clock = system.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Inspector{
		fetcher:  fetcher,
		registry: registry,
		clock:    clock,
		cfg:      cfg.withDefaults(),
		logger:   logger,
	}
}

// ParseTarget validates a user supplied URL. Only absolute http and https
// URLs with a host are accepted; an empty path becomes "/".
func ParseTarget(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	if u.Path == "" {
		u.Path = "/"
	}
	u.Fragment = ""
	return u, nil
}

// Inspect fetches rawURL and returns the full report. Secondary lookups never
// fail the call; only invalid input, unreachable hosts and a rejected primary
// fetch do.
func (in *Inspector) Inspect(ctx context.Context, rawURL string) (Report, error) {
	target, err := in.target(rawURL)
	if err != nil {
		metrics.ObserveInspection(outcomeFor(err))
		return Report{}, err
	}
	p, err := in.load(ctx, target)
	if err != nil {
		metrics.ObserveInspection(outcomeFor(err))
		return Report{}, err
	}

	signals := in.extractSignals(ctx, p)
	if !in.IsPlatform(signals) {
		in.logger.Info("platform not detected", zap.String("url", target.String()))
		metrics.ObserveInspection("not_wordpress")
		return Report{
			URL:         target.String(),
			IsWordPress: false,
			Message:     notPlatformMessage,
			Signals:     &signals,
		}, nil
	}

	var (
		theme   ThemeInfo
		plugins []ExtensionRecord
		g       errgroup.Group
	)
	g.Go(func() error {
		theme = in.resolveTheme(ctx, p)
		return nil
	})
	g.Go(func() error {
		plugins = in.resolveExtensions(ctx, p)
		return nil
	})
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	verdict := Score(theme, plugins)
	scannedAt := in.clock.Now()
	in.logger.Info("inspection complete",
		zap.String("url", target.String()),
		zap.String("theme", theme.Name),
		zap.Int("plugins", len(plugins)),
		zap.Int("score", verdict.Score),
		zap.String("category", string(verdict.Category)),
	)
	metrics.ObserveInspection("wordpress")

	return Report{
		URL:              target.String(),
		SiteName:         p.siteName(),
		IsWordPress:      true,
		ScannedAt:        &scannedAt,
		Theme:            &theme,
		Plugins:          &PluginSummary{Count: len(plugins), List: plugins},
		Customization:    &verdict,
		DetectionSignals: &signals,
	}, nil
}

// target parses rawURL and applies the host policy.
func (in *Inspector) target(rawURL string) (*url.URL, error) {
	target, err := ParseTarget(rawURL)
	if err != nil {
		return nil, err
	}
	if err := in.allow(target.Hostname()); err != nil {
		return nil, err
	}
	return target, nil
}

// allow applies the host policy to every outbound request, not only the
// target: page assets and redirects can point anywhere.
func (in *Inspector) allow(host string) error {
	if in.cfg.Targets != nil && in.cfg.Targets.IsBlocked(host) {
		return fmt.Errorf("%w: %s", ErrBlockedTarget, host)
	}
	return nil
}

// IsPlatform applies the configured signal threshold.
func (in *Inspector) IsPlatform(s Signals) bool {
	return s.Count() >= in.cfg.MinSignals
}

func (in *Inspector) load(ctx context.Context, target *url.URL) (*page, error) {
	resp, err := in.fetcher.Fetch(ctx, FetchRequest{
		URL:               target.String(),
		Headers:           in.cfg.Headers,
		Timeout:           in.cfg.PageTimeout,
		MaxRedirects:      in.cfg.MaxRedirects,
		AcceptStatusBelow: http.StatusBadRequest,
		Hosts:             in.cfg.Targets,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", target, err)
	}
	base := target
	if resp.URL != "" {
		if final, perr := url.Parse(resp.URL); perr == nil && final.Host != "" {
			base = final
		}
	}
	if err := in.allow(base.Hostname()); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", target, err)
	}
	return newPage(base, resp.Body)
}

// get performs a secondary request. Failures are logged and counted, and the
// caller treats any error as "no evidence".
func (in *Inspector) get(ctx context.Context, kind, rawURL string, acceptBelow int) (FetchResponse, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		metrics.ObserveSubrequest(kind, "error")
		return FetchResponse{}, fmt.Errorf("%w: %s", ErrInvalidURL, rawURL)
	}
	if err := in.allow(u.Hostname()); err != nil {
		in.logger.Debug("secondary fetch refused",
			zap.String("kind", kind),
			zap.String("url", rawURL),
		)
		metrics.ObserveSubrequest(kind, "blocked")
		return FetchResponse{}, err
	}
	resp, err := in.fetcher.Fetch(ctx, FetchRequest{
		URL:               rawURL,
		Headers:           in.cfg.Headers,
		Timeout:           in.cfg.ProbeTimeout,
		AcceptStatusBelow: acceptBelow,
		Hosts:             in.cfg.Targets,
	})
	if err != nil {
		in.logger.Debug("secondary fetch failed",
			zap.String("kind", kind),
			zap.String("url", rawURL),
			zap.Error(err),
		)
		metrics.ObserveSubrequest(kind, "error")
		return FetchResponse{}, err
	}
	if resp.StatusCode != http.StatusOK {
		metrics.ObserveSubrequest(kind, "miss")
	} else {
		metrics.ObserveSubrequest(kind, "ok")
	}
	return resp, nil
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, ErrInvalidURL):
		return "invalid"
	case errors.Is(err, ErrBlockedTarget):
		return "blocked"
	case errors.Is(err, ErrUnreachable):
		return "unreachable"
	default:
		return "error"
	}
}
