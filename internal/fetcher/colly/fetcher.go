// Package collyfetcher implements inspector.Fetcher using gocolly.
package collyfetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/JakeFAU/wp-inspector/internal/inspector"
)

const (
	defaultTimeout      = 10 * time.Second
	defaultMaxBodyBytes = 10 * 1024 * 1024
	defaultMaxRedirects = 10
)

// Config controls collector behavior.
type Config struct {
	UserAgent    string
	Timeout      time.Duration
	MaxBodyBytes int
}

// Fetcher implements inspector.Fetcher using the Colly collector. Each call
// gets its own collector so per-request timeouts and redirect caps never
// leak between concurrent fetches; the transport and its connection pool
// are shared.
type Fetcher struct {
	cfg       Config
	transport http.RoundTripper
	logger    *zap.Logger
}

type collectorHooks interface {
	OnRequest(colly.RequestCallback)
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

// New builds a Fetcher.
func New(cfg Config, logger *zap.Logger) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		cfg:       cfg,
		transport: newHTTPTransport(),
		logger:    logger,
	}
}

// Fetch executes a single HTTP GET using Colly.
func (f *Fetcher) Fetch(ctx context.Context, request inspector.FetchRequest) (inspector.FetchResponse, error) {
	var (
		result   inspector.FetchResponse
		fetchErr error
	)
	start := time.Now()
	collector := f.buildCollector(request, &result, &fetchErr)

	if err := f.runCollector(ctx, collector, request.URL, &fetchErr); err != nil {
		f.logger.Debug("fetch failed",
			zap.String("url", request.URL),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return inspector.FetchResponse{}, classify(request.URL, err)
	}
	if result.StatusCode == 0 {
		return inspector.FetchResponse{}, fmt.Errorf("colly fetch %s: no response captured", request.URL)
	}
	f.logger.Debug("fetched",
		zap.String("url", result.URL),
		zap.Int("status", result.StatusCode),
		zap.Int("bytes", len(result.Body)),
		zap.Duration("duration", time.Since(start)),
	)
	if request.AcceptStatusBelow > 0 && result.StatusCode >= request.AcceptStatusBelow {
		return inspector.FetchResponse{}, &inspector.StatusError{URL: request.URL, StatusCode: result.StatusCode}
	}
	return result, nil
}

func (f *Fetcher) buildCollector(
	request inspector.FetchRequest,
	result *inspector.FetchResponse,
	fetchErr *error,
) *colly.Collector {
	collector := colly.NewCollector(
		colly.Async(false),
		colly.AllowURLRevisit(),
		colly.IgnoreRobotsTxt(),
		colly.ParseHTTPErrorResponse(),
		colly.MaxBodySize(f.cfg.MaxBodyBytes),
	)
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}
	collector.WithTransport(f.transport)

	timeout := request.Timeout
	if timeout <= 0 {
		timeout = f.cfg.Timeout
	}
	collector.SetRequestTimeout(timeout)

	if request.MaxRedirects > 0 || request.Hosts != nil {
		collector.SetRedirectHandler(redirectHandler(request))
	}

	f.configureCollectorHooks(collector, request, result, fetchErr)
	return collector
}

// redirectHandler caps the hop count and refuses hops into blocked hosts.
func redirectHandler(request inspector.FetchRequest) func(*http.Request, []*http.Request) error {
	maxRedirects := request.MaxRedirects
	if maxRedirects <= 0 {
		maxRedirects = defaultMaxRedirects
	}
	return func(req *http.Request, via []*http.Request) error {
		if len(via) > maxRedirects {
			return fmt.Errorf("stopped after %d redirects", maxRedirects)
		}
		if request.Hosts != nil && request.Hosts.IsBlocked(req.URL.Hostname()) {
			return fmt.Errorf("redirect to %s: %w", req.URL.Hostname(), inspector.ErrBlockedTarget)
		}
		return nil
	}
}

func (f *Fetcher) configureCollectorHooks(
	hooks collectorHooks,
	request inspector.FetchRequest,
	result *inspector.FetchResponse,
	fetchErr *error,
) {
	hooks.OnRequest(func(r *colly.Request) {
		f.copyHeaders(request, r)
	})

	hooks.OnResponse(func(r *colly.Response) {
		var headers http.Header
		if r.Headers != nil {
			headers = r.Headers.Clone()
		}
		*result = inspector.FetchResponse{
			URL:        r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Headers:    headers,
			Body:       append([]byte(nil), r.Body...),
		}
	})

	hooks.OnError(func(_ *colly.Response, err error) {
		*fetchErr = err
	})
}

func (f *Fetcher) runCollector(ctx context.Context, collector *colly.Collector, url string, fetchErr *error) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("colly fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("colly visit failed: %w", err)
		}
		if *fetchErr != nil {
			return fmt.Errorf("colly response failed: %w", *fetchErr)
		}
		return nil
	}
}

// copyHeaders replaces collector defaults (including User-Agent) with the
// request's headers.
func (f *Fetcher) copyHeaders(request inspector.FetchRequest, r *colly.Request) {
	for key, values := range request.Headers {
		r.Headers.Del(key)
		for _, v := range values {
			r.Headers.Add(key, v)
		}
	}
}

// classify tags DNS and connection failures as unreachable.
func classify(rawURL string, err error) error {
	if isUnreachable(err) {
		return fmt.Errorf("%w: %s: %w", inspector.ErrUnreachable, rawURL, err)
	}
	return err
}

func isUnreachable(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
	}
}
