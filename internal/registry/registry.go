// Package registry looks up plugin metadata on the WordPress.org plugin API.
package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/JakeFAU/wp-inspector/internal/inspector"
	"github.com/JakeFAU/wp-inspector/internal/metrics"
)

// ErrNotFound is returned when the registry has no entry for a slug.
var ErrNotFound = errors.New("plugin not found in registry")

const iconBaseURL = "https://ps.w.org/"

// Config points the client at the API.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Headers http.Header
	// RequestsPerSecond caps outbound lookups across all inspections;
	// zero means unlimited.
	RequestsPerSecond float64
	Burst             int
}

// Client implements inspector.Registry on top of a Fetcher.
type Client struct {
	fetcher inspector.Fetcher
	cfg     Config
	limiter *rate.Limiter
}

// New builds a Client.
func New(fetcher inspector.Fetcher, cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.wordpress.org"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	c := &Client{fetcher: fetcher, cfg: cfg}
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return c
}

type pluginPayload struct {
	Error            string            `json:"error"`
	Name             string            `json:"name"`
	Version          string            `json:"version"`
	Author           string            `json:"author"`
	ShortDescription string            `json:"short_description"`
	Rating           float64           `json:"rating"`
	ActiveInstalls   int               `json:"active_installs"`
	LastUpdated      string            `json:"last_updated"`
	Requires         looseString       `json:"requires"`
	Tested           looseString       `json:"tested"`
	RequiresPHP      looseString       `json:"requires_php"`
	Icons            map[string]string `json:"icons"`
}

// PluginInfo fetches metadata for slug.
func (c *Client) PluginInfo(ctx context.Context, slug string) (*inspector.RegistryInfo, error) {
	info, err := c.lookup(ctx, slug)
	switch {
	case err == nil:
		metrics.ObserveSubrequest("registry", "ok")
	case errors.Is(err, ErrNotFound):
		metrics.ObserveSubrequest("registry", "miss")
	default:
		metrics.ObserveSubrequest("registry", "error")
	}
	return info, err
}

func (c *Client) lookup(ctx context.Context, slug string) (*inspector.RegistryInfo, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("registry rate limit wait: %w", err)
		}
	}
	endpoint := fmt.Sprintf("%s/plugins/info/1.0/%s.json", c.cfg.BaseURL, url.PathEscape(slug))
	resp, err := c.fetcher.Fetch(ctx, inspector.FetchRequest{
		URL:               endpoint,
		Headers:           c.cfg.Headers,
		Timeout:           c.cfg.Timeout,
		AcceptStatusBelow: http.StatusInternalServerError,
	})
	if err != nil {
		return nil, fmt.Errorf("registry lookup %s: %w", slug, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s (status %d)", ErrNotFound, slug, resp.StatusCode)
	}
	body := bytes.TrimSpace(resp.Body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, slug)
	}

	var payload pluginPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode registry response for %s: %w", slug, err)
	}
	if payload.Error != "" || payload.Name == "" {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, slug)
	}

	icons := map[string]string{
		"1x": iconBaseURL + slug + "/assets/icon-128x128.png",
		"2x": iconBaseURL + slug + "/assets/icon-256x256.png",
	}
	for k, v := range payload.Icons {
		if v != "" {
			icons[k] = v
		}
	}

	return &inspector.RegistryInfo{
		Name:           plainText(payload.Name),
		Version:        payload.Version,
		Author:         plainText(payload.Author),
		Description:    plainText(payload.ShortDescription),
		Rating:         payload.Rating,
		ActiveInstalls: payload.ActiveInstalls,
		LastUpdated:    payload.LastUpdated,
		Requires:       string(payload.Requires),
		TestedUpTo:     string(payload.Tested),
		RequiresPHP:    string(payload.RequiresPHP),
		Icons:          icons,
	}, nil
}

// looseString accepts a string, a number or false. The plugin API reports
// unknown compatibility as false.
type looseString string

func (s *looseString) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		*s = looseString(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err == nil {
		*s = looseString(num.String())
		return nil
	}
	*s = ""
	return nil
}

// plainText renders an HTML fragment as text. The API wraps author names in
// anchors and encodes entities in names and descriptions.
func plainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(doc.Text())
}
