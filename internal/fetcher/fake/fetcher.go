// Package fake provides an in-memory inspector.Fetcher for tests.
package fake

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/JakeFAU/wp-inspector/internal/inspector"
)

// Route is a canned response. A non-nil Err is returned as-is. FinalURL,
// when set, is reported as the URL reached after redirects.
type Route struct {
	Status   int
	Body     string
	Headers  http.Header
	FinalURL string
	Err      error
}

// Fetcher serves canned routes keyed by exact URL. Unknown URLs behave like
// a host that refuses connections.
type Fetcher struct {
	mu       sync.Mutex
	routes   map[string]Route
	requests []inspector.FetchRequest
}

// New returns an empty Fetcher.
func New() *Fetcher {
	return &Fetcher{routes: make(map[string]Route)}
}

// Handle registers route for url and returns f for chaining.
func (f *Fetcher) Handle(url string, route Route) *Fetcher {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[url] = route
	return f
}

// HTML registers a 200 text/html response.
func (f *Fetcher) HTML(url, body string) *Fetcher {
	return f.Handle(url, Route{
		Status:  http.StatusOK,
		Body:    body,
		Headers: http.Header{"Content-Type": {"text/html; charset=utf-8"}},
	})
}

// JSON registers a 200 application/json response.
func (f *Fetcher) JSON(url, body string) *Fetcher {
	return f.Handle(url, Route{
		Status:  http.StatusOK,
		Body:    body,
		Headers: http.Header{"Content-Type": {"application/json"}},
	})
}

// Status registers an empty response with the given status.
func (f *Fetcher) Status(url string, status int) *Fetcher {
	return f.Handle(url, Route{Status: status})
}

// Fetch implements inspector.Fetcher.
func (f *Fetcher) Fetch(ctx context.Context, request inspector.FetchRequest) (inspector.FetchResponse, error) {
	f.mu.Lock()
	f.requests = append(f.requests, request)
	route, ok := f.routes[request.URL]
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return inspector.FetchResponse{}, err
	}
	if !ok {
		return inspector.FetchResponse{}, fmt.Errorf("%w: no route for %s", inspector.ErrUnreachable, request.URL)
	}
	if route.Err != nil {
		return inspector.FetchResponse{}, route.Err
	}
	status := route.Status
	if status == 0 {
		status = http.StatusOK
	}
	if request.AcceptStatusBelow > 0 && status >= request.AcceptStatusBelow {
		return inspector.FetchResponse{}, &inspector.StatusError{URL: request.URL, StatusCode: status}
	}
	headers := route.Headers.Clone()
	if headers == nil {
		headers = http.Header{}
	}
	finalURL := request.URL
	if route.FinalURL != "" {
		finalURL = route.FinalURL
	}
	return inspector.FetchResponse{
		URL:        finalURL,
		StatusCode: status,
		Headers:    headers,
		Body:       []byte(route.Body),
	}, nil
}

// Requests returns a copy of every request seen so far.
func (f *Fetcher) Requests() []inspector.FetchRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]inspector.FetchRequest(nil), f.requests...)
}

// Requested reports whether url was fetched at least once.
func (f *Fetcher) Requested(url string) bool {
	for _, r := range f.Requests() {
		if r.URL == url {
			return true
		}
	}
	return false
}
