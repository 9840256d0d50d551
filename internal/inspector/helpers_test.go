package inspector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubResponse struct {
	status int
	body   string
}

// stubFetcher serves canned bodies by exact URL; anything else is unreachable.
type stubFetcher struct {
	mu     sync.Mutex
	routes map[string]stubResponse
	seen   []string
}

func newStubFetcher() *stubFetcher {
	return &stubFetcher{routes: make(map[string]stubResponse)}
}

func (f *stubFetcher) on(rawURL string, status int, body string) *stubFetcher {
	f.routes[rawURL] = stubResponse{status: status, body: body}
	return f
}

func (f *stubFetcher) Fetch(_ context.Context, r FetchRequest) (FetchResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, r.URL)
	resp, ok := f.routes[r.URL]
	if !ok {
		return FetchResponse{}, fmt.Errorf("%w: %s", ErrUnreachable, r.URL)
	}
	if r.AcceptStatusBelow > 0 && resp.status >= r.AcceptStatusBelow {
		return FetchResponse{}, &StatusError{URL: r.URL, StatusCode: resp.status}
	}
	return FetchResponse{URL: r.URL, StatusCode: resp.status, Headers: http.Header{}, Body: []byte(resp.body)}, nil
}

func (f *stubFetcher) requested(rawURL string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.seen {
		if u == rawURL {
			return true
		}
	}
	return false
}

func newTestInspector(f Fetcher) *Inspector {
	return New(f, nil, nil, Config{}, zap.NewNop())
}

func mustPage(t *testing.T, rawURL, html string) *page {
	t.Helper()
	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	p, err := newPage(u, []byte(html))
	require.NoError(t, err)
	return p
}
