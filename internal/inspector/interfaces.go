package inspector

import (
	"context"
	"net/http"
	"time"
)

// FetchRequest describes a single outbound GET.
type FetchRequest struct {
	URL     string
	Headers http.Header
	Timeout time.Duration
	// MaxRedirects caps followed redirects; zero means the fetcher default.
	MaxRedirects int
	// AcceptStatusBelow rejects responses with a status at or above it; zero accepts all.
	AcceptStatusBelow int
	// Hosts, when set, stops redirects into blocked hosts with ErrBlockedTarget.
	Hosts HostPolicy
}

// FetchResponse is what a Fetcher returns for an accepted response.
type FetchResponse struct {
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Fetcher retrieves a URL. Unreachable hosts must be reported with an error
// wrapping ErrUnreachable.
type Fetcher interface {
	Fetch(ctx context.Context, request FetchRequest) (FetchResponse, error)
}

// Registry looks up public plugin metadata by slug.
type Registry interface {
	PluginInfo(ctx context.Context, slug string) (*RegistryInfo, error)
}

// HostPolicy decides which target hosts may be inspected.
type HostPolicy interface {
	IsBlocked(host string) bool
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
