// Package httputil provides HTTP client utilities with standard configurations.
package httputil

import (
	"net/http"
	"time"
)

const (
	// Default timeout for HTTP requests
	defaultTimeout = 30 * time.Second

	// DefaultUserAgent is sent when the caller does not set one. Some mirrors
	// reject Go's default agent.
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0"

	// Transport configuration constants
	maxIdleConns        = 10
	maxIdleConnsPerHost = 2
	idleConnTimeout     = 30 * time.Second
)

// NewHTTPClient creates a new HTTP client with the specified timeout.
// The client is configured with connection pooling and idle connection management.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: newTransport(),
	}
}

// NewDefaultHTTPClient creates a new HTTP client with default 30 second timeout.
func NewDefaultHTTPClient() *http.Client {
	return NewHTTPClient(defaultTimeout)
}

// NewClientWithUserAgent is NewHTTPClient with every request carrying the
// given User-Agent, unless the request already sets one.
func NewClientWithUserAgent(timeout time.Duration, userAgent string) *http.Client {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: &UserAgentTransport{UserAgent: userAgent, Base: newTransport()},
	}
}

func newTransport() *http.Transport {
	return &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        maxIdleConns,
		MaxIdleConnsPerHost: maxIdleConnsPerHost,
		IdleConnTimeout:     idleConnTimeout,
	}
}

// UserAgentTransport sets a User-Agent header on outgoing requests.
type UserAgentTransport struct {
	UserAgent string
	Base      http.RoundTripper
}

func (t *UserAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	if req.Header.Get("User-Agent") != "" {
		return base.RoundTrip(req)
	}
	// RoundTrippers must not modify the caller's request
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", t.UserAgent)
	return base.RoundTrip(clone)
}
