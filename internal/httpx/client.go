// Package httpx builds the HTTP client shared by the index and mirror clients.
package httpx

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "paperazzi/0.2"
)

// Options configures NewClient. A zero RateLimit disables throttling.
type Options struct {
	// Timeout bounds the wait for response headers. Reading the body is
	// bounded only by the request context, so large PDFs on a slow mirror
	// are not cut off.
	Timeout   time.Duration
	UserAgent string
	RateLimit time.Duration
	Transport http.RoundTripper
}

// NewClient returns an http.Client whose requests carry the configured
// User-Agent and wait on a shared token bucket before hitting the network.
func NewClient(opts Options) *http.Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	base := opts.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	if std, ok := base.(*http.Transport); ok {
		std = std.Clone()
		std.ResponseHeaderTimeout = timeout
		base = std
	}
	transport := &limitedTransport{
		base:      base,
		userAgent: opts.UserAgent,
	}
	if transport.userAgent == "" {
		transport.userAgent = DefaultUserAgent
	}
	if opts.RateLimit > 0 {
		transport.limiter = rate.NewLimiter(rate.Every(opts.RateLimit), 1)
	}
	return &http.Client{Transport: transport}
}

type limitedTransport struct {
	base      http.RoundTripper
	limiter   *rate.Limiter
	userAgent string
}

func (t *limitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(req.Context()); err != nil {
			return nil, err
		}
	}
	if req.Header.Get("User-Agent") == "" {
		// RoundTrippers must not mutate the caller's request.
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", t.userAgent)
	}
	return t.base.RoundTrip(req)
}
