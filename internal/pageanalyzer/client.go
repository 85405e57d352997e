package pageanalyzer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Response is the part of an HTTP response the analyzer consumes.
type Response struct {
	Body        io.ReadCloser
	StatusCode  int
	ContentType string
}

// Fetcher retrieves the raw page behind a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Response, error)
}

// limitedReadCloser reads from a LimitReader but closes the original body.
type limitedReadCloser struct {
	io.Reader
	io.Closer
}

const (
	// DefaultTimeout bounds a whole fetch including redirects and body transfer.
	DefaultTimeout = 15 * time.Second
	// DefaultMaxRedirects bounds the redirect chain.
	DefaultMaxRedirects = 10
	// MaxBodyBytes is the largest page body the analyzer accepts.
	MaxBodyBytes = 10 << 20

	// Some servers reject requests that do not look like they come from a browser.
	desktopUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	acceptHTML       = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
)

var (
	errTooManyRedirects = errors.New("too many redirects")
	errBlockedRedirect  = errors.New("redirect to non-http(s) scheme blocked")
)

// HTTPClient implements Fetcher with a hardened http.Client.
type HTTPClient struct {
	client       *http.Client
	timeout      time.Duration
	maxRedirects int
	allowPrivate bool
	userAgent    string
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithTimeout sets the overall request timeout. Defaults to DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) { c.timeout = d }
}

// WithMaxRedirects sets how many redirects are followed. Defaults to DefaultMaxRedirects.
func WithMaxRedirects(n int) Option {
	return func(c *HTTPClient) { c.maxRedirects = n }
}

// WithPrivateNetworks permits connections to loopback and private ranges.
// Only meant for local development.
func WithPrivateNetworks(allow bool) Option {
	return func(c *HTTPClient) { c.allowPrivate = allow }
}

// WithUserAgent overrides the desktop browser User-Agent.
func WithUserAgent(ua string) Option {
	return func(c *HTTPClient) { c.userAgent = ua }
}

// NewHTTPClient returns a Fetcher that identifies as a desktop browser,
// bounds the request by a timeout and the redirect chain by a maximum, and
// refuses to dial private/reserved addresses unless told otherwise.
func NewHTTPClient(opts ...Option) *HTTPClient {
	c := &HTTPClient{
		timeout:      DefaultTimeout,
		maxRedirects: DefaultMaxRedirects,
		userAgent:    desktopUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.client = &http.Client{
		Timeout: c.timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			DialContext:         newDialer(c.allowPrivate).DialContext,
			TLSHandshakeTimeout: 10 * time.Second,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
		CheckRedirect: c.redirectPolicy,
	}
	return c
}

// redirectPolicy validates redirect targets and limits the redirect chain length.
func (c *HTTPClient) redirectPolicy(req *http.Request, via []*http.Request) error {
	if len(via) >= c.maxRedirects {
		return fmt.Errorf("%w: stopped after %d", errTooManyRedirects, c.maxRedirects)
	}
	if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
		return fmt.Errorf("%w: %s", errBlockedRedirect, req.URL.Scheme)
	}
	return nil
}

// Fetch issues a single GET for the URL. Any status code is returned to
// the caller; only transport failures produce an error.
func (c *HTTPClient) Fetch(ctx context.Context, targetURL string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", acceptHTML)

	resp, err := c.client.Do(req) //nolint:bodyclose // body is returned to caller via limitedReadCloser
	if err != nil {
		return nil, err
	}

	return &Response{
		Body: &limitedReadCloser{
			// One byte past the cap lets readers tell an oversized page
			// from one that is exactly MaxBodyBytes long.
			Reader: io.LimitReader(resp.Body, MaxBodyBytes+1),
			Closer: resp.Body,
		},
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}
