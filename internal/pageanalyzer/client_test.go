package pageanalyzer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestNewHTTPClient_Defaults(t *testing.T) {
	c := NewHTTPClient()
	if c.client == nil {
		t.Fatal("internal http.Client is nil")
	}
	if c.client.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", c.client.Timeout, DefaultTimeout)
	}
	if c.maxRedirects != DefaultMaxRedirects {
		t.Errorf("maxRedirects = %d, want %d", c.maxRedirects, DefaultMaxRedirects)
	}
	if c.userAgent != desktopUserAgent {
		t.Errorf("userAgent = %q, want desktop UA", c.userAgent)
	}
}

func TestNewHTTPClient_Options(t *testing.T) {
	c := NewHTTPClient(WithTimeout(3*time.Second), WithMaxRedirects(2), WithUserAgent("probe/1.0"))
	if c.client.Timeout != 3*time.Second {
		t.Errorf("Timeout = %v, want 3s", c.client.Timeout)
	}
	if c.maxRedirects != 2 {
		t.Errorf("maxRedirects = %d, want 2", c.maxRedirects)
	}
	if c.userAgent != "probe/1.0" {
		t.Errorf("userAgent = %q, want %q", c.userAgent, "probe/1.0")
	}
}

func TestHTTPClient_Fetch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("Method = %s, want GET", r.Method)
		}
		if ua := r.Header.Get("User-Agent"); !strings.HasPrefix(ua, "Mozilla/5.0") {
			t.Errorf("User-Agent = %q, want a desktop browser UA", ua)
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprint(w, "<html><body>Hello</body></html>")
	}))
	defer ts.Close()

	c := NewHTTPClient(WithPrivateNetworks(true))
	resp, err := c.Fetch(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if resp.ContentType != "text/html; charset=utf-8" {
		t.Errorf("ContentType = %q, want %q", resp.ContentType, "text/html; charset=utf-8")
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	if string(data) != "<html><body>Hello</body></html>" {
		t.Errorf("body = %q", string(data))
	}
}

func TestHTTPClient_Fetch_ReturnsNon200WithoutError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	c := NewHTTPClient(WithPrivateNetworks(true))
	resp, err := c.Fetch(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestHTTPClient_Fetch_BlocksLoopbackByDefault(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	c := NewHTTPClient()
	_, err := c.Fetch(context.Background(), ts.URL)
	if err == nil {
		t.Fatal("expected error dialing loopback, got nil")
	}
	if !errors.Is(err, errBlockedAddress) {
		t.Errorf("error = %v, want errBlockedAddress", err)
	}
}

func TestHTTPClient_Fetch_InvalidURL(t *testing.T) {
	c := NewHTTPClient()
	if _, err := c.Fetch(context.Background(), "://bad-url"); err == nil {
		t.Fatal("expected error for invalid URL, got nil")
	}
}

func TestHTTPClient_Fetch_CancelledContext(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	c := NewHTTPClient(WithPrivateNetworks(true))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.Fetch(ctx, ts.URL); err == nil {
		t.Fatal("expected error for cancelled context, got nil")
	}
}

func TestHTTPClient_Fetch_StopsRedirectLoop(t *testing.T) {
	var ts *httptest.Server
	ts = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, ts.URL+"/loop", http.StatusFound)
	}))
	defer ts.Close()

	c := NewHTTPClient(WithPrivateNetworks(true), WithMaxRedirects(3))
	_, err := c.Fetch(context.Background(), ts.URL)
	if !errors.Is(err, errTooManyRedirects) {
		t.Errorf("error = %v, want errTooManyRedirects", err)
	}
}

func TestHTTPClient_RedirectPolicy(t *testing.T) {
	c := NewHTTPClient(WithMaxRedirects(5))

	tests := []struct {
		name    string
		scheme  string
		via     int
		wantErr bool
	}{
		{name: "https within limit", scheme: "https", via: 3, wantErr: false},
		{name: "too many redirects", scheme: "https", via: 5, wantErr: true},
		{name: "blocked ftp scheme", scheme: "ftp", via: 0, wantErr: true},
		{name: "blocked file scheme", scheme: "file", via: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &http.Request{URL: &url.URL{Scheme: tt.scheme, Host: "example.com"}} //nolint:exhaustruct
			via := make([]*http.Request, tt.via)

			err := c.redirectPolicy(req, via)
			if (err != nil) != tt.wantErr {
				t.Errorf("redirectPolicy() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
