package pageanalyzer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/Bahjat/seo-monitor/internal/model"
	"github.com/Bahjat/seo-monitor/internal/platform/errs"
)

const invalidURLMessage = "Invalid URL format. Please ensure you entered a valid URL (e.g., https://example.com)."

// Engine fetches a single page and extracts its SEO metrics.
// It holds no per-call state and is safe for concurrent use.
type Engine struct {
	fetcher Fetcher
	steps   []step
	now     func() time.Time
}

// NewEngine returns an Engine backed by the given Fetcher.
func NewEngine(fetcher Fetcher) *Engine {
	return &Engine{
		fetcher: fetcher,
		steps:   defaultSteps,
		now:     time.Now,
	}
}

// Analyze validates targetURL, fetches it, and runs every extraction step
// against the parsed page. It returns either a complete analysis or an
// *errs.AppError; partial results are never returned.
func (e *Engine) Analyze(ctx context.Context, targetURL string) (*model.PageAnalysis, error) {
	if err := ValidateURL(targetURL); err != nil {
		return nil, err
	}

	resp, err := e.fetcher.Fetch(ctx, targetURL)
	if err != nil {
		return nil, fetchError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &errs.AppError{
			Kind:           errs.FetchFailed,
			UpstreamStatus: resp.StatusCode,
			Message:        fmt.Sprintf("Error fetching the URL: %d", resp.StatusCode),
		}
	}

	raw, err := readBody(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return nil, fetchError(err)
		}
		return nil, readError(err)
	}

	result, err := e.analyze(raw, resp.ContentType)
	if err != nil {
		return nil, err
	}
	result.URL = targetURL
	result.FetchedAt = e.now().UTC()
	return result, nil
}

// AnalyzeDocument runs parsing and extraction on an already retrieved body.
// contentType may be empty.
func (e *Engine) AnalyzeDocument(r io.Reader, contentType string) (*model.PageAnalysis, error) {
	raw, err := readBody(r)
	if err != nil {
		return nil, readError(err)
	}
	return e.analyze(raw, contentType)
}

func (e *Engine) analyze(raw []byte, contentType string) (*model.PageAnalysis, error) {
	doc, err := Parse(raw, contentType)
	if err != nil {
		return nil, errs.Wrap(errs.ParseFailed, err, "Failed to parse the HTML content.")
	}

	result := &model.PageAnalysis{}
	if err := runSteps(e.steps, doc, result); err != nil {
		return nil, err
	}
	result.ContentHash = ContentHash(raw)
	return result, nil
}

// ValidateURL reports whether raw is an absolute http(s) URL with a host.
func ValidateURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return errs.Wrap(errs.InvalidInput, err, invalidURLMessage)
	}
	if parsed.Scheme == "" || parsed.Hostname() == "" {
		return errs.E(errs.InvalidInput, invalidURLMessage)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return errs.E(errs.InvalidInput, "Only http and https URLs are supported.")
	}
	return nil
}

// ContentHash returns the hex xxhash64 digest of a page body.
func ContentHash(raw []byte) string {
	return strconv.FormatUint(xxhash.Sum64(raw), 16)
}

func readError(err error) *errs.AppError {
	if errors.Is(err, errBodyTooLarge) {
		return errs.Wrap(errs.ParseFailed, err,
			fmt.Sprintf("The page is larger than %d MiB.", MaxBodyBytes>>20))
	}
	return errs.Wrap(errs.ParseFailed, err, "Failed to read the page content.")
}

func fetchError(err error) *errs.AppError {
	if isTimeout(err) {
		return &errs.AppError{
			Kind:    errs.FetchFailed,
			Timeout: true,
			Message: "Timed out fetching the URL.",
			Cause:   err,
		}
	}
	return errs.Wrap(errs.FetchFailed, err, "Error fetching the URL: the site could not be reached.")
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
