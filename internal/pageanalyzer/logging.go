package pageanalyzer

import (
	"context"
	"log/slog"
	"time"
)

var _ Fetcher = (*LoggingFetcher)(nil)

// LoggingFetcher wraps a Fetcher with debug logging.
type LoggingFetcher struct {
	next   Fetcher
	logger *slog.Logger
}

// NewLoggingFetcher creates a new LoggingFetcher.
func NewLoggingFetcher(next Fetcher, logger *slog.Logger) *LoggingFetcher {
	return &LoggingFetcher{next: next, logger: logger}
}

// Fetch delegates to the wrapped Fetcher and logs the outcome.
func (f *LoggingFetcher) Fetch(ctx context.Context, url string) (resp *Response, err error) {
	defer func(begin time.Time) {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		f.logger.DebugContext(ctx, "page fetch",
			"url", url,
			"status", status,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return f.next.Fetch(ctx, url)
}
