// Package analyzer runs page analyses on behalf of users and keeps their history.
package analyzer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Bahjat/seo-monitor/internal/model"
	"github.com/Bahjat/seo-monitor/internal/platform/errs"
	"github.com/Bahjat/seo-monitor/internal/platform/reqctx"
)

// History paging bounds.
const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

// DefaultTimeout bounds a single analysis when none is configured.
const DefaultTimeout = 60 * time.Second

// Service orchestrates a PageAnalyzer, persists results and logs outcomes.
type Service struct {
	analyzer PageAnalyzer
	results  model.ResultStore
	logger   *slog.Logger
	timeout  time.Duration
}

// NewService creates a Service. A non-positive timeout selects DefaultTimeout.
func NewService(analyzer PageAnalyzer, results model.ResultStore, logger *slog.Logger, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{analyzer: analyzer, results: results, logger: logger, timeout: timeout}
}

// Analyze runs the analyzer for targetURL under the service deadline and
// records a summary in the user's history.
func (s *Service) Analyze(ctx context.Context, userID, targetURL string) (*model.PageAnalysis, error) {
	logger := s.logger.With("url", targetURL, "user_id", userID, "request_id", reqctx.RequestID(ctx))

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.analyzer.Analyze(ctx, targetURL)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && errs.KindOf(err) != errs.InvalidInput {
			err = &errs.AppError{
				Kind:    errs.FetchFailed,
				Timeout: true,
				Message: "Analysis timed out. The target URL may be slow to respond.",
				Cause:   err,
			}
		}

		attrs := []any{"error", err, "kind", errs.KindOf(err).String()}
		var appErr *errs.AppError
		if errors.As(err, &appErr) {
			if appErr.UpstreamStatus != 0 {
				attrs = append(attrs, "target_status", appErr.UpstreamStatus)
			}
			if appErr.Step != "" {
				attrs = append(attrs, "step", appErr.Step)
			}
		}
		logger.Error("analysis failed", attrs...)
		return nil, err
	}

	stored := model.NewStoredResult(userID, result)
	if err := s.results.CreateResult(context.WithoutCancel(ctx), stored); err != nil {
		logger.Error("failed to store result", "error", err)
		return nil, errs.Wrap(errs.Unknown, err, "Failed to save the analysis result.")
	}

	logger.Info("analysis complete",
		"result_id", stored.ID,
		"title", result.Meta.Title,
		"word_count", result.WordCount,
		"images", len(result.Images),
		"keywords", len(result.KeywordDensity),
		"content_hash", result.ContentHash,
	)
	return result, nil
}

// History returns the user's stored results, newest first. The limit is
// clamped to MaxHistoryLimit and defaults to DefaultHistoryLimit.
func (s *Service) History(ctx context.Context, userID string, filter model.ResultFilter) ([]*model.StoredResult, error) {
	if filter.Offset < 0 {
		return nil, errs.E(errs.InvalidInput, "Offset must not be negative.")
	}
	switch {
	case filter.Limit <= 0:
		filter.Limit = DefaultHistoryLimit
	case filter.Limit > MaxHistoryLimit:
		filter.Limit = MaxHistoryLimit
	}
	filter.UserID = userID

	results, err := s.results.FindResults(ctx, filter)
	if err != nil {
		s.logger.Error("history lookup failed",
			"error", err,
			"user_id", userID,
			"request_id", reqctx.RequestID(ctx),
		)
		return nil, err
	}
	if results == nil {
		results = []*model.StoredResult{}
	}
	return results, nil
}
