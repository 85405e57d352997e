package analyzer

import (
	"context"

	"github.com/Bahjat/seo-monitor/internal/model"
)

// PageAnalyzer defines the contract for any analysis engine.
type PageAnalyzer interface {
	Analyze(ctx context.Context, targetURL string) (*model.PageAnalysis, error)
}
