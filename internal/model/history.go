package model

import (
	"context"
	"time"
)

// StoredResult is the persisted summary of one analysis run.
type StoredResult struct {
	ID             string         `json:"id"`
	UserID         string         `json:"user_id"`
	URL            string         `json:"url"`
	MetaTitle      string         `json:"meta_title"`
	WordCount      int            `json:"word_count"`
	KeywordDensity KeywordDensity `json:"keyword_density"`
	ContentHash    string         `json:"content_hash"`
	CreatedAt      time.Time      `json:"created_at"`
}

// NewStoredResult summarizes an analysis for persistence.
func NewStoredResult(userID string, a *PageAnalysis) *StoredResult {
	return &StoredResult{
		UserID:         userID,
		URL:            a.URL,
		MetaTitle:      a.Meta.Title,
		WordCount:      a.WordCount,
		KeywordDensity: a.KeywordDensity,
		ContentHash:    a.ContentHash,
	}
}

// ResultFilter selects a user's stored results. Results are ordered newest first.
type ResultFilter struct {
	UserID string
	URL    *string

	Offset int
	Limit  int
}

// ResultStore persists analysis results.
type ResultStore interface {
	// CreateResult assigns ID and CreatedAt and stores the result.
	CreateResult(ctx context.Context, result *StoredResult) error

	// FindResults returns results matching the filter, newest first.
	FindResults(ctx context.Context, filter ResultFilter) ([]*StoredResult, error)
}

// Store bundles every persistence interface behind one backend.
type Store interface {
	UserStore
	SessionStore
	ResultStore
	Close() error
}
