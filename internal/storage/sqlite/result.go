package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Bahjat/seo-monitor/internal/model"
)

// CreateResult stores an analysis summary with a generated ID and timestamp.
// Keyword density is stored as an ordered JSON object.
func (db *DB) CreateResult(ctx context.Context, result *model.StoredResult) error {
	density, err := json.Marshal(result.KeywordDensity)
	if err != nil {
		return fmt.Errorf("failed to encode keyword density: %w", err)
	}

	result.ID = uuid.New().String()
	result.CreatedAt = time.Now().UTC()

	_, err = db.db.ExecContext(ctx, `
		INSERT INTO seo_results (id, user_id, url, meta_title, word_count, keyword_density, content_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, result.ID, result.UserID, result.URL, result.MetaTitle, result.WordCount,
		string(density), result.ContentHash, formatTime(result.CreatedAt))

	return err
}

// FindResults retrieves results matching the filter, newest first.
func (db *DB) FindResults(ctx context.Context, filter model.ResultFilter) ([]*model.StoredResult, error) {
	var query strings.Builder
	args := []any{filter.UserID}

	query.WriteString(`SELECT id, user_id, url, meta_title, word_count, keyword_density, content_hash, created_at
		FROM seo_results WHERE user_id = ?`)

	if filter.URL != nil {
		query.WriteString(" AND url = ?")
		args = append(args, *filter.URL)
	}

	query.WriteString(" ORDER BY created_at DESC, rowid DESC")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := db.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	results := []*model.StoredResult{}
	for rows.Next() {
		var r model.StoredResult
		var density, createdAt string

		if err := rows.Scan(&r.ID, &r.UserID, &r.URL, &r.MetaTitle, &r.WordCount,
			&density, &r.ContentHash, &createdAt); err != nil {
			return nil, err
		}

		if err := json.Unmarshal([]byte(density), &r.KeywordDensity); err != nil {
			return nil, fmt.Errorf("failed to decode keyword_density: %w", err)
		}
		if r.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
			return nil, err
		}

		results = append(results, &r)
	}

	return results, rows.Err()
}
