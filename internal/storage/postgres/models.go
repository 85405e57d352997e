package postgres

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Bahjat/seo-monitor/internal/model"
)

// userRow is the users table.
type userRow struct {
	ID           string    `gorm:"primaryKey;type:text"`
	Username     string    `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash string    `gorm:"type:text;not null"`
	CreatedAt    time.Time `gorm:"type:timestamp with time zone;not null"`
}

// TableName overrides the table name
func (userRow) TableName() string {
	return "users"
}

// sessionRow is the sessions table.
type sessionRow struct {
	Token     string    `gorm:"primaryKey;type:text"`
	UserID    string    `gorm:"type:text;not null;index"`
	CreatedAt time.Time `gorm:"type:timestamp with time zone;not null"`
	ExpiresAt time.Time `gorm:"type:timestamp with time zone;not null"`

	User userRow `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName overrides the table name
func (sessionRow) TableName() string {
	return "sessions"
}

// resultRow is the seo_results table. KeywordDensity holds the ordered JSON
// object as text; jsonb would not keep key order.
type resultRow struct {
	ID             string    `gorm:"primaryKey;type:text"`
	UserID         string    `gorm:"type:text;not null;index:idx_seo_results_user_created,priority:1"`
	URL            string    `gorm:"type:text;not null"`
	MetaTitle      string    `gorm:"type:text;not null"`
	WordCount      int       `gorm:"not null"`
	KeywordDensity string    `gorm:"type:text;not null"`
	ContentHash    string    `gorm:"type:text;not null"`
	CreatedAt      time.Time `gorm:"type:timestamp with time zone;not null;index:idx_seo_results_user_created,priority:2"`

	User userRow `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName overrides the table name
func (resultRow) TableName() string {
	return "seo_results"
}

func (r *userRow) toModel() *model.User {
	return &model.User{
		ID:           r.ID,
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt.UTC(),
	}
}

func (r *sessionRow) toModel() *model.Session {
	return &model.Session{
		Token:     r.Token,
		UserID:    r.UserID,
		CreatedAt: r.CreatedAt.UTC(),
		ExpiresAt: r.ExpiresAt.UTC(),
	}
}

func (r *resultRow) toModel() (*model.StoredResult, error) {
	var density model.KeywordDensity
	if err := json.Unmarshal([]byte(r.KeywordDensity), &density); err != nil {
		return nil, fmt.Errorf("failed to decode keyword_density: %w", err)
	}
	return &model.StoredResult{
		ID:             r.ID,
		UserID:         r.UserID,
		URL:            r.URL,
		MetaTitle:      r.MetaTitle,
		WordCount:      r.WordCount,
		KeywordDensity: density,
		ContentHash:    r.ContentHash,
		CreatedAt:      r.CreatedAt.UTC(),
	}, nil
}
