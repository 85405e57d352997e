// Package postgres provides the PostgreSQL-backed implementation of
// model.Store on top of gorm.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/Bahjat/seo-monitor/internal/model"
	"github.com/Bahjat/seo-monitor/internal/platform/errs"
)

var _ model.Store = (*Store)(nil)

// Config returns the gorm configuration shared by Open and tests.
// Driver errors are translated so unique violations surface as
// gorm.ErrDuplicatedKey.
func Config() *gorm.Config {
	return &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	}
}

// Store implements model.Store using PostgreSQL.
type Store struct {
	db *gorm.DB
}

// Open connects to the database at dsn.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), Config())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return New(db), nil
}

// New wraps an existing gorm connection.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the tables.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&userRow{}, &sessionRow{}, &resultRow{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// CreateUser creates a new user with a generated ID and timestamp.
func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	row := userRow{
		ID:           uuid.New().String(),
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errs.Wrap(errs.Conflict, err, "Username is already taken.")
		}
		return err
	}

	user.ID = row.ID
	user.CreatedAt = row.CreatedAt
	return nil
}

// FindUserByID retrieves a user by ID.
func (s *Store) FindUserByID(ctx context.Context, id string) (*model.User, error) {
	return s.findUser(ctx, "id = ?", id)
}

// FindUserByUsername retrieves a user by username.
func (s *Store) FindUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.findUser(ctx, "username = ?", username)
}

func (s *Store) findUser(ctx context.Context, cond string, value string) (*model.User, error) {
	var row userRow
	if err := s.db.WithContext(ctx).Where(cond, value).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.E(errs.NotFound, "User not found.")
		}
		return nil, err
	}
	return row.toModel(), nil
}

// CreateSession stores a session. The caller supplies the token and times.
func (s *Store) CreateSession(ctx context.Context, session *model.Session) error {
	row := sessionRow{
		Token:     session.Token,
		UserID:    session.UserID,
		CreatedAt: session.CreatedAt.UTC(),
		ExpiresAt: session.ExpiresAt.UTC(),
	}
	err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errs.Wrap(errs.Conflict, err, "Session already exists.")
	}
	return err
}

// FindSession retrieves a session by token.
func (s *Store) FindSession(ctx context.Context, token string) (*model.Session, error) {
	var row sessionRow
	if err := s.db.WithContext(ctx).Where("token = ?", token).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.E(errs.NotFound, "Session not found.")
		}
		return nil, err
	}
	return row.toModel(), nil
}

// DeleteSession removes a session. Unknown tokens are not an error.
func (s *Store) DeleteSession(ctx context.Context, token string) error {
	return s.db.WithContext(ctx).Where("token = ?", token).Delete(&sessionRow{}).Error
}

// CreateResult stores an analysis summary with a generated ID and timestamp.
func (s *Store) CreateResult(ctx context.Context, result *model.StoredResult) error {
	density, err := json.Marshal(result.KeywordDensity)
	if err != nil {
		return fmt.Errorf("failed to encode keyword density: %w", err)
	}

	row := resultRow{
		ID:             uuid.New().String(),
		UserID:         result.UserID,
		URL:            result.URL,
		MetaTitle:      result.MetaTitle,
		WordCount:      result.WordCount,
		KeywordDensity: string(density),
		ContentHash:    result.ContentHash,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&row).Error; err != nil {
		return err
	}

	result.ID = row.ID
	result.CreatedAt = row.CreatedAt
	return nil
}

// FindResults retrieves results matching the filter, newest first.
func (s *Store) FindResults(ctx context.Context, filter model.ResultFilter) ([]*model.StoredResult, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", filter.UserID)
	if filter.URL != nil {
		q = q.Where("url = ?", *filter.URL)
	}
	q = q.Order("created_at DESC")
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	var rows []resultRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}

	results := make([]*model.StoredResult, 0, len(rows))
	for i := range rows {
		r, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}
