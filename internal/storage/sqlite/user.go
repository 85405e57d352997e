package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Bahjat/seo-monitor/internal/model"
	"github.com/Bahjat/seo-monitor/internal/platform/errs"
)

// CreateUser creates a new user with a generated ID and timestamp.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	user.ID = uuid.New().String()
	user.CreatedAt = time.Now().UTC()

	_, err := db.db.ExecContext(ctx, `
		INSERT INTO users (id, username, password_hash, created_at)
		VALUES (?, ?, ?, ?)
	`, user.ID, user.Username, user.PasswordHash, formatTime(user.CreatedAt))
	if isUniqueViolation(err) {
		return errs.Wrap(errs.Conflict, err, "Username is already taken.")
	}
	return err
}

// FindUserByID retrieves a user by ID.
func (db *DB) FindUserByID(ctx context.Context, id string) (*model.User, error) {
	return db.findUser(ctx, "id", id)
}

// FindUserByUsername retrieves a user by username.
func (db *DB) FindUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return db.findUser(ctx, "username", username)
}

func (db *DB) findUser(ctx context.Context, column, value string) (*model.User, error) {
	var user model.User
	var createdAt string

	// column is one of two literals above, never user input.
	err := db.db.QueryRowContext(ctx,
		"SELECT id, username, password_hash, created_at FROM users WHERE "+column+" = ?", value,
	).Scan(&user.ID, &user.Username, &user.PasswordHash, &createdAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.E(errs.NotFound, "User not found.")
	}
	if err != nil {
		return nil, err
	}

	user.CreatedAt, err = parseTime(createdAt, "created_at")
	if err != nil {
		return nil, err
	}
	return &user, nil
}
