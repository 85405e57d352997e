package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Bahjat/seo-monitor/internal/model"
	"github.com/Bahjat/seo-monitor/internal/platform/errs"
)

// CreateSession stores a session. The caller supplies the token and times.
func (db *DB) CreateSession(ctx context.Context, session *model.Session) error {
	_, err := db.db.ExecContext(ctx, `
		INSERT INTO sessions (token, user_id, created_at, expires_at)
		VALUES (?, ?, ?, ?)
	`, session.Token, session.UserID, formatTime(session.CreatedAt), formatTime(session.ExpiresAt))
	if isUniqueViolation(err) {
		return errs.Wrap(errs.Conflict, err, "Session already exists.")
	}
	return err
}

// FindSession retrieves a session by token.
func (db *DB) FindSession(ctx context.Context, token string) (*model.Session, error) {
	var session model.Session
	var createdAt, expiresAt string

	err := db.db.QueryRowContext(ctx, `
		SELECT token, user_id, created_at, expires_at
		FROM sessions
		WHERE token = ?
	`, token).Scan(&session.Token, &session.UserID, &createdAt, &expiresAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.E(errs.NotFound, "Session not found.")
	}
	if err != nil {
		return nil, err
	}

	if session.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
		return nil, err
	}
	if session.ExpiresAt, err = parseTime(expiresAt, "expires_at"); err != nil {
		return nil, err
	}
	return &session, nil
}

// DeleteSession removes a session. Unknown tokens are not an error.
func (db *DB) DeleteSession(ctx context.Context, token string) error {
	_, err := db.db.ExecContext(ctx, "DELETE FROM sessions WHERE token = ?", token)
	return err
}
