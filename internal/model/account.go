package model

import (
	"context"
	"time"
)

// User is a registered account.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session binds an opaque token to a user until ExpiresAt.
type Session struct {
	Token     string    `json:"-"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// UserStore persists users.
type UserStore interface {
	// CreateUser assigns ID and CreatedAt and stores the user.
	// Returns errs.Conflict if the username is taken.
	CreateUser(ctx context.Context, user *User) error

	// FindUserByID returns errs.NotFound if no user has the ID.
	FindUserByID(ctx context.Context, id string) (*User, error)

	// FindUserByUsername returns errs.NotFound if no user has the name.
	FindUserByUsername(ctx context.Context, username string) (*User, error)
}

// SessionStore persists login sessions.
type SessionStore interface {
	CreateSession(ctx context.Context, session *Session) error

	// FindSession returns errs.NotFound for unknown tokens. Expiry is the
	// caller's concern.
	FindSession(ctx context.Context, token string) (*Session, error)

	// DeleteSession is a no-op for unknown tokens.
	DeleteSession(ctx context.Context, token string) error
}
