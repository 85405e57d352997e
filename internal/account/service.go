// Package account implements signup, login and server-side sessions.
package account

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Bahjat/seo-monitor/internal/model"
	"github.com/Bahjat/seo-monitor/internal/platform/errs"
	"github.com/Bahjat/seo-monitor/internal/platform/reqctx"
)

// Credential limits. bcrypt ignores input beyond 72 bytes, so longer
// passwords are rejected rather than silently truncated.
const (
	MinUsernameLen = 3
	MaxUsernameLen = 64
	MinPasswordLen = 8
	MaxPasswordLen = 72

	// DefaultSessionTTL is how long a login stays valid.
	DefaultSessionTTL = 24 * time.Hour
)

const invalidCredentials = "Invalid username or password."

// dummyHash is compared against when the username does not exist so a
// failed login costs the same either way.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)

// Service manages users and their sessions.
type Service struct {
	users    model.UserStore
	sessions model.SessionStore
	logger   *slog.Logger
	ttl      time.Duration
	cost     int
	now      func() time.Time
}

// NewService creates a Service. A non-positive ttl selects DefaultSessionTTL.
func NewService(users model.UserStore, sessions model.SessionStore, logger *slog.Logger, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Service{
		users:    users,
		sessions: sessions,
		logger:   logger,
		ttl:      ttl,
		cost:     bcrypt.DefaultCost,
		now:      time.Now,
	}
}

// Signup validates the credentials and registers a new user.
func (s *Service) Signup(ctx context.Context, username, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if err := validateCredentials(username, password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, errs.Wrap(errs.Unknown, err, "Failed to secure the password.")
	}

	user := &model.User{Username: username, PasswordHash: string(hash)}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		"user_id", user.ID,
		"request_id", reqctx.RequestID(ctx),
	)
	return user, nil
}

// Login verifies the credentials and opens a new session.
func (s *Service) Login(ctx context.Context, username, password string) (*model.Session, *model.User, error) {
	user, err := s.users.FindUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errs.KindOf(err) == errs.NotFound {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return nil, nil, errs.E(errs.Unauthorized, invalidCredentials)
		}
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			s.logger.Warn("login rejected", "user_id", user.ID, "request_id", reqctx.RequestID(ctx))
			return nil, nil, errs.E(errs.Unauthorized, invalidCredentials)
		}
		return nil, nil, err
	}

	now := s.now().UTC()
	session := &model.Session{
		Token:     uuid.New().String(),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return nil, nil, err
	}

	s.logger.Info("user logged in", "user_id", user.ID, "request_id", reqctx.RequestID(ctx))
	return session, user, nil
}

// Logout ends the session. Unknown tokens are ignored.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.DeleteSession(ctx, token)
}

// Authenticate returns the user owning a live session.
func (s *Service) Authenticate(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, errs.E(errs.Unauthorized, "Please log in to continue.")
	}

	session, err := s.sessions.FindSession(ctx, token)
	if err != nil {
		if errs.KindOf(err) == errs.NotFound {
			return nil, errs.E(errs.Unauthorized, "Your session is invalid. Please log in again.")
		}
		return nil, err
	}

	if session.Expired(s.now()) {
		if err := s.sessions.DeleteSession(ctx, token); err != nil {
			s.logger.Warn("failed to delete expired session", "error", err)
		}
		return nil, errs.E(errs.Unauthorized, "Your session has expired. Please log in again.")
	}

	user, err := s.users.FindUserByID(ctx, session.UserID)
	if err != nil {
		if errs.KindOf(err) == errs.NotFound {
			return nil, errs.E(errs.Unauthorized, "Your session is invalid. Please log in again.")
		}
		return nil, err
	}
	return user, nil
}

func validateCredentials(username, password string) error {
	if n := utf8.RuneCountInString(username); n < MinUsernameLen || n > MaxUsernameLen {
		return errs.E(errs.InvalidInput, "Username must be between %d and %d characters.", MinUsernameLen, MaxUsernameLen)
	}
	if strings.ContainsFunc(username, func(r rune) bool { return unicode.IsSpace(r) || unicode.IsControl(r) }) {
		return errs.E(errs.InvalidInput, "Username must not contain spaces or control characters.")
	}
	if utf8.RuneCountInString(password) < MinPasswordLen {
		return errs.E(errs.InvalidInput, "Password must be at least %d characters.", MinPasswordLen)
	}
	if len(password) > MaxPasswordLen {
		return errs.E(errs.InvalidInput, "Password must be at most %d bytes.", MaxPasswordLen)
	}
	return nil
}
