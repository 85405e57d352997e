package account

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/Bahjat/seo-monitor/internal/platform/errs"
	"github.com/Bahjat/seo-monitor/internal/platform/reqctx"
	"github.com/Bahjat/seo-monitor/internal/platform/respond"
)

// SessionCookie names the cookie carrying the session token.
const SessionCookie = "seo_session"

const maxRequestBody = 1 << 16

// Transport handles HTTP requests for accounts and sessions.
type Transport struct {
	service      *Service
	logger       *slog.Logger
	cookieSecure bool
}

// NewTransport creates an HTTP transport backed by the given service.
// cookieSecure marks the session cookie Secure (HTTPS only).
func NewTransport(service *Service, logger *slog.Logger, cookieSecure bool) *Transport {
	return &Transport{service: service, logger: logger, cookieSecure: cookieSecure}
}

// RegisterRoutes attaches the transport's handlers to the given mux.
func (t *Transport) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/signup", t.handleSignup)
	mux.HandleFunc("POST /api/login", t.handleLogin)
	mux.HandleFunc("POST /api/logout", t.handleLogout)
	mux.Handle("GET /api/me", t.RequireUser(http.HandlerFunc(t.handleMe)))
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (t *Transport) decodeCredentials(w http.ResponseWriter, r *http.Request) (credentialsRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, t.logger, http.StatusBadRequest,
			"Invalid request body. Please send a JSON object with \"username\" and \"password\" fields.")
		return req, false
	}
	return req, true
}

func (t *Transport) handleSignup(w http.ResponseWriter, r *http.Request) {
	req, ok := t.decodeCredentials(w, r)
	if !ok {
		return
	}

	user, err := t.service.Signup(r.Context(), req.Username, req.Password)
	if err != nil {
		respond.AppError(w, t.logger, err)
		return
	}

	respond.JSON(w, t.logger, http.StatusCreated, user)
}

func (t *Transport) handleLogin(w http.ResponseWriter, r *http.Request) {
	req, ok := t.decodeCredentials(w, r)
	if !ok {
		return
	}

	session, user, err := t.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		respond.AppError(w, t.logger, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   t.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	respond.JSON(w, t.logger, http.StatusOK, user)
}

func (t *Transport) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(SessionCookie); err == nil {
		if err := t.service.Logout(r.Context(), c.Value); err != nil {
			respond.AppError(w, t.logger, err)
			return
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   t.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (t *Transport) handleMe(w http.ResponseWriter, r *http.Request) {
	user, _ := reqctx.User(r.Context())
	respond.JSON(w, t.logger, http.StatusOK, user)
}

// RequireUser is middleware that resolves the session cookie to a user and
// stores it in the request context. Requests without a live session are
// rejected with 401.
func (t *Transport) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var token string
		if c, err := r.Cookie(SessionCookie); err == nil {
			token = c.Value
		}

		user, err := t.service.Authenticate(r.Context(), token)
		if err != nil {
			if errs.KindOf(err) != errs.Unauthorized {
				t.logger.Error("session lookup failed", "error", err, "request_id", reqctx.RequestID(r.Context()))
			}
			respond.AppError(w, t.logger, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(reqctx.WithUser(r.Context(), user)))
	})
}
