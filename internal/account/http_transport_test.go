package account

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bahjat/seo-monitor/internal/model"
	"github.com/Bahjat/seo-monitor/internal/platform/reqctx"
)

func newTestMux(t *testing.T) *http.ServeMux {
	t.Helper()
	svc := newTestService(t)
	transport := NewTransport(svc, slog.New(slog.NewTextHandler(io.Discard, nil)), true)
	mux := http.NewServeMux()
	transport.RegisterRoutes(mux)

	mux.Handle("GET /protected", transport.RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := reqctx.User(r.Context())
		if !ok {
			t.Error("user missing from context")
		}
		_, _ = io.WriteString(w, user.Username)
	})))
	return mux
}

func post(mux http.Handler, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func get(mux http.Handler, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookie {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", SessionCookie)
	return nil
}

func TestTransport_SignupLoginFlow(t *testing.T) {
	mux := newTestMux(t)
	creds := `{"username":"alice","password":"correct horse"}`

	rec := post(mux, "/api/signup", creds)
	require.Equal(t, http.StatusCreated, rec.Code)

	var user model.User
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&user))
	assert.Equal(t, "alice", user.Username)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = post(mux, "/api/login", creds)
	require.Equal(t, http.StatusOK, rec.Code)
	cookie := sessionCookie(t, rec)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.NotEmpty(t, cookie.Value)

	rec = get(mux, "/api/me", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"alice"`)

	rec = get(mux, "/protected", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", rec.Body.String())

	rec = post(mux, "/api/logout", "", cookie)
	require.Equal(t, http.StatusNoContent, rec.Code)
	cleared := sessionCookie(t, rec)
	assert.Empty(t, cleared.Value)

	rec = get(mux, "/protected", cookie)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTransport_SignupErrors(t *testing.T) {
	mux := newTestMux(t)

	rec := post(mux, "/api/signup", `{invalid json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = post(mux, "/api/signup", `{"username":"al","password":"correct horse"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = post(mux, "/api/signup", `{"username":"alice","password":"correct horse"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = post(mux, "/api/signup", `{"username":"alice","password":"another pass"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	var body model.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "conflict", body.Kind)
}

func TestTransport_LoginWrongPassword(t *testing.T) {
	mux := newTestMux(t)

	require.Equal(t, http.StatusCreated, post(mux, "/api/signup", `{"username":"alice","password":"correct horse"}`).Code)

	rec := post(mux, "/api/login", `{"username":"alice","password":"battery staple"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
}

func TestTransport_RequireUser_NoCookie(t *testing.T) {
	mux := newTestMux(t)

	rec := get(mux, "/protected")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = get(mux, "/protected", &http.Cookie{Name: SessionCookie, Value: "forged"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTransport_LogoutWithoutSession(t *testing.T) {
	mux := newTestMux(t)

	rec := post(mux, "/api/logout", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
