package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Bahjat/seo-monitor/internal/model"
	"github.com/Bahjat/seo-monitor/internal/platform/errs"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		DSN:                  "sqlmock_db_0",
		DriverName:           "postgres",
		Conn:                 db,
		PreferSimpleProtocol: true,
	})

	gormDB, err := gorm.Open(dialector, Config())
	require.NoError(t, err)

	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet(), "there were unfulfilled expectations")
	})
	return New(gormDB), mock
}

func q(sql string) string {
	return regexp.QuoteMeta(sql)
}

func TestStore_CreateUser(t *testing.T) {
	t.Run("assigns ID and timestamp", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectExec(q(`INSERT INTO "users"`)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		user := &model.User{Username: "alice", PasswordHash: "hash"}
		require.NoError(t, store.CreateUser(context.Background(), user))
		assert.NotEmpty(t, user.ID)
		assert.False(t, user.CreatedAt.IsZero())
	})

	t.Run("unique violation is a conflict", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectExec(q(`INSERT INTO "users"`)).
			WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})

		err := store.CreateUser(context.Background(), &model.User{Username: "alice", PasswordHash: "hash"})
		require.Error(t, err)
		assert.Equal(t, errs.Conflict, errs.KindOf(err))
	})

	t.Run("other errors pass through", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectExec(q(`INSERT INTO "users"`)).
			WillReturnError(errors.New("db error"))

		err := store.CreateUser(context.Background(), &model.User{Username: "alice"})
		require.Error(t, err)
		assert.Equal(t, errs.Unknown, errs.KindOf(err))
	})
}

func TestStore_FindUser(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("by username", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectQuery(q(`SELECT * FROM "users" WHERE username = $1`)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "created_at"}).
				AddRow("u-1", "alice", "hash", created))

		user, err := store.FindUserByUsername(context.Background(), "alice")
		require.NoError(t, err)
		assert.Equal(t, "u-1", user.ID)
		assert.Equal(t, "hash", user.PasswordHash)
		assert.True(t, user.CreatedAt.Equal(created))
	})

	t.Run("by ID not found", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectQuery(q(`SELECT * FROM "users" WHERE id = $1`)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "created_at"}))

		_, err := store.FindUserByID(context.Background(), "missing")
		assert.Equal(t, errs.NotFound, errs.KindOf(err))
	})
}

func TestStore_Sessions(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("create", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectExec(q(`INSERT INTO "sessions"`)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := store.CreateSession(context.Background(), &model.Session{
			Token: "tok", UserID: "u-1", CreatedAt: now, ExpiresAt: now.Add(time.Hour),
		})
		require.NoError(t, err)
	})

	t.Run("find", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectQuery(q(`SELECT * FROM "sessions" WHERE token = $1`)).
			WillReturnRows(sqlmock.NewRows([]string{"token", "user_id", "created_at", "expires_at"}).
				AddRow("tok", "u-1", now, now.Add(time.Hour)))

		session, err := store.FindSession(context.Background(), "tok")
		require.NoError(t, err)
		assert.Equal(t, "u-1", session.UserID)
		assert.True(t, session.ExpiresAt.Equal(now.Add(time.Hour)))
	})

	t.Run("find unknown", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectQuery(q(`SELECT * FROM "sessions" WHERE token = $1`)).
			WillReturnRows(sqlmock.NewRows([]string{"token", "user_id", "created_at", "expires_at"}))

		_, err := store.FindSession(context.Background(), "nope")
		assert.Equal(t, errs.NotFound, errs.KindOf(err))
	})

	t.Run("delete", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectExec(q(`DELETE FROM "sessions" WHERE token = $1`)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		require.NoError(t, store.DeleteSession(context.Background(), "tok"))
	})
}

func TestStore_Results(t *testing.T) {
	t.Run("create stores ordered density text", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectExec(q(`INSERT INTO "seo_results"`)).
			WithArgs(sqlmock.AnyArg(), "u-1", "https://example.com", "Example", 6,
				`{"cat":50,"dog":33.333333333333336}`, "abc", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		result := &model.StoredResult{
			UserID:    "u-1",
			URL:       "https://example.com",
			MetaTitle: "Example",
			WordCount: 6,
			KeywordDensity: model.KeywordDensity{
				{Word: "cat", Percentage: 50},
				{Word: "dog", Percentage: 33.333333333333336},
			},
			ContentHash: "abc",
		}
		require.NoError(t, store.CreateResult(context.Background(), result))
		assert.NotEmpty(t, result.ID)
	})

	t.Run("find with url filter and paging", func(t *testing.T) {
		store, mock := newMockStore(t)
		created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

		mock.ExpectQuery(q(`SELECT * FROM "seo_results" WHERE user_id = $1 AND url = $2 ORDER BY created_at DESC LIMIT`)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "url", "meta_title", "word_count", "keyword_density", "content_hash", "created_at"}).
				AddRow("r-2", "u-1", "https://example.com", "Second", 10, `{"zebra":40,"apple":20}`, "h2", created.Add(time.Minute)).
				AddRow("r-1", "u-1", "https://example.com", "First", 5, `{}`, "h1", created))

		url := "https://example.com"
		results, err := store.FindResults(context.Background(), model.ResultFilter{UserID: "u-1", URL: &url, Limit: 10, Offset: 5})
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "r-2", results[0].ID)
		assert.Equal(t, "zebra", results[0].KeywordDensity[0].Word)
		assert.Equal(t, "apple", results[0].KeywordDensity[1].Word)
		assert.Empty(t, results[1].KeywordDensity)
	})

	t.Run("corrupt density is an error", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectQuery(q(`SELECT * FROM "seo_results" WHERE user_id = $1`)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "url", "meta_title", "word_count", "keyword_density", "content_hash", "created_at"}).
				AddRow("r-1", "u-1", "https://example.com", "T", 1, `["not","an","object"]`, "h", time.Now()))

		_, err := store.FindResults(context.Background(), model.ResultFilter{UserID: "u-1"})
		assert.Error(t, err)
	})
}

func TestStore_Close(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectClose()

	require.NoError(t, store.Close())
}
