package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bahjat/seo-monitor/internal/model"
	"github.com/Bahjat/seo-monitor/internal/platform/errs"
)

func TestDB_Sessions(t *testing.T) {
	t.Parallel()

	t.Run("create, find and delete", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()
		user := createTestUser(t, db, "alice")

		now := time.Now().UTC()
		session := &model.Session{
			Token:     "token-1",
			UserID:    user.ID,
			CreatedAt: now,
			ExpiresAt: now.Add(time.Hour),
		}
		require.NoError(t, db.CreateSession(ctx, session))

		found, err := db.FindSession(ctx, "token-1")
		require.NoError(t, err)
		assert.Equal(t, user.ID, found.UserID)
		assert.True(t, found.ExpiresAt.Equal(session.ExpiresAt))

		require.NoError(t, db.DeleteSession(ctx, "token-1"))
		_, err = db.FindSession(ctx, "token-1")
		assert.Equal(t, errs.NotFound, errs.KindOf(err))
	})

	t.Run("deleting unknown token is not an error", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		assert.NoError(t, db.DeleteSession(context.Background(), "never-existed"))
	})

	t.Run("session requires an existing user", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		now := time.Now()
		err := db.CreateSession(context.Background(), &model.Session{
			Token:     "orphan",
			UserID:    "no-such-user",
			CreatedAt: now,
			ExpiresAt: now.Add(time.Hour),
		})
		assert.Error(t, err)
	})

	t.Run("expired sessions are still returned", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()
		user := createTestUser(t, db, "carol")

		past := time.Now().Add(-2 * time.Hour)
		require.NoError(t, db.CreateSession(ctx, &model.Session{
			Token:     "old",
			UserID:    user.ID,
			CreatedAt: past,
			ExpiresAt: past.Add(time.Hour),
		}))

		found, err := db.FindSession(ctx, "old")
		require.NoError(t, err)
		assert.True(t, found.Expired(time.Now()))
	})
}
