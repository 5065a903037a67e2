package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mstolbov/passlink/pkg/session"
)

func newSession(userID uuid.UUID, ttl time.Duration) *session.Session {
	now := time.Now()
	return &session.Session{
		ID:        uuid.New(),
		Token:     uuid.NewString(),
		UserID:    userID,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		t.Parallel()

		store := session.NewMemoryStore(0)
		t.Cleanup(store.Close)

		sess := newSession(uuid.New(), time.Hour)
		require.NoError(t, store.Create(ctx, sess))

		got, err := store.Get(ctx, sess.Token)
		require.NoError(t, err)
		assert.Equal(t, sess.UserID, got.UserID)

		// returned session is a copy; mutating it must not affect the store
		got.ExpiresAt = time.Now().Add(-time.Hour)
		again, err := store.Get(ctx, sess.Token)
		require.NoError(t, err)
		assert.True(t, again.ExpiresAt.After(time.Now()))
	})

	t.Run("rejects invalid sessions", func(t *testing.T) {
		t.Parallel()

		store := session.NewMemoryStore(0)
		t.Cleanup(store.Close)

		assert.ErrorIs(t, store.Create(ctx, nil), session.ErrInvalidSession)
		assert.ErrorIs(t, store.Create(ctx, &session.Session{}), session.ErrInvalidSession)
	})

	t.Run("get expired deletes the row", func(t *testing.T) {
		t.Parallel()

		store := session.NewMemoryStore(0)
		t.Cleanup(store.Close)

		sess := newSession(uuid.New(), -time.Minute)
		require.NoError(t, store.Create(ctx, sess))

		_, err := store.Get(ctx, sess.Token)
		assert.ErrorIs(t, err, session.ErrExpired)

		_, err = store.Get(ctx, sess.Token)
		assert.ErrorIs(t, err, session.ErrNotFound)
	})

	t.Run("update expiry", func(t *testing.T) {
		t.Parallel()

		store := session.NewMemoryStore(0)
		t.Cleanup(store.Close)

		sess := newSession(uuid.New(), time.Hour)
		require.NoError(t, store.Create(ctx, sess))

		later := time.Now().Add(2 * time.Hour)
		require.NoError(t, store.UpdateExpiry(ctx, sess.Token, later))

		got, err := store.Get(ctx, sess.Token)
		require.NoError(t, err)
		assert.WithinDuration(t, later, got.ExpiresAt, time.Second)

		assert.ErrorIs(t, store.UpdateExpiry(ctx, "absent", later), session.ErrNotFound)
	})

	t.Run("delete by user id", func(t *testing.T) {
		t.Parallel()

		store := session.NewMemoryStore(0)
		t.Cleanup(store.Close)

		userID := uuid.New()
		a := newSession(userID, time.Hour)
		b := newSession(userID, time.Hour)
		other := newSession(uuid.New(), time.Hour)

		require.NoError(t, store.Create(ctx, a))
		require.NoError(t, store.Create(ctx, b))
		require.NoError(t, store.Create(ctx, other))

		require.NoError(t, store.DeleteByUserID(ctx, userID.String()))

		_, err := store.Get(ctx, a.Token)
		assert.ErrorIs(t, err, session.ErrNotFound)
		_, err = store.Get(ctx, b.Token)
		assert.ErrorIs(t, err, session.ErrNotFound)
		_, err = store.Get(ctx, other.Token)
		assert.NoError(t, err)
	})

	t.Run("delete expired purges only stale sessions", func(t *testing.T) {
		t.Parallel()

		store := session.NewMemoryStore(0)
		t.Cleanup(store.Close)

		live := newSession(uuid.New(), time.Hour)
		stale := newSession(uuid.New(), -time.Minute)

		require.NoError(t, store.Create(ctx, live))
		require.NoError(t, store.Create(ctx, stale))

		require.NoError(t, store.DeleteExpired(ctx))

		_, err := store.Get(ctx, live.Token)
		assert.NoError(t, err)
		_, err = store.Get(ctx, stale.Token)
		assert.ErrorIs(t, err, session.ErrNotFound)
	})
}
