package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cliftonc/calipso/core/session"
)

type visitorData struct {
	Username string
	Admin    bool
}

func TestNew(t *testing.T) {
	t.Parallel()

	sess, err := session.New[visitorData](time.Hour)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, sess.ID)
	assert.NotEmpty(t, sess.Token)
	assert.False(t, sess.IsAuthenticated())
	assert.False(t, sess.IsExpired())
	assert.True(t, sess.IsModified(), "fresh sessions need saving")
}

func TestSession_Authenticate_RotatesToken(t *testing.T) {
	t.Parallel()

	sess, err := session.New[visitorData](time.Hour)
	require.NoError(t, err)
	oldToken, oldID := sess.Token, sess.ID

	userID := uuid.New()
	require.NoError(t, sess.Authenticate(userID))

	assert.True(t, sess.IsAuthenticated())
	assert.Equal(t, userID, sess.UserID)
	assert.NotEqual(t, oldToken, sess.Token, "token must rotate on login")
	assert.Equal(t, oldID, sess.ID, "session ID survives login")
}

func TestSession_Logout(t *testing.T) {
	t.Parallel()

	sess, err := session.New[visitorData](time.Hour)
	require.NoError(t, err)
	require.NoError(t, sess.Authenticate(uuid.New()))
	sess.SetData(visitorData{Username: "admin", Admin: true})
	authToken := sess.Token

	require.NoError(t, sess.Logout())

	assert.False(t, sess.IsAuthenticated())
	assert.Equal(t, visitorData{}, sess.Data, "logout clears session data")
	assert.NotEqual(t, authToken, sess.Token)
}

func TestSession_Touch(t *testing.T) {
	t.Parallel()

	sess, err := session.New[visitorData](time.Hour)
	require.NoError(t, err)
	before := sess.ExpiresAt

	// Inside the touch interval nothing changes.
	sess.Touch(time.Hour, time.Minute)
	assert.Equal(t, before, sess.ExpiresAt)

	// Past the interval the expiry extends.
	sess.UpdatedAt = time.Now().Add(-2 * time.Minute)
	sess.Touch(time.Hour, time.Minute)
	assert.True(t, sess.ExpiresAt.After(before))
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := session.NewMemoryStore[visitorData]()

	sess, err := session.New[visitorData](time.Hour)
	require.NoError(t, err)
	sess.SetData(visitorData{Username: "clifton"})
	require.NoError(t, store.Save(ctx, &sess))

	got, err := store.GetByToken(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
	assert.Equal(t, "clifton", got.Data.Username)
	assert.False(t, got.IsModified(), "loaded sessions start clean")

	_, err = store.GetByToken(ctx, "no-such-token")
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestMemoryStore_RotationDropsOldToken(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := session.NewMemoryStore[visitorData]()

	sess, err := session.New[visitorData](time.Hour)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, &sess))
	oldToken := sess.Token

	require.NoError(t, sess.Authenticate(uuid.New()))
	require.NoError(t, store.Save(ctx, &sess))

	_, err = store.GetByToken(ctx, oldToken)
	assert.ErrorIs(t, err, session.ErrNotFound, "pre-login token must be dead")

	got, err := store.GetByToken(ctx, sess.Token)
	require.NoError(t, err)
	assert.True(t, got.IsAuthenticated())
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStore_DeleteExpired(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := session.NewMemoryStore[visitorData]()

	live, err := session.New[visitorData](time.Hour)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, &live))

	dead, err := session.New[visitorData](time.Hour)
	require.NoError(t, err)
	dead.ExpiresAt = time.Now().Add(-time.Minute)
	require.NoError(t, store.Save(ctx, &dead))

	n, err := store.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Equal(t, 1, store.Len())
}

func TestManager_Load(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := session.NewMemoryStore[visitorData]()
	mgr := session.NewManager(store, time.Hour, time.Minute)

	t.Run("empty token creates anonymous session", func(t *testing.T) {
		t.Parallel()
		sess, err := mgr.Load(ctx, "")
		require.NoError(t, err)
		assert.False(t, sess.IsAuthenticated())
	})

	t.Run("known token resolves", func(t *testing.T) {
		t.Parallel()
		sess, err := session.New[visitorData](time.Hour)
		require.NoError(t, err)
		require.NoError(t, store.Save(ctx, &sess))

		got, err := mgr.Load(ctx, sess.Token)
		require.NoError(t, err)
		assert.Equal(t, sess.ID, got.ID)
	})

	t.Run("expired session is replaced", func(t *testing.T) {
		t.Parallel()
		sess, err := session.New[visitorData](time.Hour)
		require.NoError(t, err)
		sess.ExpiresAt = time.Now().Add(-time.Minute)
		require.NoError(t, store.Save(ctx, &sess))

		got, err := mgr.Load(ctx, sess.Token)
		require.NoError(t, err)
		assert.NotEqual(t, sess.ID, got.ID)
	})
}

func TestManager_Commit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := session.NewMemoryStore[visitorData]()
	mgr := session.NewManager(store, time.Hour, time.Minute)

	t.Run("modified session is saved", func(t *testing.T) {
		t.Parallel()
		sess, err := mgr.Load(ctx, "")
		require.NoError(t, err)
		require.NoError(t, mgr.Commit(ctx, &sess))

		_, err = store.GetByToken(ctx, sess.Token)
		assert.NoError(t, err)
	})

	t.Run("destroyed session returns ErrDeleted", func(t *testing.T) {
		t.Parallel()
		sess, err := mgr.Load(ctx, "")
		require.NoError(t, err)
		require.NoError(t, mgr.Commit(ctx, &sess))

		sess.Destroy()
		assert.ErrorIs(t, mgr.Commit(ctx, &sess), session.ErrDeleted)

		_, err = store.GetByToken(ctx, sess.Token)
		assert.ErrorIs(t, err, session.ErrNotFound)
	})
}
