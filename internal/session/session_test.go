package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/campusmart/internal/store"
)

func openTestSession(t *testing.T, policy store.CorruptPolicy) (*Store, *store.Store) {
	t.Helper()
	s, err := store.Open(store.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return New(s, policy, nil), s
}

func TestCurrent_LoggedOutByDefault(t *testing.T) {
	sess, _ := openTestSession(t, store.CorruptFail)

	u, err := sess.Current(context.Background())
	require.NoError(t, err)
	assert.Nil(t, u)

	_, err = sess.Require(context.Background())
	require.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestLogin_AssignsAdmin(t *testing.T) {
	sess, s := openTestSession(t, store.CorruptFail)
	ctx := context.Background()

	u, err := sess.Login(ctx, "  jordan ")
	require.NoError(t, err)
	assert.Equal(t, User{Username: "jordan", Role: RoleAdmin}, u)

	cur, err := sess.Current(ctx)
	require.NoError(t, err)
	require.NotNil(t, cur)
	assert.Equal(t, u, *cur)

	b, err := s.Get(ctx, BlobKey)
	require.NoError(t, err)
	assert.JSONEq(t, `{"username":"jordan","role":"admin"}`, string(b.Value))
}

func TestLogin_RejectsEmptyUsername(t *testing.T) {
	sess, _ := openTestSession(t, store.CorruptFail)
	_, err := sess.Login(context.Background(), "   ")
	require.ErrorIs(t, err, ErrEmptyUsername)
}

func TestLogin_ReplacesUser(t *testing.T) {
	sess, _ := openTestSession(t, store.CorruptFail)
	ctx := context.Background()

	_, err := sess.Login(ctx, "first")
	require.NoError(t, err)
	_, err = sess.Login(ctx, "second")
	require.NoError(t, err)

	u, err := sess.Require(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", u.Username)
}

func TestLogout(t *testing.T) {
	sess, s := openTestSession(t, store.CorruptFail)
	ctx := context.Background()

	_, err := sess.Login(ctx, "jordan")
	require.NoError(t, err)
	require.NoError(t, sess.Logout(ctx))

	u, err := sess.Current(ctx)
	require.NoError(t, err)
	assert.Nil(t, u)

	_, err = s.Get(ctx, BlobKey)
	require.ErrorIs(t, err, store.ErrNotFound)

	// Idempotent.
	require.NoError(t, sess.Logout(ctx))
}

func TestCurrent_CorruptBlob(t *testing.T) {
	ctx := context.Background()

	t.Run("fail", func(t *testing.T) {
		sess, s := openTestSession(t, store.CorruptFail)
		require.NoError(t, s.Commit(ctx, store.Put(BlobKey, []byte("[1,2"), store.AnyVersion)))
		_, err := sess.Current(ctx)
		require.ErrorIs(t, err, store.ErrCorrupt)
	})

	t.Run("reseed logs out", func(t *testing.T) {
		sess, s := openTestSession(t, store.CorruptReseed)
		require.NoError(t, s.Commit(ctx, store.Put(BlobKey, []byte("[1,2"), store.AnyVersion)))
		u, err := sess.Current(ctx)
		require.NoError(t, err)
		assert.Nil(t, u)

		_, err = s.Get(ctx, BlobKey)
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()

	_, ok := FromContext(ctx)
	assert.False(t, ok)
	_, err := Require(ctx)
	require.ErrorIs(t, err, ErrNotLoggedIn)

	ctx = WithUser(ctx, User{Username: "jordan", Role: RoleAdmin})
	u, err := Require(ctx)
	require.NoError(t, err)
	assert.Equal(t, "jordan", u.Username)
}
