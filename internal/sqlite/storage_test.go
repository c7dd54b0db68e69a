package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClientStorage_SetGetOverwrite(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	store := NewClientStorage(db)

	_, ok, err := store.Get(ctx, "user")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.Set(ctx, "user", `{"_id":"u1"}`))
	require.NoError(t, store.Set(ctx, "user", `{"_id":"u2"}`))

	value, ok, err := store.Get(ctx, "user")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `{"_id":"u2"}`, value)
}

func TestClientStorage_DeleteMany(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	store := NewClientStorage(db)

	require.NoError(t, store.Set(ctx, "user", "u"))
	require.NoError(t, store.Set(ctx, "token", "t"))
	require.NoError(t, store.Set(ctx, "other", "o"))

	require.NoError(t, store.Delete(ctx, "user", "token", "missing"))
	require.NoError(t, store.Delete(ctx))

	for _, key := range []string{"user", "token"} {
		_, ok, err := store.Get(ctx, key)
		require.NoError(t, err)
		require.False(t, ok, key)
	}
	_, ok, err := store.Get(ctx, "other")
	require.NoError(t, err)
	require.True(t, ok)
}
