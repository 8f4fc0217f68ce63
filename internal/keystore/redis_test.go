package keystore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/docsign/internal/crypto"
	dserrors "github.com/mrz1836/docsign/internal/errors"
	"github.com/mrz1836/docsign/internal/hashing"
	"github.com/mrz1836/docsign/internal/keystore"
)

func TestRedisStore_KeyLayout(t *testing.T) {
	store, mr := newRedisStore(t)

	_, _, err := store.PutIfAbsent(context.Background(), "alice", generate(t, crypto.DefaultAlgorithm))
	require.NoError(t, err)
	assert.True(t, mr.Exists("docsign:keys:alice"))
}

func TestRedisStore_UnavailableIsNotAbsence(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)
	mr.Close()

	_, err := store.Get(ctx, "alice")
	require.ErrorIs(t, err, dserrors.ErrKeyStoreUnavailable)
	assert.NotErrorIs(t, err, dserrors.ErrKeyNotFound)
	assert.True(t, dserrors.IsRetryable(err))

	_, _, err = store.PutIfAbsent(ctx, "alice", generate(t, crypto.DefaultAlgorithm))
	require.ErrorIs(t, err, dserrors.ErrKeyStoreUnavailable)

	_, err = store.SignWith(ctx, "alice", hashing.Digest([]byte("x")))
	require.ErrorIs(t, err, dserrors.ErrKeyStoreUnavailable)

	require.ErrorIs(t, store.Ping(ctx), dserrors.ErrKeyStoreUnavailable)
}

func TestRedisStore_CorruptRecord(t *testing.T) {
	store, mr := newRedisStore(t)
	require.NoError(t, mr.Set("docsign:keys:alice", "garbage"))

	_, err := store.Get(context.Background(), "alice")
	require.ErrorIs(t, err, dserrors.ErrKeyStoreUnavailable)
}

func TestDialRedis(t *testing.T) {
	ctx := context.Background()

	t.Run("empty address", func(t *testing.T) {
		_, err := keystore.DialRedis(ctx, keystore.RedisConfig{})
		require.ErrorIs(t, err, dserrors.ErrConfigInvalidRedis)
	})

	t.Run("connects", func(t *testing.T) {
		_, mr := newRedisStore(t)
		store, err := keystore.DialRedis(ctx, keystore.RedisConfig{Addr: mr.Addr(), KeyPrefix: "x:"})
		require.NoError(t, err)
		defer func() { _ = store.Close() }()
		require.NoError(t, store.Ping(ctx))
	})

	t.Run("unreachable", func(t *testing.T) {
		_, mr := newRedisStore(t)
		addr := mr.Addr()
		mr.Close()
		_, err := keystore.DialRedis(ctx, keystore.RedisConfig{Addr: addr})
		require.ErrorIs(t, err, dserrors.ErrKeyStoreUnavailable)
	})
}
