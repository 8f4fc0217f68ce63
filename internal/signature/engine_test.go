package signature_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/docsign/internal/domain"
	dserrors "github.com/mrz1836/docsign/internal/errors"
	"github.com/mrz1836/docsign/internal/hashing"
	"github.com/mrz1836/docsign/internal/keys"
	"github.com/mrz1836/docsign/internal/keystore"
	"github.com/mrz1836/docsign/internal/signature"
)

func provisioned(t *testing.T, store keystore.Store, identity domain.Identity) domain.PublicKey {
	t.Helper()
	m, err := keys.NewManager(store)
	require.NoError(t, err)
	pub, err := m.GetOrCreate(context.Background(), identity)
	require.NoError(t, err)
	return pub
}

func TestEngine_SignVerifyRoundtrip(t *testing.T) {
	ctx := context.Background()
	store := keystore.NewMemoryStore()
	pub := provisioned(t, store, "alice")
	engine := signature.NewEngine(store)

	digest := hashing.Digest([]byte("invoice"))
	sig, err := engine.Sign(ctx, digest, "alice")
	require.NoError(t, err)

	ok, err := engine.Verify(digest, sig, pub)
	require.NoError(t, err)
	assert.True(t, ok)

	t.Run("one changed byte is a mismatch", func(t *testing.T) {
		ok, err := engine.Verify(hashing.Digest([]byte("invoicf")), sig, pub)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("another identity's key is a mismatch", func(t *testing.T) {
		bob := provisioned(t, store, "bob")
		ok, err := engine.Verify(digest, sig, bob)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("malformed key is an error not a mismatch", func(t *testing.T) {
		_, err := engine.Verify(digest, sig, domain.PublicKey{0x30, 0x01})
		require.ErrorIs(t, err, dserrors.ErrInvalidKeyFormat)
	})

	t.Run("malformed signature is an error not a mismatch", func(t *testing.T) {
		_, err := engine.Verify(digest, sig[:5], pub)
		require.ErrorIs(t, err, dserrors.ErrInvalidSignatureFormat)
	})
}

func TestEngine_SignUnprovisioned(t *testing.T) {
	store := keystore.NewMemoryStore()
	engine := signature.NewEngine(store)

	_, err := engine.Sign(context.Background(), hashing.Digest(nil), "nobody")
	require.ErrorIs(t, err, dserrors.ErrKeyNotProvisioned)

	_, err = store.Get(context.Background(), "nobody")
	require.ErrorIs(t, err, dserrors.ErrKeyNotFound, "sign must not provision")
}

func TestEngine_SignStoreUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	store := keystore.NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "t:")
	t.Cleanup(func() { _ = store.Close() })
	mr.Close()

	_, err := signature.NewEngine(store).Sign(context.Background(), hashing.Digest(nil), "alice")
	require.ErrorIs(t, err, dserrors.ErrKeyStoreUnavailable)
	assert.NotErrorIs(t, err, dserrors.ErrKeyNotProvisioned)
}

func TestEngine_SignEmptyIdentity(t *testing.T) {
	_, err := signature.NewEngine(keystore.NewMemoryStore()).Sign(context.Background(), hashing.Digest(nil), "")
	require.ErrorIs(t, err, dserrors.ErrEmptyIdentity)
}
