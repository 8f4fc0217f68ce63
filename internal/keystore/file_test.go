package keystore_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/docsign/internal/constants"
	"github.com/mrz1836/docsign/internal/crypto"
	dserrors "github.com/mrz1836/docsign/internal/errors"
	"github.com/mrz1836/docsign/internal/flock"
	"github.com/mrz1836/docsign/internal/hashing"
	"github.com/mrz1836/docsign/internal/keystore"
)

func keyPath(dir, identity string) string {
	return filepath.Join(dir, base58.Encode([]byte(identity))+constants.KeyFileExtension)
}

func TestFileStore_WritesPrivateFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "keys")
	store := keystore.NewFileStore(dir)

	_, _, err := store.PutIfAbsent(context.Background(), "user/with spaces", generate(t, crypto.DefaultAlgorithm))
	require.NoError(t, err)

	info, err := os.Stat(keyPath(dir, "user/with spaces"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStore_CorruptFileIsUnavailable(t *testing.T) {
	dir := t.TempDir()
	store := keystore.NewFileStore(dir)
	require.NoError(t, os.WriteFile(keyPath(dir, "alice"), []byte("{not json"), 0o600))

	_, err := store.Get(context.Background(), "alice")
	require.ErrorIs(t, err, dserrors.ErrKeyStoreUnavailable)
	assert.NotErrorIs(t, err, dserrors.ErrKeyNotFound)

	_, _, err = store.PutIfAbsent(context.Background(), "alice", generate(t, crypto.DefaultAlgorithm))
	require.ErrorIs(t, err, dserrors.ErrKeyStoreUnavailable, "a corrupt record must never be overwritten")
}

func TestFileStore_SealedRecord(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	kp := generate(t, crypto.DefaultAlgorithm)

	sealed := keystore.NewFileStore(dir, keystore.WithSealer(fastSealer("right")))
	_, _, err := sealed.PutIfAbsent(ctx, "alice", kp)
	require.NoError(t, err)

	raw, err := os.ReadFile(keyPath(dir, "alice"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), string(kp.PrivateKey))

	digest := hashing.Digest([]byte("doc"))

	t.Run("wrong passphrase", func(t *testing.T) {
		_, err := keystore.NewFileStore(dir, keystore.WithSealer(fastSealer("wrong"))).SignWith(ctx, "alice", digest)
		require.ErrorIs(t, err, dserrors.ErrKeyDecryptFailed)
	})

	t.Run("no passphrase", func(t *testing.T) {
		_, err := keystore.NewFileStore(dir).SignWith(ctx, "alice", digest)
		require.ErrorIs(t, err, dserrors.ErrKeyDecryptFailed)
	})

	t.Run("public key readable without passphrase", func(t *testing.T) {
		entry, err := keystore.NewFileStore(dir).Get(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, kp.PublicKey, entry.PublicKey)
	})
}

func TestFileStore_LockHeldTimesOut(t *testing.T) {
	dir := t.TempDir()
	store := keystore.NewFileStore(dir, keystore.WithLockTimeout(100*time.Millisecond))

	held := flock.New(keyPath(dir, "alice") + constants.LockFileExtension)
	require.NoError(t, held.Acquire(context.Background(), time.Second))
	defer func() { _ = held.Release() }()

	_, _, err := store.PutIfAbsent(context.Background(), "alice", generate(t, crypto.DefaultAlgorithm))
	require.ErrorIs(t, err, dserrors.ErrKeyStoreUnavailable)
	require.ErrorIs(t, err, dserrors.ErrLockTimedOut)
}

func TestFileStore_EmptyIdentity(t *testing.T) {
	_, _, err := keystore.NewFileStore(t.TempDir()).PutIfAbsent(context.Background(), " ", generate(t, crypto.DefaultAlgorithm))
	require.ErrorIs(t, err, dserrors.ErrEmptyIdentity)
}
