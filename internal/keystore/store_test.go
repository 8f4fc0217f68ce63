package keystore_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/mrz1836/docsign/internal/crypto"
	"github.com/mrz1836/docsign/internal/domain"
	dserrors "github.com/mrz1836/docsign/internal/errors"
	"github.com/mrz1836/docsign/internal/hashing"
	"github.com/mrz1836/docsign/internal/keystore"
	"github.com/mrz1836/docsign/internal/securestore"
)

//nolint:gochecknoglobals // Fixed test timestamp
var testTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fastSealer(passphrase string) *securestore.Sealer {
	return securestore.NewSealer(passphrase).WithParams(securestore.Params{Time: 1, MemoryKB: 1024, Threads: 1})
}

func newRedisStore(t *testing.T, opts ...keystore.Option) (*keystore.RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := keystore.NewRedisStore(client, "docsign:", opts...)
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func backends(t *testing.T) map[string]keystore.Store {
	t.Helper()
	redisStore, _ := newRedisStore(t)
	return map[string]keystore.Store{
		"memory":      keystore.NewMemoryStore(),
		"file":        keystore.NewFileStore(t.TempDir()),
		"file-sealed": keystore.NewFileStore(t.TempDir(), keystore.WithSealer(fastSealer("pw"))),
		"redis":       redisStore,
	}
}

func generate(t *testing.T, algorithm string) *keystore.Keypair {
	t.Helper()
	kp, err := keystore.GenerateKeypair(algorithm, testTime)
	require.NoError(t, err)
	return kp
}

func TestStore_Contract(t *testing.T) {
	ctx := context.Background()
	digest := hashing.Digest([]byte("invoice.pdf bytes"))

	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			alice := domain.Identity("alice")

			_, err := store.Get(ctx, alice)
			require.ErrorIs(t, err, dserrors.ErrKeyNotFound)

			_, err = store.SignWith(ctx, alice, digest)
			require.ErrorIs(t, err, dserrors.ErrKeyNotFound)

			first := generate(t, crypto.DefaultAlgorithm)
			entry, created, err := store.PutIfAbsent(ctx, alice, first)
			require.NoError(t, err)
			assert.True(t, created)
			assert.Equal(t, first.PublicKey, entry.PublicKey)
			assert.Equal(t, crypto.DefaultAlgorithm, entry.Algorithm)

			second := generate(t, crypto.DefaultAlgorithm)
			entry, created, err = store.PutIfAbsent(ctx, alice, second)
			require.NoError(t, err)
			assert.False(t, created)
			assert.Equal(t, first.PublicKey, entry.PublicKey, "existing keypair must win")

			got, err := store.Get(ctx, alice)
			require.NoError(t, err)
			assert.Equal(t, first.PublicKey, got.PublicKey)
			assert.True(t, testTime.Equal(got.CreatedAt))

			sig, err := store.SignWith(ctx, alice, digest)
			require.NoError(t, err)
			ok, err := crypto.Verify(got.PublicKey, digest, sig)
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}

func TestStore_ConcurrentPutIfAbsentConverges(t *testing.T) {
	ctx := context.Background()

	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			const writers = 8
			var (
				mu      sync.Mutex
				keys    = map[string]int{}
				created int
			)

			g, gctx := errgroup.WithContext(ctx)
			for range writers {
				g.Go(func() error {
					kp, err := keystore.GenerateKeypair(crypto.DefaultAlgorithm, testTime)
					if err != nil {
						return err
					}
					entry, won, err := store.PutIfAbsent(gctx, "bob", kp)
					if err != nil {
						return err
					}
					mu.Lock()
					defer mu.Unlock()
					keys[string(entry.PublicKey)]++
					if won {
						created++
					}
					return nil
				})
			}
			require.NoError(t, g.Wait())

			assert.Len(t, keys, 1, "all writers must observe one keypair")
			assert.Equal(t, 1, created)
		})
	}
}

func TestStore_RSAKeypair(t *testing.T) {
	ctx := context.Background()
	store := keystore.NewFileStore(t.TempDir())
	kp := generate(t, "rsa")

	_, _, err := store.PutIfAbsent(ctx, "carol", kp)
	require.NoError(t, err)

	digest := hashing.Digest([]byte("contract"))
	sig, err := store.SignWith(ctx, "carol", digest)
	require.NoError(t, err)

	ok, err := crypto.Verify(kp.PublicKey, digest, sig)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Get(ctx, "alice")
			require.Error(t, err)
			assert.NotErrorIs(t, err, dserrors.ErrKeyNotFound)
		})
	}
}

func TestGenerateKeypair_UnknownAlgorithm(t *testing.T) {
	_, err := keystore.GenerateKeypair("dsa", testTime)
	require.ErrorIs(t, err, dserrors.ErrUnsupportedAlgorithm)
}
