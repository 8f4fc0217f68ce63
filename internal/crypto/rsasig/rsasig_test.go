package rsasig

import (
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/sha512"
	"crypto/x509"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dserrors "github.com/mrz1836/docsign/internal/errors"
)

func TestAlgorithm_SignVerify(t *testing.T) {
	alg := New(DefaultBits)
	digest := sha512.Sum512([]byte("contract.pdf"))

	pair, err := alg.GenerateKey()
	require.NoError(t, err)

	key, err := x509.ParsePKIXPublicKey(pair.PublicKey)
	require.NoError(t, err)
	pub, ok := key.(*rsa.PublicKey)
	require.True(t, ok)
	assert.Equal(t, DefaultBits/8, pub.Size())

	sig, err := alg.Sign(pair.PrivateKey, digest[:])
	require.NoError(t, err)
	assert.Len(t, sig, pub.Size())

	ok, err = alg.Verify(pub, digest[:], sig)
	require.NoError(t, err)
	assert.True(t, ok)

	t.Run("flipped digest bit is a mismatch", func(t *testing.T) {
		tampered := digest
		tampered[0] ^= 0x01
		ok, err := alg.Verify(pub, tampered[:], sig)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("truncated signature is malformed", func(t *testing.T) {
		_, err := alg.Verify(pub, digest[:], sig[1:])
		require.ErrorIs(t, err, dserrors.ErrInvalidSignatureFormat)
	})

	t.Run("ed25519 key is rejected", func(t *testing.T) {
		_, err := alg.Verify(ed25519.PublicKey(make([]byte, 32)), digest[:], sig)
		require.ErrorIs(t, err, dserrors.ErrInvalidKeyFormat)
	})
}

func TestAlgorithm_Sign_Errors(t *testing.T) {
	alg := New(DefaultBits)

	t.Run("short digest", func(t *testing.T) {
		_, err := alg.Sign(nil, []byte("short"))
		require.ErrorIs(t, err, dserrors.ErrInvalidDigest)
	})

	t.Run("garbage key", func(t *testing.T) {
		_, err := alg.Sign([]byte{0x01, 0x02}, make([]byte, sha512.Size))
		require.ErrorIs(t, err, dserrors.ErrInvalidKeyFormat)
	})
}

func TestAlgorithm_Verify_RejectsShortModulus(t *testing.T) {
	alg := New(DefaultBits)
	digest := sha512.Sum512([]byte("contract.pdf"))

	for _, bits := range []int{512, 1024, 2047} {
		n := new(big.Int).Lsh(big.NewInt(1), uint(bits-1))
		n.Add(n, big.NewInt(1))
		pub := &rsa.PublicKey{N: n, E: 65537}

		_, err := alg.Verify(pub, digest[:], make([]byte, pub.Size()))
		require.ErrorIs(t, err, dserrors.ErrInvalidKeyFormat, "bits=%d", bits)
		assert.NotErrorIs(t, err, dserrors.ErrInvalidSignatureFormat)
	}
}

func TestNew_MinimumBits(t *testing.T) {
	assert.Equal(t, minBits, New(512).bits)
	assert.Equal(t, 3072, New(3072).bits)
}
