package securestore

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dserrors "github.com/mrz1836/docsign/internal/errors"
)

func fastSealer(passphrase string) *Sealer {
	return NewSealer(passphrase).WithParams(Params{Time: 1, MemoryKB: 1024, Threads: 1})
}

func TestSealer_Roundtrip(t *testing.T) {
	s := fastSealer("correct horse")

	sealed, err := s.Seal([]byte("private key bytes"))
	require.NoError(t, err)
	assert.True(t, IsSealed(sealed))
	assert.NotContains(t, string(sealed), "private key bytes")

	plain, err := s.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "private key bytes", string(plain))
}

func TestSealer_SealIsRandomized(t *testing.T) {
	s := fastSealer("pass")
	a, err := s.Seal([]byte("same"))
	require.NoError(t, err)
	b, err := s.Seal([]byte("same"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestSealer_WrongPassphrase(t *testing.T) {
	sealed, err := fastSealer("pass").Seal([]byte("secret"))
	require.NoError(t, err)

	_, err = fastSealer("other").Open(sealed)
	require.ErrorIs(t, err, dserrors.ErrKeyDecryptFailed)
}

func TestSealer_TamperedCiphertext(t *testing.T) {
	s := fastSealer("pass")
	sealed, err := s.Seal([]byte("secret"))
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(sealed[len(prefix):], &env))
	env.Ciphertext[0] ^= 0xFF
	raw, err := json.Marshal(env)
	require.NoError(t, err)

	_, err = s.Open(append(append([]byte{}, prefix...), raw...))
	require.ErrorIs(t, err, dserrors.ErrKeyDecryptFailed)
}

func TestSealer_OpenInvalid(t *testing.T) {
	s := fastSealer("pass")

	tests := []struct {
		name string
		data []byte
	}{
		{"plaintext", []byte(`{"version":1}`)},
		{"prefix only garbage", append(append([]byte{}, prefix...), []byte("not json")...)},
		{"unknown kdf", append(append([]byte{}, prefix...), []byte(`{"version":1,"kdf":"scrypt","kdf_threads":1}`)...)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Open(tc.data)
			require.ErrorIs(t, err, ErrInvalid)
		})
	}
}
