package hashing

import (
	"bytes"
	"context"
	"crypto/sha512"
	"errors"
	"io"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dserrors "github.com/mrz1836/docsign/internal/errors"
)

var errDiskGone = errors.New("disk gone")

func TestDigest_Deterministic(t *testing.T) {
	content := []byte("invoice #42: total 100.00 EUR")

	first := Digest(content)
	second := Digest(append([]byte(nil), content...))

	assert.Equal(t, first, second)
	assert.Equal(t, sha512.Sum512(content), [64]byte(first))
}

func TestDigest_SingleByteChangeChangesDigest(t *testing.T) {
	original := bytes.Repeat([]byte{0x41}, 4096)
	modified := append([]byte(nil), original...)
	modified[2048] ^= 0x01

	assert.NotEqual(t, Digest(original), Digest(modified))
}

func TestDigest_EmptyContent(t *testing.T) {
	assert.Equal(t, sha512.Sum512(nil), [64]byte(Digest(nil)))
	assert.Equal(t, Digest(nil), Digest([]byte{}))
}

func TestDigestReader_MatchesBufferedDigest(t *testing.T) {
	content := bytes.Repeat([]byte("0123456789abcdef"), 10_000)
	want := Digest(content)

	readers := map[string]io.Reader{
		"plain":      bytes.NewReader(content),
		"one byte":   iotest.OneByteReader(bytes.NewReader(content)),
		"half reads": iotest.HalfReader(bytes.NewReader(content)),
		"data + EOF": iotest.DataErrReader(bytes.NewReader(content)),
	}

	for name, r := range readers {
		t.Run(name, func(t *testing.T) {
			got, err := DigestReader(context.Background(), r)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestDigestReader_ReadFailureIsContentUnavailable(t *testing.T) {
	r := io.MultiReader(bytes.NewReader([]byte("partial")), iotest.ErrReader(errDiskGone))

	_, err := DigestReader(context.Background(), r)
	require.ErrorIs(t, err, dserrors.ErrContentUnavailable)
	require.ErrorIs(t, err, errDiskGone)
}

func TestDigestReader_NilReader(t *testing.T) {
	_, err := DigestReader(context.Background(), nil)
	require.ErrorIs(t, err, dserrors.ErrContentUnavailable)
}

func TestDigestReader_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := DigestReader(ctx, bytes.NewReader([]byte("data")))
	require.ErrorIs(t, err, context.Canceled)
}
