package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dserrors "github.com/mrz1836/docsign/internal/errors"
)

func TestBundle_MetadataRoundTrip(t *testing.T) {
	b := &Bundle{
		PublicKey: PublicKey{0x30, 0x2a, 0x30, 0x05},
		Signature: Signature{0x01, 0x02, 0x03},
		Timestamp: time.Date(2024, 5, 6, 7, 8, 9, 123456789, time.UTC),
	}

	md := b.Metadata()
	assert.Equal(t, "MCowBQ==", md.PublicKey)
	assert.Equal(t, "AQID", md.Signature)
	assert.Equal(t, "2024-05-06T07:08:09.123456789Z", md.DateCreated)

	parsed, err := ParseMetadata(md)
	require.NoError(t, err)
	assert.Equal(t, b.PublicKey, parsed.PublicKey)
	assert.Equal(t, b.Signature, parsed.Signature)
	assert.True(t, b.Timestamp.Equal(parsed.Timestamp))
}

func TestParseMetadata(t *testing.T) {
	t.Run("empty metadata means unsigned", func(t *testing.T) {
		b, err := ParseMetadata(Metadata{})
		require.NoError(t, err)
		assert.Nil(t, b)

		b, err = ParseMetadata(Metadata{PublicKey: "  ", Signature: "", DateCreated: "\t"})
		require.NoError(t, err)
		assert.Nil(t, b)
	})

	tests := []struct {
		name     string
		md       Metadata
		contains string
	}{
		{
			name:     "missing signature",
			md:       Metadata{PublicKey: "AQID", DateCreated: "2024-01-01T00:00:00Z"},
			contains: "missing signature",
		},
		{
			name:     "missing key and date",
			md:       Metadata{Signature: "AQID"},
			contains: "missing publicKey, dateCreated",
		},
		{
			name:     "public key not base64",
			md:       Metadata{PublicKey: "!!", Signature: "AQID", DateCreated: "2024-01-01T00:00:00Z"},
			contains: "publicKey is not base64",
		},
		{
			name:     "signature not base64",
			md:       Metadata{PublicKey: "AQID", Signature: "%%%", DateCreated: "2024-01-01T00:00:00Z"},
			contains: "signature is not base64",
		},
		{
			name:     "date not ISO-8601",
			md:       Metadata{PublicKey: "AQID", Signature: "AQID", DateCreated: "5/6/2024, 7:08:09 AM"},
			contains: "dateCreated is not ISO-8601",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b, err := ParseMetadata(tc.md)
			require.ErrorIs(t, err, dserrors.ErrInvalidMetadata)
			assert.Nil(t, b)
			assert.Contains(t, err.Error(), tc.contains)
		})
	}
}

func TestNilBundleMetadataIsEmpty(t *testing.T) {
	var b *Bundle
	assert.True(t, b.Metadata().IsEmpty())

	var r *DocumentRecord
	assert.True(t, r.Metadata().IsEmpty())
	assert.False(t, r.Signed())
}
