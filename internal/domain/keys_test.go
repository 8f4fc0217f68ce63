package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dserrors "github.com/mrz1836/docsign/internal/errors"
)

func TestIdentity_Validate(t *testing.T) {
	require.NoError(t, Identity("alice").Validate())
	require.ErrorIs(t, Identity("").Validate(), dserrors.ErrEmptyIdentity)
	require.ErrorIs(t, Identity("   ").Validate(), dserrors.ErrEmptyIdentity)
}

func TestDigestFromBytes(t *testing.T) {
	raw := make([]byte, DigestSize)
	raw[0] = 0xab

	d, err := DigestFromBytes(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, d.Bytes())
	assert.Equal(t, "ab", d.Hex()[:2])
	assert.Len(t, d.Hex(), DigestSize*2)

	_, err = DigestFromBytes(raw[:32])
	require.ErrorIs(t, err, dserrors.ErrInvalidDigest)
}

func TestPublicKey_Fingerprint(t *testing.T) {
	assert.Empty(t, PublicKey(nil).Fingerprint())

	fp := PublicKey{1, 2, 3}.Fingerprint()
	assert.Len(t, fp, 16)
	assert.Equal(t, fp, PublicKey{1, 2, 3}.Fingerprint())
	assert.NotEqual(t, fp, PublicKey{1, 2, 4}.Fingerprint())
}

func TestDocumentRecord_Validate(t *testing.T) {
	valid := &DocumentRecord{Ref: "r1", Name: "invoice.pdf", Identity: "alice"}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name string
		rec  *DocumentRecord
	}{
		{"nil", nil},
		{"empty ref", &DocumentRecord{Name: "a", Identity: "alice"}},
		{"empty name", &DocumentRecord{Ref: "r", Identity: "alice"}},
		{"empty identity", &DocumentRecord{Ref: "r", Name: "a"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, tc.rec.Validate(), dserrors.ErrInvalidDocument)
		})
	}
}

func TestOutcome_String(t *testing.T) {
	var d Digest
	assert.Equal(t, "valid", Valid(d).String())
	assert.Equal(t, "tampered", Tampered(d).String())
	assert.Equal(t, "unsigned", Unsigned().String())

	m := Malformed(dserrors.ErrInvalidKeyFormat)
	assert.Equal(t, OutcomeMalformed, m.Status)
	assert.Equal(t, "malformed (invalid key format)", m.String())
	assert.ErrorIs(t, m.Err, dserrors.ErrInvalidKeyFormat)
}
