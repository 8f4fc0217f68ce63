// Package domain provides the shared data types for docsign.
//
// The types here are the proof artifacts that flow between the signing core
// and the stores: identities, digests, keys, signatures, the signing bundle,
// and the stored document record. They carry no behavior beyond encoding and
// validation so that every other package can depend on them.
package domain

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	dserrors "github.com/mrz1836/docsign/internal/errors"
)

// DigestSize is the length of a document digest (SHA-512).
const DigestSize = sha512.Size

// Identity is an opaque stable reference to the account that owns a keypair.
type Identity string

// Validate rejects empty or whitespace-only identities.
func (i Identity) Validate() error {
	if strings.TrimSpace(string(i)) == "" {
		return dserrors.ErrEmptyIdentity
	}
	return nil
}

// String implements fmt.Stringer.
func (i Identity) String() string {
	return string(i)
}

// Digest is the SHA-512 fingerprint of document content.
type Digest [DigestSize]byte

// DigestFromBytes copies b into a Digest. It fails with ErrInvalidDigest
// unless b is exactly DigestSize bytes long.
func DigestFromBytes(b []byte) (Digest, error) {
	var d Digest
	if len(b) != DigestSize {
		return d, fmt.Errorf("%w: expected %d bytes, got %d", dserrors.ErrInvalidDigest, DigestSize, len(b))
	}
	copy(d[:], b)
	return d, nil
}

// Bytes returns the digest as a slice.
func (d Digest) Bytes() []byte {
	return d[:]
}

// Hex returns the lowercase hex form of the digest.
func (d Digest) Hex() string {
	return hex.EncodeToString(d[:])
}

// PublicKey is a PKIX (SubjectPublicKeyInfo) DER-encoded public key.
type PublicKey []byte

// Fingerprint returns a short, log-safe identifier for the key:
// the first 8 bytes of its SHA-256, hex encoded.
func (k PublicKey) Fingerprint() string {
	if len(k) == 0 {
		return ""
	}
	sum := sha256.Sum256(k)
	return hex.EncodeToString(sum[:8])
}

// Base64 returns the standard base64 encoding used in bound metadata.
func (k PublicKey) Base64() string {
	return base64.StdEncoding.EncodeToString(k)
}

// Signature is the raw signature bytes produced over a Digest.
type Signature []byte

// Base64 returns the standard base64 encoding used in bound metadata.
func (s Signature) Base64() string {
	return base64.StdEncoding.EncodeToString(s)
}
