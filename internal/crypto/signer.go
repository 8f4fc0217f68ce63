// Package crypto provides the signature schemes docsign can sign and verify with.
//
// Every scheme signs the 64-byte SHA-512 digest of a document. Private keys are
// exchanged as PKCS#8 DER and public keys as PKIX DER, so verification needs
// only the public key bytes: the scheme is recovered from the key type.
package crypto

import "github.com/mrz1836/docsign/internal/crypto/keymaterial"

// KeyMaterial is a freshly generated keypair in its serialized form.
type KeyMaterial = keymaterial.Pair

// Algorithm is a signature scheme over SHA-512 digests.
// Implementations must be stateless and safe for concurrent use.
type Algorithm interface {
	// Name is the configuration name of the scheme (e.g. "ed25519").
	Name() string

	// GenerateKey creates a new keypair.
	GenerateKey() (*KeyMaterial, error)

	// Sign signs digest with a PKCS#8 DER private key of this scheme.
	// A key of another type returns ErrInvalidKeyFormat.
	Sign(privateKey, digest []byte) ([]byte, error)

	// Owns reports whether a parsed public key belongs to this scheme.
	Owns(publicKey any) bool

	// Verify checks signature over digest with a parsed public key.
	// A mismatch is (false, nil); only malformed input returns an error.
	Verify(publicKey any, digest, signature []byte) (bool, error)
}
