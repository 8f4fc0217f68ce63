// Package native provides Ed25519 signing using standard crypto libraries.
package native

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"fmt"

	"github.com/mrz1836/docsign/internal/crypto/keymaterial"
	dserrors "github.com/mrz1836/docsign/internal/errors"
)

// Name is the configuration name of the Ed25519 scheme.
const Name = "ed25519"

// Algorithm signs SHA-512 digests with Ed25519 (the digest is the message).
type Algorithm struct{}

// New returns the Ed25519 algorithm.
func New() Algorithm {
	return Algorithm{}
}

// Name implements crypto.Algorithm.
func (Algorithm) Name() string {
	return Name
}

// GenerateKey creates a new Ed25519 keypair.
func (Algorithm) GenerateKey() (*keymaterial.Pair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generating ed25519 key: %w", err)
	}
	return keymaterial.Marshal(priv, pub)
}

// Sign signs digest with a PKCS#8 Ed25519 private key.
func (Algorithm) Sign(privateKey, digest []byte) ([]byte, error) {
	key, err := x509.ParsePKCS8PrivateKey(privateKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", dserrors.ErrInvalidKeyFormat, err)
	}
	priv, ok := key.(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: expected ed25519 private key, got %T", dserrors.ErrInvalidKeyFormat, key)
	}
	return ed25519.Sign(priv, digest), nil
}

// Owns reports whether publicKey is an Ed25519 key.
func (Algorithm) Owns(publicKey any) bool {
	_, ok := publicKey.(ed25519.PublicKey)
	return ok
}

// Verify checks an Ed25519 signature. Wrong-length signatures are malformed.
func (Algorithm) Verify(publicKey any, digest, signature []byte) (bool, error) {
	pub, ok := publicKey.(ed25519.PublicKey)
	if !ok || len(pub) != ed25519.PublicKeySize {
		return false, fmt.Errorf("%w: expected ed25519 public key, got %T", dserrors.ErrInvalidKeyFormat, publicKey)
	}
	if len(signature) != ed25519.SignatureSize {
		return false, fmt.Errorf("%w: ed25519 signature must be %d bytes, got %d",
			dserrors.ErrInvalidSignatureFormat, ed25519.SignatureSize, len(signature))
	}
	return ed25519.Verify(pub, digest, signature), nil
}
