// Package rsasig implements RSA PKCS#1 v1.5 signatures over SHA-512 digests.
//
// The digest is signed as a pre-hashed SHA-512 value, which yields the same
// signature bytes as a "SHA512withRSA" signer fed the raw document.
package rsasig

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha512"
	"crypto/x509"
	"errors"
	"fmt"

	"github.com/mrz1836/docsign/internal/crypto/keymaterial"
	dserrors "github.com/mrz1836/docsign/internal/errors"
)

const (
	// Name is the configuration name of the RSA scheme.
	Name = "rsa"

	// DefaultBits is the modulus size of generated keys.
	DefaultBits = 2048

	minBits = 2048
)

// Algorithm signs SHA-512 digests with RSA PKCS#1 v1.5.
type Algorithm struct {
	bits int
}

// New returns an RSA algorithm generating keys of the given size.
// Sizes below 2048 bits are raised to 2048.
func New(bits int) Algorithm {
	if bits < minBits {
		bits = minBits
	}
	return Algorithm{bits: bits}
}

// Name implements crypto.Algorithm.
func (Algorithm) Name() string {
	return Name
}

// GenerateKey creates a new RSA keypair.
func (a Algorithm) GenerateKey() (*keymaterial.Pair, error) {
	priv, err := rsa.GenerateKey(rand.Reader, a.bits)
	if err != nil {
		return nil, fmt.Errorf("generating rsa key: %w", err)
	}
	return keymaterial.Marshal(priv, &priv.PublicKey)
}

// Sign signs digest with a PKCS#8 RSA private key.
func (Algorithm) Sign(privateKey, digest []byte) ([]byte, error) {
	if len(digest) != sha512.Size {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", dserrors.ErrInvalidDigest, sha512.Size, len(digest))
	}
	key, err := x509.ParsePKCS8PrivateKey(privateKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", dserrors.ErrInvalidKeyFormat, err)
	}
	priv, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: expected rsa private key, got %T", dserrors.ErrInvalidKeyFormat, key)
	}
	if err := checkModulus(&priv.PublicKey); err != nil {
		return nil, err
	}
	return rsa.SignPKCS1v15(rand.Reader, priv, crypto.SHA512, digest)
}

// Owns reports whether publicKey is an RSA key.
func (Algorithm) Owns(publicKey any) bool {
	_, ok := publicKey.(*rsa.PublicKey)
	return ok
}

// Verify checks an RSA signature. A signature whose length differs from the
// modulus size is malformed; any other verification failure is a mismatch.
func (Algorithm) Verify(publicKey any, digest, signature []byte) (bool, error) {
	pub, ok := publicKey.(*rsa.PublicKey)
	if !ok {
		return false, fmt.Errorf("%w: expected rsa public key, got %T", dserrors.ErrInvalidKeyFormat, publicKey)
	}
	if err := checkModulus(pub); err != nil {
		return false, err
	}
	if len(signature) != pub.Size() {
		return false, fmt.Errorf("%w: rsa signature must be %d bytes, got %d",
			dserrors.ErrInvalidSignatureFormat, pub.Size(), len(signature))
	}
	if len(digest) != sha512.Size {
		return false, nil
	}
	err := rsa.VerifyPKCS1v15(pub, crypto.SHA512, digest, signature)
	if errors.Is(err, rsa.ErrVerification) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: %w", dserrors.ErrInvalidSignatureFormat, err)
	}
	return true, nil
}

// checkModulus rejects keys below minBits.
func checkModulus(pub *rsa.PublicKey) error {
	if pub.N == nil || pub.N.BitLen() < minBits {
		bits := 0
		if pub.N != nil {
			bits = pub.N.BitLen()
		}
		return fmt.Errorf("%w: rsa key is %d bits, minimum is %d", dserrors.ErrInvalidKeyFormat, bits, minBits)
	}
	return nil
}
