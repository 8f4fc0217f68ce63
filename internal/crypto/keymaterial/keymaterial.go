// Package keymaterial serializes generated keypairs into the DER forms
// shared by every signature scheme.
package keymaterial

import (
	"crypto/x509"
	"fmt"
)

// Pair is a keypair in its serialized form.
type Pair struct {
	// PrivateKey is the PKCS#8 DER private key. It must stay inside the key store.
	PrivateKey []byte
	// PublicKey is the PKIX DER public key.
	PublicKey []byte
}

// Marshal encodes priv as PKCS#8 and pub as PKIX.
func Marshal(priv, pub any) (*Pair, error) {
	privDER, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, fmt.Errorf("encoding private key: %w", err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("encoding public key: %w", err)
	}
	return &Pair{PrivateKey: privDER, PublicKey: pubDER}, nil
}
