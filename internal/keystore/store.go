// Package keystore is the boundary that owns private keys.
//
// A Store persists one keypair per identity and signs on the caller's behalf,
// so private key bytes are decoded only inside this package. Every backend
// keeps two properties:
//
//   - Absence is reported as ErrKeyNotFound and nothing else. Any failure to
//     reach or decode the backing storage is ErrKeyStoreUnavailable, so a
//     broken store can never be mistaken for a missing key.
//   - PutIfAbsent is a compare-and-set: when two writers race, exactly one
//     keypair is stored and both are handed that keypair back.
package keystore

import (
	"context"
	"time"

	"github.com/mrz1836/docsign/internal/crypto"
	"github.com/mrz1836/docsign/internal/domain"
	"github.com/mrz1836/docsign/internal/securestore"
)

// Keypair is a generated keypair on its way into a store.
type Keypair struct {
	Algorithm  string
	PrivateKey []byte
	PublicKey  domain.PublicKey
	CreatedAt  time.Time
}

// Entry is the public view of a stored keypair.
type Entry struct {
	Identity  domain.Identity  `json:"identity"`
	Algorithm string           `json:"algorithm"`
	PublicKey domain.PublicKey `json:"public_key"`
	CreatedAt time.Time        `json:"created_at"`
}

// Store persists keypairs keyed by identity.
type Store interface {
	// Get returns the stored public entry or ErrKeyNotFound.
	Get(ctx context.Context, identity domain.Identity) (*Entry, error)

	// PutIfAbsent stores kp unless a keypair already exists for identity.
	// It returns the entry that is stored after the call and whether kp won.
	PutIfAbsent(ctx context.Context, identity domain.Identity, kp *Keypair) (*Entry, bool, error)

	// SignWith signs digest with the identity's private key.
	// A missing keypair returns ErrKeyNotFound.
	SignWith(ctx context.Context, identity domain.Identity, digest domain.Digest) (domain.Signature, error)

	// Close releases backend resources.
	Close() error
}

// Option configures the persistent backends.
type Option func(*options)

type options struct {
	sealer      *securestore.Sealer
	lockTimeout time.Duration
}

// WithSealer encrypts private keys at rest. Records sealed by a previous
// run can only be opened with the same passphrase.
func WithSealer(s *securestore.Sealer) Option {
	return func(o *options) {
		o.sealer = s
	}
}

// WithLockTimeout bounds how long the file backend waits for its create lock.
func WithLockTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.lockTimeout = d
		}
	}
}

// GenerateKeypair creates a keypair with the named algorithm.
func GenerateKeypair(algorithm string, now time.Time) (*Keypair, error) {
	alg, err := crypto.Lookup(algorithm)
	if err != nil {
		return nil, err
	}
	material, err := alg.GenerateKey()
	if err != nil {
		return nil, err
	}
	return &Keypair{
		Algorithm:  alg.Name(),
		PrivateKey: material.PrivateKey,
		PublicKey:  material.PublicKey,
		CreatedAt:  now.UTC(),
	}, nil
}
