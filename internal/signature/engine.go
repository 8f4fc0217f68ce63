// Package signature signs digests through the key store and verifies
// signatures against public keys.
package signature

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrz1836/docsign/internal/crypto"
	"github.com/mrz1836/docsign/internal/domain"
	dserrors "github.com/mrz1836/docsign/internal/errors"
	"github.com/mrz1836/docsign/internal/keystore"
)

// Engine produces and checks signatures. It never provisions keys.
type Engine struct {
	store keystore.Store
}

// NewEngine returns an Engine that signs with keys held by store.
func NewEngine(store keystore.Store) *Engine {
	return &Engine{store: store}
}

// Sign signs digest with the identity's private key. An identity without a
// keypair returns ErrKeyNotProvisioned; the caller must provision first.
func (e *Engine) Sign(ctx context.Context, digest domain.Digest, identity domain.Identity) (domain.Signature, error) {
	if err := identity.Validate(); err != nil {
		return nil, err
	}
	sig, err := e.store.SignWith(ctx, identity, digest)
	switch {
	case err == nil:
		return sig, nil
	case errors.Is(err, dserrors.ErrKeyNotFound):
		return nil, fmt.Errorf("%w: %s", dserrors.ErrKeyNotProvisioned, identity)
	default:
		return nil, fmt.Errorf("signing for %s: %w", identity, err)
	}
}

// Verify reports whether signature was produced over digest by the private
// half of publicKey. A mismatch is (false, nil). Undecodable keys return
// ErrInvalidKeyFormat and wrongly shaped signatures ErrInvalidSignatureFormat.
func (e *Engine) Verify(digest domain.Digest, signature domain.Signature, publicKey domain.PublicKey) (bool, error) {
	return crypto.Verify(publicKey, digest, signature)
}
