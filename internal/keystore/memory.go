package keystore

import (
	"context"
	"sync"

	"github.com/mrz1836/docsign/internal/domain"
	dserrors "github.com/mrz1836/docsign/internal/errors"
)

// MemoryStore keeps keypairs in process memory (keys.backend: memory).
// Keys are lost when the process exits.
type MemoryStore struct {
	mu    sync.RWMutex
	pairs map[domain.Identity]Keypair
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{pairs: make(map[domain.Identity]Keypair)}
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, identity domain.Identity) (*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	kp, ok := s.pairs[identity]
	if !ok {
		return nil, dserrors.ErrKeyNotFound
	}
	return memoryEntry(identity, kp), nil
}

// PutIfAbsent implements Store.
func (s *MemoryStore) PutIfAbsent(ctx context.Context, identity domain.Identity, kp *Keypair) (*Entry, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.pairs[identity]; ok {
		return memoryEntry(identity, existing), false, nil
	}
	stored := *kp
	stored.PrivateKey = append([]byte(nil), kp.PrivateKey...)
	stored.PublicKey = append(domain.PublicKey(nil), kp.PublicKey...)
	s.pairs[identity] = stored
	return memoryEntry(identity, stored), true, nil
}

// SignWith implements Store.
func (s *MemoryStore) SignWith(ctx context.Context, identity domain.Identity, digest domain.Digest) (domain.Signature, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	kp, ok := s.pairs[identity]
	s.mu.RUnlock()
	if !ok {
		return nil, dserrors.ErrKeyNotFound
	}
	return sign(kp.Algorithm, kp.PrivateKey, digest)
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	return nil
}

func memoryEntry(identity domain.Identity, kp Keypair) *Entry {
	return &Entry{
		Identity:  identity,
		Algorithm: kp.Algorithm,
		PublicKey: append(domain.PublicKey(nil), kp.PublicKey...),
		CreatedAt: kp.CreatedAt,
	}
}
