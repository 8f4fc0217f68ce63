package artifact

import (
	"context"
	"sync"

	"github.com/mrz1836/docsign/internal/domain"
)

type memoryEntry struct {
	row     row
	content []byte
}

// MemoryStore keeps documents in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]memoryEntry
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]memoryEntry)}
}

// Put implements Store.
func (s *MemoryStore) Put(ctx context.Context, rec *domain.DocumentRecord, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := rec.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[rec.Ref]; ok {
		return exists(rec.Ref)
	}
	s.docs[rec.Ref] = memoryEntry{
		row:     newRow(rec, int64(len(content))),
		content: append([]byte(nil), content...),
	}
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, ref string) (*domain.DocumentRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.docs[ref]
	if !ok {
		return nil, notFound(ref)
	}
	return e.row.record(), nil
}

// Content implements Store.
func (s *MemoryStore) Content(ctx context.Context, ref string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.docs[ref]
	if !ok {
		return nil, notFound(ref)
	}
	return append([]byte(nil), e.content...), nil
}

// List implements Store.
func (s *MemoryStore) List(ctx context.Context, identity domain.Identity) ([]*domain.DocumentRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	recs := make([]*domain.DocumentRecord, 0)
	for _, e := range s.docs {
		if e.row.Identity == identity.String() {
			recs = append(recs, e.row.record())
		}
	}
	sortNewestFirst(recs)
	return recs, nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(ctx context.Context, ref string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[ref]; !ok {
		return notFound(ref)
	}
	delete(s.docs, ref)
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	return nil
}
