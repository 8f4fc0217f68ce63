package keystore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mr-tron/base58"

	"github.com/mrz1836/docsign/internal/constants"
	"github.com/mrz1836/docsign/internal/domain"
	dserrors "github.com/mrz1836/docsign/internal/errors"
	"github.com/mrz1836/docsign/internal/flock"
)

// FileStore keeps one key file per identity in a directory.
//
// Key files are named by the base58 encoding of the identity so arbitrary
// identity strings map to safe file names. Creation holds an exclusive flock
// on a sibling lock file, which makes PutIfAbsent safe across processes
// sharing the directory. Writes go through a temp file and rename, so
// readers never observe a partial record and need no lock.
type FileStore struct {
	dir   string
	codec codec
	opts  options
}

// NewFileStore returns a FileStore rooted at dir. The directory is created
// on first write.
func NewFileStore(dir string, opts ...Option) *FileStore {
	o := options{lockTimeout: constants.DefaultLockTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	return &FileStore{dir: dir, codec: codec{sealer: o.sealer}, opts: o}
}

// Dir returns the key directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// Get implements Store.
func (s *FileStore) Get(ctx context.Context, identity domain.Identity) (*Entry, error) {
	rec, err := s.read(ctx, identity)
	if err != nil {
		return nil, err
	}
	return rec.entry(), nil
}

// PutIfAbsent implements Store.
func (s *FileStore) PutIfAbsent(ctx context.Context, identity domain.Identity, kp *Keypair) (*Entry, bool, error) {
	if err := identity.Validate(); err != nil {
		return nil, false, err
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return nil, false, fmt.Errorf("%w: creating key directory: %w", dserrors.ErrKeyStoreUnavailable, err)
	}

	path := s.path(identity)
	lock := flock.New(path + constants.LockFileExtension)
	if err := lock.Acquire(ctx, s.opts.lockTimeout); err != nil {
		if ctx.Err() != nil {
			return nil, false, err
		}
		return nil, false, fmt.Errorf("%w: %w", dserrors.ErrKeyStoreUnavailable, err)
	}
	defer func() { _ = lock.Release() }()

	// Existence is checked under the lock so concurrent creators serialize.
	existing, err := s.read(ctx, identity)
	switch {
	case err == nil:
		return existing.entry(), false, nil
	case !errors.Is(err, dserrors.ErrKeyNotFound):
		return nil, false, err
	}

	data, err := s.codec.encode(identity, kp)
	if err != nil {
		return nil, false, err
	}
	if err := atomicWrite(path, data); err != nil {
		return nil, false, fmt.Errorf("%w: writing key file: %w", dserrors.ErrKeyStoreUnavailable, err)
	}

	rec, err := s.codec.decode(data)
	if err != nil {
		return nil, false, err
	}
	return rec.entry(), true, nil
}

// SignWith implements Store.
func (s *FileStore) SignWith(ctx context.Context, identity domain.Identity, digest domain.Digest) (domain.Signature, error) {
	rec, err := s.read(ctx, identity)
	if err != nil {
		return nil, err
	}
	return s.codec.signRecord(rec, digest)
}

// Close implements Store.
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) read(ctx context.Context, identity domain.Identity) (*record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(identity))
	if errors.Is(err, os.ErrNotExist) {
		return nil, dserrors.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading key file: %w", dserrors.ErrKeyStoreUnavailable, err)
	}
	return s.codec.decode(data)
}

func (s *FileStore) path(identity domain.Identity) string {
	return filepath.Join(s.dir, base58.Encode([]byte(identity))+constants.KeyFileExtension)
}

// atomicWrite writes data to a temp file in the same directory and renames it
// into place.
func atomicWrite(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return err
	}
	return nil
}
