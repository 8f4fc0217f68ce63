package artifact

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	badgerdb "github.com/dgraph-io/badger/v3"

	"github.com/mrz1836/docsign/internal/domain"
)

// Key layout:
//
//	doc/<ref>                  JSON row
//	content/<ref>              raw bytes
//	owner/<identity>\x00<ref>  empty, the per-identity index
const (
	docPrefix     = "doc/"
	contentPrefix = "content/"
	ownerPrefix   = "owner/"
)

// BadgerStore keeps documents in an embedded badger database. Each Put and
// Delete touches the row, content and index keys in one transaction.
type BadgerStore struct {
	db *badgerdb.DB
}

// OpenBadger opens the database in dir. An empty dir opens an in-memory
// database.
func OpenBadger(dir string) (*BadgerStore, error) {
	opts := badgerdb.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// Put implements Store.
func (s *BadgerStore) Put(ctx context.Context, rec *domain.DocumentRecord, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := rec.Validate(); err != nil {
		return err
	}
	r := newRow(rec, int64(len(content)))
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	err = s.db.Update(func(txn *badgerdb.Txn) error {
		if _, getErr := txn.Get(docKey(r.Ref)); getErr == nil {
			return exists(r.Ref)
		} else if !errors.Is(getErr, badgerdb.ErrKeyNotFound) {
			return getErr
		}
		if err := txn.Set(docKey(r.Ref), data); err != nil {
			return err
		}
		if err := txn.Set(contentKey(r.Ref), append([]byte{}, content...)); err != nil {
			return err
		}
		return txn.Set(ownerKey(r.Identity, r.Ref), nil)
	})
	if errors.Is(err, badgerdb.ErrConflict) {
		// Another writer committed first; report what is stored now.
		if _, getErr := s.Get(ctx, r.Ref); getErr == nil {
			return exists(r.Ref)
		}
	}
	if err != nil && !isDocumentErr(err) {
		return unavailable(ctx, "put", err)
	}
	return err
}

// Get implements Store.
func (s *BadgerStore) Get(ctx context.Context, ref string) (*domain.DocumentRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var r row
	err := s.db.View(func(txn *badgerdb.Txn) error {
		var err error
		r, err = readRow(txn, ref)
		return err
	})
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return nil, notFound(ref)
	}
	if err != nil {
		return nil, unavailable(ctx, "get", err)
	}
	return r.record(), nil
}

// Content implements Store.
func (s *BadgerStore) Content(ctx context.Context, ref string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var content []byte
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(contentKey(ref))
		if err != nil {
			return err
		}
		content, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return nil, notFound(ref)
	}
	if err != nil {
		return nil, unavailable(ctx, "content", err)
	}
	return content, nil
}

// List implements Store.
func (s *BadgerStore) List(ctx context.Context, identity domain.Identity) ([]*domain.DocumentRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	recs := make([]*domain.DocumentRecord, 0)
	prefix := ownerIndexPrefix(identity.String())

	err := s.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			ref := string(it.Item().Key()[len(prefix):])
			r, err := readRow(txn, ref)
			if err != nil {
				return fmt.Errorf("index entry %s: %w", ref, err)
			}
			recs = append(recs, r.record())
		}
		return nil
	})
	if err != nil {
		return nil, unavailable(ctx, "list", err)
	}
	sortNewestFirst(recs)
	return recs, nil
}

// Delete implements Store.
func (s *BadgerStore) Delete(ctx context.Context, ref string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(txn *badgerdb.Txn) error {
		r, err := readRow(txn, ref)
		if err != nil {
			return err
		}
		if err := txn.Delete(docKey(ref)); err != nil {
			return err
		}
		if err := txn.Delete(contentKey(ref)); err != nil {
			return err
		}
		return txn.Delete(ownerKey(r.Identity, ref))
	})
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return notFound(ref)
	}
	if err != nil {
		return unavailable(ctx, "delete", err)
	}
	return nil
}

// Close implements Store.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func readRow(txn *badgerdb.Txn, ref string) (row, error) {
	item, err := txn.Get(docKey(ref))
	if err != nil {
		return row{}, err
	}
	data, err := item.ValueCopy(nil)
	if err != nil {
		return row{}, err
	}
	var r row
	if err := json.Unmarshal(data, &r); err != nil {
		return row{}, fmt.Errorf("decode record %s: %w", ref, err)
	}
	return r, nil
}

func docKey(ref string) []byte {
	return []byte(docPrefix + ref)
}

func contentKey(ref string) []byte {
	return []byte(contentPrefix + ref)
}

// ownerIndexPrefix hex-encodes identity so no identity's prefix covers another's.
func ownerIndexPrefix(identity string) []byte {
	return []byte(ownerPrefix + hex.EncodeToString([]byte(identity)) + "/")
}

func ownerKey(identity, ref string) []byte {
	return append(ownerIndexPrefix(identity), ref...)
}
