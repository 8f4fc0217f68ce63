// Package artifact is the boundary to the store that holds uploaded
// documents together with their bound signing metadata.
//
// Content and metadata are written and deleted as one unit by every backend,
// so a reader never sees an unsigned artifact that is about to be signed,
// and a delete never leaves one half behind. Metadata crosses this boundary
// in its three-field wire form and is validated on the way out: a record
// whose stored metadata is malformed comes back with MetadataErr set rather
// than failing the read.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/mrz1836/docsign/internal/domain"
	dserrors "github.com/mrz1836/docsign/internal/errors"
)

// Store persists documents and their metadata.
type Store interface {
	// Put stores content and record atomically. A nil record bundle stores an
	// unsigned document. An existing reference returns ErrDocumentExists.
	Put(ctx context.Context, rec *domain.DocumentRecord, content []byte) error

	// Get returns the record for ref or ErrDocumentNotFound.
	Get(ctx context.Context, ref string) (*domain.DocumentRecord, error)

	// Content returns the stored bytes for ref or ErrDocumentNotFound.
	Content(ctx context.Context, ref string) ([]byte, error)

	// List returns the identity's records, newest first.
	List(ctx context.Context, identity domain.Identity) ([]*domain.DocumentRecord, error)

	// Delete removes content and metadata together, or returns ErrDocumentNotFound.
	Delete(ctx context.Context, ref string) error

	// Close releases backend resources.
	Close() error
}

// row is the persisted form of a record, shared by all backends.
type row struct {
	Ref        string          `json:"ref"`
	Name       string          `json:"name"`
	Identity   string          `json:"identity"`
	Size       int64           `json:"size"`
	UploadedAt time.Time       `json:"uploaded_at"`
	Metadata   domain.Metadata `json:"metadata"`
}

func newRow(rec *domain.DocumentRecord, size int64) row {
	return row{
		Ref:        rec.Ref,
		Name:       rec.Name,
		Identity:   rec.Identity.String(),
		Size:       size,
		UploadedAt: rec.UploadedAt.UTC(),
		Metadata:   rec.Metadata(),
	}
}

// record validates the stored metadata into a bundle.
func (r row) record() *domain.DocumentRecord {
	rec := &domain.DocumentRecord{
		Ref:        r.Ref,
		Name:       r.Name,
		Identity:   domain.Identity(r.Identity),
		Size:       r.Size,
		UploadedAt: r.UploadedAt,
	}
	bundle, err := domain.ParseMetadata(r.Metadata)
	if err != nil {
		rec.MetadataErr = err
		return rec
	}
	rec.Bundle = bundle
	return rec
}

func sortNewestFirst(recs []*domain.DocumentRecord) {
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].UploadedAt.Equal(recs[j].UploadedAt) {
			return recs[i].Ref < recs[j].Ref
		}
		return recs[i].UploadedAt.After(recs[j].UploadedAt)
	})
}

func notFound(ref string) error {
	return fmt.Errorf("%w: %s", dserrors.ErrDocumentNotFound, ref)
}

func exists(ref string) error {
	return fmt.Errorf("%w: %s", dserrors.ErrDocumentExists, ref)
}

// unavailable wraps a backend failure. Canceled contexts pass through.
func unavailable(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return fmt.Errorf("%w: artifact store %s: %w", dserrors.ErrContentUnavailable, op, err)
}

func isDocumentErr(err error) bool {
	return errors.Is(err, dserrors.ErrDocumentExists) || errors.Is(err, dserrors.ErrDocumentNotFound)
}
