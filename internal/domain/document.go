package domain

import (
	"fmt"
	"strings"
	"time"

	dserrors "github.com/mrz1836/docsign/internal/errors"
)

// DocumentRecord is a stored artifact plus its bound signing metadata.
// Records are immutable once stored; renaming means storing a new record.
type DocumentRecord struct {
	// Ref is the opaque content reference assigned by the artifact store.
	Ref string `json:"ref"`

	// Name is the user-visible document name.
	Name string `json:"name"`

	// Identity owns the document and, when signed, the key that signed it.
	Identity Identity `json:"identity"`

	// Size is the content length in bytes.
	Size int64 `json:"size"`

	// UploadedAt is when the record was stored.
	UploadedAt time.Time `json:"uploaded_at"`

	// Bundle is the parsed bound metadata; nil when the document is unsigned
	// or when the stored metadata failed validation (see MetadataErr).
	Bundle *Bundle `json:"bundle,omitempty"`

	// MetadataErr is set when stored metadata was present but malformed.
	MetadataErr error `json:"-"`
}

// Validate checks the fields required before a record can be stored.
func (r *DocumentRecord) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: nil record", dserrors.ErrInvalidDocument)
	}
	if strings.TrimSpace(r.Ref) == "" {
		return fmt.Errorf("%w: empty reference", dserrors.ErrInvalidDocument)
	}
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: empty name", dserrors.ErrInvalidDocument)
	}
	if err := r.Identity.Validate(); err != nil {
		return fmt.Errorf("%w: %w", dserrors.ErrInvalidDocument, err)
	}
	return nil
}

// Signed reports whether the record carries a well-formed bundle.
func (r *DocumentRecord) Signed() bool {
	return r != nil && r.Bundle != nil
}

// Metadata returns the wire metadata of the record (empty when unsigned).
func (r *DocumentRecord) Metadata() Metadata {
	if r == nil {
		return Metadata{}
	}
	return r.Bundle.Metadata()
}
