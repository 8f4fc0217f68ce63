// Package hashing computes the deterministic SHA-512 digest of document content.
//
// Buffered and streamed content hash identically: DigestReader produces the
// same Digest as Digest for the same bytes, whatever the chunking of the reader.
package hashing

import (
	"context"
	"crypto/sha512"
	"errors"
	"fmt"
	"io"

	"github.com/mrz1836/docsign/internal/constants"
	"github.com/mrz1836/docsign/internal/domain"
	dserrors "github.com/mrz1836/docsign/internal/errors"
)

// Digest returns the SHA-512 digest of content.
func Digest(content []byte) domain.Digest {
	return domain.Digest(sha512.Sum512(content))
}

// DigestReader hashes everything r yields until EOF.
// Read failures are reported as ErrContentUnavailable; cancellation of ctx
// between chunks returns the context error. No partial digest is ever returned.
func DigestReader(ctx context.Context, r io.Reader) (domain.Digest, error) {
	if r == nil {
		return domain.Digest{}, fmt.Errorf("%w: nil reader", dserrors.ErrContentUnavailable)
	}

	h := sha512.New()
	buf := make([]byte, constants.HashChunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return domain.Digest{}, err
		}

		n, err := r.Read(buf)
		if n > 0 {
			_, _ = h.Write(buf[:n]) // hash.Hash writes never fail
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.Digest{}, fmt.Errorf("%w: %w", dserrors.ErrContentUnavailable, err)
		}
	}

	var d domain.Digest
	copy(d[:], h.Sum(nil))
	return d, nil
}
