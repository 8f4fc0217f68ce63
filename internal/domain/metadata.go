package domain

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	dserrors "github.com/mrz1836/docsign/internal/errors"
)

// TimestampFormat is the ISO-8601 layout used for dateCreated.
const TimestampFormat = time.RFC3339Nano

// Bundle is the self-describing proof emitted by the signing workflow.
// Verification needs only the bundle and the document bytes.
type Bundle struct {
	PublicKey PublicKey `json:"public_key"`
	Signature Signature `json:"signature"`
	Timestamp time.Time `json:"timestamp"`
}

// Metadata is the wire form of a Bundle attached to a stored artifact:
// three text fields, nothing else.
type Metadata struct {
	PublicKey   string `json:"publicKey" yaml:"publicKey"`
	Signature   string `json:"signature" yaml:"signature"`
	DateCreated string `json:"dateCreated" yaml:"dateCreated"`
}

// Metadata encodes the bundle for attachment to a stored artifact.
func (b *Bundle) Metadata() Metadata {
	if b == nil {
		return Metadata{}
	}
	return Metadata{
		PublicKey:   b.PublicKey.Base64(),
		Signature:   b.Signature.Base64(),
		DateCreated: b.Timestamp.UTC().Format(TimestampFormat),
	}
}

// IsEmpty reports whether no field carries a value, i.e. the artifact never
// had a signing claim attached.
func (m Metadata) IsEmpty() bool {
	return strings.TrimSpace(m.PublicKey) == "" &&
		strings.TrimSpace(m.Signature) == "" &&
		strings.TrimSpace(m.DateCreated) == ""
}

// ParseMetadata validates wire metadata into a Bundle.
//
// Entirely empty metadata returns (nil, nil): the document is unsigned.
// Partially present or undecodable metadata returns ErrInvalidMetadata.
// Key and signature bytes are only decoded here, not cryptographically
// validated; that is the signature engine's job.
func ParseMetadata(m Metadata) (*Bundle, error) {
	if m.IsEmpty() {
		return nil, nil //nolint:nilnil // absence is a valid, distinct result
	}

	var missing []string
	if strings.TrimSpace(m.PublicKey) == "" {
		missing = append(missing, "publicKey")
	}
	if strings.TrimSpace(m.Signature) == "" {
		missing = append(missing, "signature")
	}
	if strings.TrimSpace(m.DateCreated) == "" {
		missing = append(missing, "dateCreated")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", dserrors.ErrInvalidMetadata, strings.Join(missing, ", "))
	}

	pub, err := base64.StdEncoding.DecodeString(strings.TrimSpace(m.PublicKey))
	if err != nil {
		return nil, fmt.Errorf("%w: publicKey is not base64: %w", dserrors.ErrInvalidMetadata, err)
	}
	sig, err := base64.StdEncoding.DecodeString(strings.TrimSpace(m.Signature))
	if err != nil {
		return nil, fmt.Errorf("%w: signature is not base64: %w", dserrors.ErrInvalidMetadata, err)
	}
	ts, err := time.Parse(TimestampFormat, strings.TrimSpace(m.DateCreated))
	if err != nil {
		return nil, fmt.Errorf("%w: dateCreated is not ISO-8601: %w", dserrors.ErrInvalidMetadata, err)
	}

	return &Bundle{
		PublicKey: pub,
		Signature: sig,
		Timestamp: ts.UTC(),
	}, nil
}
