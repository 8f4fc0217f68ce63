// Package document is the host-side service that ties the signing core to
// the artifact store: upload with signature, verification of stored or
// local copies, listing, deletion and share links.
package document

import (
	"bytes"
	"context"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	"github.com/rs/zerolog"

	"github.com/mrz1836/docsign/internal/artifact"
	"github.com/mrz1836/docsign/internal/clock"
	"github.com/mrz1836/docsign/internal/content"
	"github.com/mrz1836/docsign/internal/domain"
	dserrors "github.com/mrz1836/docsign/internal/errors"
	"github.com/mrz1836/docsign/internal/keys"
	"github.com/mrz1836/docsign/internal/keystore"
	"github.com/mrz1836/docsign/internal/workflow"
)

// UploadRequest describes a document to store.
type UploadRequest struct {
	Identity domain.Identity
	Name     string
	Content  []byte
	// Unsigned stores the document without a signing claim.
	Unsigned bool
}

// ShareLink is a reversible link to a stored document.
type ShareLink struct {
	Ref   string `json:"ref"`
	Token string `json:"token"`
	URL   string `json:"url,omitempty"`
}

// Service coordinates signing, verification and storage.
type Service struct {
	store     artifact.Store
	source    content.Source
	keys      *keys.Manager
	signing   *workflow.SigningWorkflow
	verifier  *workflow.VerificationWorkflow
	clock     clock.Clock
	logger    zerolog.Logger
	shareBase string
	newRef    func() string
}

// Deps are the collaborators of a Service.
type Deps struct {
	Store    artifact.Store
	Keys     *keys.Manager
	Signing  *workflow.SigningWorkflow
	Verifier *workflow.VerificationWorkflow
	Clock    clock.Clock
	Logger   zerolog.Logger
	// ShareBaseURL prefixes share links; empty yields token-only links.
	ShareBaseURL string
}

// NewService returns a Service.
func NewService(d Deps) *Service {
	c := d.Clock
	if c == nil {
		c = clock.RealClock{}
	}
	return &Service{
		store:     d.Store,
		source:    content.NewStoreSource(d.Store),
		keys:      d.Keys,
		signing:   d.Signing,
		verifier:  d.Verifier,
		clock:     c,
		logger:    d.Logger.With().Str("component", "documents").Logger(),
		shareBase: strings.TrimRight(d.ShareBaseURL, "/"),
		newRef:    uuid.NewString,
	}
}

// Upload signs (unless req.Unsigned) and stores a document. The bundle is
// produced before the store write so content and metadata land together.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (*domain.DocumentRecord, error) {
	if err := req.Identity.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: empty name", dserrors.ErrInvalidDocument)
	}

	rec := &domain.DocumentRecord{
		Ref:      s.newRef(),
		Name:     req.Name,
		Identity: req.Identity,
		Size:     int64(len(req.Content)),
	}

	if !req.Unsigned {
		bundle, err := s.signing.SignBytes(ctx, req.Content, req.Identity)
		if err != nil {
			return nil, err
		}
		rec.Bundle = bundle
	}

	rec.UploadedAt = s.clock.Now().UTC()
	if err := s.store.Put(ctx, rec, req.Content); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("ref", rec.Ref).
		Str("identity", rec.Identity.String()).
		Bool("signed", rec.Signed()).
		Int64("size", rec.Size).
		Msg("document stored")
	return rec, nil
}

// Get returns a stored record.
func (s *Service) Get(ctx context.Context, ref string) (*domain.DocumentRecord, error) {
	return s.store.Get(ctx, ref)
}

// Content returns stored document bytes.
func (s *Service) Content(ctx context.Context, ref string) ([]byte, error) {
	return s.store.Content(ctx, ref)
}

// List returns an identity's documents, newest first.
func (s *Service) List(ctx context.Context, identity domain.Identity) ([]*domain.DocumentRecord, error) {
	if err := identity.Validate(); err != nil {
		return nil, err
	}
	return s.store.List(ctx, identity)
}

// Delete removes a document with its metadata.
func (s *Service) Delete(ctx context.Context, ref string) error {
	if err := s.store.Delete(ctx, ref); err != nil {
		return err
	}
	s.logger.Info().Str("ref", ref).Msg("document deleted")
	return nil
}

// VerifyRef verifies the stored content of ref against its stored metadata.
// A missing record is an error; everything past the record lookup is an outcome.
func (s *Service) VerifyRef(ctx context.Context, ref string) (domain.Outcome, error) {
	rec, err := s.store.Get(ctx, ref)
	if err != nil {
		return domain.Outcome{}, err
	}
	if o, done := s.precheck(rec); done {
		return o, nil
	}

	data, err := s.source.Read(ctx, ref)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.Outcome{}, ctxErr
		}
		return domain.Malformed(err), nil
	}
	return s.verifier.Verify(ctx, bytes.NewReader(data), rec.Bundle)
}

// VerifyCopy verifies a local copy of a document against the metadata stored
// for ref.
func (s *Service) VerifyCopy(ctx context.Context, ref string, data []byte) (domain.Outcome, error) {
	rec, err := s.store.Get(ctx, ref)
	if err != nil {
		return domain.Outcome{}, err
	}
	if o, done := s.precheck(rec); done {
		return o, nil
	}
	return s.verifier.Verify(ctx, bytes.NewReader(data), rec.Bundle)
}

// VerifyLocal verifies bytes against explicitly supplied metadata.
func (s *Service) VerifyLocal(ctx context.Context, data []byte, md domain.Metadata) (domain.Outcome, error) {
	return s.verifier.VerifyMetadata(ctx, bytes.NewReader(data), md)
}

// VerifyDetached verifies bytes against a base64 public key and signature.
func (s *Service) VerifyDetached(ctx context.Context, data []byte, publicKey, signature string) (domain.Outcome, error) {
	return s.verifier.VerifyEncoded(ctx, bytes.NewReader(data), publicKey, signature)
}

// precheck settles records whose metadata alone decides the outcome.
func (s *Service) precheck(rec *domain.DocumentRecord) (domain.Outcome, bool) {
	if rec.MetadataErr != nil {
		return domain.Malformed(rec.MetadataErr), true
	}
	if rec.Bundle == nil {
		return domain.Unsigned(), true
	}
	return domain.Outcome{}, false
}

// Share returns a share link for an existing document.
func (s *Service) Share(ctx context.Context, ref string) (*ShareLink, error) {
	if _, err := s.store.Get(ctx, ref); err != nil {
		return nil, err
	}
	token := EncodeShareToken(ref)
	link := &ShareLink{Ref: ref, Token: token}
	if s.shareBase != "" {
		link.URL = s.shareBase + "/s/" + token
	}
	return link, nil
}

// Resolve returns the record a share token points at.
func (s *Service) Resolve(ctx context.Context, token string) (*domain.DocumentRecord, error) {
	ref, err := DecodeShareToken(token)
	if err != nil {
		return nil, err
	}
	return s.store.Get(ctx, ref)
}

// ProvisionKey ensures the identity has a keypair.
func (s *Service) ProvisionKey(ctx context.Context, identity domain.Identity) (*keys.Result, error) {
	return s.keys.Ensure(ctx, identity)
}

// PublicKey returns the identity's stored public key without provisioning.
func (s *Service) PublicKey(ctx context.Context, identity domain.Identity) (*keystore.Entry, error) {
	return s.keys.Lookup(ctx, identity)
}

// EncodeShareToken returns the base58 token for ref.
func EncodeShareToken(ref string) string {
	return base58.Encode([]byte(ref))
}

// DecodeShareToken reverses EncodeShareToken.
func DecodeShareToken(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", fmt.Errorf("%w: empty token", dserrors.ErrInvalidShareToken)
	}
	raw, err := base58.Decode(token)
	if err != nil {
		return "", fmt.Errorf("%w: %w", dserrors.ErrInvalidShareToken, err)
	}
	if len(raw) == 0 {
		return "", dserrors.ErrInvalidShareToken
	}
	return string(raw), nil
}

// PublicKeyPEM renders a PKIX public key as a PEM block.
func PublicKeyPEM(pub domain.PublicKey) string {
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pub}))
}

// IsNotFound reports whether err means the document does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, dserrors.ErrDocumentNotFound)
}
