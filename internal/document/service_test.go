package document

import (
	"context"
	"encoding/pem"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/docsign/internal/artifact"
	"github.com/mrz1836/docsign/internal/clock"
	"github.com/mrz1836/docsign/internal/domain"
	dserrors "github.com/mrz1836/docsign/internal/errors"
	"github.com/mrz1836/docsign/internal/keys"
	"github.com/mrz1836/docsign/internal/keystore"
	"github.com/mrz1836/docsign/internal/signature"
	"github.com/mrz1836/docsign/internal/testutil"
	"github.com/mrz1836/docsign/internal/workflow"
)

//nolint:gochecknoglobals // Fixed test clock
var now = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func newService(t *testing.T, store artifact.Store) *Service {
	t.Helper()
	ks := keystore.NewMemoryStore()
	manager, err := keys.NewManager(ks)
	require.NoError(t, err)
	engine := signature.NewEngine(ks)

	return NewService(Deps{
		Store:        store,
		Keys:         manager,
		Signing:      workflow.NewSigningWorkflow(manager, engine, workflow.WithClock(clock.Fixed(now))),
		Verifier:     workflow.NewVerificationWorkflow(engine, zerolog.Nop(), nil),
		Clock:        clock.Fixed(now),
		Logger:       zerolog.Nop(),
		ShareBaseURL: "https://docs.example.com/",
	})
}

func TestService_UploadSignedAndVerify(t *testing.T) {
	ctx := context.Background()
	store := artifact.NewMemoryStore()
	svc := newService(t, store)

	rec, err := svc.Upload(ctx, UploadRequest{Identity: "alice", Name: "invoice.pdf", Content: []byte("B")})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.Ref)
	require.NotNil(t, rec.Bundle)
	assert.True(t, now.Equal(rec.UploadedAt))
	assert.True(t, now.Equal(rec.Bundle.Timestamp))

	stored, err := svc.Get(ctx, rec.Ref)
	require.NoError(t, err)
	assert.Equal(t, rec.Bundle.PublicKey, stored.Bundle.PublicKey)

	outcome, err := svc.VerifyRef(ctx, rec.Ref)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeValid, outcome.Status)

	outcome, err = svc.VerifyCopy(ctx, rec.Ref, []byte("B'"))
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeTampered, outcome.Status)

	outcome, err = svc.VerifyLocal(ctx, []byte("B"), rec.Metadata())
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeValid, outcome.Status)

	md := rec.Metadata()
	outcome, err = svc.VerifyDetached(ctx, []byte("B"), md.PublicKey, md.Signature)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeValid, outcome.Status)

	entry, err := svc.PublicKey(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, rec.Bundle.PublicKey, entry.PublicKey)
}

func TestService_UploadUnsigned(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, artifact.NewMemoryStore())

	rec, err := svc.Upload(ctx, UploadRequest{Identity: "alice", Name: "scan.png", Content: []byte("img"), Unsigned: true})
	require.NoError(t, err)
	assert.Nil(t, rec.Bundle)

	outcome, err := svc.VerifyRef(ctx, rec.Ref)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeUnsigned, outcome.Status)

	_, err = svc.PublicKey(ctx, "alice")
	require.ErrorIs(t, err, dserrors.ErrKeyNotProvisioned, "unsigned upload must not provision")
}

func TestService_UploadValidation(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, artifact.NewMemoryStore())

	_, err := svc.Upload(ctx, UploadRequest{Name: "a"})
	require.ErrorIs(t, err, dserrors.ErrEmptyIdentity)

	_, err = svc.Upload(ctx, UploadRequest{Identity: "alice", Name: " "})
	require.ErrorIs(t, err, dserrors.ErrInvalidDocument)
}

func TestService_UploadDuplicateRef(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, artifact.NewMemoryStore())
	svc.newRef = func() string { return "fixed" }

	_, err := svc.Upload(ctx, UploadRequest{Identity: "alice", Name: "a", Content: []byte("1")})
	require.NoError(t, err)
	_, err = svc.Upload(ctx, UploadRequest{Identity: "alice", Name: "b", Content: []byte("2")})
	require.ErrorIs(t, err, dserrors.ErrDocumentExists)
}

func TestService_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, artifact.NewMemoryStore())

	rec, err := svc.Upload(ctx, UploadRequest{Identity: "alice", Name: "a", Content: []byte("1")})
	require.NoError(t, err)
	_, err = svc.Upload(ctx, UploadRequest{Identity: "bob", Name: "b", Content: []byte("2")})
	require.NoError(t, err)

	recs, err := svc.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, rec.Ref, recs[0].Ref)

	require.NoError(t, svc.Delete(ctx, rec.Ref))
	_, err = svc.Content(ctx, rec.Ref)
	require.ErrorIs(t, err, dserrors.ErrDocumentNotFound)

	err = svc.Delete(ctx, rec.Ref)
	assert.True(t, IsNotFound(err))

	_, err = svc.VerifyRef(ctx, rec.Ref)
	require.ErrorIs(t, err, dserrors.ErrDocumentNotFound)

	_, err = svc.List(ctx, "")
	require.ErrorIs(t, err, dserrors.ErrEmptyIdentity)
}

func TestService_ShareAndResolve(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, artifact.NewMemoryStore())

	rec, err := svc.Upload(ctx, UploadRequest{Identity: "alice", Name: "a", Content: []byte("1")})
	require.NoError(t, err)

	link, err := svc.Share(ctx, rec.Ref)
	require.NoError(t, err)
	assert.Equal(t, "https://docs.example.com/s/"+link.Token, link.URL)

	got, err := svc.Resolve(ctx, link.Token)
	require.NoError(t, err)
	assert.Equal(t, rec.Ref, got.Ref)

	_, err = svc.Share(ctx, "missing")
	require.ErrorIs(t, err, dserrors.ErrDocumentNotFound)

	_, err = svc.Resolve(ctx, "0OIl")
	require.ErrorIs(t, err, dserrors.ErrInvalidShareToken)

	_, err = svc.Resolve(ctx, "")
	require.ErrorIs(t, err, dserrors.ErrInvalidShareToken)
}

func TestShareToken_Roundtrip(t *testing.T) {
	for _, ref := range []string{"3f1c2d9e-8a7b-4c6d-9e0f-112233445566", "r", "with/slash"} {
		ref2, err := DecodeShareToken(EncodeShareToken(ref))
		require.NoError(t, err)
		assert.Equal(t, ref, ref2)
	}
}

// brokenStore serves a record but fails content reads.
type brokenStore struct {
	artifact.Store
}

func (brokenStore) Content(context.Context, string) ([]byte, error) {
	return nil, testutil.ErrMockBackend
}

func TestService_VerifyRef_ContentUnavailableIsMalformed(t *testing.T) {
	ctx := context.Background()
	inner := artifact.NewMemoryStore()
	svc := newService(t, inner)
	rec, err := svc.Upload(ctx, UploadRequest{Identity: "alice", Name: "a", Content: []byte("1")})
	require.NoError(t, err)

	broken := newService(t, brokenStore{Store: inner})
	outcome, err := broken.VerifyRef(ctx, rec.Ref)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeMalformed, outcome.Status)
	assert.True(t, dserrors.IsRetryable(outcome.Err))
}

func TestPublicKeyPEM(t *testing.T) {
	block, rest := pem.Decode([]byte(PublicKeyPEM(domain.PublicKey{1, 2, 3})))
	require.NotNil(t, block)
	assert.Empty(t, rest)
	assert.Equal(t, "PUBLIC KEY", block.Type)
	assert.Equal(t, []byte{1, 2, 3}, block.Bytes)
}

func TestService_ProvisionKey(t *testing.T) {
	svc := newService(t, artifact.NewMemoryStore())
	res, err := svc.ProvisionKey(context.Background(), "alice")
	require.NoError(t, err)
	assert.True(t, res.Created)
}
