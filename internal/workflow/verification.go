package workflow

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mrz1836/docsign/internal/domain"
	dserrors "github.com/mrz1836/docsign/internal/errors"
	"github.com/mrz1836/docsign/internal/hashing"
	"github.com/mrz1836/docsign/internal/metrics"
)

// Checker verifies a signature over a digest.
type Checker interface {
	Verify(digest domain.Digest, signature domain.Signature, publicKey domain.PublicKey) (bool, error)
}

// VerificationWorkflow recomputes a document digest and checks it against
// bound metadata.
type VerificationWorkflow struct {
	checker Checker
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// NewVerificationWorkflow returns a workflow verifying through checker.
// The logger and metrics may be zero values.
func NewVerificationWorkflow(checker Checker, logger zerolog.Logger, m *metrics.Metrics) *VerificationWorkflow {
	return &VerificationWorkflow{
		checker: checker,
		logger:  logger.With().Str("component", "verification").Logger(),
		metrics: m,
	}
}

// Verify checks content against a parsed bundle.
//
// A nil bundle is Unsigned. Failure to read content or malformed key and
// signature bytes are Malformed, never Tampered. The returned error is
// non-nil only when ctx was canceled, in which case no outcome is reported.
func (w *VerificationWorkflow) Verify(ctx context.Context, content io.Reader, bundle *domain.Bundle) (domain.Outcome, error) {
	outcome, err := w.verify(ctx, content, bundle)
	if err != nil {
		return domain.Outcome{}, err
	}
	w.metrics.ObserveVerify(outcome.Status.String())
	w.logger.Debug().Str("outcome", outcome.String()).Msg("verification finished")
	return outcome, nil
}

// VerifyMetadata parses wire metadata then verifies. Empty metadata is
// Unsigned; partial or undecodable metadata is Malformed.
func (w *VerificationWorkflow) VerifyMetadata(ctx context.Context, content io.Reader, md domain.Metadata) (domain.Outcome, error) {
	bundle, err := domain.ParseMetadata(md)
	if err != nil {
		return w.report(domain.Malformed(err)), nil
	}
	return w.Verify(ctx, content, bundle)
}

// VerifyBytes is Verify over an in-memory document.
func (w *VerificationWorkflow) VerifyBytes(ctx context.Context, content []byte, publicKey domain.PublicKey, signature domain.Signature) (domain.Outcome, error) {
	if len(publicKey) == 0 && len(signature) == 0 {
		return w.Verify(ctx, bytesReader(content), nil)
	}
	return w.Verify(ctx, bytesReader(content), &domain.Bundle{PublicKey: publicKey, Signature: signature})
}

// VerifyEncoded checks content against a base64 public key and signature
// supplied out of band, without a signing time. Both empty is Unsigned;
// text that is not base64 is Malformed.
func (w *VerificationWorkflow) VerifyEncoded(ctx context.Context, content io.Reader, publicKey, signature string) (domain.Outcome, error) {
	publicKey, signature = strings.TrimSpace(publicKey), strings.TrimSpace(signature)
	if publicKey == "" && signature == "" {
		return w.Verify(ctx, content, nil)
	}
	pub, err := base64.StdEncoding.DecodeString(publicKey)
	if err != nil || len(pub) == 0 {
		return w.report(domain.Malformed(fmt.Errorf("%w: public key is not base64", dserrors.ErrInvalidKeyFormat))), nil
	}
	sig, err := base64.StdEncoding.DecodeString(signature)
	if err != nil || len(sig) == 0 {
		return w.report(domain.Malformed(fmt.Errorf("%w: signature is not base64", dserrors.ErrInvalidSignatureFormat))), nil
	}
	return w.Verify(ctx, content, &domain.Bundle{PublicKey: pub, Signature: sig})
}

func (w *VerificationWorkflow) verify(ctx context.Context, content io.Reader, bundle *domain.Bundle) (domain.Outcome, error) {
	if err := ctx.Err(); err != nil {
		return domain.Outcome{}, err
	}
	if bundle == nil {
		return domain.Unsigned(), nil
	}

	digest, err := hashing.DigestReader(ctx, content)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return domain.Outcome{}, ctxErr
		}
		return domain.Malformed(err), nil
	}

	ok, err := w.checker.Verify(digest, bundle.Signature, bundle.PublicKey)
	if err != nil {
		return domain.Malformed(err), nil
	}
	if err := ctx.Err(); err != nil {
		return domain.Outcome{}, err
	}
	if !ok {
		return domain.Tampered(digest), nil
	}
	return domain.Valid(digest), nil
}

func (w *VerificationWorkflow) report(o domain.Outcome) domain.Outcome {
	w.metrics.ObserveVerify(o.Status.String())
	return o
}

func bytesReader(b []byte) io.Reader {
	return bytes.NewReader(b)
}
