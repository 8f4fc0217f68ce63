// Package workflow orchestrates the signing and verification protocols.
//
// Both workflows are explicit step sequences. Each step returns a typed
// result that the next step consumes, and the first failing step ends the
// run. Neither workflow talks to an artifact store: persisting the bundle
// is the caller's job.
package workflow

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrz1836/docsign/internal/clock"
	"github.com/mrz1836/docsign/internal/domain"
	"github.com/mrz1836/docsign/internal/hashing"
	"github.com/mrz1836/docsign/internal/metrics"
)

// State is a signing workflow state.
type State string

// Signing workflow states. Packaged and Failed are terminal.
const (
	StateHashing  State = "hashing"
	StateSigning  State = "signing"
	StatePackaged State = "packaged"
	StateFailed   State = "failed"
)

// StepError reports the step at which a signing run failed.
type StepError struct {
	Step State
	Err  error
}

// Error implements the error interface.
func (e *StepError) Error() string {
	return fmt.Sprintf("%s step failed: %v", e.Step, e.Err)
}

// Unwrap returns the underlying error.
func (e *StepError) Unwrap() error {
	return e.Err
}

// KeyProvider returns an identity's public key, provisioning it if needed.
type KeyProvider interface {
	GetOrCreate(ctx context.Context, identity domain.Identity) (domain.PublicKey, error)
}

// Signer signs a digest on behalf of an identity.
type Signer interface {
	Sign(ctx context.Context, digest domain.Digest, identity domain.Identity) (domain.Signature, error)
}

// SigningWorkflow runs Hashing -> Signing -> Packaged.
type SigningWorkflow struct {
	keys     KeyProvider
	signer   Signer
	clock    clock.Clock
	logger   zerolog.Logger
	metrics  *metrics.Metrics
	observer func(State)
}

// SigningOption configures a SigningWorkflow.
type SigningOption func(*SigningWorkflow)

// WithClock sets the clock that stamps bundles.
func WithClock(c clock.Clock) SigningOption {
	return func(w *SigningWorkflow) {
		w.clock = c
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) SigningOption {
	return func(w *SigningWorkflow) {
		w.logger = l
	}
}

// WithMetrics records run results and durations.
func WithMetrics(m *metrics.Metrics) SigningOption {
	return func(w *SigningWorkflow) {
		w.metrics = m
	}
}

// WithObserver is called on every state transition.
func WithObserver(fn func(State)) SigningOption {
	return func(w *SigningWorkflow) {
		w.observer = fn
	}
}

// NewSigningWorkflow returns a workflow provisioning through keys and
// signing through signer.
func NewSigningWorkflow(keys KeyProvider, signer Signer, opts ...SigningOption) *SigningWorkflow {
	w := &SigningWorkflow{
		keys:   keys,
		signer: signer,
		clock:  clock.RealClock{},
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With().Str("component", "signing").Logger()
	return w
}

type hashed struct {
	digest domain.Digest
}

type signed struct {
	publicKey domain.PublicKey
	signature domain.Signature
	at        time.Time
}

// Sign hashes content and signs the digest for identity. The returned bundle
// is complete or nil: a canceled or failed run never yields a partial one.
func (w *SigningWorkflow) Sign(ctx context.Context, content io.Reader, identity domain.Identity) (*domain.Bundle, error) {
	start := time.Now()
	bundle, err := w.run(ctx, content, identity)
	w.metrics.ObserveSign(err, time.Since(start))
	if err != nil {
		w.transition(StateFailed)
		return nil, err
	}
	return bundle, nil
}

// SignBytes is Sign over an in-memory document.
func (w *SigningWorkflow) SignBytes(ctx context.Context, content []byte, identity domain.Identity) (*domain.Bundle, error) {
	return w.Sign(ctx, bytesReader(content), identity)
}

func (w *SigningWorkflow) run(ctx context.Context, content io.Reader, identity domain.Identity) (*domain.Bundle, error) {
	if err := identity.Validate(); err != nil {
		return nil, &StepError{Step: StateHashing, Err: err}
	}

	w.transition(StateHashing)
	h, err := w.hash(ctx, content)
	if err != nil {
		return nil, &StepError{Step: StateHashing, Err: err}
	}

	w.transition(StateSigning)
	s, err := w.sign(ctx, h, identity)
	if err != nil {
		return nil, &StepError{Step: StateSigning, Err: err}
	}

	if err := ctx.Err(); err != nil {
		return nil, &StepError{Step: StateSigning, Err: err}
	}
	w.transition(StatePackaged)
	w.logger.Debug().
		Str("identity", identity.String()).
		Str("digest", h.digest.Hex()).
		Str("fingerprint", s.publicKey.Fingerprint()).
		Msg("document signed")

	return &domain.Bundle{
		PublicKey: s.publicKey,
		Signature: s.signature,
		Timestamp: s.at,
	}, nil
}

func (w *SigningWorkflow) hash(ctx context.Context, content io.Reader) (hashed, error) {
	digest, err := hashing.DigestReader(ctx, content)
	if err != nil {
		return hashed{}, err
	}
	return hashed{digest: digest}, nil
}

func (w *SigningWorkflow) sign(ctx context.Context, h hashed, identity domain.Identity) (signed, error) {
	pub, err := w.keys.GetOrCreate(ctx, identity)
	if err != nil {
		return signed{}, err
	}
	at := w.clock.Now().UTC()
	sig, err := w.signer.Sign(ctx, h.digest, identity)
	if err != nil {
		return signed{}, err
	}
	return signed{publicKey: pub, signature: sig, at: at}, nil
}

func (w *SigningWorkflow) transition(s State) {
	if w.observer != nil {
		w.observer(s)
	}
}
