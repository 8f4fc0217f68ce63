// Package keys provisions signing keypairs per identity.
//
// The Manager is the only component that creates keys. It generates a
// keypair only when the store reports explicit absence, and it funnels
// concurrent first-use calls for one identity through a single flight so
// they converge on one keypair. Cross-process races are settled by the
// store's compare-and-set.
package keys

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/mrz1836/docsign/internal/clock"
	"github.com/mrz1836/docsign/internal/crypto"
	"github.com/mrz1836/docsign/internal/domain"
	dserrors "github.com/mrz1836/docsign/internal/errors"
	"github.com/mrz1836/docsign/internal/keystore"
	"github.com/mrz1836/docsign/internal/metrics"
)

// Result describes the keypair returned by Ensure.
type Result struct {
	Entry *keystore.Entry
	// Created is true when this call (or the flight it joined) generated the keypair.
	Created bool
}

// Manager provisions keypairs on first use.
type Manager struct {
	store     keystore.Store
	algorithm string
	clock     clock.Clock
	logger    zerolog.Logger
	metrics   *metrics.Metrics
	flights   singleflight.Group
}

// Option configures a Manager.
type Option func(*Manager)

// WithAlgorithm selects the algorithm for new keypairs. Existing keypairs
// keep the algorithm they were created with.
func WithAlgorithm(name string) Option {
	return func(m *Manager) {
		m.algorithm = name
	}
}

// WithClock sets the clock used for key creation timestamps.
func WithClock(c clock.Clock) Option {
	return func(m *Manager) {
		m.clock = c
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// WithMetrics records provisioning results.
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) {
		m.metrics = mt
	}
}

// NewManager returns a Manager over store. It fails if the configured
// algorithm is unknown.
func NewManager(store keystore.Store, opts ...Option) (*Manager, error) {
	m := &Manager{
		store:     store,
		algorithm: crypto.DefaultAlgorithm,
		clock:     clock.RealClock{},
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}

	alg, err := crypto.Lookup(m.algorithm)
	if err != nil {
		return nil, err
	}
	m.algorithm = alg.Name()
	m.logger = m.logger.With().Str("component", "keys").Logger()
	return m, nil
}

// Algorithm returns the algorithm used for new keypairs.
func (m *Manager) Algorithm() string {
	return m.algorithm
}

// GetOrCreate returns the identity's public key, generating and storing a
// keypair if none exists. Calling it again returns the same key.
func (m *Manager) GetOrCreate(ctx context.Context, identity domain.Identity) (domain.PublicKey, error) {
	res, err := m.Ensure(ctx, identity)
	if err != nil {
		return nil, err
	}
	return res.Entry.PublicKey, nil
}

// Ensure is GetOrCreate with the stored entry and whether it was just created.
//
// Canceling ctx abandons the wait but not a provisioning already in flight:
// the keypair is either stored completely or not at all.
func (m *Manager) Ensure(ctx context.Context, identity domain.Identity) (*Result, error) {
	if err := identity.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	flightCtx := context.WithoutCancel(ctx)
	ch := m.flights.DoChan(identity.String(), func() (any, error) {
		return m.provision(flightCtx, identity)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		r, _ := res.Val.(*Result)
		return r, nil
	}
}

// Lookup returns the stored entry without provisioning.
// A missing keypair returns ErrKeyNotProvisioned.
func (m *Manager) Lookup(ctx context.Context, identity domain.Identity) (*keystore.Entry, error) {
	if err := identity.Validate(); err != nil {
		return nil, err
	}
	entry, err := m.store.Get(ctx, identity)
	if errors.Is(err, dserrors.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", dserrors.ErrKeyNotProvisioned, identity)
	}
	if err != nil {
		return nil, storeFailure(err)
	}
	return entry, nil
}

func (m *Manager) provision(ctx context.Context, identity domain.Identity) (*Result, error) {
	log := m.logger.With().Str("identity", identity.String()).Logger()

	entry, err := m.store.Get(ctx, identity)
	switch {
	case err == nil:
		m.metrics.ObserveProvision(metrics.ProvisionExisting)
		return &Result{Entry: entry}, nil
	case !errors.Is(err, dserrors.ErrKeyNotFound):
		m.metrics.ObserveProvision(metrics.ProvisionError)
		log.Warn().Err(err).Msg("key store lookup failed, not generating a key")
		return nil, storeFailure(err)
	}

	kp, err := keystore.GenerateKeypair(m.algorithm, m.clock.Now())
	if err != nil {
		m.metrics.ObserveProvision(metrics.ProvisionError)
		return nil, fmt.Errorf("generating keypair: %w", err)
	}

	entry, created, err := m.store.PutIfAbsent(ctx, identity, kp)
	if err != nil {
		m.metrics.ObserveProvision(metrics.ProvisionError)
		log.Warn().Err(err).Msg("storing new keypair failed")
		return nil, storeFailure(err)
	}

	if created {
		m.metrics.ObserveProvision(metrics.ProvisionCreated)
		log.Info().
			Str("algorithm", entry.Algorithm).
			Str("fingerprint", entry.PublicKey.Fingerprint()).
			Msg("provisioned new keypair")
	} else {
		m.metrics.ObserveProvision(metrics.ProvisionExisting)
		log.Debug().Msg("lost keypair creation race, using stored keypair")
	}
	return &Result{Entry: entry, Created: created}, nil
}

// storeFailure classifies any non-absence store error as retryable
// unavailability.
func storeFailure(err error) error {
	if errors.Is(err, dserrors.ErrKeyStoreUnavailable) ||
		errors.Is(err, dserrors.ErrEmptyIdentity) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", dserrors.ErrKeyStoreUnavailable, err)
}
