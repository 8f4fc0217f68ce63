package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/mrz1836/docsign/internal/artifact"
	"github.com/mrz1836/docsign/internal/config"
	"github.com/mrz1836/docsign/internal/content"
	"github.com/mrz1836/docsign/internal/document"
	"github.com/mrz1836/docsign/internal/errors"
	"github.com/mrz1836/docsign/internal/keys"
	"github.com/mrz1836/docsign/internal/keystore"
	"github.com/mrz1836/docsign/internal/metrics"
	"github.com/mrz1836/docsign/internal/securestore"
	"github.com/mrz1836/docsign/internal/signature"
	"github.com/mrz1836/docsign/internal/workflow"
)

// App holds every service a command may need, built from one Config.
type App struct {
	Config    *config.Config
	Logger    zerolog.Logger
	Metrics   *metrics.Metrics
	KeyStore  keystore.Store
	Artifacts artifact.Store
	Keys      *keys.Manager
	Signing   *workflow.SigningWorkflow
	Verifier  *workflow.VerificationWorkflow
	Documents *document.Service
	Locator   *content.Locator
}

// ServiceFactory creates the App for a command.
type ServiceFactory struct {
	logger zerolog.Logger
}

// NewServiceFactory creates a new ServiceFactory.
func NewServiceFactory(logger zerolog.Logger) *ServiceFactory {
	return &ServiceFactory{logger: logger}
}

// Build opens the configured stores and wires the signing and verification
// services on top of them. Callers must Close the returned App.
func (f *ServiceFactory) Build(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{
		Config:  cfg,
		Logger:  f.logger,
		Metrics: metrics.New(),
		Locator: content.NewLocator(cfg.Content.HTTPTimeout, cfg.Content.MaxSize),
	}

	ks, err := f.CreateKeyStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.KeyStore = ks

	arts, err := f.CreateArtifactStore(ctx, cfg)
	if err != nil {
		_ = ks.Close()
		return nil, err
	}
	app.Artifacts = arts

	app.Keys, err = keys.NewManager(ks,
		keys.WithAlgorithm(cfg.Keys.Algorithm),
		keys.WithLogger(f.logger),
		keys.WithMetrics(app.Metrics),
	)
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	engine := signature.NewEngine(ks)
	app.Signing = workflow.NewSigningWorkflow(app.Keys, engine,
		workflow.WithLogger(f.logger),
		workflow.WithMetrics(app.Metrics),
	)
	app.Verifier = workflow.NewVerificationWorkflow(engine, f.logger, app.Metrics)
	app.Documents = document.NewService(document.Deps{
		Store:        arts,
		Keys:         app.Keys,
		Signing:      app.Signing,
		Verifier:     app.Verifier,
		Logger:       f.logger,
		ShareBaseURL: cfg.Share.BaseURL,
	})
	return app, nil
}

// CreateKeyStore opens the key store named by keys.backend. Private keys are
// sealed when the environment variable named by keys.passphrase_env is set.
func (f *ServiceFactory) CreateKeyStore(ctx context.Context, cfg *config.Config) (keystore.Store, error) {
	var opts []keystore.Option
	if name := cfg.Keys.PassphraseEnv; name != "" {
		if pass := os.Getenv(name); pass != "" {
			opts = append(opts, keystore.WithSealer(securestore.NewSealer(pass)))
		}
	}

	f.logger.Debug().Str("backend", cfg.Keys.Backend).Bool("sealed", len(opts) > 0).Msg("opening key store")

	switch cfg.Keys.Backend {
	case config.BackendMemory:
		return keystore.NewMemoryStore(), nil
	case config.BackendFile:
		return keystore.NewFileStore(cfg.Keys.Dir, append(opts, keystore.WithLockTimeout(cfg.Keys.LockTimeout))...), nil
	case config.BackendRedis:
		return keystore.DialRedis(ctx, keystore.RedisConfig{
			Addr:        cfg.Redis.Addr,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			KeyPrefix:   cfg.Redis.KeyPrefix,
			DialTimeout: cfg.Redis.DialTimeout,
		}, opts...)
	default:
		return nil, fmt.Errorf("%w: keys.backend %q", errors.ErrUnsupportedBackend, cfg.Keys.Backend)
	}
}

// CreateArtifactStore opens the artifact store named by store.backend.
func (f *ServiceFactory) CreateArtifactStore(ctx context.Context, cfg *config.Config) (artifact.Store, error) {
	f.logger.Debug().Str("backend", cfg.Store.Backend).Str("path", cfg.Store.Path).Msg("opening artifact store")

	switch cfg.Store.Backend {
	case config.BackendMemory:
		return artifact.NewMemoryStore(), nil
	case config.BackendSQLite:
		return artifact.OpenSQLite(ctx, cfg.Store.Path)
	case config.BackendBadger:
		return artifact.OpenBadger(cfg.Store.Path)
	default:
		return nil, fmt.Errorf("%w: store.backend %q", errors.ErrUnsupportedBackend, cfg.Store.Backend)
	}
}

// Close releases both stores.
func (a *App) Close() error {
	var errs []error
	if a.Artifacts != nil {
		errs = append(errs, a.Artifacts.Close())
	}
	if a.KeyStore != nil {
		errs = append(errs, a.KeyStore.Close())
	}
	return stderrors.Join(errs...)
}
