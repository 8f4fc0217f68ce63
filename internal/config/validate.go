package config

import (
	"net/url"
	"strings"

	"github.com/mrz1836/docsign/internal/errors"
)

// supportedAlgorithms mirrors the crypto registry; config may not import it.
//
//nolint:gochecknoglobals // read-only lookup table
var supportedAlgorithms = map[string]bool{"ed25519": true, "rsa": true}

// Validate checks the configuration for invalid or inconsistent values.
// It returns an error describing the first validation failure found.
//
// Validation rules:
//   - keys.algorithm is ed25519 or rsa, keys.backend is file, redis or memory
//   - the file backend needs keys.dir and a positive keys.lock_timeout
//   - the redis backend needs redis.addr
//   - store.backend is sqlite, badger or memory, and persistent backends need store.path
//   - content.max_size and content.http_timeout are positive
//   - server.addr is set and rate limits are positive
//   - share.base_url, when set, is an absolute http(s) URL
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.ErrConfigNil
	}
	if err := validateKeysConfig(cfg); err != nil {
		return err
	}
	if err := validateStoreConfig(&cfg.Store); err != nil {
		return err
	}
	if err := validateContentConfig(&cfg.Content); err != nil {
		return err
	}
	if err := validateServerConfig(&cfg.Server); err != nil {
		return err
	}
	return validateShareConfig(&cfg.Share)
}

func validateKeysConfig(cfg *Config) error {
	k := &cfg.Keys
	if !supportedAlgorithms[strings.ToLower(strings.TrimSpace(k.Algorithm))] {
		return errors.Wrapf(errors.ErrConfigInvalidKeys,
			"keys.algorithm must be ed25519 or rsa, got %q", k.Algorithm)
	}

	switch k.Backend {
	case BackendMemory:
	case BackendFile:
		if k.Dir == "" {
			return errors.Wrap(errors.ErrConfigInvalidKeys, "keys.dir must not be empty for the file backend")
		}
		if k.LockTimeout <= 0 {
			return errors.Wrapf(errors.ErrConfigInvalidKeys,
				"keys.lock_timeout must be positive, got %s", k.LockTimeout)
		}
	case BackendRedis:
		if cfg.Redis.Addr == "" {
			return errors.Wrap(errors.ErrConfigInvalidRedis, "redis.addr must be set when keys.backend is redis")
		}
		if cfg.Redis.DB < 0 {
			return errors.Wrapf(errors.ErrConfigInvalidRedis, "redis.db cannot be negative, got %d", cfg.Redis.DB)
		}
	default:
		return errors.Wrapf(errors.ErrConfigInvalidKeys,
			"keys.backend must be file, redis or memory, got %q", k.Backend)
	}
	return nil
}

func validateStoreConfig(s *StoreConfig) error {
	switch s.Backend {
	case BackendMemory:
		return nil
	case BackendSQLite, BackendBadger:
		if s.Path == "" {
			return errors.Wrapf(errors.ErrConfigInvalidStore, "store.path must not be empty for %s", s.Backend)
		}
		return nil
	default:
		return errors.Wrapf(errors.ErrConfigInvalidStore,
			"store.backend must be sqlite, badger or memory, got %q", s.Backend)
	}
}

func validateContentConfig(c *ContentConfig) error {
	if c.MaxSize <= 0 {
		return errors.Wrapf(errors.ErrConfigInvalidContent, "content.max_size must be positive, got %d", c.MaxSize)
	}
	if c.HTTPTimeout <= 0 {
		return errors.Wrapf(errors.ErrConfigInvalidContent,
			"content.http_timeout must be positive, got %s", c.HTTPTimeout)
	}
	return nil
}

func validateServerConfig(s *ServerConfig) error {
	if s.Addr == "" {
		return errors.Wrap(errors.ErrConfigInvalidServer, "server.addr must not be empty")
	}
	if s.RateLimitRPS <= 0 || s.RateLimitBurst < 1 {
		return errors.Wrapf(errors.ErrConfigInvalidServer,
			"server rate limit must be positive, got rps=%v burst=%d", s.RateLimitRPS, s.RateLimitBurst)
	}
	if !strings.HasPrefix(s.MetricsPath, "/") {
		return errors.Wrapf(errors.ErrConfigInvalidServer,
			"server.metrics_path must start with '/', got %q", s.MetricsPath)
	}
	return nil
}

func validateShareConfig(s *ShareConfig) error {
	if s.BaseURL == "" {
		return nil
	}
	u, err := url.Parse(s.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.Wrapf(errors.ErrConfigInvalidServer,
			"share.base_url must be an absolute http(s) URL, got %q", s.BaseURL)
	}
	return nil
}
