package config

import (
	"github.com/spf13/viper"

	"github.com/mrz1836/docsign/internal/constants"
)

// DefaultConfig returns a new Config with the built-in default values.
// Path fields are left empty and resolved against the docsign home at load time.
func DefaultConfig() *Config {
	return &Config{
		Keys: KeysConfig{
			Algorithm:     "ed25519",
			Backend:       BackendFile,
			PassphraseEnv: constants.DefaultPassphraseEnv,
			LockTimeout:   constants.DefaultLockTimeout,
		},
		Redis: RedisConfig{
			KeyPrefix:   constants.DefaultRedisKeyPrefix,
			DialTimeout: constants.DefaultRedisDialTimeout,
		},
		Store: StoreConfig{
			Backend: BackendSQLite,
		},
		Content: ContentConfig{
			MaxSize:     constants.DefaultMaxContentSize,
			HTTPTimeout: constants.DefaultHTTPTimeout,
		},
		Server: ServerConfig{
			Addr:           constants.DefaultServerAddr,
			RateLimitRPS:   constants.DefaultRateLimitRPS,
			RateLimitBurst: constants.DefaultRateLimitBurst,
			MetricsPath:    constants.DefaultMetricsPath,
		},
	}
}

// setDefaults configures all default values on the Viper instance.
// IMPORTANT: Keys must match the YAML tag names exactly, and every key needs a
// default so AutomaticEnv can resolve DOCSIGN_* overrides for it.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("keys.algorithm", d.Keys.Algorithm)
	v.SetDefault("keys.backend", d.Keys.Backend)
	v.SetDefault("keys.dir", "")
	v.SetDefault("keys.passphrase_env", d.Keys.PassphraseEnv)
	v.SetDefault("keys.lock_timeout", d.Keys.LockTimeout.String())

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", d.Redis.KeyPrefix)
	v.SetDefault("redis.dial_timeout", d.Redis.DialTimeout.String())

	v.SetDefault("store.backend", d.Store.Backend)
	v.SetDefault("store.path", "")

	v.SetDefault("content.max_size", d.Content.MaxSize)
	v.SetDefault("content.http_timeout", d.Content.HTTPTimeout.String())

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.rate_limit_rps", d.Server.RateLimitRPS)
	v.SetDefault("server.rate_limit_burst", d.Server.RateLimitBurst)
	v.SetDefault("server.metrics_path", d.Server.MetricsPath)

	v.SetDefault("share.base_url", "")
}
