// Package config provides configuration management for docsign with layered precedence.
//
// Configuration sources are loaded in the following order (highest precedence first):
//  1. Environment variables (DOCSIGN_* prefix)
//  2. Project config (.docsign/config.yaml) or the file passed with --config
//  3. Global config (~/.docsign/config.yaml)
//  4. Built-in defaults
//
// Each higher level completely overrides the lower level for the same key.
//
// IMPORTANT: This package may import internal/constants and internal/errors,
// but MUST NOT import internal/domain or other internal packages.
package config

import "time"

// Backend names accepted in keys.backend and store.backend.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
)

// Config is the root configuration structure for docsign.
type Config struct {
	// Keys controls how signing keypairs are generated and persisted.
	Keys KeysConfig `yaml:"keys" mapstructure:"keys"`

	// Redis is used when keys.backend is "redis".
	Redis RedisConfig `yaml:"redis" mapstructure:"redis"`

	// Store selects the artifact store holding document content and metadata.
	Store StoreConfig `yaml:"store" mapstructure:"store"`

	// Content bounds reads from local files and URLs.
	Content ContentConfig `yaml:"content" mapstructure:"content"`

	// Server configures 'docsign serve'.
	Server ServerConfig `yaml:"server" mapstructure:"server"`

	// Share configures share links.
	Share ShareConfig `yaml:"share" mapstructure:"share"`
}

// KeysConfig contains key store settings.
type KeysConfig struct {
	// Algorithm used for newly provisioned keys: "ed25519" or "rsa".
	// Existing keys keep the algorithm they were created with.
	// Default: "ed25519"
	Algorithm string `yaml:"algorithm" mapstructure:"algorithm"`

	// Backend is one of "file", "redis" or "memory".
	// Default: "file"
	Backend string `yaml:"backend" mapstructure:"backend"`

	// Dir holds key files for the file backend.
	// Default: ~/.docsign/keys
	Dir string `yaml:"dir" mapstructure:"dir"`

	// PassphraseEnv names the environment variable whose value encrypts
	// private keys at rest. Keys are stored unencrypted when it is unset.
	// Default: "DOCSIGN_KEY_PASSPHRASE"
	PassphraseEnv string `yaml:"passphrase_env" mapstructure:"passphrase_env"`

	// LockTimeout bounds the wait for the file backend's create lock.
	// Default: 5s
	LockTimeout time.Duration `yaml:"lock_timeout" mapstructure:"lock_timeout"`
}

// RedisConfig contains connection settings for the redis key store.
type RedisConfig struct {
	Addr        string        `yaml:"addr" mapstructure:"addr"`
	Password    string        `yaml:"password" mapstructure:"password"`
	DB          int           `yaml:"db" mapstructure:"db"`
	KeyPrefix   string        `yaml:"key_prefix" mapstructure:"key_prefix"`
	DialTimeout time.Duration `yaml:"dial_timeout" mapstructure:"dial_timeout"`
}

// StoreConfig contains artifact store settings.
type StoreConfig struct {
	// Backend is one of "sqlite", "badger" or "memory".
	// Default: "sqlite"
	Backend string `yaml:"backend" mapstructure:"backend"`

	// Path is the sqlite database file or the badger directory.
	// Default: ~/.docsign/documents.db (sqlite) or ~/.docsign/documents.badger (badger)
	Path string `yaml:"path" mapstructure:"path"`
}

// ContentConfig bounds content reads.
type ContentConfig struct {
	// MaxSize is the largest document accepted, in bytes.
	// Default: 64 MiB
	MaxSize int64 `yaml:"max_size" mapstructure:"max_size"`

	// HTTPTimeout bounds fetching a document from a URL.
	// Default: 30s
	HTTPTimeout time.Duration `yaml:"http_timeout" mapstructure:"http_timeout"`
}

// ServerConfig contains HTTP API settings.
type ServerConfig struct {
	Addr           string  `yaml:"addr" mapstructure:"addr"`
	RateLimitRPS   float64 `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `yaml:"rate_limit_burst" mapstructure:"rate_limit_burst"`
	MetricsPath    string  `yaml:"metrics_path" mapstructure:"metrics_path"`
}

// ShareConfig contains share link settings.
type ShareConfig struct {
	// BaseURL prefixes generated share links. Empty yields token-only links.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}
