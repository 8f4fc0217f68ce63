// Package constants provides centralized constant values used throughout docsign.
// This package is the single source of truth for all shared constants and MUST NOT
// import any other internal packages.
package constants

import "time"

// Directory names and paths used by docsign for organizing data.
const (
	// DocsignHome is the hidden directory name where docsign stores all its data.
	// This directory is created in the user's home directory.
	DocsignHome = ".docsign"

	// KeysDir is the directory name where file-backed keypairs are stored.
	KeysDir = "keys"

	// LogsDir is the directory name where log files are stored.
	LogsDir = "logs"

	// DocumentsDBFileName is the default SQLite artifact store file.
	DocumentsDBFileName = "documents.db"

	// BadgerDirName is the default directory for the badger artifact store.
	BadgerDirName = "documents.badger"
)

// Key store settings.
const (
	// KeyFileExtension is appended to the base58-encoded identity for key files.
	KeyFileExtension = ".key"

	// LockFileExtension is appended to a key file path for its lock file.
	LockFileExtension = ".lock"

	// KeyRecordVersion is the schema version of persisted keypair records.
	KeyRecordVersion = 1

	// DefaultLockTimeout bounds how long a file key store waits for the create lock.
	DefaultLockTimeout = 5 * time.Second

	// LockRetryInterval is the polling interval while waiting for a file lock.
	LockRetryInterval = 50 * time.Millisecond

	// DefaultRedisKeyPrefix namespaces docsign keys inside a shared redis.
	DefaultRedisKeyPrefix = "docsign:"

	// DefaultRedisDialTimeout bounds the initial redis connection.
	DefaultRedisDialTimeout = 5 * time.Second

	// DefaultPassphraseEnv names the environment variable holding the key passphrase.
	DefaultPassphraseEnv = "DOCSIGN_KEY_PASSPHRASE"
)

// Content settings.
const (
	// HashChunkSize is the read buffer used when hashing streamed content.
	HashChunkSize = 32 * 1024

	// DefaultMaxContentSize caps documents read from any source (64 MiB).
	DefaultMaxContentSize int64 = 64 << 20

	// DefaultHTTPTimeout bounds remote content fetches.
	DefaultHTTPTimeout = 30 * time.Second
)

// Server settings.
const (
	// DefaultServerAddr is the listen address of 'docsign serve'.
	DefaultServerAddr = "127.0.0.1:8427"

	// DefaultRateLimitRPS is the sustained per-client request rate.
	DefaultRateLimitRPS = 10.0

	// DefaultRateLimitBurst is the per-client burst size.
	DefaultRateLimitBurst = 20

	// DefaultMetricsPath is where prometheus metrics are exposed.
	DefaultMetricsPath = "/metrics"

	// ServerShutdownTimeout bounds graceful HTTP shutdown.
	ServerShutdownTimeout = 10 * time.Second
)

// Log rotation settings for the CLI log file.
const (
	// LogMaxSizeMB is the maximum size in megabytes before rotation.
	LogMaxSizeMB = 10

	// LogMaxBackups is the number of rotated files to keep.
	LogMaxBackups = 3

	// LogMaxAgeDays is the number of days to retain rotated files.
	LogMaxAgeDays = 30

	// LogCompress enables gzip compression of rotated files.
	LogCompress = true
)
