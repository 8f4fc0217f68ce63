// Package errors provides centralized error handling for docsign.
//
// This package defines sentinel errors used for programmatic error categorization
// throughout the application. All error types can be checked using errors.Is().
//
// IMPORTANT: This package MUST NOT import any other internal packages.
// Only standard library imports are allowed.
package errors

import "errors"

// Sentinel errors for the signing core.
// Retryable classes are ErrContentUnavailable and ErrKeyStoreUnavailable;
// everything else is fatal to the current operation.
var (
	// ErrContentUnavailable indicates the document bytes could not be read
	// from their source. Callers may retry.
	ErrContentUnavailable = errors.New("content unavailable")

	// ErrKeyStoreUnavailable indicates the key store could not be reached or
	// returned data it could not decode. It is never a synonym for "no key".
	ErrKeyStoreUnavailable = errors.New("key store unavailable")

	// ErrKeyNotProvisioned indicates a signing request for an identity that
	// has no keypair yet. The caller must provision first.
	ErrKeyNotProvisioned = errors.New("key not provisioned")

	// ErrKeyNotFound is returned by key stores when no keypair exists for an
	// identity. It is the only error that may trigger key generation.
	ErrKeyNotFound = errors.New("key not found")

	// ErrInvalidKeyFormat indicates a public or private key that cannot be decoded.
	ErrInvalidKeyFormat = errors.New("invalid key format")

	// ErrInvalidSignatureFormat indicates a signature with the wrong shape for its key.
	ErrInvalidSignatureFormat = errors.New("invalid signature format")

	// ErrInvalidDigest indicates a digest that is not a SHA-512 sum.
	ErrInvalidDigest = errors.New("invalid digest")

	// ErrUnsupportedAlgorithm indicates an unknown signature algorithm name or key type.
	ErrUnsupportedAlgorithm = errors.New("unsupported signature algorithm")

	// ErrKeyDecryptFailed indicates an encrypted private key could not be opened,
	// usually because the passphrase is wrong.
	ErrKeyDecryptFailed = errors.New("key decryption failed")

	// ErrEmptyIdentity indicates an empty identity was supplied.
	ErrEmptyIdentity = errors.New("identity cannot be empty")

	// ErrInvalidMetadata indicates bound metadata that is present but malformed.
	ErrInvalidMetadata = errors.New("invalid signature metadata")
)

// Sentinel errors for the artifact store and host surfaces.
var (
	// ErrDocumentNotFound indicates the requested document reference does not exist.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrDocumentExists indicates an attempt to store a document under a reference already in use.
	ErrDocumentExists = errors.New("document already exists")

	// ErrInvalidDocument indicates a document with an empty name or missing owner.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrContentTooLarge indicates the content exceeds the configured maximum size.
	ErrContentTooLarge = errors.New("content exceeds maximum size")

	// ErrInvalidShareToken indicates a share token that does not decode to a reference.
	ErrInvalidShareToken = errors.New("invalid share token")

	// ErrLockTimedOut indicates a file lock could not be acquired within the timeout period.
	ErrLockTimedOut = errors.New("lock acquisition timed out")

	// ErrUnsupportedBackend indicates an unknown key store or artifact store backend name.
	ErrUnsupportedBackend = errors.New("unsupported backend")
)

// Sentinel errors for configuration and CLI handling.
var (
	// ErrConfigNil indicates that a nil config was passed to validation.
	ErrConfigNil = errors.New("config is nil")

	// ErrConfigInvalidKeys indicates an invalid keys configuration value.
	ErrConfigInvalidKeys = errors.New("invalid keys configuration")

	// ErrConfigInvalidStore indicates an invalid store configuration value.
	ErrConfigInvalidStore = errors.New("invalid store configuration")

	// ErrConfigInvalidRedis indicates an invalid redis configuration value.
	ErrConfigInvalidRedis = errors.New("invalid redis configuration")

	// ErrConfigInvalidServer indicates an invalid server configuration value.
	ErrConfigInvalidServer = errors.New("invalid server configuration")

	// ErrConfigInvalidContent indicates an invalid content configuration value.
	ErrConfigInvalidContent = errors.New("invalid content configuration")

	// ErrInvalidOutputFormat indicates an invalid output format was specified.
	ErrInvalidOutputFormat = errors.New("invalid output format")

	// ErrEmptyValue indicates that a required value was empty.
	ErrEmptyValue = errors.New("value cannot be empty")

	// ErrJSONErrorOutput indicates that an error has already been output as JSON.
	// Commands should silence cobra's error printing when this is returned.
	ErrJSONErrorOutput = errors.New("error output as JSON")
)

// IsRetryable reports whether err belongs to a transient class the caller may retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrContentUnavailable) || errors.Is(err, ErrKeyStoreUnavailable)
}

// ExitCode2Error wraps an error to indicate exit code 2 should be used.
type ExitCode2Error struct {
	Err error
}

// NewExitCode2Error wraps an error to indicate exit code 2.
func NewExitCode2Error(err error) *ExitCode2Error {
	return &ExitCode2Error{Err: err}
}

// Error implements the error interface.
func (e *ExitCode2Error) Error() string {
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ExitCode2Error) Unwrap() error {
	return e.Err
}

// IsExitCode2Error checks if an error should result in exit code 2.
func IsExitCode2Error(err error) bool {
	var e *ExitCode2Error
	return errors.As(err, &e)
}
