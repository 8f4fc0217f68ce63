package errors

import "errors"

// ErrorInfo holds user-facing message and suggested action for an error.
type ErrorInfo struct {
	// Message is the user-friendly error description.
	Message string
	// Action is a suggested action to resolve the issue (empty if none).
	Action string
}

// errorEntry pairs a sentinel error with its user-facing info.
type errorEntry struct {
	err  error
	info ErrorInfo
}

// errorInfoEntries maps sentinel errors to their user-facing messages.
// Using a slice (not a map) because errors.Is() requires proper error chain traversal.
//
//nolint:gochecknoglobals // Pre-built mapping for efficiency
var errorInfoEntries = []errorEntry{
	// ===================
	// Signing core
	// ===================
	{
		err: ErrContentUnavailable,
		info: ErrorInfo{
			Message: "The document content could not be read.",
			Action:  "Check the file path or URL and retry.",
		},
	},
	{
		err: ErrKeyStoreUnavailable,
		info: ErrorInfo{
			Message: "The key store is unavailable.",
			Action:  "Check the key directory or redis connection and retry. No key was generated.",
		},
	},
	{
		err: ErrKeyNotProvisioned,
		info: ErrorInfo{
			Message: "No signing key exists for this identity.",
			Action:  "Run 'docsign keys init --identity <id>' first.",
		},
	},
	{
		err: ErrInvalidKeyFormat,
		info: ErrorInfo{
			Message: "The public key is malformed.",
			Action:  "Supply the base64 PKIX public key exactly as it was bound to the document.",
		},
	},
	{
		err: ErrInvalidSignatureFormat,
		info: ErrorInfo{
			Message: "The signature is malformed.",
			Action:  "Supply the base64 signature exactly as it was bound to the document.",
		},
	},
	{
		err: ErrInvalidMetadata,
		info: ErrorInfo{
			Message: "The document's signature metadata is malformed.",
			Action:  "Investigate the stored record; the proof is broken, not necessarily tampered.",
		},
	},
	{
		err: ErrKeyDecryptFailed,
		info: ErrorInfo{
			Message: "The private key could not be decrypted.",
			Action:  "Check the passphrase environment variable configured in keys.passphrase_env.",
		},
	},
	{
		err: ErrUnsupportedAlgorithm,
		info: ErrorInfo{
			Message: "The signature algorithm is not supported.",
			Action:  "Use 'ed25519' or 'rsa' in keys.algorithm.",
		},
	},
	{
		err: ErrEmptyIdentity,
		info: ErrorInfo{
			Message: "An identity is required.",
			Action:  "Pass --identity with the account id that owns the key.",
		},
	},

	// ===================
	// Documents
	// ===================
	{
		err: ErrDocumentNotFound,
		info: ErrorInfo{
			Message: "The document was not found.",
			Action:  "Run 'docsign list --identity <id>' to see stored documents.",
		},
	},
	{
		err: ErrDocumentExists,
		info: ErrorInfo{
			Message: "A document with this reference already exists.",
		},
	},
	{
		err: ErrContentTooLarge,
		info: ErrorInfo{
			Message: "The document is larger than the configured limit.",
			Action:  "Increase content.max_size in the config file.",
		},
	},
	{
		err: ErrInvalidShareToken,
		info: ErrorInfo{
			Message: "The share link is not valid.",
		},
	},
	{
		err: ErrLockTimedOut,
		info: ErrorInfo{
			Message: "Another process is holding the key lock.",
			Action:  "Retry in a moment or increase keys.lock_timeout.",
		},
	},

	// ===================
	// Configuration
	// ===================
	{
		err: ErrConfigInvalidKeys,
		info: ErrorInfo{
			Message: "The keys configuration is invalid.",
			Action:  "Run 'docsign config show' and fix the keys section.",
		},
	},
	{
		err: ErrConfigInvalidStore,
		info: ErrorInfo{
			Message: "The store configuration is invalid.",
			Action:  "Run 'docsign config show' and fix the store section.",
		},
	},
	{
		err: ErrConfigInvalidRedis,
		info: ErrorInfo{
			Message: "The redis configuration is invalid.",
			Action:  "Set redis.addr when keys.backend is 'redis'.",
		},
	},
	{
		err: ErrConfigInvalidServer,
		info: ErrorInfo{
			Message: "The server configuration is invalid.",
			Action:  "Run 'docsign config show' and fix the server section.",
		},
	},
	{
		err: ErrUnsupportedBackend,
		info: ErrorInfo{
			Message: "The configured backend is not supported.",
		},
	},
	{
		err: ErrInvalidOutputFormat,
		info: ErrorInfo{
			Message: "Invalid output format.",
			Action:  "Use --output text or --output json.",
		},
	},
}

// errorInfoMap provides O(1) lookup for direct sentinel error matches.
//
//nolint:gochecknoglobals // Pre-built mapping for O(1) lookup performance
var errorInfoMap = buildErrorInfoMap()

func buildErrorInfoMap() map[error]ErrorInfo {
	m := make(map[error]ErrorInfo, len(errorInfoEntries))
	for _, entry := range errorInfoEntries {
		m[entry.err] = entry.info
	}
	return m
}

// getErrorInfo looks up the ErrorInfo for a given error.
// It first tries a direct map lookup for unwrapped sentinel errors,
// then falls back to errors.Is() traversal for wrapped errors.
func getErrorInfo(err error) ErrorInfo {
	if info, ok := errorInfoMap[err]; ok {
		return info
	}

	for _, entry := range errorInfoEntries {
		if errors.Is(err, entry.err) {
			return entry.info
		}
	}

	return ErrorInfo{Message: err.Error()}
}

// UserMessage returns a user-friendly message for common errors.
// For unrecognized errors, it returns the error's original message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	return getErrorInfo(err).Message
}

// Actionable returns a user-friendly error message along with a suggested
// action the user can take to resolve or work around the issue.
func Actionable(err error) (message, action string) {
	if err == nil {
		return "", ""
	}
	info := getErrorInfo(err)
	return info.Message, info.Action
}
