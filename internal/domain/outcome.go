package domain

import "fmt"

// OutcomeStatus is the result class of a verification.
type OutcomeStatus string

// Verification outcomes. Only Valid means the document is intact.
const (
	// OutcomeValid means the signature matches the content and public key.
	OutcomeValid OutcomeStatus = "valid"

	// OutcomeTampered means the proof is well formed but does not match the content.
	OutcomeTampered OutcomeStatus = "tampered"

	// OutcomeMalformed means the proof itself is broken or could not be evaluated.
	OutcomeMalformed OutcomeStatus = "malformed"

	// OutcomeUnsigned means no signing claim was ever attached.
	OutcomeUnsigned OutcomeStatus = "unsigned"
)

// String implements fmt.Stringer.
func (s OutcomeStatus) String() string {
	return string(s)
}

// Outcome is the result of verifying a document against its bound metadata.
type Outcome struct {
	Status OutcomeStatus `json:"status"`

	// Reason explains a Malformed outcome.
	Reason string `json:"reason,omitempty"`

	// Digest is the hex SHA-512 of the verified content, when it was computed.
	Digest string `json:"digest,omitempty"`

	// Err is the underlying error of a Malformed outcome, kept so callers can
	// tell retryable availability failures from broken proofs.
	Err error `json:"-"`
}

// Valid returns a Valid outcome.
func Valid(digest Digest) Outcome {
	return Outcome{Status: OutcomeValid, Digest: digest.Hex()}
}

// Tampered returns a Tampered outcome.
func Tampered(digest Digest) Outcome {
	return Outcome{Status: OutcomeTampered, Digest: digest.Hex()}
}

// Unsigned returns an Unsigned outcome.
func Unsigned() Outcome {
	return Outcome{Status: OutcomeUnsigned}
}

// Malformed returns a Malformed outcome carrying err as its reason.
func Malformed(err error) Outcome {
	return Outcome{Status: OutcomeMalformed, Reason: err.Error(), Err: err}
}

// String renders the outcome for humans.
func (o Outcome) String() string {
	if o.Status == OutcomeMalformed && o.Reason != "" {
		return fmt.Sprintf("%s (%s)", o.Status, o.Reason)
	}
	return string(o.Status)
}
