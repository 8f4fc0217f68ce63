// Package cli provides the command-line interface for docsign.
package cli

import (
	stderrors "errors"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mrz1836/docsign/internal/domain"
	"github.com/mrz1836/docsign/internal/errors"
)

// Exit codes for the CLI. Verification commands map their outcome onto
// 0 (valid), 3, 4 and 5.
const (
	// ExitSuccess indicates successful execution or a Valid outcome.
	ExitSuccess = 0
	// ExitError indicates a general error.
	ExitError = 1
	// ExitInvalidInput indicates invalid user input.
	ExitInvalidInput = 2
	// ExitTampered indicates a Tampered outcome.
	ExitTampered = 3
	// ExitMalformed indicates a Malformed outcome.
	ExitMalformed = 4
	// ExitUnsigned indicates an Unsigned outcome.
	ExitUnsigned = 5
)

// Output format constants.
const (
	// OutputText is the default human-readable output format.
	OutputText = "text"
	// OutputJSON is the machine-readable JSON output format.
	OutputJSON = "json"
)

// GlobalFlags holds flags available to all commands.
type GlobalFlags struct {
	// Output specifies the output format (text or json).
	Output string
	// Verbose enables debug-level logging.
	Verbose bool
	// Quiet suppresses non-essential output (warn level only).
	Quiet bool
	// ConfigPath replaces the project config file.
	ConfigPath string
}

// AddGlobalFlags adds global flags to a command.
func AddGlobalFlags(cmd *cobra.Command, flags *GlobalFlags) {
	cmd.PersistentFlags().StringVarP(&flags.Output, "output", "o", OutputText, "output format (text|json)")
	cmd.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "enable verbose output")
	cmd.PersistentFlags().BoolVarP(&flags.Quiet, "quiet", "q", false, "suppress non-essential output")
	cmd.PersistentFlags().StringVarP(&flags.ConfigPath, "config", "c", "", "config file (default .docsign/config.yaml over ~/.docsign/config.yaml)")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")
}

// BindGlobalFlags binds global flags to Viper so DOCSIGN_OUTPUT,
// DOCSIGN_VERBOSE and DOCSIGN_QUIET work as well.
func BindGlobalFlags(v *viper.Viper, cmd *cobra.Command) error {
	rootFlags := cmd.Root().PersistentFlags()

	for _, name := range []string{"output", "verbose", "quiet"} {
		if err := v.BindPFlag(name, rootFlags.Lookup(name)); err != nil {
			return err
		}
	}

	v.SetEnvPrefix("DOCSIGN")
	v.AutomaticEnv()
	return nil
}

// ValidOutputFormats returns the list of valid output format values.
func ValidOutputFormats() []string {
	return []string{OutputText, OutputJSON}
}

// IsValidOutputFormat checks if the given format is a valid output format.
func IsValidOutputFormat(format string) bool {
	for _, valid := range ValidOutputFormats() {
		if format == valid {
			return true
		}
	}
	return false
}

// OutcomeError reports a verification outcome other than Valid. The outcome
// has already been printed; it exists to carry the exit code.
type OutcomeError struct {
	Outcome domain.Outcome
}

// Error implements the error interface.
func (e *OutcomeError) Error() string {
	return "verification " + e.Outcome.String()
}

// outcomeResult turns a non-Valid outcome into an OutcomeError.
func outcomeResult(o domain.Outcome) error {
	if o.Status == domain.OutcomeValid {
		return nil
	}
	return &OutcomeError{Outcome: o}
}

// ExitCodeForError returns the exit code for err.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var oe *OutcomeError
	if stderrors.As(err, &oe) {
		switch oe.Outcome.Status {
		case domain.OutcomeTampered:
			return ExitTampered
		case domain.OutcomeMalformed:
			return ExitMalformed
		case domain.OutcomeUnsigned:
			return ExitUnsigned
		case domain.OutcomeValid:
			return ExitSuccess
		}
	}

	if errors.IsExitCode2Error(err) {
		return ExitInvalidInput
	}

	for _, sentinel := range invalidInputErrors() {
		if stderrors.Is(err, sentinel) {
			return ExitInvalidInput
		}
	}

	if isInvalidInputError(err.Error()) {
		return ExitInvalidInput
	}
	return ExitError
}

// invalidInputErrors are sentinels caused by what the user typed.
func invalidInputErrors() []error {
	return []error{
		errors.ErrInvalidOutputFormat,
		errors.ErrEmptyIdentity,
		errors.ErrEmptyValue,
		errors.ErrInvalidShareToken,
		errors.ErrInvalidDocument,
		errors.ErrDocumentNotFound,
		errors.ErrKeyNotProvisioned,
		errors.ErrUnsupportedAlgorithm,
	}
}

// isInvalidInputError catches cobra's built-in flag validation errors.
func isInvalidInputError(errMsg string) bool {
	invalidInputPatterns := []string{
		"unknown flag",
		"unknown shorthand flag",
		"flag needs an argument",
		"invalid argument",
		"if any flags in the group",
		"required flag",
		"unknown command",
		"accepts 1 arg",
	}

	for _, pattern := range invalidInputPatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}
	return false
}
