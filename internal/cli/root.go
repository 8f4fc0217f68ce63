// Package cli provides the command-line interface for docsign.
package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mrz1836/docsign/internal/errors"
)

// BuildInfo contains version information set at build time via ldflags.
type BuildInfo struct {
	// Version is the semantic version (e.g., "1.0.0").
	Version string
	// Commit is the git commit hash.
	Commit string
	// Date is the build date.
	Date string
}

// globalLogger stores the logger initialized in PersistentPreRunE.
// Access is protected by globalLoggerMu.
var (
	globalLogger   zerolog.Logger //nolint:gochecknoglobals // CLI logger requires global access
	globalLoggerMu sync.RWMutex   //nolint:gochecknoglobals // Protects globalLogger
)

// GetLogger returns the initialized logger for use by subcommands.
//
// It must only be called after the root command's PersistentPreRunE has
// executed; before that it returns a zero-value logger that discards output.
func GetLogger() zerolog.Logger {
	globalLoggerMu.RLock()
	defer globalLoggerMu.RUnlock()
	return globalLogger
}

// newRootCmd creates the root command for the docsign CLI.
func newRootCmd(flags *GlobalFlags, info BuildInfo) *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "docsign",
		Short: "Sign, store and verify documents",
		Long: `docsign signs documents with per-identity keypairs and verifies them later.

A signature binds three fields to a stored document: the signer's public key,
the signature over the SHA-512 digest, and the signing time. Anyone holding
the document and those fields can check it offline.

Verification exit codes:
  0  valid
  3  tampered (content or key does not match the signature)
  4  malformed (the proof itself is broken)
  5  unsigned (no signing claim was attached)`,
		Version: formatVersion(info),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := BindGlobalFlags(v, cmd); err != nil {
				return fmt.Errorf("failed to bind flags: %w", err)
			}

			if !IsValidOutputFormat(flags.Output) {
				return fmt.Errorf("%w: %q must be one of %v", errors.ErrInvalidOutputFormat, flags.Output, ValidOutputFormats())
			}

			globalLoggerMu.Lock()
			globalLogger = InitLogger(flags.Verbose, flags.Quiet)
			globalLoggerMu.Unlock()

			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	AddGlobalFlags(cmd, flags)

	AddKeysCommand(cmd, flags)
	AddSignCommand(cmd, flags)
	AddVerifyCommand(cmd, flags)
	AddDocumentCommands(cmd, flags)
	AddServeCommand(cmd, flags)
	AddConfigCommand(cmd, flags)

	return cmd
}

// formatVersion creates the version string from build info.
func formatVersion(info BuildInfo) string {
	if info.Version == "" {
		info.Version = "dev"
	}
	if info.Commit == "" {
		info.Commit = "none"
	}
	if info.Date == "" {
		info.Date = "unknown"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", info.Version, info.Commit, info.Date)
}

// Execute runs the root command and returns the process exit code.
func Execute(ctx context.Context, info BuildInfo) int {
	flags := &GlobalFlags{}
	//nolint:contextcheck // Cobra command pattern uses cmd.Context() internally
	cmd := newRootCmd(flags, info)
	err := cmd.ExecuteContext(ctx)
	defer CloseLogFile()

	if err != nil {
		reportError(cmd.ErrOrStderr(), err)
	}
	return ExitCodeForError(err)
}

// reportError prints err for humans unless the command already reported it.
func reportError(w io.Writer, err error) {
	var oe *OutcomeError
	if stderrors.As(err, &oe) || stderrors.Is(err, errors.ErrJSONErrorOutput) {
		return
	}
	msg, action := errors.Actionable(err)
	_, _ = fmt.Fprintf(w, "Error: %s\n", msg)
	if action != "" {
		_, _ = fmt.Fprintf(w, "  %s\n", action)
	}
	if msg != err.Error() {
		_, _ = fmt.Fprintf(w, "  (%s)\n", err.Error())
	}
}
