package cli

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mrz1836/docsign/internal/config"
	"github.com/mrz1836/docsign/internal/domain"
	"github.com/mrz1836/docsign/internal/errors"
)

// errorResponse is the JSON body written when a command fails with -o json.
type errorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Action    string `json:"action,omitempty"`
	Retryable bool   `json:"retryable"`
}

// encodeJSONIndented encodes a value as indented JSON to the writer.
func encodeJSONIndented(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// outputFormat returns the --output value of cmd.
func outputFormat(cmd *cobra.Command) string {
	if f := cmd.Flag("output"); f != nil {
		return f.Value.String()
	}
	return OutputText
}

// writeResult writes v as JSON, or calls text for the human format.
func writeResult(w io.Writer, format string, v any, text func(io.Writer)) error {
	if format == OutputJSON {
		return encodeJSONIndented(w, v)
	}
	text(w)
	return nil
}

// handleCommandError reports err in the requested format. In JSON mode the
// error is written to w and the returned error wraps ErrJSONErrorOutput so
// the exit code is kept but nothing is printed twice.
func handleCommandError(w io.Writer, format string, err error) error {
	if err == nil || format != OutputJSON {
		return err
	}
	msg, action := errors.Actionable(err)
	_ = encodeJSONIndented(w, errorResponse{
		Error:     err.Error(),
		Message:   msg,
		Action:    action,
		Retryable: errors.IsRetryable(err),
	})
	return fmt.Errorf("%w: %w", errors.ErrJSONErrorOutput, err)
}

// outcomeView is the printed form of a verification.
type outcomeView struct {
	domain.Outcome

	Ref       string `json:"ref,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

// writeOutcome prints o and converts a non-Valid outcome into an OutcomeError.
func writeOutcome(w io.Writer, format, ref string, o domain.Outcome) error {
	view := outcomeView{Outcome: o, Ref: ref, Retryable: errors.IsRetryable(o.Err)}
	err := writeResult(w, format, view, func(w io.Writer) {
		if ref != "" {
			_, _ = fmt.Fprintf(w, "%s: %s\n", ref, o)
		} else {
			_, _ = fmt.Fprintln(w, o.String())
		}
		if o.Digest != "" {
			_, _ = fmt.Fprintf(w, "  sha512: %s\n", o.Digest)
		}
	})
	if err != nil {
		return err
	}
	return outcomeResult(o)
}

// loadConfig loads the effective config, honoring --config.
func loadConfig(ctx context.Context, flags *GlobalFlags) (*config.Config, error) {
	logger := GetLogger()
	ctx = logger.WithContext(ctx)
	if flags.ConfigPath != "" {
		return config.LoadFile(ctx, flags.ConfigPath)
	}
	return config.Load(ctx)
}

// openApp loads config and builds the services for one command run.
func openApp(ctx context.Context, flags *GlobalFlags) (*App, error) {
	cfg, err := loadConfig(ctx, flags)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return NewServiceFactory(GetLogger()).Build(ctx, cfg)
}

// withApp runs fn against a freshly built App and closes it afterwards.
// Errors from both are reported in the command's output format.
func withApp(cmd *cobra.Command, flags *GlobalFlags, fn func(ctx context.Context, app *App, w io.Writer) error) error {
	ctx := cmd.Context()
	w := cmd.OutOrStdout()
	format := outputFormat(cmd)

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	app, err := openApp(ctx, flags)
	if err != nil {
		return handleCommandError(w, format, err)
	}
	defer func() {
		if cerr := app.Close(); cerr != nil {
			app.Logger.Warn().Err(cerr).Msg("failed to close stores")
		}
	}()

	err = fn(ctx, app, w)
	var oe *OutcomeError
	if err != nil && !stderrors.As(err, &oe) {
		return handleCommandError(w, format, err)
	}
	return err
}
