package cli

import (
	"fmt"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/docsign/internal/domain"
	"github.com/mrz1836/docsign/internal/errors"
)

func TestExitCodes(t *testing.T) {
	t.Parallel()

	codes := []int{ExitSuccess, ExitError, ExitInvalidInput, ExitTampered, ExitMalformed, ExitUnsigned}
	for i, code := range codes {
		assert.Equal(t, i, code)
	}
}

func TestAddGlobalFlags_ParsesCorrectly(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		args     []string
		expected GlobalFlags
	}{
		{"defaults", []string{}, GlobalFlags{Output: OutputText}},
		{"json shorthand", []string{"-o", "json"}, GlobalFlags{Output: OutputJSON}},
		{"verbose", []string{"--verbose"}, GlobalFlags{Output: OutputText, Verbose: true}},
		{"quiet shorthand", []string{"-q"}, GlobalFlags{Output: OutputText, Quiet: true}},
		{"config path", []string{"-c", "/tmp/docsign.yaml"}, GlobalFlags{Output: OutputText, ConfigPath: "/tmp/docsign.yaml"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			flags := &GlobalFlags{}
			cmd := &cobra.Command{Use: "test", RunE: func(*cobra.Command, []string) error { return nil }}
			AddGlobalFlags(cmd, flags)
			cmd.SetArgs(tc.args)

			require.NoError(t, cmd.Execute())
			assert.Equal(t, tc.expected, *flags)
		})
	}
}

func TestAddGlobalFlags_VerboseQuietExclusive(t *testing.T) {
	t.Parallel()

	cmd := &cobra.Command{Use: "test", RunE: func(*cobra.Command, []string) error { return nil }}
	AddGlobalFlags(cmd, &GlobalFlags{})
	cmd.SetArgs([]string{"-v", "-q"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitInvalidInput, ExitCodeForError(err))
}

func TestBindGlobalFlags(t *testing.T) {
	t.Parallel()

	v := viper.New()
	cmd := &cobra.Command{Use: "test"}
	AddGlobalFlags(cmd, &GlobalFlags{})
	require.NoError(t, cmd.PersistentFlags().Set("output", "json"))

	require.NoError(t, BindGlobalFlags(v, cmd))
	assert.Equal(t, "json", v.GetString("output"))
}

func TestIsValidOutputFormat(t *testing.T) {
	t.Parallel()

	assert.ElementsMatch(t, []string{"text", "json"}, ValidOutputFormats())
	assert.True(t, IsValidOutputFormat("text"))
	assert.True(t, IsValidOutputFormat("json"))
	assert.False(t, IsValidOutputFormat("yaml"))
	assert.False(t, IsValidOutputFormat(""))
	assert.False(t, IsValidOutputFormat("JSON"))
}

func TestOutcomeResult(t *testing.T) {
	t.Parallel()

	require.NoError(t, outcomeResult(domain.Outcome{Status: domain.OutcomeValid}))

	err := outcomeResult(domain.Unsigned())
	var oe *OutcomeError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, "verification unsigned", err.Error())
}

func TestExitCodeForError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"tampered", &OutcomeError{Outcome: domain.Outcome{Status: domain.OutcomeTampered}}, ExitTampered},
		{"malformed", &OutcomeError{Outcome: domain.Malformed(errors.ErrInvalidMetadata)}, ExitMalformed},
		{"unsigned", &OutcomeError{Outcome: domain.Unsigned()}, ExitUnsigned},
		{"wrapped outcome", fmt.Errorf("check: %w", &OutcomeError{Outcome: domain.Unsigned()}), ExitUnsigned},
		{"exit code 2 wrapper", errors.NewExitCode2Error(errors.ErrEmptyValue), ExitInvalidInput},
		{"empty identity", errors.ErrEmptyIdentity, ExitInvalidInput},
		{"document not found", fmt.Errorf("get: %w", errors.ErrDocumentNotFound), ExitInvalidInput},
		{"key not provisioned", errors.ErrKeyNotProvisioned, ExitInvalidInput},
		{"json output keeps code", fmt.Errorf("%w: %w", errors.ErrJSONErrorOutput, errors.ErrInvalidShareToken), ExitInvalidInput},
		{"key store unavailable", errors.ErrKeyStoreUnavailable, ExitError},
		{"content unavailable", errors.ErrContentUnavailable, ExitError},
		{"cobra unknown flag", fmt.Errorf("unknown flag: --nope"), ExitInvalidInput},
		{"cobra arg count", fmt.Errorf("accepts 1 arg(s), received 0"), ExitInvalidInput},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, ExitCodeForError(tc.err))
		})
	}
}

func TestIsInvalidInputError(t *testing.T) {
	t.Parallel()

	assert.True(t, isInvalidInputError(`required flag(s) "identity" not set`))
	assert.True(t, isInvalidInputError(`unknown command "frobnicate" for "docsign"`))
	assert.False(t, isInvalidInputError("connection refused"))
}
