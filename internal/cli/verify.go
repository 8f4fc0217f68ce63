package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/mrz1836/docsign/internal/errors"
)

// verifyOptions are the proof sources accepted by verify.
type verifyOptions struct {
	publicKey    string
	signature    string
	metadataPath string
}

// AddVerifyCommand adds the verify command.
func AddVerifyCommand(root *cobra.Command, flags *GlobalFlags) {
	opts := &verifyOptions{}

	cmd := &cobra.Command{
		Use:   "verify <file|url>",
		Short: "Verify a document against a public key and signature",
		Long: `Verify a local file or an http(s) URL offline. Supply the proof either as
--public-key and --signature (base64) or as a metadata file from
'docsign sign --out'. Omitting both yields an unsigned outcome.

Exit codes: 0 valid, 3 tampered, 4 malformed, 5 unsigned.

Examples:
  docsign verify contract.pdf --public-key MCow... --signature 3q2+...
  docsign verify contract.pdf --metadata contract.sig.yaml -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *App, w io.Writer) error {
				return runVerify(ctx, app, w, outputFormat(cmd), args[0], opts)
			})
		},
	}
	cmd.Flags().StringVar(&opts.publicKey, "public-key", "", "base64 PKIX public key")
	cmd.Flags().StringVar(&opts.signature, "signature", "", "base64 signature")
	cmd.Flags().StringVarP(&opts.metadataPath, "metadata", "m", "", "metadata file written by 'docsign sign --out'")
	cmd.MarkFlagsMutuallyExclusive("metadata", "public-key")
	cmd.MarkFlagsMutuallyExclusive("metadata", "signature")
	root.AddCommand(cmd)
}

func runVerify(ctx context.Context, app *App, w io.Writer, format, source string, opts *verifyOptions) error {
	data, err := app.Locator.Read(ctx, source)
	if err != nil {
		return err
	}

	if opts.metadataPath != "" {
		meta, err := readMetadataFile(opts.metadataPath)
		if err != nil {
			return errors.NewExitCode2Error(err)
		}
		o, err := app.Documents.VerifyLocal(ctx, data, meta)
		if err != nil {
			return err
		}
		return writeOutcome(w, format, "", o)
	}

	o, err := app.Documents.VerifyDetached(ctx, data, opts.publicKey, opts.signature)
	if err != nil {
		return err
	}
	return writeOutcome(w, format, "", o)
}
