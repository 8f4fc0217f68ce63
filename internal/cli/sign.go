package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mrz1836/docsign/internal/domain"
)

// signView is the printed form of a signing bundle.
type signView struct {
	Source   string          `json:"source"`
	Identity string          `json:"identity"`
	Metadata domain.Metadata `json:"metadata"`
	Written  string          `json:"written,omitempty"`
}

// AddSignCommand adds the sign command.
func AddSignCommand(root *cobra.Command, flags *GlobalFlags) {
	var identity, out string

	cmd := &cobra.Command{
		Use:   "sign <file|url>",
		Short: "Sign a document and print its signature metadata",
		Long: `Sign a local file or an http(s) URL with the identity's key, provisioning
the key on first use. The three metadata fields are printed and, with --out,
written to a YAML file that 'docsign verify --metadata' accepts.

Examples:
  docsign sign contract.pdf --identity alice
  docsign sign https://example.com/terms.pdf -i alice --out terms.sig.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *App, w io.Writer) error {
				return runSign(ctx, app, w, outputFormat(cmd), args[0], domain.Identity(identity), out)
			})
		},
	}
	cmd.Flags().StringVarP(&identity, "identity", "i", "", "identity whose key signs the document")
	cmd.Flags().StringVar(&out, "out", "", "write the metadata to this YAML file")
	_ = cmd.MarkFlagRequired("identity")
	root.AddCommand(cmd)
}

func runSign(ctx context.Context, app *App, w io.Writer, format, source string, identity domain.Identity, out string) error {
	if err := identity.Validate(); err != nil {
		return err
	}
	data, err := app.Locator.Read(ctx, source)
	if err != nil {
		return err
	}
	bundle, err := app.Signing.SignBytes(ctx, data, identity)
	if err != nil {
		return err
	}

	v := signView{Source: source, Identity: identity.String(), Metadata: bundle.Metadata()}
	if out != "" {
		if err := writeMetadataFile(out, v.Metadata); err != nil {
			return err
		}
		v.Written = out
	}

	return writeResult(w, format, v, func(w io.Writer) {
		_, _ = fmt.Fprintf(w, "publicKey:   %s\n", v.Metadata.PublicKey)
		_, _ = fmt.Fprintf(w, "signature:   %s\n", v.Metadata.Signature)
		_, _ = fmt.Fprintf(w, "dateCreated: %s\n", v.Metadata.DateCreated)
		if v.Written != "" {
			_, _ = fmt.Fprintf(w, "written to %s\n", v.Written)
		}
	})
}

// writeMetadataFile stores md as YAML.
func writeMetadataFile(path string, md domain.Metadata) error {
	data, err := yaml.Marshal(md)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create metadata directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}

// readMetadataFile loads metadata written by writeMetadataFile. JSON is
// accepted too since it parses as YAML.
func readMetadataFile(path string) (domain.Metadata, error) {
	var md domain.Metadata
	data, err := os.ReadFile(path) //nolint:gosec // user-supplied metadata path
	if err != nil {
		return md, fmt.Errorf("read metadata: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return md, nil
	}
	if err := yaml.Unmarshal(data, &md); err != nil {
		return md, fmt.Errorf("decode metadata %s: %w", path, err)
	}
	return md, nil
}
