package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrz1836/docsign/internal/document"
	"github.com/mrz1836/docsign/internal/domain"
	"github.com/mrz1836/docsign/internal/keystore"
)

// keyView is the printed form of a stored public key.
type keyView struct {
	Identity    string    `json:"identity"`
	Algorithm   string    `json:"algorithm"`
	PublicKey   string    `json:"public_key"`
	Fingerprint string    `json:"fingerprint"`
	CreatedAt   time.Time `json:"created_at"`
	Created     bool      `json:"created"`
	PEM         string    `json:"pem,omitempty"`
}

func newKeyView(e *keystore.Entry, created, withPEM bool) keyView {
	v := keyView{
		Identity:    e.Identity.String(),
		Algorithm:   e.Algorithm,
		PublicKey:   e.PublicKey.Base64(),
		Fingerprint: e.PublicKey.Fingerprint(),
		CreatedAt:   e.CreatedAt,
		Created:     created,
	}
	if withPEM {
		v.PEM = document.PublicKeyPEM(e.PublicKey)
	}
	return v
}

func printKeyView(w io.Writer, v keyView) {
	state := "existing"
	if v.Created {
		state = "created"
	}
	_, _ = fmt.Fprintf(w, "identity:    %s (%s)\n", v.Identity, state)
	_, _ = fmt.Fprintf(w, "algorithm:   %s\n", v.Algorithm)
	_, _ = fmt.Fprintf(w, "fingerprint: %s\n", v.Fingerprint)
	_, _ = fmt.Fprintf(w, "created_at:  %s\n", v.CreatedAt.UTC().Format(time.RFC3339))
	if v.PEM != "" {
		_, _ = fmt.Fprint(w, v.PEM)
		return
	}
	_, _ = fmt.Fprintf(w, "public_key:  %s\n", v.PublicKey)
}

// AddKeysCommand adds the keys command group.
func AddKeysCommand(root *cobra.Command, flags *GlobalFlags) {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Provision and inspect signing keys",
	}
	cmd.AddCommand(newKeysInitCmd(flags), newKeysShowCmd(flags))
	root.AddCommand(cmd)
}

func newKeysInitCmd(flags *GlobalFlags) *cobra.Command {
	var identity string
	var withPEM bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a keypair for an identity if it has none",
		Long: `Generate a keypair for an identity. Running it again for the same
identity is safe and returns the existing key.

Examples:
  docsign keys init --identity alice
  docsign keys init --identity alice --pem -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *App, w io.Writer) error {
				return runKeysInit(ctx, app, w, outputFormat(cmd), domain.Identity(identity), withPEM)
			})
		},
	}
	cmd.Flags().StringVarP(&identity, "identity", "i", "", "identity that owns the key")
	cmd.Flags().BoolVar(&withPEM, "pem", false, "print the public key as PEM")
	_ = cmd.MarkFlagRequired("identity")
	return cmd
}

func runKeysInit(ctx context.Context, app *App, w io.Writer, format string, identity domain.Identity, withPEM bool) error {
	res, err := app.Documents.ProvisionKey(ctx, identity)
	if err != nil {
		return err
	}
	v := newKeyView(res.Entry, res.Created, withPEM)
	return writeResult(w, format, v, func(w io.Writer) { printKeyView(w, v) })
}

func newKeysShowCmd(flags *GlobalFlags) *cobra.Command {
	var identity string
	var withPEM bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print an identity's public key without provisioning",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *App, w io.Writer) error {
				entry, err := app.Documents.PublicKey(ctx, domain.Identity(identity))
				if err != nil {
					return err
				}
				v := newKeyView(entry, false, withPEM)
				return writeResult(w, outputFormat(cmd), v, func(w io.Writer) { printKeyView(w, v) })
			})
		},
	}
	cmd.Flags().StringVarP(&identity, "identity", "i", "", "identity that owns the key")
	cmd.Flags().BoolVar(&withPEM, "pem", false, "print the public key as PEM")
	_ = cmd.MarkFlagRequired("identity")
	return cmd
}
