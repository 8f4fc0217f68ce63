package cli

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrz1836/docsign/internal/content"
	"github.com/mrz1836/docsign/internal/document"
	"github.com/mrz1836/docsign/internal/domain"
)

// documentView is the printed form of a stored document.
type documentView struct {
	Ref        string           `json:"ref"`
	Name       string           `json:"name"`
	Identity   string           `json:"identity"`
	Size       int64            `json:"size"`
	UploadedAt time.Time        `json:"uploaded_at"`
	Signed     bool             `json:"signed"`
	Metadata   *domain.Metadata `json:"metadata,omitempty"`
	// MetadataError is set when stored metadata exists but does not parse.
	MetadataError string `json:"metadata_error,omitempty"`
}

func newDocumentView(rec *domain.DocumentRecord) documentView {
	v := documentView{
		Ref:        rec.Ref,
		Name:       rec.Name,
		Identity:   rec.Identity.String(),
		Size:       rec.Size,
		UploadedAt: rec.UploadedAt,
		Signed:     rec.Signed(),
	}
	if rec.Signed() {
		md := rec.Metadata()
		v.Metadata = &md
	}
	if rec.MetadataErr != nil {
		v.MetadataError = rec.MetadataErr.Error()
	}
	return v
}

func printDocumentView(w io.Writer, v documentView) {
	_, _ = fmt.Fprintf(w, "ref:         %s\n", v.Ref)
	_, _ = fmt.Fprintf(w, "name:        %s\n", v.Name)
	_, _ = fmt.Fprintf(w, "identity:    %s\n", v.Identity)
	_, _ = fmt.Fprintf(w, "size:        %d\n", v.Size)
	_, _ = fmt.Fprintf(w, "uploaded_at: %s\n", v.UploadedAt.UTC().Format(time.RFC3339))
	switch {
	case v.Metadata != nil:
		_, _ = fmt.Fprintf(w, "signed:      %s\n", v.Metadata.DateCreated)
	case v.MetadataError != "":
		_, _ = fmt.Fprintf(w, "signed:      malformed (%s)\n", v.MetadataError)
	default:
		_, _ = fmt.Fprintln(w, "signed:      no")
	}
}

// AddDocumentCommands adds upload, check, list, delete, share and resolve.
func AddDocumentCommands(root *cobra.Command, flags *GlobalFlags) {
	root.AddCommand(
		newUploadCmd(flags),
		newCheckCmd(flags),
		newListCmd(flags),
		newDeleteCmd(flags),
		newShareCmd(flags),
		newResolveCmd(flags),
	)
}

func newUploadCmd(flags *GlobalFlags) *cobra.Command {
	var identity, name string
	var unsigned bool

	cmd := &cobra.Command{
		Use:   "upload <file|url>",
		Short: "Sign and store a document",
		Long: `Store a document for an identity. Unless --unsigned is given the document
is signed first and the signature metadata is stored with it.

Examples:
  docsign upload invoice.pdf --identity alice
  docsign upload https://example.com/a.pdf -i alice --name a.pdf --unsigned`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *App, w io.Writer) error {
				data, err := app.Locator.Read(ctx, args[0])
				if err != nil {
					return err
				}
				if name == "" {
					name = defaultDocumentName(args[0])
				}
				rec, err := app.Documents.Upload(ctx, document.UploadRequest{
					Identity: domain.Identity(identity),
					Name:     name,
					Content:  data,
					Unsigned: unsigned,
				})
				if err != nil {
					return err
				}
				v := newDocumentView(rec)
				return writeResult(w, outputFormat(cmd), v, func(w io.Writer) { printDocumentView(w, v) })
			})
		},
	}
	cmd.Flags().StringVarP(&identity, "identity", "i", "", "identity that owns the document")
	cmd.Flags().StringVarP(&name, "name", "n", "", "document name (default: base name of the source)")
	cmd.Flags().BoolVar(&unsigned, "unsigned", false, "store without signing")
	_ = cmd.MarkFlagRequired("identity")
	return cmd
}

// defaultDocumentName derives a name from a path or URL.
func defaultDocumentName(source string) string {
	if content.IsURL(source) {
		if u, err := url.Parse(source); err == nil {
			if base := path.Base(u.Path); base != "/" && base != "." {
				return base
			}
			return u.Host
		}
	}
	return filepath.Base(source)
}

func newCheckCmd(flags *GlobalFlags) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "check <ref>",
		Short: "Verify a stored document, or a local copy of it",
		Long: `Verify the stored content of a document against its stored metadata. With
--file, verify that local copy against the stored metadata instead.

Exit codes: 0 valid, 3 tampered, 4 malformed, 5 unsigned.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *App, w io.Writer) error {
				ref := args[0]
				var (
					o   domain.Outcome
					err error
				)
				if file != "" {
					var data []byte
					data, err = app.Locator.Read(ctx, file)
					if err != nil {
						return err
					}
					o, err = app.Documents.VerifyCopy(ctx, ref, data)
				} else {
					o, err = app.Documents.VerifyRef(ctx, ref)
				}
				if err != nil {
					return err
				}
				return writeOutcome(w, outputFormat(cmd), ref, o)
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "local copy to verify instead of the stored content")
	return cmd
}

func newListCmd(flags *GlobalFlags) *cobra.Command {
	var identity string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List an identity's documents, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *App, w io.Writer) error {
				recs, err := app.Documents.List(ctx, domain.Identity(identity))
				if err != nil {
					return err
				}
				views := make([]documentView, 0, len(recs))
				for _, rec := range recs {
					views = append(views, newDocumentView(rec))
				}
				return writeResult(w, outputFormat(cmd), views, func(w io.Writer) { printDocumentTable(w, views) })
			})
		},
	}
	cmd.Flags().StringVarP(&identity, "identity", "i", "", "identity whose documents to list")
	_ = cmd.MarkFlagRequired("identity")
	return cmd
}

func printDocumentTable(w io.Writer, views []documentView) {
	if len(views) == 0 {
		_, _ = fmt.Fprintln(w, "no documents")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "REF\tNAME\tSIZE\tSIGNED\tUPLOADED")
	for _, v := range views {
		signed := "no"
		switch {
		case v.Signed:
			signed = "yes"
		case v.MetadataError != "":
			signed = "malformed"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", v.Ref, v.Name, v.Size, signed, v.UploadedAt.UTC().Format(time.RFC3339))
	}
	_ = tw.Flush()
}

func newDeleteCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <ref>",
		Short: "Delete a stored document and its metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *App, w io.Writer) error {
				if err := app.Documents.Delete(ctx, args[0]); err != nil {
					return err
				}
				result := map[string]string{"ref": args[0], "status": "deleted"}
				return writeResult(w, outputFormat(cmd), result, func(w io.Writer) {
					_, _ = fmt.Fprintf(w, "deleted %s\n", args[0])
				})
			})
		},
	}
}

func newShareCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "share <ref>",
		Short: "Print a share link for a stored document",
		Long: `Print a share token for a document. When share.base_url is configured the
full link is printed as well.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *App, w io.Writer) error {
				link, err := app.Documents.Share(ctx, args[0])
				if err != nil {
					return err
				}
				return writeResult(w, outputFormat(cmd), link, func(w io.Writer) {
					if link.URL != "" {
						_, _ = fmt.Fprintln(w, link.URL)
						return
					}
					_, _ = fmt.Fprintln(w, link.Token)
				})
			})
		},
	}
}

func newResolveCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <token>",
		Short: "Show the document a share token points at",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *App, w io.Writer) error {
				rec, err := app.Documents.Resolve(ctx, args[0])
				if err != nil {
					return err
				}
				v := newDocumentView(rec)
				return writeResult(w, outputFormat(cmd), v, func(w io.Writer) { printDocumentView(w, v) })
			})
		},
	}
}
