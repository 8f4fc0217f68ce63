package cli

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/mrz1836/docsign/internal/api"
	"github.com/mrz1836/docsign/internal/constants"
	"github.com/mrz1836/docsign/internal/signal"
)

// AddServeCommand adds the serve command.
func AddServeCommand(root *cobra.Command, flags *GlobalFlags) {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Serve the document API under /api/v1, share links under /s/<token>, and
Prometheus metrics. Stops gracefully on SIGINT or SIGTERM.

Examples:
  docsign serve
  docsign serve --addr 0.0.0.0:8427`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *App, _ io.Writer) error {
				if addr != "" {
					app.Config.Server.Addr = addr
				}
				if !flags.Verbose {
					gin.SetMode(gin.ReleaseMode)
				}
				return runServe(ctx, app)
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default server.addr)")
	root.AddCommand(cmd)
}

func runServe(ctx context.Context, app *App) error {
	cfg := app.Config
	srv := api.NewServer(app.Documents, app.Metrics, app.Logger, api.Options{
		Addr:           cfg.Server.Addr,
		RateLimitRPS:   cfg.Server.RateLimitRPS,
		RateLimitBurst: cfg.Server.RateLimitBurst,
		MetricsPath:    cfg.Server.MetricsPath,
		MaxUploadSize:  cfg.Content.MaxSize,
	})

	handler := signal.NewHandler(ctx)
	defer handler.Stop()

	err := handler.RunUntilInterrupted(srv.ListenAndServe, srv.Shutdown, constants.ServerShutdownTimeout)
	if stderrors.Is(err, http.ErrServerClosed) {
		err = nil
	}
	if sig := handler.Received(); sig != nil {
		app.Logger.Info().Str("signal", sig.String()).Msg("server stopped")
	}
	return err
}
