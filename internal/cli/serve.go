package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/roach88/pagesel/internal/server"
	"github.com/roach88/pagesel/internal/store"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Database string
	Listen   string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the collection over HTTP",
		Long: `Serve the record collection over HTTP.

Routes:
  GET  /healthz                  liveness and collection size
  GET  /v1/records?offset&limit  one page of records plus the total
  POST /v1/selections/resolve    evaluate a selection descriptor
  GET  /metrics                  prometheus metrics

The server stops gracefully on SIGINT or SIGTERM.

Examples:
  pagesel serve
  pagesel serve --db ./records.db --listen :9000 --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")
	cmd.Flags().StringVar(&opts.Listen, "listen", "", "listen address (default from config)")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	logger := opts.newLogger(cmd.ErrOrStderr())
	cfg := opts.Config
	dbPath := firstNonEmpty(opts.Database, cfg.Database)
	addr := firstNonEmpty(opts.Listen, cfg.Listen)

	logger.Info("opening database", "path", dbPath)
	st, err := store.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	if !opts.Verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	handlers := server.NewHandlers(st, server.Config{
		DefaultLimit: cfg.PageSize,
		MaxLimit:     cfg.MaxPageSize,
		ResolveLimit: cfg.ResolveLimit,
	}, logger)

	// Use the command's context when set (tests), otherwise Background.
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(cmd.OutOrStdout(), "Serving %s on %s. Press Ctrl-C to stop.\n", dbPath, addr)
	if err := server.Serve(ctx, addr, server.NewRouter(handlers), cfg.ShutdownTimeout.Std(), logger); err != nil {
		return WrapExitError(ExitFailure, "server error", err)
	}

	logger.Info("server stopped gracefully")
	return nil
}
