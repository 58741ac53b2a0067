package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ludo-technologies/pygather/internal/config"
	"github.com/ludo-technologies/pygather/internal/version"
	"github.com/ludo-technologies/pygather/server"
	"github.com/ludo-technologies/pygather/service"
	"github.com/spf13/cobra"
)

// ServeCommand runs the HTTP API
type ServeCommand struct {
	addr        string
	readTimeout int
	configFile  string
}

func NewServeCmd() *cobra.Command {
	c := &ServeCommand{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve slicing over HTTP",
		Long: `Start an HTTP server exposing the slicer to editors and notebook frontends.

Endpoints:
  POST /v1/slice         slice a source file or notebook sent in the body
  POST /v1/dependencies  list its dependency edges
  GET  /v1/health        liveness check
  GET  /metrics          Prometheus metrics

Examples:
  pygather serve
  pygather serve --addr 127.0.0.1:9000`,
		Args: cobra.NoArgs,
		RunE: c.run,
	}

	cmd.Flags().StringVar(&c.addr, "addr", "", "Listen address (default from [server] addr)")
	cmd.Flags().IntVar(&c.readTimeout, "read-timeout", 0, "Request read timeout in seconds")
	cmd.Flags().StringVarP(&c.configFile, "config", "c", "", "Configuration file path")
	return cmd
}

func (c *ServeCommand) run(cmd *cobra.Command, args []string) error {
	dir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}
	cfg, err := loadConfig(c.configFile, dir)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	flags := config.TrackFlagSet(cmd.Flags())
	addr := config.Override(flags, "addr", cfg.Server.Addr, c.addr)
	readTimeout := config.Override(flags, "read-timeout", cfg.Server.ReadTimeout, c.readTimeout)

	handlers := server.NewHandlers(service.NewSliceService(), service.NewDependencyService()).
		WithDefaults(cfg.ToProjectConfig().Options).
		WithLogger(logger)
	srv := server.New(server.Config{
		Addr:        addr,
		ReadTimeout: time.Duration(readTimeout) * time.Second,
	}, handlers)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting server", "addr", addr, "version", version.Short())
	return srv.Run(ctx)
}
