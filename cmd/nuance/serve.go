package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"nuance/internal/app"
	"nuance/internal/config"
	"nuance/internal/logger"
	"nuance/internal/version"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and WebSocket API",
	Long:  `Serve the interview, article and writing-analysis endpoints under /api.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides server.addr)")
}

func runServe(_ *cobra.Command, _ []string) error {
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	a, err := app.Build(cfg, nil)
	if err != nil {
		return err
	}
	config.Watch(v)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting Nuance API", "version", version.GetFormattedVersion(), "addr", cfg.Server.Addr)
	return a.Server().Run(ctx)
}
