// Package main provides the websocket server for relationships widgets.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/raphaelgruber/relationships/internal/config"
	"github.com/raphaelgruber/relationships/internal/highlight"
	"github.com/raphaelgruber/relationships/internal/metrics"
	"github.com/raphaelgruber/relationships/internal/parser"
	"github.com/raphaelgruber/relationships/internal/relation"
	"github.com/raphaelgruber/relationships/internal/server"
)

func main() {
	// Parse flags
	addr := flag.String("addr", "", "listen address (default $RELATIONSHIPS_SERVER_ADDR)")
	file := flag.String("file", "", "widget definition (default $RELATIONSHIPS_WIDGET_FILE or the built-in example)")
	flag.Parse()

	// Load configuration
	cfg := config.Load()
	if *addr == "" {
		*addr = cfg.ServerAddr
	}
	if *file == "" {
		*file = cfg.WidgetFile
	}

	// Initialize logging
	logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer func() { _ = cleanup() }()
	slog.SetDefault(logger)

	opacity, err := cfg.ParseDimOpacity()
	if err == nil && opacity != nil {
		err = highlight.SetDefaultDimOpacity(*opacity)
	}
	if err != nil {
		slog.Error("invalid RELATIONSHIPS_DIM_OPACITY", "error", err)
		os.Exit(1)
	}

	base := parser.DemoWidget()
	if *file != "" {
		base, err = parser.LoadWidget(*file)
		if err != nil {
			slog.Error("failed to load widget", "file", *file, "error", err)
			os.Exit(1)
		}
	}
	if cfg.PermissiveLinks {
		base.Mode = relation.ModePermissive
	}

	srv, err := server.New(base, logger, metrics.NewCollector())
	if err != nil {
		slog.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	// Wait for interrupt signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx, *addr); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
