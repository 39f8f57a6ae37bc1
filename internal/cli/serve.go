package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/raphaelgruber/relationships/internal/metrics"
	"github.com/raphaelgruber/relationships/internal/server"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve highlight decisions over websocket",
	Long: `Run a server that gives every websocket connection its own widget.

Clients send hover, leave, select and reconfigure messages to /ws and
receive decisions back. /health, /stats and /config are plain HTTP.

Examples:
  relationships serve
  relationships serve --addr :9000 -f widget.yaml`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default $RELATIONSHIPS_SERVER_ADDR)")
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := serveAddr
	if addr == "" {
		addr = cfg.ServerAddr
	}

	srv, err := server.New(widgetCfg, logger, metrics.NewCollector())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx, addr); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
