package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/raphaelgruber/relationships/internal/client"
	"github.com/raphaelgruber/relationships/internal/metrics"
	"github.com/spf13/cobra"
)

var statsServer string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show statistics of a running server",
	Long: `Fetch runtime statistics from a running relationships server.

Examples:
  relationships stats
  relationships stats --server http://widgets.local:8585`,
	Args:        cobra.NoArgs,
	RunE:        runStats,
	Annotations: map[string]string{annotationNoWidget: "true"},
}

func init() {
	statsCmd.Flags().StringVar(&statsServer, "server", "", "server URL (default $RELATIONSHIPS_SERVER_URL)")
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	endpoint := statsServer
	if endpoint == "" {
		endpoint = cfg.ServerURL
	}

	snap, err := client.New(endpoint).Stats(ctx)
	if err != nil {
		return fmt.Errorf("get server stats: %w", err)
	}
	printStats(cmd.OutOrStdout(), snap)
	return nil
}

func printStats(out io.Writer, snap *metrics.Snapshot) {
	fmt.Fprintf(out, "Uptime:   %s\n", (time.Duration(snap.UptimeSeconds) * time.Second).String())
	fmt.Fprintf(out, "Sessions: %d\n", snap.Sessions)

	ops := []struct {
		name string
		op   *metrics.OperationSnapshot
	}{
		{"index build", snap.IndexBuild},
		{"resolve", snap.Resolve},
		{"select", snap.Select},
		{"reconfigure", snap.Reconfigure},
	}
	for _, o := range ops {
		if o.op == nil {
			continue
		}
		fmt.Fprintf(out, "  %-12s count=%d errors=%d avg=%.1fµs max=%dµs\n",
			o.name, o.op.Count, o.op.Errors, o.op.AvgTimeUs, o.op.MaxTimeUs)
	}
}
