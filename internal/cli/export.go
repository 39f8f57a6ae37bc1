package cli

import (
	"fmt"
	"os"

	"github.com/raphaelgruber/relationships/internal/parser"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var exportCmd = &cobra.Command{
	Use:   "export [path]",
	Short: "Write the normalized widget definition",
	Long: `Write the current widget definition as YAML with every item's sprite
cell spelled out. Prints to stdout when no path is given.

Examples:
  relationships export
  relationships export -f legacy.md widget.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	data, err := yaml.Marshal(parser.FromConfig(widgetCfg))
	if err != nil {
		return fmt.Errorf("marshal widget: %w", err)
	}

	if len(args) == 0 {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}

	if err := os.WriteFile(args[0], data, 0o644); err != nil {
		return fmt.Errorf("write widget: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported widget to %s\n", args[0])
	return nil
}
