// Package cli provides the command-line interface for relationships.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/raphaelgruber/relationships/internal/config"
	"github.com/raphaelgruber/relationships/internal/highlight"
	"github.com/raphaelgruber/relationships/internal/parser"
	"github.com/raphaelgruber/relationships/internal/relation"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose    bool
	widgetFile string

	// Global config, logger and widget definition
	cfg        config.Config
	logger     *slog.Logger
	logCleanup func() error
	widgetCfg  highlight.Config
)

// annotationNoWidget marks commands that do not use the loaded widget, so a
// broken --file or RELATIONSHIPS_WIDGET_FILE does not block them.
const annotationNoWidget = "no-widget"

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "relationships",
	Short: "Explore links between two sets of items",
	Long: `Relationships shows two labeled sets of items and highlights the
items linked to whichever one you hover or select.

Widgets are described in YAML (or Markdown with YAML frontmatter) and can be
explored in the terminal or served to remote renderers over websocket.
Without --file the built-in numbers example is used.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" {
			return nil
		}

		cfg = config.Load()

		level := cfg.LogLevel
		if verbose {
			level = slog.LevelDebug
		}
		logger, logCleanup = config.SetupLogger(cfg.LogFile, level)

		opacity, err := cfg.ParseDimOpacity()
		if err != nil {
			return err
		}
		if opacity != nil {
			if err := highlight.SetDefaultDimOpacity(*opacity); err != nil {
				return fmt.Errorf("RELATIONSHIPS_DIM_OPACITY: %w", err)
			}
		}

		if cmd.Annotations[annotationNoWidget] == "true" {
			return nil
		}
		widgetCfg, err = loadWidget()
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCleanup != nil {
			if err := logCleanup(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
			}
		}
	},
}

// loadWidget reads the widget definition named by --file or the
// environment, falling back to the built-in example.
func loadWidget() (highlight.Config, error) {
	path := widgetFile
	if path == "" {
		path = cfg.WidgetFile
	}

	var (
		w   highlight.Config
		err error
	)
	if path == "" {
		w = parser.DemoWidget()
	} else {
		w, err = parser.LoadWidget(path)
		if err != nil {
			return highlight.Config{}, fmt.Errorf("load widget %s: %w", path, err)
		}
	}

	if cfg.PermissiveLinks {
		w.Mode = relation.ModePermissive
	}
	return w, nil
}

// newWidget creates a widget from the loaded definition.
func newWidget(opts ...highlight.Option) (*highlight.Widget, error) {
	opts = append([]highlight.Option{highlight.WithLogger(logger)}, opts...)
	w, err := highlight.NewWidget(widgetCfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("create widget: %w", err)
	}
	return w, nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&widgetFile, "file", "f", "", "widget definition (YAML or Markdown)")

	// Add subcommands
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(partnersCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statsCmd)
}
