package cli

import (
	"fmt"

	"github.com/raphaelgruber/relationships/internal/highlight"
	"github.com/raphaelgruber/relationships/internal/parser"
	"github.com/raphaelgruber/relationships/internal/relation"
	"github.com/spf13/cobra"
)

var validatePermissive bool

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a widget definition",
	Long: `Parse a widget definition and build its link index.

Links pointing outside their set are errors unless the file sets
"strict: false" or --permissive is given, in which case they are listed
as ignored.

Examples:
  relationships validate widget.yaml
  relationships validate legacy.yaml --permissive`,
	Args:        cobra.ExactArgs(1),
	RunE:        runValidate,
	Annotations: map[string]string{annotationNoWidget: "true"},
}

func init() {
	validateCmd.Flags().BoolVar(&validatePermissive, "permissive", false, "ignore out-of-range links instead of failing")
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	def, err := parser.LoadWidget(args[0])
	if err != nil {
		return err
	}
	if validatePermissive {
		def.Mode = relation.ModePermissive
	}

	w, err := highlight.NewWidget(def, highlight.WithLogger(logger))
	if err != nil {
		return err
	}

	c := w.Config()
	idx := w.Index()
	fmt.Fprintf(out, "%s: ok (%s links)\n", args[0], c.Mode)
	fmt.Fprintf(out, "  %-10s %d items\n", setTitleOr(c.SetA.Name, "set1"), c.SetA.Len())
	fmt.Fprintf(out, "  %-10s %d items\n", setTitleOr(c.SetB.Name, "set2"), c.SetB.Len())
	fmt.Fprintf(out, "  links      %d\n", len(idx.Links()))
	fmt.Fprintf(out, "  opacity    %.2f\n", c.Opacity())

	if skipped := idx.Skipped(); len(skipped) > 0 {
		fmt.Fprintf(out, "\nIgnored links (%d):\n", len(skipped))
		for _, s := range skipped {
			fmt.Fprintf(out, "  • #%d %s\n", s.Position, s.Link)
		}
	}
	return nil
}

func setTitleOr(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}
