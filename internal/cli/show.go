package cli

import (
	"fmt"

	"github.com/raphaelgruber/relationships/internal/highlight"
	"github.com/raphaelgruber/relationships/internal/models"
	"github.com/raphaelgruber/relationships/internal/render"
	"github.com/spf13/cobra"
)

var (
	showSet    string
	showIndex  int
	showPlain  bool
	showSelect bool
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the highlight for one selection",
	Long: `Print both sets with the items linked to the selection highlighted.

Without --set nothing is selected and every item is shown at full opacity.
--select treats the selection as a click and reports the selected item.

Examples:
  relationships show
  relationships show --set a --index 1
  relationships show --set b --index 1 --plain
  relationships show -f widget.yaml --set a --index 0 --select`,
	Args: cobra.NoArgs,
	RunE: runShow,
}

func init() {
	showCmd.Flags().StringVarP(&showSet, "set", "s", "", "set of the selected item (a or b)")
	showCmd.Flags().IntVarP(&showIndex, "index", "i", 0, "index of the selected item")
	showCmd.Flags().BoolVar(&showPlain, "plain", false, "print one line per item with its opacity")
	showCmd.Flags().BoolVar(&showSelect, "select", false, "select instead of hover")
}

func runShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	w, err := newWidget()
	if err != nil {
		return err
	}
	if showSelect {
		if err := w.Reconfigure(selectPrinter(cmd)); err != nil {
			return err
		}
	}

	sel := models.None()
	if showSet != "" {
		set, err := models.ParseSetID(showSet)
		if err != nil {
			return err
		}
		sel = models.Select(set, showIndex)
	}

	var decision models.HighlightDecision
	switch {
	case showSelect && !sel.IsNone():
		decision, err = w.Select(sel.Set, sel.Index)
	default:
		decision, err = w.Hover(sel)
	}
	if err != nil {
		return fmt.Errorf("resolve %s: %w", sel, err)
	}

	if showPlain {
		fmt.Fprint(out, render.Plain(w.Config(), decision))
		return nil
	}
	fmt.Fprint(out, render.New(render.DefaultTheme).Render(w.Config(), decision, nil))
	return nil
}

// selectPrinter installs a select callback that reports the selection.
func selectPrinter(cmd *cobra.Command) highlight.Update {
	out := cmd.OutOrStdout()
	return highlight.Update{
		OnSelect: func(set models.SetID, index int, text string) {
			fmt.Fprintf(out, "Selected %s[%d]: %s\n", set, index, text)
		},
	}
}
