package cli

import (
	"fmt"
	"strconv"

	"github.com/raphaelgruber/relationships/internal/models"
	"github.com/spf13/cobra"
)

var partnersCmd = &cobra.Command{
	Use:   "partners <set> <index>",
	Short: "List the items linked to one item",
	Long: `List the items in the opposite set linked to the given item, in link
declaration order. Items linked more than once are listed once per link.

Examples:
  relationships partners a 1
  relationships partners b 0 -f widget.yaml`,
	Args: cobra.ExactArgs(2),
	RunE: runPartners,
}

func runPartners(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	set, err := models.ParseSetID(args[0])
	if err != nil {
		return err
	}
	index, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid index %q: %w", args[1], err)
	}

	w, err := newWidget()
	if err != nil {
		return err
	}

	// Reject unknown items the same way a hover would.
	if _, err := w.Hover(models.Select(set, index)); err != nil {
		return err
	}

	opposite, _ := w.Config().Set(set.Opposite())
	partners := w.Index().PartnersOf(set, index)
	if len(partners) == 0 {
		fmt.Fprintln(out, "No linked items.")
		return nil
	}
	for _, p := range partners {
		fmt.Fprintf(out, "%d\t%s\n", p, opposite.Items[p].Label)
	}
	return nil
}
