package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newFlowsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "flows",
		Short: "List the available flows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tROUTE\tTITLE\tSTEPS")
			for _, id := range a.store.IDs() {
				flow, _ := a.store.Flow(id)
				steps := make([]string, 0, len(flow.Steps))
				for _, step := range flow.Steps {
					steps = append(steps, step.Name)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", flow.ID, flow.Route, flow.Title, strings.Join(steps, " → "))
			}
			return w.Flush()
		},
	}
}
