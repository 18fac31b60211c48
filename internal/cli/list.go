package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List your interview sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := buildQueryApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		summaries, err := a.store.ListSessions(ctx, userFlag)
		if err != nil {
			return err
		}
		if len(summaries) == 0 {
			fmt.Println("No sessions. Start one with 'fathom new <project-name>'.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tPROJECT\tSTAGE\tSTATUS\tUPDATED")
		for _, s := range summaries {
			fmt.Fprintf(w, "%s\t%s\t%d/5\t%s\t%s\n",
				s.ID, s.ProjectName, s.CurrentStage, s.Status,
				s.UpdatedAt.Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}
