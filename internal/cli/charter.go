package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fathom-dev/fathom/internal/charter"
	"github.com/fathom-dev/fathom/internal/gate"
	"github.com/fathom-dev/fathom/internal/report"
)

var charterTranscript bool

var charterCmd = &cobra.Command{
	Use:   "charter <session-id>",
	Short: "Export the charter for a completed session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := buildQueryApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		sess, err := a.store.LoadSession(ctx, args[0])
		if err != nil {
			return err
		}

		if charterTranscript {
			return printTranscript(cmd, a, sess.ID)
		}

		for n := 1; n <= charter.StageCount; n++ {
			if _, ok := sess.StageData[n]; !ok {
				return fmt.Errorf("session %s has not completed stage %d; no charter to export", sess.ID, n)
			}
		}

		checker := gate.NewRuleChecker()
		consistency, err := checker.Check(ctx, sess.StageData)
		if err != nil {
			return fmt.Errorf("consistency check: %w", err)
		}

		ch, err := charter.Aggregate(sess.ID, sess.ProjectName, sess.StageData, *consistency, a.cfg.Governance)
		if err != nil {
			return err
		}

		path, err := report.Write(a.root, ch)
		if err != nil {
			return err
		}
		fmt.Printf("Charter written to %s\n", path)
		fmt.Printf("Governance decision: %s\n", ch.Governance)
		return nil
	},
}

func printTranscript(cmd *cobra.Command, a *app, sessionID string) error {
	entries, err := a.store.Transcript(cmd.Context(), sessionID)
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Fprintf(cmd.OutOrStdout(), "[stage %d] %s (%s):\n%s\n\n",
			e.Stage, e.Role, e.Timestamp.Format("2006-01-02 15:04:05"), e.Content)
	}
	return nil
}

func init() {
	charterCmd.Flags().BoolVar(&charterTranscript, "transcript", false, "Print the interview transcript instead of the charter")
}
