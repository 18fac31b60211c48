package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fathom-dev/fathom/internal/session"
)

var resumeCmd = &cobra.Command{
	Use:   "resume <session-id>",
	Short: "Resume an interrupted interview from its last checkpoint",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := buildApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		sess, err := a.orch.ResumeSession(ctx, args[0])
		if err != nil {
			return err
		}

		switch sess.Status {
		case session.StatusComplete:
			fmt.Printf("Session %s is already complete. Use 'fathom charter %s' to export its charter.\n", sess.ID, sess.ID)
			return nil
		case session.StatusError:
			// Checkpoint restore brings the session back to its last good
			// stage; clear the error and carry on.
			sess.Status = session.StatusInProgress
		}

		fmt.Printf("Resuming %q at stage %d/5.\n", sess.ProjectName, sess.CurrentStage)
		return runInterview(ctx, a, sess)
	},
}
