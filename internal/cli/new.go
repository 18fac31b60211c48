package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var newCmd = &cobra.Command{
	Use:   "new <project-name>",
	Short: "Start a new project interview",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		projectName := strings.Join(args, " ")

		a, err := buildApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		sess, err := a.orch.CreateSession(ctx, userFlag, projectName)
		if err != nil {
			return err
		}

		fmt.Printf("Started session %s for %q.\n", sess.ID, projectName)
		fmt.Println("Five stages ahead. Answer in your own words; follow-ups mean the answer needs more substance.")

		return runInterview(ctx, a, sess)
	},
}
