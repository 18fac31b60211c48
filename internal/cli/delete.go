package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var deleteForce bool

var deleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a session (checkpoints are kept for audit)",
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

		if !deleteForce {
			fmt.Printf("Delete session %s (%q)? [y/N] ", sess.ID, sess.ProjectName)
			reader := bufio.NewReader(os.Stdin)
			answer, _ := reader.ReadString('\n')
			if strings.ToLower(strings.TrimSpace(answer)) != "y" {
				fmt.Println("Aborted.")
				return nil
			}
		}

		if err := a.store.DeleteSession(ctx, sess.ID); err != nil {
			return err
		}
		fmt.Printf("Deleted session %s.\n", sess.ID)
		return nil
	},
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "Skip the confirmation prompt")
}
