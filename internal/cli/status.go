package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fathom-dev/fathom/internal/charter"
	"github.com/fathom-dev/fathom/internal/session"
)

var statusCmd = &cobra.Command{
	Use:   "status <session-id>",
	Short: "Show a session's progress and recent activity",
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

		fmt.Printf("Session:  %s\n", sess.ID)
		fmt.Printf("Project:  %s\n", sess.ProjectName)
		fmt.Printf("Owner:    %s\n", sess.UserID)
		fmt.Printf("Status:   %s\n", sess.Status)
		fmt.Printf("Stage:    %d/%d\n", sess.CurrentStage, charter.StageCount)
		fmt.Printf("Updated:  %s\n", sess.UpdatedAt.Format("2006-01-02 15:04:05"))

		fmt.Println("\nStages:")
		for n := 1; n <= charter.StageCount; n++ {
			mark := " "
			if _, ok := sess.StageData[n]; ok {
				mark = "x"
			}
			fmt.Printf("  [%s] %d. %s\n", mark, n, stageName(n))
		}

		printRecentEvents(a, sess)
		return nil
	},
}

func stageName(n int) string {
	switch n {
	case charter.StageBusinessFraming:
		return "Business framing"
	case charter.StageValueMetrics:
		return "Value metrics"
	case charter.StageDataFeasibility:
		return "Data feasibility"
	case charter.StageUserContext:
		return "User context"
	case charter.StageEthicalRisk:
		return "Ethical risk"
	default:
		return fmt.Sprintf("stage %d", n)
	}
}

// printRecentEvents shows the session's last few log events, newest last.
func printRecentEvents(a *app, sess *session.Session) {
	events, err := a.logger.ReadAll()
	if err != nil {
		return
	}

	var lines []string
	for _, ev := range events {
		if ev.SessionID != sess.ID {
			continue
		}
		line := fmt.Sprintf("  %s  %s", ev.Time.Format("15:04:05"), ev.Event)
		if ev.Stage > 0 {
			line += fmt.Sprintf(" (stage %d)", ev.Stage)
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return
	}
	if len(lines) > 10 {
		lines = lines[len(lines)-10:]
	}
	fmt.Println("\nRecent activity:")
	fmt.Println(strings.Join(lines, "\n"))
}
