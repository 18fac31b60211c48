// interview.go drives the stage loop shared by "fathom new" and
// "fathom resume": run the current stage, surface gate rejections as a
// checklist, advance, repeat.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/fathom-dev/fathom/internal/charter"
	"github.com/fathom-dev/fathom/internal/orchestrator"
	"github.com/fathom-dev/fathom/internal/report"
	"github.com/fathom-dev/fathom/internal/session"
	"github.com/fathom-dev/fathom/internal/tui"
)

// runInterview loops the session to completion from its current stage.
func runInterview(ctx context.Context, a *app, sess *session.Session) error {
	source := tui.NewSource(func(n int) string {
		def, err := a.registry.Definition(n)
		if err != nil {
			return ""
		}
		return def.Title
	})

	for sess.Status == session.StatusInProgress {
		n := sess.CurrentStage
		printStageHeader(a, sess, n)

		if _, err := a.orch.RunStage(ctx, sess, n, source); err != nil {
			var gateErr *orchestrator.GateError
			if errors.As(err, &gateErr) {
				printGateChecklist(gateErr)
				fmt.Println("\nLet's go through this stage again.")
				continue
			}
			return interviewFailure(ctx, a, sess, err)
		}

		ch, err := a.orch.AdvanceToNextStage(ctx, sess)
		if err != nil {
			return interviewFailure(ctx, a, sess, err)
		}
		if ch != nil {
			return printCompletion(a, ch)
		}
		fmt.Printf("\nStage %d complete. Progress saved.\n", n)
	}

	return nil
}

func printStageHeader(a *app, sess *session.Session, n int) {
	def, err := a.registry.Definition(n)
	if err != nil {
		return
	}
	fmt.Printf("\n=== Stage %d/5: %s ===\n", n, def.Title)
	if def.ContextHint != nil {
		if hint := def.ContextHint(sess.StageData); hint != "" {
			fmt.Printf("(%s)\n", hint)
		}
	}
}

// printGateChecklist renders a gate rejection as a field-level checklist.
func printGateChecklist(gateErr *orchestrator.GateError) {
	fmt.Printf("\nStage %d is incomplete:\n", gateErr.StageNumber)
	for _, field := range gateErr.MissingFields {
		fmt.Printf("  [ ] %s\n", field)
	}
	for _, msg := range gateErr.Errors {
		fmt.Printf("  [!] %s\n", msg)
	}
}

func printCompletion(a *app, ch *charter.Charter) error {
	path, err := report.Write(a.root, ch)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not export charter: %v\n", err)
	} else {
		fmt.Printf("\nCharter written to %s\n", path)
	}

	fmt.Printf("\nGovernance decision: %s\n", ch.Governance)
	fmt.Printf("Overall feasibility: %s\n", ch.OverallFeasibility)
	if !ch.Consistency.IsConsistent {
		fmt.Println("\nCross-stage contradictions found:")
		for _, c := range ch.Consistency.Contradictions {
			fmt.Printf("  - %s\n", c)
		}
	}
	return nil
}

// interviewFailure reports an unrecoverable fault, telling the user
// explicitly when progress is unpersisted and whether resume can help.
func interviewFailure(ctx context.Context, a *app, sess *session.Session, err error) error {
	var perr *orchestrator.PersistenceError
	if errors.As(err, &perr) && perr.Unpersisted {
		fmt.Fprintln(os.Stderr, "\nSession error: progress for this step could not be saved.")
		fmt.Fprintln(os.Stderr, "Earlier completed stages are checkpointed; 'fathom resume' will restart from the last checkpoint.")
		return err
	}

	a.orch.MarkError(ctx, sess)
	fmt.Fprintln(os.Stderr, "\nSession error. Progress up to the last checkpoint is saved; try 'fathom resume'.")
	return err
}
