// Package stage implements the shared stage-runner pattern: each of the five
// interview stages drives an ordered list of question groups through the
// conversation engine and folds accepted answers into its deliverable.
package stage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fathom-dev/fathom/internal/charter"
	"github.com/fathom-dev/fathom/internal/interview"
)

// AnswerSource supplies the user's answer to the current question. The CLI
// and TUI implement it interactively; tests implement it with scripts.
type AnswerSource interface {
	Answer(ctx context.Context, stageNumber int, prompt string) (string, error)
}

// TranscriptSink receives accepted and rejected turns for auditing. May be nil.
type TranscriptSink func(stageNumber int, role, content string)

// QuestionGroup is one question slot in a stage, keyed by the deliverable
// field it fills.
type QuestionGroup struct {
	Key      string
	Question string
}

// Definition declares a stage: its question groups, the fields its gate
// requires, and how answers fold into the deliverable.
type Definition struct {
	Number         int
	Title          string
	Groups         []QuestionGroup
	RequiredFields []string

	// New returns a fresh, empty deliverable for this stage.
	New func() charter.Deliverable
	// Fold merges an accepted answer into the deliverable field named by key.
	Fold func(d charter.Deliverable, key, answer string) error
	// ContextHint renders a short advisory summary of earlier deliverables
	// shown to the user when the stage starts. May be nil.
	ContextHint func(prior map[int]charter.Deliverable) string
}

// Runner drives one stage's question groups to completion. It is
// side-effect-free with respect to the session: the orchestrator, not the
// runner, persists results.
type Runner struct {
	def         Definition
	engine      *interview.Engine
	sessionID   string
	maxAttempts int
	prior       map[int]charter.Deliverable
	transcript  TranscriptSink
}

// NewRunner creates a runner for the given stage definition. prior holds the
// completed deliverables of earlier stages, read-only.
func NewRunner(
	def Definition,
	engine *interview.Engine,
	sessionID string,
	maxAttempts int,
	prior map[int]charter.Deliverable,
	transcript TranscriptSink,
) *Runner {
	return &Runner{
		def:         def,
		engine:      engine,
		sessionID:   sessionID,
		maxAttempts: maxAttempts,
		prior:       prior,
		transcript:  transcript,
	}
}

// Number returns the stage number this runner drives.
func (r *Runner) Number() int { return r.def.Number }

// Title returns the stage's display title.
func (r *Runner) Title() string { return r.def.Title }

// Hint returns the advisory context summary built from earlier stages'
// deliverables, or "" for stage 1.
func (r *Runner) Hint() string {
	if r.def.ContextHint == nil {
		return ""
	}
	return r.def.ContextHint(r.prior)
}

// Run drives every question group through the conversation engine and
// returns the completed deliverable. A group is answered once its turn
// reaches COMPLETE, whether accepted or escalated.
func (r *Runner) Run(ctx context.Context, source AnswerSource) (charter.Deliverable, error) {
	d := r.def.New()

	for _, group := range r.def.Groups {
		answer, err := r.runGroup(ctx, source, group)
		if err != nil {
			return nil, err
		}
		if err := r.def.Fold(d, group.Key, answer); err != nil {
			return nil, fmt.Errorf("stage %d: folding %s: %w", r.def.Number, group.Key, err)
		}
	}

	return d, nil
}

// runGroup runs the quality loop for one question group and returns the
// accepted (or escalated) answer.
func (r *Runner) runGroup(ctx context.Context, source AnswerSource, group QuestionGroup) (string, error) {
	convo := interview.NewContext(r.sessionID, r.def.Number, r.maxAttempts)
	if err := r.engine.StartTurn(convo, group.Question); err != nil {
		return "", fmt.Errorf("stage %d: starting %s: %w", r.def.Number, group.Key, err)
	}
	r.audit(interview.RoleAssistant, group.Question)

	prompt := group.Question
	for {
		answer, err := source.Answer(ctx, r.def.Number, prompt)
		if err != nil {
			r.engine.Cancel(convo)
			return "", fmt.Errorf("stage %d: collecting answer for %s: %w", r.def.Number, group.Key, err)
		}

		result, err := r.engine.ProcessResponse(ctx, convo, answer)
		if err != nil {
			var inputErr *interview.InputError
			var secErr *interview.SecurityError
			if errors.As(err, &inputErr) || errors.As(err, &secErr) {
				// Rejected before evaluation: re-ask the same question with
				// the rejection reason attached.
				prompt = fmt.Sprintf("Your answer was rejected (%v).\n%s", err, convo.Question)
				continue
			}
			r.engine.Cancel(convo)
			return "", err
		}

		r.audit(interview.RoleUser, answer)
		if result.Accepted {
			return result.Answer, nil
		}

		prompt = rejectionPrompt(result)
		r.audit(interview.RoleAssistant, result.FollowUp)
	}
}

// rejectionPrompt formats a quality rejection as a follow-up question plus a
// short issue summary.
func rejectionPrompt(result *interview.TurnResult) string {
	var b strings.Builder
	if len(result.Issues) > 0 {
		b.WriteString("The previous answer needs more detail:\n")
		for _, issue := range result.Issues {
			b.WriteString("  - ")
			b.WriteString(issue)
			b.WriteString("\n")
		}
	}
	b.WriteString(result.FollowUp)
	return b.String()
}

func (r *Runner) audit(role, content string) {
	if r.transcript == nil {
		return
	}
	r.transcript(r.def.Number, role, content)
}
