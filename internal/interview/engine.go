package interview

import (
	"context"
	"fmt"
	"time"

	"github.com/fathom-dev/fathom/internal/log"
)

// Defaults for the quality loop.
const (
	DefaultThreshold   = 7
	DefaultMaxAttempts = 3
	DefaultCallTimeout = 30 * time.Second
)

// fallbackFollowUp is asked when the follow-up generator fails or times out.
// The loop must always make forward progress.
const fallbackFollowUp = "Could you expand on your answer with specifics: concrete numbers, names, or examples?"

// EvalContext is the minimal context passed to the evaluator. It must never
// carry session identifiers.
type EvalContext struct {
	StageNumber int
	Attempt     int
}

// ValidationResult is the evaluator's verdict on one question/answer pair.
type ValidationResult struct {
	QualityScore       int      `json:"quality_score"` // 0-10
	IsAcceptable       bool     `json:"is_acceptable"`
	Issues             []string `json:"issues,omitempty"`
	SuggestedFollowups []string `json:"suggested_followups,omitempty"`
}

// QualityEvaluator scores a question/answer pair with structured feedback.
type QualityEvaluator interface {
	Evaluate(ctx context.Context, question, answer string, ec EvalContext) (*ValidationResult, error)
}

// FollowUpGenerator produces one clarifying question for a rejected answer.
type FollowUpGenerator interface {
	FollowUp(ctx context.Context, question, answer string, issues []string) (string, error)
}

// TurnResult is what ProcessResponse hands back to the caller. When Accepted
// is false the turn is still open and FollowUp carries the next question to
// put to the user.
type TurnResult struct {
	Accepted     bool
	Escalated    bool
	Answer       string
	QualityScore int
	Issues       []string
	FollowUp     string
}

// Engine drives a single question through ask -> evaluate -> retry ->
// accept/escalate. It never propagates evaluator or generator faults to the
// caller: timeouts and failures degrade to a fail-safe score or a generic
// follow-up question.
type Engine struct {
	evaluator   QualityEvaluator
	generator   FollowUpGenerator
	threshold   int
	callTimeout time.Duration
	logger      *log.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithThreshold overrides the acceptance threshold (default 7).
func WithThreshold(threshold int) Option {
	return func(e *Engine) { e.threshold = threshold }
}

// WithCallTimeout overrides the per-call budget for evaluator and generator
// calls (default 30s).
func WithCallTimeout(d time.Duration) Option {
	return func(e *Engine) { e.callTimeout = d }
}

// WithLogger attaches an event logger. A nil logger disables event logging.
func WithLogger(logger *log.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// NewEngine creates a quality-loop engine over the given evaluator and
// follow-up generator.
func NewEngine(evaluator QualityEvaluator, generator FollowUpGenerator, opts ...Option) *Engine {
	e := &Engine{
		evaluator:   evaluator,
		generator:   generator,
		threshold:   DefaultThreshold,
		callTimeout: DefaultCallTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// StartTurn opens a new question on the context. Legal only from IDLE or
// COMPLETE; the question is validated and appended to the transcript as an
// assistant message.
func (e *Engine) StartTurn(convo *Context, question string) error {
	if convo.state != StateIdle && convo.state != StateComplete {
		return &StateError{Op: "StartTurn", State: convo.state}
	}
	if err := checkQuestion(question); err != nil {
		return err
	}

	convo.Question = question
	convo.Attempts = 0
	convo.bestAnswer = ""
	convo.bestScore = -1
	convo.state = StateAsking
	convo.append(RoleAssistant, question)
	convo.state = StateWaiting

	e.logEvent(log.Event{
		Event: log.EventQuestionAsked,
		Stage: convo.StageNumber,
		Data:  map[string]interface{}{"question": question},
	})
	return nil
}

// ProcessResponse feeds one user answer into the quality loop. Legal only
// from WAITING_FOR_RESPONSE. The caller keeps calling ProcessResponse with
// fresh answers until the returned TurnResult has Accepted set.
func (e *Engine) ProcessResponse(ctx context.Context, convo *Context, answer string) (*TurnResult, error) {
	if convo.state != StateWaiting {
		return nil, &StateError{Op: "ProcessResponse", State: convo.state}
	}
	if err := checkAnswer(answer); err != nil {
		if _, ok := err.(*SecurityError); ok {
			e.logEvent(log.Event{
				Event: log.EventInjectionBlocked,
				Stage: convo.StageNumber,
				Error: err.Error(),
			})
		}
		return nil, err
	}

	convo.append(RoleUser, answer)
	convo.state = StateValidating

	result := e.evaluate(ctx, convo, answer)
	convo.observe(answer, result.QualityScore)

	if result.IsAcceptable {
		convo.state = StateComplete
		e.logEvent(log.Event{
			Event:   log.EventAnswerAccepted,
			Stage:   convo.StageNumber,
			Attempt: convo.Attempts,
			Score:   result.QualityScore,
		})
		return &TurnResult{
			Accepted:     true,
			Answer:       answer,
			QualityScore: result.QualityScore,
		}, nil
	}

	convo.Attempts++
	if convo.Attempts >= convo.MaxAttempts {
		// Retries exhausted: accept the best answer seen rather than loop
		// forever.
		best, score := convo.best()
		convo.state = StateComplete
		e.logEvent(log.Event{
			Event:   log.EventAnswerEscalated,
			Stage:   convo.StageNumber,
			Attempt: convo.Attempts,
			Score:   score,
		})
		return &TurnResult{
			Accepted:     true,
			Escalated:    true,
			Answer:       best,
			QualityScore: score,
			Issues:       result.Issues,
		}, nil
	}

	followUp := e.followUp(ctx, convo, answer, result.Issues)
	convo.Question = followUp
	convo.append(RoleAssistant, followUp)
	convo.state = StateWaiting

	e.logEvent(log.Event{
		Event:   log.EventAnswerRejected,
		Stage:   convo.StageNumber,
		Attempt: convo.Attempts,
		Score:   result.QualityScore,
	})
	return &TurnResult{
		Accepted:     false,
		QualityScore: result.QualityScore,
		Issues:       result.Issues,
		FollowUp:     followUp,
	}, nil
}

// Cancel unwinds an in-flight turn. WAITING or VALIDATING contexts move to
// ERROR; idle or finished contexts are left alone.
func (e *Engine) Cancel(convo *Context) {
	switch convo.state {
	case StateWaiting, StateValidating, StateAsking:
		convo.fail()
	}
}

// evaluate calls the quality evaluator under the per-call budget. On fault
// or timeout it returns a conservative fail-safe result below threshold so
// the loop keeps moving.
func (e *Engine) evaluate(ctx context.Context, convo *Context, answer string) *ValidationResult {
	callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
	defer cancel()

	result, err := e.evaluator.Evaluate(callCtx, convo.Question, answer, EvalContext{
		StageNumber: convo.StageNumber,
		Attempt:     convo.Attempts,
	})
	if err != nil {
		return &ValidationResult{
			QualityScore: 0,
			IsAcceptable: false,
			Issues:       []string{fmt.Sprintf("evaluation unavailable (%v); answer provisionally rejected", err)},
		}
	}

	// Clamp and normalise a malformed evaluator verdict instead of trusting it.
	if result.QualityScore < 0 {
		result.QualityScore = 0
	}
	if result.QualityScore > 10 {
		result.QualityScore = 10
	}
	result.IsAcceptable = result.QualityScore >= e.threshold
	return result
}

// followUp calls the generator under the per-call budget, degrading to a
// fixed generic clarifying question on fault or timeout.
func (e *Engine) followUp(ctx context.Context, convo *Context, answer string, issues []string) string {
	callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
	defer cancel()

	followUp, err := e.generator.FollowUp(callCtx, convo.Question, answer, issues)
	if err != nil || len(followUp) == 0 || len(followUp) > MaxQuestionLen {
		return fallbackFollowUp
	}
	return followUp
}

func (e *Engine) logEvent(event log.Event) {
	if e.logger == nil {
		return
	}
	_ = e.logger.Append(event)
}
