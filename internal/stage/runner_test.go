package stage

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/fathom-dev/fathom/internal/charter"
	"github.com/fathom-dev/fathom/internal/interview"
)

// keyedEvaluator accepts answers containing "good" and rejects the rest.
type keyedEvaluator struct{}

func (keyedEvaluator) Evaluate(ctx context.Context, question, answer string, ec interview.EvalContext) (*interview.ValidationResult, error) {
	if strings.Contains(answer, "good") {
		return &interview.ValidationResult{QualityScore: 9}, nil
	}
	return &interview.ValidationResult{QualityScore: 2, Issues: []string{"too vague"}}, nil
}

type staticGenerator struct{}

func (staticGenerator) FollowUp(ctx context.Context, question, answer string, issues []string) (string, error) {
	return "Could you add specifics?", nil
}

// scriptedSource replays a fixed list of answers in order.
type scriptedSource struct {
	answers []string
	next    int
	prompts []string
}

func (s *scriptedSource) Answer(ctx context.Context, stageNumber int, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.next >= len(s.answers) {
		return "", errors.New("script exhausted")
	}
	a := s.answers[s.next]
	s.next++
	return a, nil
}

func testEngine() *interview.Engine {
	return interview.NewEngine(keyedEvaluator{}, staticGenerator{})
}

// TestRunnerFoldsAcceptedAnswers drives stage 1 with one good answer per
// question and checks the folded deliverable.
func TestRunnerFoldsAcceptedAnswers(t *testing.T) {
	def := businessFraming()
	source := &scriptedSource{answers: []string{
		"good: cut invoice handling cost",
		"good: 4000 invoices classified by hand monthly",
		"good: spreadsheet queue worked by two analysts",
		"good: under 2 minutes median\ngood: fewer misroutes",
		"good: finance analysts\ngood: CFO office",
		"good: EU data residency",
	}}

	runner := NewRunner(def, testEngine(), "sess-1", 3, nil, nil)
	d, err := runner.Run(context.Background(), source)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	ps, ok := d.(*charter.ProblemStatement)
	if !ok {
		t.Fatalf("deliverable type = %T", d)
	}
	if ps.BusinessObjective != "good: cut invoice handling cost" {
		t.Errorf("BusinessObjective = %q", ps.BusinessObjective)
	}
	if len(ps.SuccessCriteria) != 2 {
		t.Errorf("SuccessCriteria = %v, want 2 items", ps.SuccessCriteria)
	}
	if len(ps.Stakeholders) != 2 {
		t.Errorf("Stakeholders = %v, want 2 items", ps.Stakeholders)
	}
}

// TestRunnerRetriesThenAccepts verifies a rejected answer produces a
// follow-up prompt carrying the issue list, and the revised answer lands in
// the deliverable.
func TestRunnerRetriesThenAccepts(t *testing.T) {
	def := userContext()
	source := &scriptedSource{answers: []string{
		"people",                     // rejected
		"good: finance analysts",     // accepted on retry
		"good: they review routings", // workflow
		"good: continuous",
		"good: queue annotations",
		"good: over-trust",
	}}

	runner := NewRunner(def, testEngine(), "sess-1", 3, nil, nil)
	d, err := runner.Run(context.Background(), source)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	uc := d.(*charter.UserContext)
	if len(uc.PrimaryUsers) != 1 || uc.PrimaryUsers[0] != "good: finance analysts" {
		t.Errorf("PrimaryUsers = %v, want the retried answer", uc.PrimaryUsers)
	}

	// The second prompt must carry the rejection feedback.
	if len(source.prompts) < 2 {
		t.Fatalf("only %d prompts issued", len(source.prompts))
	}
	if !strings.Contains(source.prompts[1], "too vague") {
		t.Errorf("retry prompt = %q, want issue list included", source.prompts[1])
	}
	if !strings.Contains(source.prompts[1], "Could you add specifics?") {
		t.Errorf("retry prompt = %q, want follow-up question included", source.prompts[1])
	}
}

// TestRunnerEscalationFoldsBestAnswer verifies that after retries are
// exhausted the best rejected answer still folds into the deliverable.
func TestRunnerEscalationFoldsBestAnswer(t *testing.T) {
	def := businessFraming()
	// Every answer is rejected; 3 attempts per question, 6 questions.
	answers := make([]string, 0, 18)
	for i := 0; i < 18; i++ {
		answers = append(answers, "vague answer")
	}
	source := &scriptedSource{answers: answers}

	runner := NewRunner(def, testEngine(), "sess-1", 3, nil, nil)
	d, err := runner.Run(context.Background(), source)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	ps := d.(*charter.ProblemStatement)
	if ps.BusinessObjective != "vague answer" {
		t.Errorf("BusinessObjective = %q, want the escalated answer", ps.BusinessObjective)
	}
	if source.next != 18 {
		t.Errorf("consumed %d answers, want exactly 3 per question", source.next)
	}
}

// TestRunnerReasksOnInputError verifies an empty answer is re-asked without
// consuming a quality attempt.
func TestRunnerReasksOnInputError(t *testing.T) {
	def := valueMetrics()
	source := &scriptedSource{answers: []string{
		"   ", // input error, re-asked
		"good: churn; 5.2%; 3.5%; 6 months",
		"good: AUC -> churn: ranking drives outreach",
		"good: precision wins",
	}}

	runner := NewRunner(def, testEngine(), "sess-1", 3, nil, nil)
	d, err := runner.Run(context.Background(), source)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	m := d.(*charter.MetricAlignmentMatrix)
	if len(m.KPIs) != 1 {
		t.Fatalf("KPIs = %+v", m.KPIs)
	}
	if !strings.Contains(source.prompts[1], "rejected") {
		t.Errorf("re-ask prompt = %q, want rejection notice", source.prompts[1])
	}
}

// TestRunnerSourceFailureAborts verifies an answer-source fault aborts the
// stage with an error.
func TestRunnerSourceFailureAborts(t *testing.T) {
	def := businessFraming()
	source := &scriptedSource{answers: []string{}} // exhausted immediately

	runner := NewRunner(def, testEngine(), "sess-1", 3, nil, nil)
	if _, err := runner.Run(context.Background(), source); err == nil {
		t.Fatal("Run with a failing source should error")
	}
}

// TestRunnerTranscriptAudit verifies questions and answers reach the
// transcript sink in order.
func TestRunnerTranscriptAudit(t *testing.T) {
	def := userContext()
	source := &scriptedSource{answers: []string{
		"good: analysts", "good: review", "good: daily", "good: report", "good: trust",
	}}

	type entry struct {
		role, content string
	}
	var audit []entry
	sink := func(stageNumber int, role, content string) {
		if stageNumber != charter.StageUserContext {
			t.Errorf("sink stage = %d", stageNumber)
		}
		audit = append(audit, entry{role, content})
	}

	runner := NewRunner(def, testEngine(), "sess-1", 3, nil, sink)
	if _, err := runner.Run(context.Background(), source); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// 5 questions and 5 accepted answers.
	if len(audit) != 10 {
		t.Fatalf("audit has %d entries, want 10", len(audit))
	}
	if audit[0].role != interview.RoleAssistant || audit[1].role != interview.RoleUser {
		t.Errorf("audit order wrong: %v %v", audit[0], audit[1])
	}
}

// TestRunnerHint verifies stage hints render from prior deliverables and
// stage 1 has none.
func TestRunnerHint(t *testing.T) {
	engine := testEngine()

	r1 := NewRunner(businessFraming(), engine, "s", 3, nil, nil)
	if r1.Hint() != "" {
		t.Errorf("stage 1 hint = %q, want empty", r1.Hint())
	}

	prior := map[int]charter.Deliverable{
		charter.StageBusinessFraming: &charter.ProblemStatement{BusinessObjective: "reduce churn"},
	}
	r2 := NewRunner(valueMetrics(), engine, "s", 3, prior, nil)
	if !strings.Contains(r2.Hint(), "reduce churn") {
		t.Errorf("stage 2 hint = %q, want stage 1 objective", r2.Hint())
	}
}
