package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/fathom-dev/fathom/internal/interview"
)

// cannedCompleter returns a fixed completion and records the prompt.
type cannedCompleter struct {
	output string
	err    error
	prompt string
}

func (c *cannedCompleter) Complete(ctx context.Context, prompt string, maxTokens int, temperature float32) (string, error) {
	c.prompt = prompt
	return c.output, c.err
}

// TestExtractJSON covers fenced, prefixed, and prose-wrapped model output.
func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"bare", `{"quality_score": 8}`, `{"quality_score": 8}`},
		{"json fence", "```json\n{\"quality_score\": 8}\n```", `{"quality_score": 8}`},
		{"plain fence", "```\n{\"quality_score\": 8}\n```", `{"quality_score": 8}`},
		{"prose around", "Here is my verdict:\n{\"quality_score\": 8}\nHope that helps.", `{"quality_score": 8}`},
		{"fence with trailing prose", "```json\n{\"a\": 1}\n```\nExplanation follows.", `{"a": 1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractJSON(tc.input); got != tc.want {
				t.Errorf("ExtractJSON(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

// TestEvaluateParsesVerdict verifies a well-formed rubric response becomes a
// ValidationResult with acceptance computed against the threshold.
func TestEvaluateParsesVerdict(t *testing.T) {
	completer := &cannedCompleter{output: "```json\n" + `{
		"quality_score": 5,
		"issues": ["no baseline stated"],
		"suggested_followups": ["What is the current baseline?"]
	}` + "\n```"}

	eval, err := NewEvaluator(completer, 7, 1024, 0.4)
	if err != nil {
		t.Fatalf("NewEvaluator failed: %v", err)
	}

	res, err := eval.Evaluate(context.Background(), "Which KPIs?", "churn, probably", interview.EvalContext{StageNumber: 2, Attempt: 1})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if res.QualityScore != 5 {
		t.Errorf("QualityScore = %d, want 5", res.QualityScore)
	}
	if res.IsAcceptable {
		t.Error("score 5 accepted against threshold 7")
	}
	if len(res.Issues) != 1 || res.Issues[0] != "no baseline stated" {
		t.Errorf("Issues = %v", res.Issues)
	}

	// The rendered prompt carries the question and answer but never a
	// session identifier slot.
	if !strings.Contains(completer.prompt, "Which KPIs?") || !strings.Contains(completer.prompt, "churn, probably") {
		t.Error("prompt missing question or answer")
	}
	if strings.Contains(strings.ToLower(completer.prompt), "session") {
		t.Error("prompt mentions sessions")
	}
}

// TestEvaluateRejectsMalformedOutput verifies unparseable or out-of-range
// responses error so the engine can fail safe.
func TestEvaluateRejectsMalformedOutput(t *testing.T) {
	cases := []struct {
		name   string
		output string
	}{
		{"prose only", "This answer seems fine to me."},
		{"out of range", `{"quality_score": 14, "issues": []}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			eval, err := NewEvaluator(&cannedCompleter{output: tc.output}, 7, 1024, 0.4)
			if err != nil {
				t.Fatalf("NewEvaluator failed: %v", err)
			}
			if _, err := eval.Evaluate(context.Background(), "q", "a", interview.EvalContext{}); err == nil {
				t.Error("Evaluate accepted malformed output")
			}
		})
	}
}

// TestEvaluatePropagatesBackendFault verifies backend errors surface to the
// engine's fail-safe handling.
func TestEvaluatePropagatesBackendFault(t *testing.T) {
	eval, err := NewEvaluator(&cannedCompleter{err: errors.New("quota exceeded")}, 7, 1024, 0.4)
	if err != nil {
		t.Fatalf("NewEvaluator failed: %v", err)
	}
	if _, err := eval.Evaluate(context.Background(), "q", "a", interview.EvalContext{}); err == nil {
		t.Error("backend fault not propagated")
	}
}

// TestFollowUpFirstLine verifies the generator keeps one trimmed, unquoted
// line and rejects empty output.
func TestFollowUpFirstLine(t *testing.T) {
	writer, err := NewFollowUpWriter(&cannedCompleter{output: "\n\"What is the current baseline?\"\nSecond line ignored."}, 256, 0.4)
	if err != nil {
		t.Fatalf("NewFollowUpWriter failed: %v", err)
	}

	q, err := writer.FollowUp(context.Background(), "Which KPIs?", "churn", []string{"no baseline"})
	if err != nil {
		t.Fatalf("FollowUp failed: %v", err)
	}
	if q != "What is the current baseline?" {
		t.Errorf("FollowUp = %q", q)
	}

	empty, err := NewFollowUpWriter(&cannedCompleter{output: "\n\n"}, 256, 0.4)
	if err != nil {
		t.Fatalf("NewFollowUpWriter failed: %v", err)
	}
	if _, err := empty.FollowUp(context.Background(), "q", "a", nil); err == nil {
		t.Error("empty output should error")
	}

	long, err := NewFollowUpWriter(&cannedCompleter{output: strings.Repeat("x", interview.MaxQuestionLen+1)}, 256, 0.4)
	if err != nil {
		t.Fatalf("NewFollowUpWriter failed: %v", err)
	}
	if _, err := long.FollowUp(context.Background(), "q", "a", nil); err == nil {
		t.Error("oversized output should error")
	}
}
