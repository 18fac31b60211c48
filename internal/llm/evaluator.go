package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"text/template"

	"github.com/fathom-dev/fathom/internal/interview"
	"github.com/fathom-dev/fathom/prompts"
)

// Evaluator scores question/answer pairs with the completion backend. It
// implements interview.QualityEvaluator. It never sees session identifiers:
// the rendered prompt carries only the stage number, attempt, question, and
// answer.
type Evaluator struct {
	completer   Completer
	tmpl        *template.Template
	threshold   int
	maxTokens   int
	temperature float32
}

// evaluatorResponse is the JSON shape the rubric prompt demands.
type evaluatorResponse struct {
	QualityScore       int      `json:"quality_score"`
	Issues             []string `json:"issues"`
	SuggestedFollowups []string `json:"suggested_followups"`
}

type evaluatorPromptData struct {
	StageNumber int
	Attempt     int
	Question    string
	Answer      string
}

// NewEvaluator builds the rubric evaluator. threshold is the acceptance
// score (0-10).
func NewEvaluator(completer Completer, threshold, maxTokens int, temperature float32) (*Evaluator, error) {
	tmpl, err := template.New("evaluator").Parse(prompts.EvaluatorTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing evaluator template: %w", err)
	}
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &Evaluator{
		completer:   completer,
		tmpl:        tmpl,
		threshold:   threshold,
		maxTokens:   maxTokens,
		temperature: temperature,
	}, nil
}

// Evaluate implements interview.QualityEvaluator.
func (e *Evaluator) Evaluate(ctx context.Context, question, answer string, ec interview.EvalContext) (*interview.ValidationResult, error) {
	var buf bytes.Buffer
	err := e.tmpl.Execute(&buf, evaluatorPromptData{
		StageNumber: ec.StageNumber,
		Attempt:     ec.Attempt,
		Question:    question,
		Answer:      answer,
	})
	if err != nil {
		return nil, fmt.Errorf("rendering evaluator prompt: %w", err)
	}

	output, err := e.completer.Complete(ctx, buf.String(), e.maxTokens, e.temperature)
	if err != nil {
		return nil, fmt.Errorf("evaluator completion: %w", err)
	}

	var resp evaluatorResponse
	if err := json.Unmarshal([]byte(ExtractJSON(output)), &resp); err != nil {
		return nil, fmt.Errorf("parsing evaluator response: %w\nraw output:\n%s", err, output)
	}
	if resp.QualityScore < 0 || resp.QualityScore > 10 {
		return nil, fmt.Errorf("evaluator returned out-of-range score %d", resp.QualityScore)
	}

	return &interview.ValidationResult{
		QualityScore:       resp.QualityScore,
		IsAcceptable:       resp.QualityScore >= e.threshold,
		Issues:             resp.Issues,
		SuggestedFollowups: resp.SuggestedFollowups,
	}, nil
}
