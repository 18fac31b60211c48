package llm

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/fathom-dev/fathom/internal/interview"
	"github.com/fathom-dev/fathom/prompts"
)

// FollowUpWriter asks the completion backend for one clarifying question.
// It implements interview.FollowUpGenerator.
type FollowUpWriter struct {
	completer   Completer
	tmpl        *template.Template
	maxTokens   int
	temperature float32
}

type followupPromptData struct {
	Question string
	Answer   string
	Issues   []string
}

// NewFollowUpWriter builds the follow-up generator.
func NewFollowUpWriter(completer Completer, maxTokens int, temperature float32) (*FollowUpWriter, error) {
	tmpl, err := template.New("followup").Parse(prompts.FollowUpTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing followup template: %w", err)
	}
	if maxTokens <= 0 {
		maxTokens = 256
	}
	return &FollowUpWriter{
		completer:   completer,
		tmpl:        tmpl,
		maxTokens:   maxTokens,
		temperature: temperature,
	}, nil
}

// FollowUp implements interview.FollowUpGenerator. The output is trimmed to
// one line; an empty or oversized result is an error and the engine falls
// back to its generic question.
func (w *FollowUpWriter) FollowUp(ctx context.Context, question, answer string, issues []string) (string, error) {
	var buf bytes.Buffer
	err := w.tmpl.Execute(&buf, followupPromptData{
		Question: question,
		Answer:   answer,
		Issues:   issues,
	})
	if err != nil {
		return "", fmt.Errorf("rendering followup prompt: %w", err)
	}

	output, err := w.completer.Complete(ctx, buf.String(), w.maxTokens, w.temperature)
	if err != nil {
		return "", fmt.Errorf("followup completion: %w", err)
	}

	followUp := firstLine(output)
	if followUp == "" {
		return "", fmt.Errorf("followup generator returned no question")
	}
	if len(followUp) > interview.MaxQuestionLen {
		return "", fmt.Errorf("followup question exceeds %d characters", interview.MaxQuestionLen)
	}
	return followUp, nil
}

// firstLine returns the first non-empty line, unquoted and trimmed.
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		line = strings.Trim(strings.TrimSpace(line), `"`)
		if line != "" {
			return line
		}
	}
	return ""
}
