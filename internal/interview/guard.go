package interview

import (
	"regexp"
	"strings"
)

// Input limits.
const (
	MaxQuestionLen = 500
	MaxAnswerLen   = 10000
)

// injectionPatterns match known prompt-injection phrasings. A matching
// answer is a security fault, not a quality fault: it is rejected and logged
// without ever reaching the evaluator.
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+(all\s+)?(previous|prior|above)\s+instructions`),
	regexp.MustCompile(`(?i)disregard\s+(all\s+)?(previous|prior|above)\s+instructions`),
	regexp.MustCompile(`(?i)you\s+are\s+now\s+(a|an)\s`),
	regexp.MustCompile(`(?i)system\s*prompt\s*:`),
	regexp.MustCompile(`(?i)<\s*/?\s*system\s*>`),
	regexp.MustCompile(`(?i)\bact\s+as\s+if\s+you\s+(are|were)\s+not\s+an?\s`),
	regexp.MustCompile(`(?i)reveal\s+your\s+(system\s+)?(prompt|instructions)`),
}

// checkQuestion validates a question before it is asked.
func checkQuestion(question string) error {
	if strings.TrimSpace(question) == "" {
		return &InputError{Field: "question", Reason: "empty"}
	}
	if len(question) > MaxQuestionLen {
		return &InputError{Field: "question", Reason: "exceeds maximum length"}
	}
	return nil
}

// checkAnswer validates a user answer before it is evaluated.
func checkAnswer(answer string) error {
	if strings.TrimSpace(answer) == "" {
		return &InputError{Field: "answer", Reason: "empty"}
	}
	if len(answer) > MaxAnswerLen {
		return &InputError{Field: "answer", Reason: "exceeds maximum length"}
	}
	for _, pattern := range injectionPatterns {
		if pattern.MatchString(answer) {
			return &SecurityError{Pattern: pattern.String()}
		}
	}
	return nil
}
