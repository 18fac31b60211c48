// Package interview implements the per-question conversation state machine
// and the bounded ask-evaluate-retry quality loop.
package interview

import "fmt"

// InputError reports an empty, oversized, or otherwise malformed question or
// answer. Input errors are rejected immediately and never retried.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// SecurityError reports an answer matching a known prompt-injection pattern.
// The answer is rejected before it ever reaches the evaluator.
type SecurityError struct {
	Pattern string
}

func (e *SecurityError) Error() string {
	return fmt.Sprintf("answer rejected: matches injection pattern %q", e.Pattern)
}

// StateError reports a method called from a state it is not legal in. This
// is a programmer error, raised immediately and never recovered locally.
type StateError struct {
	Op    string
	State State
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: not legal in state %s", e.Op, e.State)
}
