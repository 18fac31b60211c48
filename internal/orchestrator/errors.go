// Package orchestrator owns the interview session lifecycle: create, run a
// stage, advance, checkpoint, resume, and final charter aggregation.
package orchestrator

import (
	"fmt"
	"strings"
)

// StateError reports an orchestrator method called against a session in the
// wrong state (wrong stage, wrong status). Programmer error; the session is
// left unmodified.
type StateError struct {
	Op     string
	Reason string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// GateError reports a deliverable that failed stage-gate validation. The
// stage did not advance; the caller retries the stage.
type GateError struct {
	StageNumber   int
	MissingFields []string
	Errors        []string
}

func (e *GateError) Error() string {
	var parts []string
	if len(e.MissingFields) > 0 {
		parts = append(parts, "missing "+strings.Join(e.MissingFields, ", "))
	}
	if len(e.Errors) > 0 {
		parts = append(parts, strings.Join(e.Errors, "; "))
	}
	return fmt.Sprintf("stage %d gate rejected: %s", e.StageNumber, strings.Join(parts, "; "))
}

// PersistenceError reports a store fault that survived bounded retries.
// When Unpersisted is true the session's in-memory state is ahead of the
// store: the caller must tell the user progress may be unsaved.
type PersistenceError struct {
	Op          string
	Unpersisted bool
	Err         error
}

func (e *PersistenceError) Error() string {
	if e.Unpersisted {
		return fmt.Sprintf("%s: %v (progress not persisted)", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
