package gate

import (
	"context"

	"github.com/fathom-dev/fathom/internal/charter"
)

// NoopValidator accepts every deliverable. Test double only; production
// composition always wires FieldValidator.
type NoopValidator struct{}

// Validate reports every deliverable as valid.
func (NoopValidator) Validate(ctx context.Context, stageNumber int, d charter.Deliverable) (*Result, error) {
	return &Result{IsValid: true}, nil
}

// NoopChecker reports every deliverable set as consistent. Test double only.
type NoopChecker struct{}

// Check reports the deliverables as consistent.
func (NoopChecker) Check(ctx context.Context, deliverables map[int]charter.Deliverable) (*charter.ConsistencyReport, error) {
	return &charter.ConsistencyReport{IsConsistent: true}, nil
}
