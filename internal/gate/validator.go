// Package gate checks completed deliverables: per-stage required-field
// completeness before the session advances, and a cross-stage consistency
// scan after the final stage.
package gate

import (
	"context"
	"fmt"

	"github.com/fathom-dev/fathom/internal/charter"
)

// Result is the verdict on one deliverable.
type Result struct {
	IsValid       bool
	MissingFields []string
	Errors        []string
}

// Validator checks a completed deliverable for required-field completeness.
type Validator interface {
	Validate(ctx context.Context, stageNumber int, d charter.Deliverable) (*Result, error)
}

// FieldValidator is the production Validator: a fixed completeness rule set
// per stage.
type FieldValidator struct{}

// NewFieldValidator returns the production stage gate.
func NewFieldValidator() *FieldValidator {
	return &FieldValidator{}
}

// Validate checks the deliverable for the given stage. A stage/type mismatch
// is an error; incomplete fields are reported in the Result, not as an error.
func (v *FieldValidator) Validate(ctx context.Context, stageNumber int, d charter.Deliverable) (*Result, error) {
	if d == nil {
		return nil, fmt.Errorf("gate: stage %d deliverable is nil", stageNumber)
	}
	if d.StageNumber() != stageNumber {
		return nil, fmt.Errorf("gate: deliverable is for stage %d, not %d", d.StageNumber(), stageNumber)
	}

	res := &Result{}
	switch deliverable := d.(type) {
	case *charter.ProblemStatement:
		requireText(res, "business_objective", deliverable.BusinessObjective)
		requireText(res, "problem_description", deliverable.ProblemDescription)
		requireList(res, "success_criteria", len(deliverable.SuccessCriteria))
		requireList(res, "stakeholders", len(deliverable.Stakeholders))
	case *charter.MetricAlignmentMatrix:
		requireList(res, "kpis", len(deliverable.KPIs))
		requireList(res, "model_metrics", len(deliverable.ModelMetrics))
		for i, kpi := range deliverable.KPIs {
			if kpi.Baseline == "" || kpi.Target == "" {
				res.Errors = append(res.Errors, fmt.Sprintf("kpis[%d] (%s): baseline and target are required", i, kpi.Name))
			}
		}
	case *charter.DataQualityScorecard:
		requireList(res, "sources", len(deliverable.Sources))
		if deliverable.OverallScore < 1 || deliverable.OverallScore > 10 {
			res.MissingFields = append(res.MissingFields, "overall_score")
		}
	case *charter.UserContext:
		requireList(res, "primary_users", len(deliverable.PrimaryUsers))
		requireText(res, "workflow", deliverable.Workflow)
	case *charter.EthicalRiskReport:
		requireList(res, "risks", len(deliverable.Risks))
		seen := map[string]bool{}
		for _, risk := range deliverable.Risks {
			seen[risk.Principle] = true
			if risk.ResidualScore > risk.InitialScore {
				res.Errors = append(res.Errors, fmt.Sprintf("%s: residual score %d exceeds initial %d", risk.Principle, risk.ResidualScore, risk.InitialScore))
			}
		}
		for _, principle := range charter.Principles {
			if !seen[principle] {
				res.MissingFields = append(res.MissingFields, "risk_"+principle)
			}
		}
	default:
		return nil, fmt.Errorf("gate: unknown deliverable type %T", d)
	}

	res.IsValid = len(res.MissingFields) == 0 && len(res.Errors) == 0
	return res, nil
}

func requireText(res *Result, field, value string) {
	if value == "" {
		res.MissingFields = append(res.MissingFields, field)
	}
}

func requireList(res *Result, field string, n int) {
	if n == 0 {
		res.MissingFields = append(res.MissingFields, field)
	}
}
