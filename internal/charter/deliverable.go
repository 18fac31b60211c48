// Package charter defines the structured artifacts the interview produces:
// one deliverable per stage, and the final aggregated project charter.
package charter

import (
	"encoding/json"
	"fmt"
)

// Stage numbers. The interview always runs them in order.
const (
	StageBusinessFraming = 1
	StageValueMetrics    = 2
	StageDataFeasibility = 3
	StageUserContext     = 4
	StageEthicalRisk     = 5

	StageCount = 5
)

// Deliverable is the structured output artifact of one interview stage.
// A deliverable is built incrementally while its stage runs and is immutable
// once the stage is marked complete.
type Deliverable interface {
	StageNumber() int
}

// ProblemStatement is the stage 1 deliverable: business framing.
type ProblemStatement struct {
	BusinessObjective  string   `json:"business_objective"`
	ProblemDescription string   `json:"problem_description"`
	CurrentProcess     string   `json:"current_process"`
	SuccessCriteria    []string `json:"success_criteria"`
	Stakeholders       []string `json:"stakeholders"`
	Constraints        []string `json:"constraints"`
}

func (*ProblemStatement) StageNumber() int { return StageBusinessFraming }

// KPI is a business metric with a baseline, a target, and a timeframe.
type KPI struct {
	Name      string `json:"name"`
	Baseline  string `json:"baseline"`
	Target    string `json:"target"`
	Timeframe string `json:"timeframe"`
}

// ModelMetric links a technical evaluation metric to the KPI it serves.
type ModelMetric struct {
	Name      string `json:"name"`
	LinkedKPI string `json:"linked_kpi"`
	Rationale string `json:"rationale"`
}

// MetricAlignmentMatrix is the stage 2 deliverable: value metrics.
type MetricAlignmentMatrix struct {
	KPIs          []KPI         `json:"kpis"`
	ModelMetrics  []ModelMetric `json:"model_metrics"`
	TradeoffNotes string        `json:"tradeoff_notes"`
}

func (*MetricAlignmentMatrix) StageNumber() int { return StageValueMetrics }

// DataSource describes one data source and its assessed quality.
type DataSource struct {
	Name         string   `json:"name"`
	Location     string   `json:"location"`
	AccessMethod string   `json:"access_method"`
	QualityScore int      `json:"quality_score"` // 0-10
	Issues       []string `json:"issues,omitempty"`
}

// DataQualityScorecard is the stage 3 deliverable: data feasibility.
type DataQualityScorecard struct {
	Sources         []DataSource `json:"sources"`
	OverallScore    int          `json:"overall_score"` // 0-10
	Gaps            []string     `json:"gaps"`
	RemediationPlan string       `json:"remediation_plan"`
}

func (*DataQualityScorecard) StageNumber() int { return StageDataFeasibility }

// UserContext is the stage 4 deliverable: who uses the system and how.
type UserContext struct {
	PrimaryUsers    []string `json:"primary_users"`
	Workflow        string   `json:"workflow"`
	DecisionCadence string   `json:"decision_cadence"`
	OutputFormat    string   `json:"output_format"`
	AdoptionRisks   []string `json:"adoption_risks"`
}

func (*UserContext) StageNumber() int { return StageUserContext }

// Ethical principles assessed in stage 5.
const (
	PrincipleFairness       = "fairness"
	PrinciplePrivacy        = "privacy"
	PrincipleSafety         = "safety"
	PrincipleTransparency   = "transparency"
	PrincipleAccountability = "accountability"
)

// Principles lists the five assessed principles in report order.
var Principles = []string{
	PrincipleFairness,
	PrinciplePrivacy,
	PrincipleSafety,
	PrincipleTransparency,
	PrincipleAccountability,
}

// RiskEntry is one assessed ethical risk.
type RiskEntry struct {
	Principle     string `json:"principle"`
	Description   string `json:"description"`
	InitialScore  int    `json:"initial_score"`  // 0-10 before mitigation
	Mitigation    string `json:"mitigation"`
	ResidualScore int    `json:"residual_score"` // 0-10 after mitigation
}

// EthicalRiskReport is the stage 5 deliverable: ethical risk assessment.
type EthicalRiskReport struct {
	Risks            []RiskEntry `json:"risks"`
	DataConsentNotes string      `json:"data_consent_notes"`
	ReviewTriggers   []string    `json:"review_triggers"`
}

func (*EthicalRiskReport) StageNumber() int { return StageEthicalRisk }

// MaxResidualRisk returns the highest residual score across all risk entries.
// Returns 0 for an empty report.
func (r *EthicalRiskReport) MaxResidualRisk() int {
	max := 0
	for _, risk := range r.Risks {
		if risk.ResidualScore > max {
			max = risk.ResidualScore
		}
	}
	return max
}

// NewDeliverable returns a fresh, empty deliverable for the given stage.
func NewDeliverable(stage int) (Deliverable, error) {
	switch stage {
	case StageBusinessFraming:
		return &ProblemStatement{}, nil
	case StageValueMetrics:
		return &MetricAlignmentMatrix{}, nil
	case StageDataFeasibility:
		return &DataQualityScorecard{}, nil
	case StageUserContext:
		return &UserContext{}, nil
	case StageEthicalRisk:
		return &EthicalRiskReport{}, nil
	default:
		return nil, fmt.Errorf("charter: no deliverable for stage %d", stage)
	}
}

// UnmarshalDeliverable decodes JSON into the concrete deliverable type for
// the given stage. Used when restoring checkpoint snapshots.
func UnmarshalDeliverable(stage int, data []byte) (Deliverable, error) {
	d, err := NewDeliverable(stage)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, d); err != nil {
		return nil, fmt.Errorf("decoding stage %d deliverable: %w", stage, err)
	}
	return d, nil
}
