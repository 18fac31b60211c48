package charter

import (
	"fmt"
	"time"
)

// ConsistencyReport holds the result of the cross-stage contradiction scan
// that runs after stage 5 completes.
type ConsistencyReport struct {
	IsConsistent   bool     `json:"is_consistent"`
	Contradictions []string `json:"contradictions,omitempty"`
	Warnings       []string `json:"warnings,omitempty"`
}

// Charter aggregates the five stage deliverables with the consistency report
// and the governance decision. Created once at session completion and
// immutable thereafter.
type Charter struct {
	SessionID          string                `json:"session_id"`
	ProjectName        string                `json:"project_name"`
	GeneratedAt        time.Time             `json:"generated_at"`
	Problem            *ProblemStatement     `json:"problem"`
	Metrics            *MetricAlignmentMatrix `json:"metrics"`
	Data               *DataQualityScorecard `json:"data"`
	Users              *UserContext          `json:"users"`
	Ethics             *EthicalRiskReport    `json:"ethics"`
	Consistency        ConsistencyReport     `json:"consistency"`
	Governance         Decision              `json:"governance"`
	OverallFeasibility string                `json:"overall_feasibility"`
	CriticalSuccess    []string              `json:"critical_success_factors"`
	MajorRisks         []string              `json:"major_risks"`
}

// Aggregate builds a Charter from the five completed deliverables. The
// critical-success-factor and major-risk lists come from fixed field mappings
// (stage 2 KPIs and stage 5 risk entries), not free-form synthesis.
func Aggregate(
	sessionID, projectName string,
	stageData map[int]Deliverable,
	consistency ConsistencyReport,
	thresholds GovernanceThresholds,
) (*Charter, error) {
	for n := StageBusinessFraming; n <= StageEthicalRisk; n++ {
		if stageData[n] == nil {
			return nil, fmt.Errorf("charter: stage %d deliverable missing", n)
		}
	}

	problem, ok := stageData[StageBusinessFraming].(*ProblemStatement)
	if !ok {
		return nil, fmt.Errorf("charter: stage 1 deliverable has wrong type %T", stageData[StageBusinessFraming])
	}
	metrics, ok := stageData[StageValueMetrics].(*MetricAlignmentMatrix)
	if !ok {
		return nil, fmt.Errorf("charter: stage 2 deliverable has wrong type %T", stageData[StageValueMetrics])
	}
	data, ok := stageData[StageDataFeasibility].(*DataQualityScorecard)
	if !ok {
		return nil, fmt.Errorf("charter: stage 3 deliverable has wrong type %T", stageData[StageDataFeasibility])
	}
	users, ok := stageData[StageUserContext].(*UserContext)
	if !ok {
		return nil, fmt.Errorf("charter: stage 4 deliverable has wrong type %T", stageData[StageUserContext])
	}
	ethics, ok := stageData[StageEthicalRisk].(*EthicalRiskReport)
	if !ok {
		return nil, fmt.Errorf("charter: stage 5 deliverable has wrong type %T", stageData[StageEthicalRisk])
	}

	decision := thresholds.Decide(ethics.MaxResidualRisk())

	return &Charter{
		SessionID:          sessionID,
		ProjectName:        projectName,
		GeneratedAt:        time.Now().UTC(),
		Problem:            problem,
		Metrics:            metrics,
		Data:               data,
		Users:              users,
		Ethics:             ethics,
		Consistency:        consistency,
		Governance:         decision,
		OverallFeasibility: Feasibility(decision),
		CriticalSuccess:    successFactors(metrics),
		MajorRisks:         majorRisks(ethics, thresholds),
	}, nil
}

// successFactors maps each stage 2 KPI to a critical-success-factor line.
func successFactors(m *MetricAlignmentMatrix) []string {
	factors := make([]string, 0, len(m.KPIs))
	for _, kpi := range m.KPIs {
		factors = append(factors, fmt.Sprintf("%s: %s -> %s within %s",
			kpi.Name, kpi.Baseline, kpi.Target, kpi.Timeframe))
	}
	return factors
}

// majorRisks lists stage 5 risk entries whose residual score reaches the
// monitoring threshold.
func majorRisks(r *EthicalRiskReport, t GovernanceThresholds) []string {
	var risks []string
	for _, entry := range r.Risks {
		if entry.ResidualScore >= t.Monitor {
			risks = append(risks, fmt.Sprintf("%s: %s (residual %d)",
				entry.Principle, entry.Description, entry.ResidualScore))
		}
	}
	return risks
}
