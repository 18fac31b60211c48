package gate

import (
	"context"
	"fmt"
	"strings"

	"github.com/fathom-dev/fathom/internal/charter"
)

// Checker scans all five completed deliverables for cross-stage
// contradictions after the final stage.
type Checker interface {
	Check(ctx context.Context, deliverables map[int]charter.Deliverable) (*charter.ConsistencyReport, error)
}

// RuleChecker is the production Checker: a fixed set of deterministic
// cross-stage rules. Contradictions block nothing by themselves; they are
// recorded on the charter for the governance reader.
type RuleChecker struct{}

// NewRuleChecker returns the production consistency checker.
func NewRuleChecker() *RuleChecker {
	return &RuleChecker{}
}

// Check applies the cross-stage rules. An incomplete deliverable map is an
// error: consistency only runs after stage 5.
func (c *RuleChecker) Check(ctx context.Context, deliverables map[int]charter.Deliverable) (*charter.ConsistencyReport, error) {
	for n := charter.StageBusinessFraming; n <= charter.StageEthicalRisk; n++ {
		if deliverables[n] == nil {
			return nil, fmt.Errorf("gate: consistency check requires all stages, stage %d missing", n)
		}
	}

	problem, _ := deliverables[charter.StageBusinessFraming].(*charter.ProblemStatement)
	metrics, _ := deliverables[charter.StageValueMetrics].(*charter.MetricAlignmentMatrix)
	data, _ := deliverables[charter.StageDataFeasibility].(*charter.DataQualityScorecard)
	users, _ := deliverables[charter.StageUserContext].(*charter.UserContext)
	ethics, _ := deliverables[charter.StageEthicalRisk].(*charter.EthicalRiskReport)
	if problem == nil || metrics == nil || data == nil || users == nil || ethics == nil {
		return nil, fmt.Errorf("gate: consistency check received a mistyped deliverable")
	}

	report := &charter.ConsistencyReport{}

	// Every model metric must point at a declared KPI.
	kpiNames := map[string]bool{}
	for _, kpi := range metrics.KPIs {
		kpiNames[strings.ToLower(kpi.Name)] = true
	}
	for _, mm := range metrics.ModelMetrics {
		if mm.LinkedKPI == "" {
			report.Warnings = append(report.Warnings, fmt.Sprintf("model metric %q is not linked to any KPI", mm.Name))
			continue
		}
		if !kpiNames[strings.ToLower(mm.LinkedKPI)] {
			report.Contradictions = append(report.Contradictions, fmt.Sprintf("model metric %q links to undeclared KPI %q", mm.Name, mm.LinkedKPI))
		}
	}

	// Poor data cannot support ambitious KPIs without a remediation plan.
	if data.OverallScore <= 3 && data.RemediationPlan == "" {
		report.Contradictions = append(report.Contradictions, fmt.Sprintf("data quality scored %d/10 with no remediation plan, yet stage 2 commits to KPI targets", data.OverallScore))
	}
	if len(data.Gaps) > 0 && data.RemediationPlan == "" {
		report.Warnings = append(report.Warnings, "stage 3 lists data gaps but no remediation plan")
	}

	// Stage 4 users should appear among stage 1 stakeholders.
	stakeholders := strings.ToLower(strings.Join(problem.Stakeholders, " | "))
	for _, user := range users.PrimaryUsers {
		if !strings.Contains(stakeholders, strings.ToLower(user)) {
			report.Warnings = append(report.Warnings, fmt.Sprintf("primary user %q is not named among stage 1 stakeholders", user))
		}
	}

	// A halt-level residual risk contradicts unmitigated adoption pressure.
	for _, risk := range ethics.Risks {
		if risk.ResidualScore >= 9 && risk.Mitigation == "" {
			report.Contradictions = append(report.Contradictions, fmt.Sprintf("%s risk has residual score %d and no recorded mitigation", risk.Principle, risk.ResidualScore))
		}
	}

	report.IsConsistent = len(report.Contradictions) == 0
	return report, nil
}
