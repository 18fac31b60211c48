// Package testutil provides shared fixtures for fathom tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fathom-dev/fathom/internal/charter"
)

// TempWorkspace creates a temporary directory with the given files and
// returns its path. Files is a map of relative path -> content. The
// directory is cleaned up when the test finishes.
func TempWorkspace(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()

	for relPath, content := range files {
		absPath := filepath.Join(dir, relPath)
		if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
			t.Fatalf("creating directory for %s: %v", relPath, err)
		}
		if err := os.WriteFile(absPath, []byte(content), 0644); err != nil {
			t.Fatalf("writing %s: %v", relPath, err)
		}
	}

	return dir
}

// ProblemStatementFixture returns a populated stage 1 deliverable.
func ProblemStatementFixture() *charter.ProblemStatement {
	return &charter.ProblemStatement{
		BusinessObjective:  "Cut invoice processing cost by automating triage",
		ProblemDescription: "Finance staff manually classify 4000 invoices a month",
		CurrentProcess:     "Spreadsheet queue worked through by two analysts",
		SuccessCriteria:    []string{"under 2 minutes median handling time"},
		Stakeholders:       []string{"finance analysts", "CFO office"},
		Constraints:        []string{"no vendor data leaves the EU"},
	}
}

// MetricMatrixFixture returns a populated stage 2 deliverable whose model
// metrics all link to declared KPIs.
func MetricMatrixFixture() *charter.MetricAlignmentMatrix {
	return &charter.MetricAlignmentMatrix{
		KPIs: []charter.KPI{
			{Name: "handling time", Baseline: "11 min", Target: "2 min", Timeframe: "6 months"},
		},
		ModelMetrics: []charter.ModelMetric{
			{Name: "classification F1", LinkedKPI: "handling time", Rationale: "misrouted invoices dominate handling time"},
		},
		TradeoffNotes: "precision favoured over recall to avoid misdirected payments",
	}
}

// ScorecardFixture returns a populated stage 3 deliverable with a healthy
// overall score.
func ScorecardFixture() *charter.DataQualityScorecard {
	return &charter.DataQualityScorecard{
		Sources: []charter.DataSource{
			{Name: "invoice archive", Location: "s3://fin-archive", AccessMethod: "batch export", QualityScore: 7},
		},
		OverallScore:    7,
		Gaps:            []string{"pre-2022 invoices unlabelled"},
		RemediationPlan: "label a 5k sample of the archive",
	}
}

// UserContextFixture returns a populated stage 4 deliverable whose users
// appear among the stage 1 stakeholders.
func UserContextFixture() *charter.UserContext {
	return &charter.UserContext{
		PrimaryUsers:    []string{"finance analysts"},
		Workflow:        "review model-suggested routing before approval",
		DecisionCadence: "continuous during business hours",
		OutputFormat:    "queue annotations in the existing tool",
		AdoptionRisks:   []string{"analysts may over-trust suggestions"},
	}
}

// RiskReportFixture returns a populated stage 5 deliverable covering all
// five principles with the given maximum residual score. The maximum is
// assigned to the safety entry.
func RiskReportFixture(maxResidual int) *charter.EthicalRiskReport {
	rep := &charter.EthicalRiskReport{
		DataConsentNotes: "vendor contracts permit internal processing",
		ReviewTriggers:   []string{"error rate above 5% for any vendor segment"},
	}
	for _, p := range charter.Principles {
		residual := 1
		if p == charter.PrincipleSafety {
			residual = maxResidual
		}
		initial := residual
		if initial < 5 {
			initial = 5
		}
		rep.Risks = append(rep.Risks, charter.RiskEntry{
			Principle:     p,
			Description:   "assessed during interview",
			InitialScore:  initial,
			Mitigation:    "human review of low-confidence routings",
			ResidualScore: residual,
		})
	}
	return rep
}

// StageDataFixture returns a complete, internally consistent set of five
// deliverables with the given maximum residual risk.
func StageDataFixture(maxResidual int) map[int]charter.Deliverable {
	return map[int]charter.Deliverable{
		charter.StageBusinessFraming: ProblemStatementFixture(),
		charter.StageValueMetrics:    MetricMatrixFixture(),
		charter.StageDataFeasibility: ScorecardFixture(),
		charter.StageUserContext:     UserContextFixture(),
		charter.StageEthicalRisk:     RiskReportFixture(maxResidual),
	}
}
