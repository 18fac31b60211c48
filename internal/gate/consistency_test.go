package gate

import (
	"context"
	"strings"
	"testing"

	"github.com/fathom-dev/fathom/internal/charter"
	"github.com/fathom-dev/fathom/internal/testutil"
)

// TestCheckConsistentCharter verifies a coherent deliverable set produces a
// clean report.
func TestCheckConsistentCharter(t *testing.T) {
	rep, err := NewRuleChecker().Check(context.Background(), testutil.StageDataFixture(2))
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if !rep.IsConsistent {
		t.Errorf("fixture flagged inconsistent: %v", rep.Contradictions)
	}
}

// TestCheckUndeclaredKPILink verifies a model metric pointing at a KPI that
// stage 2 never declared is a contradiction.
func TestCheckUndeclaredKPILink(t *testing.T) {
	data := testutil.StageDataFixture(2)
	matrix := data[charter.StageValueMetrics].(*charter.MetricAlignmentMatrix)
	matrix.ModelMetrics = append(matrix.ModelMetrics, charter.ModelMetric{
		Name: "RMSE", LinkedKPI: "profit margin",
	})

	rep, err := NewRuleChecker().Check(context.Background(), data)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if rep.IsConsistent {
		t.Fatal("undeclared KPI link not flagged")
	}
	if !strings.Contains(rep.Contradictions[0], "profit margin") {
		t.Errorf("Contradictions = %v", rep.Contradictions)
	}
}

// TestCheckLowDataQualityWithoutRemediation verifies poor data plus no
// remediation plan is a contradiction, and data gaps alone a warning.
func TestCheckLowDataQualityWithoutRemediation(t *testing.T) {
	data := testutil.StageDataFixture(2)
	scorecard := data[charter.StageDataFeasibility].(*charter.DataQualityScorecard)
	scorecard.OverallScore = 2
	scorecard.RemediationPlan = ""

	rep, err := NewRuleChecker().Check(context.Background(), data)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if rep.IsConsistent {
		t.Fatal("low quality without remediation not flagged")
	}
	// The gaps-without-remediation warning fires too.
	if len(rep.Warnings) == 0 {
		t.Error("expected a gaps warning alongside the contradiction")
	}
}

// TestCheckUnknownPrimaryUser verifies a stage 4 user absent from stage 1
// stakeholders is a warning, not a contradiction.
func TestCheckUnknownPrimaryUser(t *testing.T) {
	data := testutil.StageDataFixture(2)
	users := data[charter.StageUserContext].(*charter.UserContext)
	users.PrimaryUsers = append(users.PrimaryUsers, "external auditors")

	rep, err := NewRuleChecker().Check(context.Background(), data)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if !rep.IsConsistent {
		t.Errorf("warning-level finding flagged as contradiction: %v", rep.Contradictions)
	}
	found := false
	for _, w := range rep.Warnings {
		if strings.Contains(w, "external auditors") {
			found = true
		}
	}
	if !found {
		t.Errorf("Warnings = %v, want unknown-user warning", rep.Warnings)
	}
}

// TestCheckUnmitigatedHaltRisk verifies a residual score of 9+ without a
// mitigation is a contradiction.
func TestCheckUnmitigatedHaltRisk(t *testing.T) {
	data := testutil.StageDataFixture(9)
	ethics := data[charter.StageEthicalRisk].(*charter.EthicalRiskReport)
	for i := range ethics.Risks {
		if ethics.Risks[i].ResidualScore == 9 {
			ethics.Risks[i].Mitigation = ""
		}
	}

	rep, err := NewRuleChecker().Check(context.Background(), data)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if rep.IsConsistent {
		t.Fatal("unmitigated halt-level risk not flagged")
	}
}

// TestCheckRequiresAllStages verifies the checker refuses a partial map.
func TestCheckRequiresAllStages(t *testing.T) {
	data := testutil.StageDataFixture(2)
	delete(data, charter.StageEthicalRisk)
	if _, err := NewRuleChecker().Check(context.Background(), data); err == nil {
		t.Fatal("Check with a missing stage should error")
	}
}
