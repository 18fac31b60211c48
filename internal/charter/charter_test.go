package charter

import (
	"strings"
	"testing"
)

func completeStageData(maxResidual int) map[int]Deliverable {
	return map[int]Deliverable{
		StageBusinessFraming: &ProblemStatement{
			BusinessObjective: "reduce churn",
			Stakeholders:      []string{"support leads"},
		},
		StageValueMetrics: &MetricAlignmentMatrix{
			KPIs: []KPI{
				{Name: "churn rate", Baseline: "8%", Target: "5%", Timeframe: "12 months"},
				{Name: "NPS", Baseline: "31", Target: "40", Timeframe: "12 months"},
			},
			ModelMetrics: []ModelMetric{
				{Name: "AUC", LinkedKPI: "churn rate", Rationale: "ranking quality drives outreach"},
			},
		},
		StageDataFeasibility: &DataQualityScorecard{
			Sources:      []DataSource{{Name: "crm", QualityScore: 6}},
			OverallScore: 6,
		},
		StageUserContext: &UserContext{
			PrimaryUsers: []string{"support leads"},
		},
		StageEthicalRisk: &EthicalRiskReport{
			Risks: []RiskEntry{
				{Principle: PrincipleFairness, Description: "regional bias", InitialScore: 6, Mitigation: "stratified eval", ResidualScore: 2},
				{Principle: PrinciplePrivacy, Description: "contact data exposure", InitialScore: 7, Mitigation: "field-level masking", ResidualScore: maxResidual},
				{Principle: PrincipleSafety, Description: "none material", InitialScore: 2, ResidualScore: 1},
				{Principle: PrincipleTransparency, Description: "opaque scores", InitialScore: 5, Mitigation: "reason codes", ResidualScore: 2},
				{Principle: PrincipleAccountability, Description: "unclear ownership", InitialScore: 5, Mitigation: "named owner", ResidualScore: 2},
			},
		},
	}
}

// TestAggregateBuildsCharter verifies the happy path: decision from the
// maximum residual risk, success factors from KPIs, and major risks from
// entries at or above the monitoring threshold.
func TestAggregateBuildsCharter(t *testing.T) {
	data := completeStageData(5)
	ch, err := Aggregate("sess-1", "churn model", data, ConsistencyReport{IsConsistent: true}, DefaultGovernanceThresholds())
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	if ch.SessionID != "sess-1" || ch.ProjectName != "churn model" {
		t.Errorf("header = %s/%s, want sess-1/churn model", ch.SessionID, ch.ProjectName)
	}
	if ch.GeneratedAt.IsZero() {
		t.Error("GeneratedAt not set")
	}
	// Max residual 5 -> REVISE under 3/5/7/9.
	if ch.Governance != DecisionRevise {
		t.Errorf("Governance = %s, want %s", ch.Governance, DecisionRevise)
	}
	if ch.OverallFeasibility != "guarded" {
		t.Errorf("OverallFeasibility = %q, want guarded", ch.OverallFeasibility)
	}

	if len(ch.CriticalSuccess) != 2 {
		t.Fatalf("CriticalSuccess has %d entries, want 2", len(ch.CriticalSuccess))
	}
	if ch.CriticalSuccess[0] != "churn rate: 8% -> 5% within 12 months" {
		t.Errorf("CriticalSuccess[0] = %q", ch.CriticalSuccess[0])
	}

	// Only the privacy entry (residual 5) reaches the monitoring threshold.
	if len(ch.MajorRisks) != 1 {
		t.Fatalf("MajorRisks = %v, want exactly the privacy entry", ch.MajorRisks)
	}
	if !strings.HasPrefix(ch.MajorRisks[0], "privacy:") {
		t.Errorf("MajorRisks[0] = %q, want privacy entry", ch.MajorRisks[0])
	}
}

// TestAggregateLowRiskProceeds covers the worked low-risk case: maximum
// residual 2 yields PROCEED and no major risks.
func TestAggregateLowRiskProceeds(t *testing.T) {
	ch, err := Aggregate("sess-2", "triage", completeStageData(2), ConsistencyReport{IsConsistent: true}, DefaultGovernanceThresholds())
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if ch.Governance != DecisionProceed {
		t.Errorf("Governance = %s, want %s", ch.Governance, DecisionProceed)
	}
	if len(ch.MajorRisks) != 0 {
		t.Errorf("MajorRisks = %v, want none", ch.MajorRisks)
	}
}

// TestAggregateMissingStage verifies aggregation refuses incomplete input.
func TestAggregateMissingStage(t *testing.T) {
	data := completeStageData(2)
	delete(data, StageUserContext)
	if _, err := Aggregate("sess-3", "p", data, ConsistencyReport{}, DefaultGovernanceThresholds()); err == nil {
		t.Fatal("Aggregate with a missing stage should fail")
	}
}

// TestAggregateWrongType verifies a stage slot holding the wrong deliverable
// type is an error, not a panic.
func TestAggregateWrongType(t *testing.T) {
	data := completeStageData(2)
	data[StageValueMetrics] = &ProblemStatement{}
	if _, err := Aggregate("sess-4", "p", data, ConsistencyReport{}, DefaultGovernanceThresholds()); err == nil {
		t.Fatal("Aggregate with a mistyped stage should fail")
	}
}

// TestUnmarshalDeliverableRoundTrip verifies each stage's deliverable
// restores to its concrete type from raw JSON.
func TestUnmarshalDeliverableRoundTrip(t *testing.T) {
	raw := []byte(`{"kpis":[{"name":"churn rate","baseline":"8%","target":"5%","timeframe":"12 months"}],"model_metrics":[],"tradeoff_notes":"n"}`)
	d, err := UnmarshalDeliverable(StageValueMetrics, raw)
	if err != nil {
		t.Fatalf("UnmarshalDeliverable failed: %v", err)
	}
	matrix, ok := d.(*MetricAlignmentMatrix)
	if !ok {
		t.Fatalf("deliverable type = %T, want *MetricAlignmentMatrix", d)
	}
	if len(matrix.KPIs) != 1 || matrix.KPIs[0].Name != "churn rate" {
		t.Errorf("KPIs = %+v", matrix.KPIs)
	}

	if _, err := UnmarshalDeliverable(0, raw); err == nil {
		t.Error("unknown stage number should fail")
	}
}
