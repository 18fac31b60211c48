package charter

import "testing"

// TestDecideDefaultThresholds checks the decision at every risk score under
// the standard 3/5/7/9 cutoffs.
func TestDecideDefaultThresholds(t *testing.T) {
	thresholds := DefaultGovernanceThresholds()

	cases := []struct {
		risk int
		want Decision
	}{
		{0, DecisionProceed},
		{2, DecisionProceed},
		{3, DecisionProceedMonitoring},
		{4, DecisionProceedMonitoring},
		{5, DecisionRevise},
		{6, DecisionRevise},
		{7, DecisionSubmitToCommittee},
		{8, DecisionSubmitToCommittee},
		{9, DecisionHalt},
		{10, DecisionHalt},
	}
	for _, tc := range cases {
		if got := thresholds.Decide(tc.risk); got != tc.want {
			t.Errorf("Decide(%d) = %s, want %s", tc.risk, got, tc.want)
		}
	}
}

// TestDecideMonotone verifies a higher risk never yields a less severe
// decision, for the default and a shifted threshold set.
func TestDecideMonotone(t *testing.T) {
	sets := []GovernanceThresholds{
		DefaultGovernanceThresholds(),
		{Proceed: 1, Monitor: 2, Revise: 6, Committee: 10},
	}
	for _, thresholds := range sets {
		prev := -1
		for risk := 0; risk <= 10; risk++ {
			sev := thresholds.Decide(risk).Severity()
			if sev < prev {
				t.Errorf("thresholds %+v: severity decreased at risk %d", thresholds, risk)
			}
			prev = sev
		}
	}
}

// TestThresholdsValidate verifies non-increasing threshold sets are rejected.
func TestThresholdsValidate(t *testing.T) {
	if err := DefaultGovernanceThresholds().Validate(); err != nil {
		t.Errorf("default thresholds invalid: %v", err)
	}

	bad := []GovernanceThresholds{
		{Proceed: 5, Monitor: 5, Revise: 7, Committee: 9},
		{Proceed: 3, Monitor: 2, Revise: 7, Committee: 9},
		{Proceed: 3, Monitor: 5, Revise: 9, Committee: 7},
		{},
	}
	for _, thresholds := range bad {
		if err := thresholds.Validate(); err == nil {
			t.Errorf("Validate(%+v) = nil, want error", thresholds)
		}
	}
}

// TestFeasibilityMonotone verifies the feasibility label tracks decision
// severity.
func TestFeasibilityMonotone(t *testing.T) {
	want := map[Decision]string{
		DecisionProceed:           "high",
		DecisionProceedMonitoring: "moderate",
		DecisionRevise:            "guarded",
		DecisionSubmitToCommittee: "low",
		DecisionHalt:              "infeasible",
	}
	for d, label := range want {
		if got := Feasibility(d); got != label {
			t.Errorf("Feasibility(%s) = %q, want %q", d, got, label)
		}
	}
}

// TestMaxResidualRisk verifies the report-level maximum, including the
// empty-report case.
func TestMaxResidualRisk(t *testing.T) {
	empty := &EthicalRiskReport{}
	if got := empty.MaxResidualRisk(); got != 0 {
		t.Errorf("empty report MaxResidualRisk = %d, want 0", got)
	}

	rep := &EthicalRiskReport{Risks: []RiskEntry{
		{Principle: PrincipleFairness, ResidualScore: 2},
		{Principle: PrincipleSafety, ResidualScore: 6},
		{Principle: PrinciplePrivacy, ResidualScore: 4},
	}}
	if got := rep.MaxResidualRisk(); got != 6 {
		t.Errorf("MaxResidualRisk = %d, want 6", got)
	}
}
