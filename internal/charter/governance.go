package charter

import "fmt"

// Decision is the final governance recommendation derived from the maximum
// residual risk across the five ethical principles.
type Decision string

// Governance decisions, ordered from least to most severe.
const (
	DecisionProceed           Decision = "PROCEED"
	DecisionProceedMonitoring Decision = "PROCEED_WITH_MONITORING"
	DecisionRevise            Decision = "REVISE"
	DecisionSubmitToCommittee Decision = "SUBMIT_TO_COMMITTEE"
	DecisionHalt              Decision = "HALT"
)

// severity maps each decision to its rank for comparisons.
var severity = map[Decision]int{
	DecisionProceed:           0,
	DecisionProceedMonitoring: 1,
	DecisionRevise:            2,
	DecisionSubmitToCommittee: 3,
	DecisionHalt:              4,
}

// Severity returns the rank of d (0 = least severe). Unknown decisions rank
// above HALT so they are never treated as safe.
func (d Decision) Severity() int {
	if s, ok := severity[d]; ok {
		return s
	}
	return len(severity)
}

// GovernanceThresholds are the risk cutoffs between decision categories.
// A maximum residual risk below Proceed yields PROCEED, below Monitor yields
// PROCEED_WITH_MONITORING, and so on; at or above Committee the decision is
// HALT. The values must be strictly increasing.
type GovernanceThresholds struct {
	Proceed   int `yaml:"proceed"`
	Monitor   int `yaml:"monitor"`
	Revise    int `yaml:"revise"`
	Committee int `yaml:"committee"`
}

// DefaultGovernanceThresholds returns the standard 3/5/7/9 cutoffs.
func DefaultGovernanceThresholds() GovernanceThresholds {
	return GovernanceThresholds{Proceed: 3, Monitor: 5, Revise: 7, Committee: 9}
}

// Validate rejects threshold sets that are not strictly increasing, which
// would make the decision function non-monotonic.
func (t GovernanceThresholds) Validate() error {
	if !(t.Proceed < t.Monitor && t.Monitor < t.Revise && t.Revise < t.Committee) {
		return fmt.Errorf("governance thresholds must be strictly increasing: %d/%d/%d/%d",
			t.Proceed, t.Monitor, t.Revise, t.Committee)
	}
	return nil
}

// Decide maps a maximum residual risk score to a governance decision.
// The mapping is monotone: a higher risk never yields a less severe decision.
func (t GovernanceThresholds) Decide(maxResidualRisk int) Decision {
	switch {
	case maxResidualRisk < t.Proceed:
		return DecisionProceed
	case maxResidualRisk < t.Monitor:
		return DecisionProceedMonitoring
	case maxResidualRisk < t.Revise:
		return DecisionRevise
	case maxResidualRisk < t.Committee:
		return DecisionSubmitToCommittee
	default:
		return DecisionHalt
	}
}

// Feasibility summarises a governance decision as an overall feasibility
// rating for the charter header. Monotone in decision severity.
func Feasibility(d Decision) string {
	switch d {
	case DecisionProceed:
		return "high"
	case DecisionProceedMonitoring:
		return "moderate"
	case DecisionRevise:
		return "guarded"
	case DecisionSubmitToCommittee:
		return "low"
	default:
		return "infeasible"
	}
}
