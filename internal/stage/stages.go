package stage

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/fathom-dev/fathom/internal/charter"
)

// builtinDefinitions declares the five interview stages in order.
func builtinDefinitions() []Definition {
	return []Definition{
		businessFraming(),
		valueMetrics(),
		dataFeasibility(),
		userContext(),
		ethicalRisk(),
	}
}

// wrongType reports a fold invoked with a deliverable of the wrong stage.
func wrongType(stage int, d charter.Deliverable) error {
	return fmt.Errorf("stage %d fold: unexpected deliverable type %T", stage, d)
}

func unknownKey(stage int, key string) error {
	return fmt.Errorf("stage %d fold: unknown group key %q", stage, key)
}

// splitList breaks a free-text answer into list items: one per line, with
// semicolons as a secondary separator. Empty items are dropped.
func splitList(answer string) []string {
	var items []string
	for _, line := range strings.Split(answer, "\n") {
		for _, part := range strings.Split(line, ";") {
			if item := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(part), "-")); item != "" {
				items = append(items, item)
			}
		}
	}
	return items
}

var scoreRe = regexp.MustCompile(`\b(\d{1,2})\s*(?:/\s*10)?\b`)

// extractScore pulls the first 0-10 score mentioned in the answer. Returns
// fallback when none is present.
func extractScore(answer string, fallback int) int {
	for _, match := range scoreRe.FindAllStringSubmatch(answer, -1) {
		n, err := strconv.Atoi(match[1])
		if err == nil && n >= 0 && n <= 10 {
			return n
		}
	}
	return fallback
}

// labelledScore pulls "label: N" from the answer, e.g. "residual: 4".
func labelledScore(answer, label string, fallback int) int {
	re := regexp.MustCompile(`(?i)\b` + label + `\s*[:=]?\s*(\d{1,2})\b`)
	if match := re.FindStringSubmatch(answer); match != nil {
		n, err := strconv.Atoi(match[1])
		if err == nil && n >= 0 && n <= 10 {
			return n
		}
	}
	return fallback
}

// labelledText pulls the text following "label:" up to the end of the line.
func labelledText(answer, label string) string {
	re := regexp.MustCompile(`(?i)\b` + label + `\s*[:=]\s*(.+)`)
	if match := re.FindStringSubmatch(answer); match != nil {
		return strings.TrimSpace(match[1])
	}
	return ""
}

// --- Stage 1: business framing --------------------------------------------

func businessFraming() Definition {
	return Definition{
		Number: charter.StageBusinessFraming,
		Title:  "Business framing",
		Groups: []QuestionGroup{
			{Key: "business_objective", Question: "What business objective should this project serve? Name the outcome the organisation wants, not the technology."},
			{Key: "problem_description", Question: "Describe the problem in concrete terms: what goes wrong today, how often, and what it costs."},
			{Key: "current_process", Question: "How is this handled today, without the proposed system? Walk through the current process step by step."},
			{Key: "success_criteria", Question: "What observable results would tell you the project succeeded? List each criterion on its own line."},
			{Key: "stakeholders", Question: "Who are the stakeholders: who sponsors this, who is affected, and who can veto it? One per line."},
			{Key: "constraints", Question: "What constraints apply: budget, deadlines, regulation, existing systems? One per line."},
		},
		RequiredFields: []string{"business_objective", "problem_description", "success_criteria", "stakeholders"},
		New:            func() charter.Deliverable { return &charter.ProblemStatement{} },
		Fold: func(d charter.Deliverable, key, answer string) error {
			ps, ok := d.(*charter.ProblemStatement)
			if !ok {
				return wrongType(charter.StageBusinessFraming, d)
			}
			switch key {
			case "business_objective":
				ps.BusinessObjective = strings.TrimSpace(answer)
			case "problem_description":
				ps.ProblemDescription = strings.TrimSpace(answer)
			case "current_process":
				ps.CurrentProcess = strings.TrimSpace(answer)
			case "success_criteria":
				ps.SuccessCriteria = splitList(answer)
			case "stakeholders":
				ps.Stakeholders = splitList(answer)
			case "constraints":
				ps.Constraints = splitList(answer)
			default:
				return unknownKey(charter.StageBusinessFraming, key)
			}
			return nil
		},
	}
}

// --- Stage 2: value metrics -----------------------------------------------

// parseKPI reads one KPI line: "name; baseline; target; timeframe".
// Missing parts stay empty; the gate validator decides completeness.
func parseKPI(line string) charter.KPI {
	parts := strings.Split(line, ";")
	kpi := charter.KPI{Name: strings.TrimSpace(parts[0])}
	if len(parts) > 1 {
		kpi.Baseline = strings.TrimSpace(parts[1])
	}
	if len(parts) > 2 {
		kpi.Target = strings.TrimSpace(parts[2])
	}
	if len(parts) > 3 {
		kpi.Timeframe = strings.TrimSpace(parts[3])
	}
	return kpi
}

// parseModelMetric reads one metric line: "metric -> kpi: rationale".
func parseModelMetric(line string) charter.ModelMetric {
	m := charter.ModelMetric{}
	rest := line
	if idx := strings.Index(rest, "->"); idx != -1 {
		m.Name = strings.TrimSpace(rest[:idx])
		rest = rest[idx+2:]
	} else {
		m.Name = strings.TrimSpace(rest)
		return m
	}
	if idx := strings.Index(rest, ":"); idx != -1 {
		m.LinkedKPI = strings.TrimSpace(rest[:idx])
		m.Rationale = strings.TrimSpace(rest[idx+1:])
	} else {
		m.LinkedKPI = strings.TrimSpace(rest)
	}
	return m
}

func valueMetrics() Definition {
	return Definition{
		Number: charter.StageValueMetrics,
		Title:  "Value metrics",
		Groups: []QuestionGroup{
			{Key: "kpis", Question: "Which business KPIs will this project move? One per line as: name; baseline; target; timeframe (e.g. \"churn; 5.2%; 3.5%; 6 months\")."},
			{Key: "model_metrics", Question: "Which technical metrics will you track, and which KPI does each serve? One per line as: metric -> kpi: rationale."},
			{Key: "tradeoff_notes", Question: "What metric tradeoffs do you anticipate (e.g. precision vs recall), and which side wins for the business?"},
		},
		RequiredFields: []string{"kpis", "model_metrics"},
		New:            func() charter.Deliverable { return &charter.MetricAlignmentMatrix{} },
		Fold: func(d charter.Deliverable, key, answer string) error {
			m, ok := d.(*charter.MetricAlignmentMatrix)
			if !ok {
				return wrongType(charter.StageValueMetrics, d)
			}
			switch key {
			case "kpis":
				for _, line := range splitList(answer) {
					m.KPIs = append(m.KPIs, parseKPI(line))
				}
			case "model_metrics":
				for _, line := range splitList(answer) {
					m.ModelMetrics = append(m.ModelMetrics, parseModelMetric(line))
				}
			case "tradeoff_notes":
				m.TradeoffNotes = strings.TrimSpace(answer)
			default:
				return unknownKey(charter.StageValueMetrics, key)
			}
			return nil
		},
		ContextHint: func(prior map[int]charter.Deliverable) string {
			ps, ok := prior[charter.StageBusinessFraming].(*charter.ProblemStatement)
			if !ok {
				return ""
			}
			return fmt.Sprintf("Stage 1 objective: %s", ps.BusinessObjective)
		},
	}
}

// --- Stage 3: data feasibility --------------------------------------------

// parseDataSource reads one source line: "name; location; access method".
func parseDataSource(line string) charter.DataSource {
	parts := strings.Split(line, ";")
	src := charter.DataSource{Name: strings.TrimSpace(parts[0])}
	if len(parts) > 1 {
		src.Location = strings.TrimSpace(parts[1])
	}
	if len(parts) > 2 {
		src.AccessMethod = strings.TrimSpace(parts[2])
	}
	return src
}

func dataFeasibility() Definition {
	return Definition{
		Number: charter.StageDataFeasibility,
		Title:  "Data feasibility",
		Groups: []QuestionGroup{
			{Key: "sources", Question: "Which data sources will feed this project? One per line as: name; location; access method."},
			{Key: "quality", Question: "Rate the overall data quality 0-10 and list the known issues (missing values, staleness, bias, coverage)."},
			{Key: "gaps", Question: "What data do you need but not have? List each gap on its own line."},
			{Key: "remediation", Question: "How will you close the quality gaps before modelling starts? Describe the remediation plan."},
		},
		RequiredFields: []string{"sources", "overall_score"},
		New:            func() charter.Deliverable { return &charter.DataQualityScorecard{} },
		Fold: func(d charter.Deliverable, key, answer string) error {
			sc, ok := d.(*charter.DataQualityScorecard)
			if !ok {
				return wrongType(charter.StageDataFeasibility, d)
			}
			switch key {
			case "sources":
				for _, line := range splitList(answer) {
					sc.Sources = append(sc.Sources, parseDataSource(line))
				}
			case "quality":
				sc.OverallScore = extractScore(answer, 0)
				for i, src := range sc.Sources {
					if src.QualityScore == 0 {
						sc.Sources[i].QualityScore = sc.OverallScore
					}
				}
			case "gaps":
				sc.Gaps = splitList(answer)
			case "remediation":
				sc.RemediationPlan = strings.TrimSpace(answer)
			default:
				return unknownKey(charter.StageDataFeasibility, key)
			}
			return nil
		},
		ContextHint: func(prior map[int]charter.Deliverable) string {
			m, ok := prior[charter.StageValueMetrics].(*charter.MetricAlignmentMatrix)
			if !ok || len(m.KPIs) == 0 {
				return ""
			}
			names := make([]string, 0, len(m.KPIs))
			for _, kpi := range m.KPIs {
				names = append(names, kpi.Name)
			}
			return fmt.Sprintf("Stage 2 KPIs: %s", strings.Join(names, ", "))
		},
	}
}

// --- Stage 4: user context ------------------------------------------------

func userContext() Definition {
	return Definition{
		Number: charter.StageUserContext,
		Title:  "User context",
		Groups: []QuestionGroup{
			{Key: "primary_users", Question: "Who will use this system's output day to day? List each user group on its own line."},
			{Key: "workflow", Question: "Walk through the workflow where the output lands: what does the user do before, with, and after it?"},
			{Key: "decision_cadence", Question: "How often are decisions made with this output: per event, hourly, daily, weekly?"},
			{Key: "output_format", Question: "In what form should the output reach users: dashboard, alert, report, API, embedded in an existing tool?"},
			{Key: "adoption_risks", Question: "What could stop users from trusting or adopting this? List each risk on its own line."},
		},
		RequiredFields: []string{"primary_users", "workflow"},
		New:            func() charter.Deliverable { return &charter.UserContext{} },
		Fold: func(d charter.Deliverable, key, answer string) error {
			uc, ok := d.(*charter.UserContext)
			if !ok {
				return wrongType(charter.StageUserContext, d)
			}
			switch key {
			case "primary_users":
				uc.PrimaryUsers = splitList(answer)
			case "workflow":
				uc.Workflow = strings.TrimSpace(answer)
			case "decision_cadence":
				uc.DecisionCadence = strings.TrimSpace(answer)
			case "output_format":
				uc.OutputFormat = strings.TrimSpace(answer)
			case "adoption_risks":
				uc.AdoptionRisks = splitList(answer)
			default:
				return unknownKey(charter.StageUserContext, key)
			}
			return nil
		},
		ContextHint: func(prior map[int]charter.Deliverable) string {
			ps, ok := prior[charter.StageBusinessFraming].(*charter.ProblemStatement)
			if !ok || len(ps.Stakeholders) == 0 {
				return ""
			}
			return fmt.Sprintf("Stage 1 stakeholders: %s", strings.Join(ps.Stakeholders, ", "))
		},
	}
}

// --- Stage 5: ethical risk ------------------------------------------------

func riskQuestion(principle string) string {
	return fmt.Sprintf("Assess the %s risk: describe the main concern, state the mitigation as \"mitigation: ...\", and rate initial and residual severity 0-10 as \"initial: N, residual: N\".", principle)
}

// parseRiskEntry maps one free-text risk answer onto a RiskEntry using fixed
// label extraction. The full answer stays as the description.
func parseRiskEntry(principle, answer string) charter.RiskEntry {
	initial := labelledScore(answer, "initial", extractScore(answer, 5))
	residual := labelledScore(answer, "residual", initial)
	return charter.RiskEntry{
		Principle:     principle,
		Description:   strings.TrimSpace(answer),
		InitialScore:  initial,
		Mitigation:    labelledText(answer, "mitigation"),
		ResidualScore: residual,
	}
}

func ethicalRisk() Definition {
	groups := make([]QuestionGroup, 0, len(charter.Principles)+2)
	for _, principle := range charter.Principles {
		groups = append(groups, QuestionGroup{Key: "risk_" + principle, Question: riskQuestion(principle)})
	}
	groups = append(groups,
		QuestionGroup{Key: "consent", Question: "What is the consent and provenance status of the data involved? Note anything collected without explicit consent."},
		QuestionGroup{Key: "review_triggers", Question: "What events should trigger a re-review of this assessment (new data source, model change, incident)? One per line."},
	)

	return Definition{
		Number:         charter.StageEthicalRisk,
		Title:          "Ethical risk",
		Groups:         groups,
		RequiredFields: []string{"risks"},
		New:            func() charter.Deliverable { return &charter.EthicalRiskReport{} },
		Fold: func(d charter.Deliverable, key, answer string) error {
			report, ok := d.(*charter.EthicalRiskReport)
			if !ok {
				return wrongType(charter.StageEthicalRisk, d)
			}
			switch {
			case strings.HasPrefix(key, "risk_"):
				principle := strings.TrimPrefix(key, "risk_")
				report.Risks = append(report.Risks, parseRiskEntry(principle, answer))
			case key == "consent":
				report.DataConsentNotes = strings.TrimSpace(answer)
			case key == "review_triggers":
				report.ReviewTriggers = splitList(answer)
			default:
				return unknownKey(charter.StageEthicalRisk, key)
			}
			return nil
		},
		ContextHint: func(prior map[int]charter.Deliverable) string {
			uc, ok := prior[charter.StageUserContext].(*charter.UserContext)
			if !ok || len(uc.PrimaryUsers) == 0 {
				return ""
			}
			return fmt.Sprintf("Stage 4 primary users: %s", strings.Join(uc.PrimaryUsers, ", "))
		},
	}
}
