// Package report renders a completed charter to Markdown for export.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fathom-dev/fathom/internal/charter"
)

// Render produces the Markdown form of a completed charter.
func Render(ch *charter.Charter) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Project Charter: %s\n\n", ch.ProjectName)
	fmt.Fprintf(&b, "Generated %s | Session %s\n\n", ch.GeneratedAt.Format("2006-01-02 15:04 MST"), ch.SessionID)
	fmt.Fprintf(&b, "**Governance decision:** %s  \n", ch.Governance)
	fmt.Fprintf(&b, "**Overall feasibility:** %s\n\n", ch.OverallFeasibility)

	b.WriteString("## Problem Statement\n\n")
	fmt.Fprintf(&b, "**Business objective:** %s\n\n", ch.Problem.BusinessObjective)
	fmt.Fprintf(&b, "%s\n\n", ch.Problem.ProblemDescription)
	if ch.Problem.CurrentProcess != "" {
		fmt.Fprintf(&b, "**Current process:** %s\n\n", ch.Problem.CurrentProcess)
	}
	writeList(&b, "Success criteria", ch.Problem.SuccessCriteria)
	writeList(&b, "Stakeholders", ch.Problem.Stakeholders)
	writeList(&b, "Constraints", ch.Problem.Constraints)

	b.WriteString("## Metric Alignment\n\n")
	if len(ch.Metrics.KPIs) > 0 {
		b.WriteString("| KPI | Baseline | Target | Timeframe |\n|---|---|---|---|\n")
		for _, kpi := range ch.Metrics.KPIs {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", kpi.Name, kpi.Baseline, kpi.Target, kpi.Timeframe)
		}
		b.WriteString("\n")
	}
	if len(ch.Metrics.ModelMetrics) > 0 {
		b.WriteString("| Model metric | Linked KPI | Rationale |\n|---|---|---|\n")
		for _, mm := range ch.Metrics.ModelMetrics {
			fmt.Fprintf(&b, "| %s | %s | %s |\n", mm.Name, mm.LinkedKPI, mm.Rationale)
		}
		b.WriteString("\n")
	}
	if ch.Metrics.TradeoffNotes != "" {
		fmt.Fprintf(&b, "**Tradeoffs:** %s\n\n", ch.Metrics.TradeoffNotes)
	}

	b.WriteString("## Data Quality Scorecard\n\n")
	fmt.Fprintf(&b, "**Overall score:** %d/10\n\n", ch.Data.OverallScore)
	if len(ch.Data.Sources) > 0 {
		b.WriteString("| Source | Location | Access | Score |\n|---|---|---|---|\n")
		for _, src := range ch.Data.Sources {
			fmt.Fprintf(&b, "| %s | %s | %s | %d |\n", src.Name, src.Location, src.AccessMethod, src.QualityScore)
		}
		b.WriteString("\n")
	}
	writeList(&b, "Gaps", ch.Data.Gaps)
	if ch.Data.RemediationPlan != "" {
		fmt.Fprintf(&b, "**Remediation plan:** %s\n\n", ch.Data.RemediationPlan)
	}

	b.WriteString("## User Context\n\n")
	writeList(&b, "Primary users", ch.Users.PrimaryUsers)
	fmt.Fprintf(&b, "**Workflow:** %s\n\n", ch.Users.Workflow)
	if ch.Users.DecisionCadence != "" {
		fmt.Fprintf(&b, "**Decision cadence:** %s\n\n", ch.Users.DecisionCadence)
	}
	if ch.Users.OutputFormat != "" {
		fmt.Fprintf(&b, "**Output format:** %s\n\n", ch.Users.OutputFormat)
	}
	writeList(&b, "Adoption risks", ch.Users.AdoptionRisks)

	b.WriteString("## Ethical Risk Report\n\n")
	if len(ch.Ethics.Risks) > 0 {
		b.WriteString("| Principle | Initial | Residual | Mitigation |\n|---|---|---|---|\n")
		for _, risk := range ch.Ethics.Risks {
			fmt.Fprintf(&b, "| %s | %d | %d | %s |\n", risk.Principle, risk.InitialScore, risk.ResidualScore, risk.Mitigation)
		}
		b.WriteString("\n")
	}
	if ch.Ethics.DataConsentNotes != "" {
		fmt.Fprintf(&b, "**Consent notes:** %s\n\n", ch.Ethics.DataConsentNotes)
	}
	writeList(&b, "Review triggers", ch.Ethics.ReviewTriggers)

	b.WriteString("## Consistency\n\n")
	if ch.Consistency.IsConsistent {
		b.WriteString("No cross-stage contradictions found.\n\n")
	}
	writeList(&b, "Contradictions", ch.Consistency.Contradictions)
	writeList(&b, "Warnings", ch.Consistency.Warnings)

	b.WriteString("## Summary\n\n")
	writeList(&b, "Critical success factors", ch.CriticalSuccess)
	writeList(&b, "Major risks", ch.MajorRisks)

	return b.String()
}

// Write renders the charter and saves it under dir/.fathom/charters/.
// Returns the written file path.
func Write(dir string, ch *charter.Charter) (string, error) {
	chartersDir := filepath.Join(dir, ".fathom", "charters")
	if err := os.MkdirAll(chartersDir, 0755); err != nil {
		return "", fmt.Errorf("creating charters directory: %w", err)
	}

	path := filepath.Join(chartersDir, ch.SessionID+".md")
	if err := os.WriteFile(path, []byte(Render(ch)), 0644); err != nil {
		return "", fmt.Errorf("writing charter: %w", err)
	}

	return path, nil
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "**%s:**\n\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}
