package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fathom-dev/fathom/internal/charter"
	"github.com/fathom-dev/fathom/internal/testutil"
)

func testCharter(t *testing.T, maxResidual int) *charter.Charter {
	t.Helper()
	ch, err := charter.Aggregate(
		"sess-render", "invoice triage",
		testutil.StageDataFixture(maxResidual),
		charter.ConsistencyReport{IsConsistent: true},
		charter.DefaultGovernanceThresholds(),
	)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	return ch
}

// TestRenderCoversAllSections verifies every charter section lands in the
// Markdown output with its content.
func TestRenderCoversAllSections(t *testing.T) {
	out := Render(testCharter(t, 2))

	wantFragments := []string{
		"# Project Charter: invoice triage",
		"**Governance decision:** PROCEED",
		"**Overall feasibility:** high",
		"## Problem Statement",
		"Cut invoice processing cost",
		"## Metric Alignment",
		"| handling time | 11 min | 2 min | 6 months |",
		"| classification F1 | handling time |",
		"## Data Quality Scorecard",
		"**Overall score:** 7/10",
		"| invoice archive | s3://fin-archive | batch export | 7 |",
		"## User Context",
		"finance analysts",
		"## Ethical Risk Report",
		"| safety |",
		"## Consistency",
		"No cross-stage contradictions found.",
		"## Summary",
		"handling time: 11 min -> 2 min within 6 months",
	}
	for _, fragment := range wantFragments {
		if !strings.Contains(out, fragment) {
			t.Errorf("rendered charter missing %q", fragment)
		}
	}
}

// TestRenderHighRiskCharter verifies major risks and contradictions render
// when present.
func TestRenderHighRiskCharter(t *testing.T) {
	ch, err := charter.Aggregate(
		"sess-risky", "risky project",
		testutil.StageDataFixture(8),
		charter.ConsistencyReport{
			IsConsistent:   false,
			Contradictions: []string{"model metric links to undeclared KPI"},
		},
		charter.DefaultGovernanceThresholds(),
	)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	out := Render(ch)
	if !strings.Contains(out, "SUBMIT_TO_COMMITTEE") {
		t.Error("governance decision missing for residual 8")
	}
	if !strings.Contains(out, "model metric links to undeclared KPI") {
		t.Error("contradiction not rendered")
	}
	if !strings.Contains(out, "Major risks") {
		t.Error("major risks section missing")
	}
	if strings.Contains(out, "No cross-stage contradictions found.") {
		t.Error("clean-consistency line rendered for an inconsistent charter")
	}
}

// TestWriteCreatesCharterFile verifies Write saves under
// .fathom/charters/<session>.md.
func TestWriteCreatesCharterFile(t *testing.T) {
	dir := t.TempDir()
	ch := testCharter(t, 2)

	path, err := Write(dir, ch)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if path != filepath.Join(dir, ".fathom", "charters", "sess-render.md") {
		t.Errorf("path = %q", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading written charter: %v", err)
	}
	if !strings.Contains(string(data), "# Project Charter: invoice triage") {
		t.Error("written file missing charter content")
	}
}
