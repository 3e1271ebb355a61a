package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rsned/cultivation-server/internal/cultivation/calculator"
	"github.com/rsned/cultivation-server/internal/cultivation/presets"
	"github.com/rsned/cultivation-server/pkg/cultivation"
)

func mortalResult(t *testing.T) *cultivation.CalculationResult {
	t.Helper()
	p, err := presets.Lookup("mortal")
	if err != nil || p == nil {
		t.Fatalf("Lookup(mortal) = %v, %v", p, err)
	}
	return calculator.RunLadder(p.Params, p.Resource)
}

func TestStageTable(t *testing.T) {
	res := mortalResult(t)

	ascii := StageTable(res, ASCII)
	for _, want := range []string{"Qi Condensation", "Layer 1", "Layer 12 !", "───"} {
		if !strings.Contains(ascii, want) {
			t.Errorf("ASCII stage table missing %q:\n%s", want, ascii)
		}
	}
	// Headers and footers may be upper-cased by the table style.
	for _, want := range []string{"sub-stage", "total"} {
		if !strings.Contains(strings.ToLower(ascii), want) {
			t.Errorf("ASCII stage table missing %q:\n%s", want, ascii)
		}
	}

	md := StageTable(res, Markdown)
	if !strings.HasPrefix(strings.ToLower(md), "| stage") {
		t.Errorf("Markdown stage table should start with a header row:\n%s", md)
	}
	if strings.Contains(md, "───") {
		t.Errorf("Markdown output contains box drawing:\n%s", md)
	}
}

func TestSummaryAndAlerts(t *testing.T) {
	res := mortalResult(t)

	summary := SummaryTable(res, ASCII)
	for _, want := range []string{"1.03x", "Qi Condensation Layer 11", "Resources sufficient", "no"} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary missing %q:\n%s", want, summary)
		}
	}

	alerts := AlertTable(res.Alerts, Markdown)
	for _, want := range []string{"WARNING", "ERROR", "[resource gap]"} {
		if !strings.Contains(alerts, want) {
			t.Errorf("alert table missing %q:\n%s", want, alerts)
		}
	}
}

func TestWriteResult(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteResult(&buf, mortalResult(t), Markdown); err != nil {
		t.Fatalf("WriteResult: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"## Summary", "## Stages", "## Alerts"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}

	clean := &cultivation.CalculationResult{Alerts: []cultivation.Alert{}}
	buf.Reset()
	if err := WriteResult(&buf, clean, ASCII); err != nil {
		t.Fatalf("WriteResult: %v", err)
	}
	if !strings.Contains(buf.String(), "No consistency problems found.") {
		t.Errorf("empty alert list not reported:\n%s", buf.String())
	}
}

func TestCompareAndPresetTables(t *testing.T) {
	rows := []cultivation.CompareRow{
		{Name: "Alpha", ConversionRate: 1.5, AbsorptionRate: 2, TotalDuration: 250, HighestStageReached: "Core Formation Late", AlertCount: 2, WorstSeverity: cultivation.SeverityCritical},
		{Name: "Broken", Errors: []string{"base_cost must be greater than 0"}},
	}
	out := CompareTable(rows, ASCII)
	for _, want := range []string{"Alpha", "1.50x", "critical", "invalid: base_cost"} {
		if !strings.Contains(out, want) {
			t.Errorf("compare table missing %q:\n%s", want, out)
		}
	}

	all, err := presets.Builtin()
	if err != nil {
		t.Fatalf("Builtin: %v", err)
	}
	out = PresetTable(all, Markdown)
	for _, want := range []string{"mortal", "hard-mode", "heavenly"} {
		if !strings.Contains(out, want) {
			t.Errorf("preset table missing %q:\n%s", want, out)
		}
	}
}
