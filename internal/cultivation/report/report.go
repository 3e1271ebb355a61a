// Package report renders calculation results as terminal or Markdown tables.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/rsned/cultivation-server/internal/cultivation/calculator"
	"github.com/rsned/cultivation-server/pkg/cultivation"
)

// Mode controls the output format.
type Mode int

const (
	ASCII    Mode = iota // box-drawn terminal tables
	Markdown             // GitHub-flavoured Markdown tables
)

func newWriter(m Mode) table.Writer {
	w := table.NewWriter()
	if m == ASCII {
		w.SetStyle(table.StyleLight)
	}
	return w
}

func render(w table.Writer, m Mode) string {
	if m == Markdown {
		return w.RenderMarkdown()
	}
	return w.Render()
}

func rightAligned(cols ...int) []table.ColumnConfig {
	cfgs := make([]table.ColumnConfig, 0, len(cols))
	for _, c := range cols {
		cfgs = append(cfgs, table.ColumnConfig{Number: c, Align: text.AlignRight, AlignFooter: text.AlignRight})
	}
	return cfgs
}

// StageTable lists every walked sub-stage. Sub-stages past their lifespan
// budget are marked with "!".
func StageTable(res *cultivation.CalculationResult, m Mode) string {
	w := newWriter(m)
	w.AppendHeader(table.Row{"Stage", "Sub-stage", "Cost", "Total cost", "Years", "Total years", "Resource years", "Ratio", "Lifespan left"})

	for _, s := range res.Steps {
		sub := s.SubStageName
		if s.LifespanExceeded {
			sub += " !"
		}
		w.AppendRow(table.Row{
			s.StageName,
			sub,
			calculator.FormatResourceAmount(s.Cost),
			calculator.FormatResourceAmount(s.CumulativeCost),
			calculator.FormatDuration(s.TheoreticalDuration),
			calculator.FormatDuration(s.CumulativeTheoreticalDuration),
			calculator.FormatDuration(s.CumulativeResourceDuration),
			fmt.Sprintf("%.2f", s.BottleneckRatio),
			lifespanLeft(s.LifespanRemaining),
		})
	}

	var total float64
	if n := len(res.Steps); n > 0 {
		total = res.Steps[n-1].CumulativeCost
	}
	w.AppendFooter(table.Row{"", "Total", "", calculator.FormatResourceAmount(total), "", calculator.FormatDuration(res.TotalDuration)})
	w.SetColumnConfigs(rightAligned(3, 4, 5, 6, 7, 8, 9))

	return render(w, m)
}

func lifespanLeft(years float64) string {
	if years < 0 {
		return "-" + calculator.FormatDuration(-years)
	}
	return calculator.FormatDuration(years)
}

// SummaryTable shows the derived rates, the outcome of the walk and the
// resource sufficiency check.
func SummaryTable(res *cultivation.CalculationResult, m Mode) string {
	highest := res.HighestStageReached
	if highest == "" {
		highest = "(none)"
	}
	sufficient := "yes"
	if !res.Resources.IsSufficient {
		sufficient = "no"
	}

	w := newWriter(m)
	w.AppendHeader(table.Row{"Metric", "Value"})
	w.AppendRows([]table.Row{
		{"Conversion rate", calculator.FormatCoefficient(res.ConversionRate)},
		{"Absorption rate", calculator.FormatCoefficient(res.AbsorptionRate)},
		{"Total duration", calculator.FormatDuration(res.TotalDuration)},
		{"Highest stage reached", highest},
		{"Halted by lifespan", fmt.Sprintf("%t", res.Halted)},
		{"Mine output per year", calculator.FormatResourceAmount(res.Resources.MineOutput)},
		{"Plant output per year", calculator.FormatResourceAmount(res.Resources.PlantOutput)},
		{"Largest breakthrough", fmt.Sprintf("%s (%s)", calculator.FormatResourceAmount(res.Resources.MaxSingleCost), res.Resources.MaxCostStage)},
		{"Resources sufficient", sufficient},
	})
	return render(w, m)
}

// AlertTable lists alerts in the order they were raised.
func AlertTable(alerts []cultivation.Alert, m Mode) string {
	w := newWriter(m)
	w.AppendHeader(table.Row{"Severity", "Rule", "Stage", "Message"})
	for _, a := range alerts {
		w.AppendRow(table.Row{strings.ToUpper(string(a.Severity)), a.Rule, a.StageName, a.Message})
	}
	w.SetColumnConfigs([]table.ColumnConfig{{Number: 4, WidthMax: 80}})
	return render(w, m)
}

// CompareTable shows one row per compared scheme.
func CompareTable(rows []cultivation.CompareRow, m Mode) string {
	w := newWriter(m)
	w.AppendHeader(table.Row{"Scheme", "Conversion", "Absorption", "Duration", "Highest stage", "Alerts", "Worst", "Sufficient"})
	for _, r := range rows {
		if len(r.Errors) > 0 {
			w.AppendRow(table.Row{r.Name, "invalid: " + strings.Join(r.Errors, "; ")})
			continue
		}
		w.AppendRow(table.Row{
			r.Name,
			calculator.FormatCoefficient(r.ConversionRate),
			calculator.FormatCoefficient(r.AbsorptionRate),
			calculator.FormatDuration(r.TotalDuration),
			r.HighestStageReached,
			r.AlertCount,
			r.WorstSeverity,
			r.IsSufficient,
		})
	}
	w.SetColumnConfigs(rightAligned(2, 3, 4, 6))
	return render(w, m)
}

// PresetTable lists presets with their headline numbers.
func PresetTable(presets []cultivation.Preset, m Mode) string {
	w := newWriter(m)
	w.AppendHeader(table.Row{"ID", "Name", "Base cost", "Small", "Large", "Layers", "Technique", "Root", "Description"})
	for _, p := range presets {
		w.AppendRow(table.Row{
			p.ID, p.Name,
			p.Params.BaseCost, p.Params.SmallStageMultiplier, p.Params.LargeStageMultiplier,
			p.Params.FirstStageSubCount, p.Params.TechniqueQuality, p.Params.SpiritualRoot,
			p.Description,
		})
	}
	return render(w, m)
}

type section struct {
	title string
	body  string
}

// WriteResult writes the summary, stage and alert tables to out.
func WriteResult(out io.Writer, res *cultivation.CalculationResult, m Mode) error {
	alerts := "No consistency problems found."
	if len(res.Alerts) > 0 {
		alerts = AlertTable(res.Alerts, m)
	}
	sections := []section{
		{"Summary", SummaryTable(res, m)},
		{"Stages", StageTable(res, m)},
		{"Alerts", alerts},
	}

	for _, s := range sections {
		heading := s.title
		if m == Markdown {
			heading = "## " + s.title
		}
		if _, err := fmt.Fprintf(out, "%s\n\n%s\n\n", heading, s.body); err != nil {
			return fmt.Errorf("writing %s: %w", strings.ToLower(s.title), err)
		}
	}
	return nil
}
