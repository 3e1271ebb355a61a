package calculator

import (
	"fmt"

	"github.com/rsned/cultivation-server/pkg/cultivation"
)

// MaxStageAlerts caps the lifespan, resource and bottleneck alerts of one walk.
const MaxStageAlerts = 50

// Rule thresholds.
const (
	criticalLifespanFactor   = 1.5
	resourceErrorFactor      = 10
	bottleneckRatioThreshold = 2
	smallMultiplierThreshold = 2.5
	largeMultiplierThreshold = 20
)

type alertKey struct {
	rule  cultivation.AlertRule
	stage string
}

// alertSet keeps the first alert per (rule, stage) pair.
type alertSet struct {
	alerts []cultivation.Alert
	seen   map[alertKey]struct{}
}

func newAlertSet() *alertSet {
	return &alertSet{
		alerts: []cultivation.Alert{},
		seen:   make(map[alertKey]struct{}),
	}
}

func (s *alertSet) full() bool {
	return len(s.alerts) >= MaxStageAlerts
}

func (s *alertSet) add(a cultivation.Alert) {
	key := alertKey{a.Rule, a.StageName}
	if _, dup := s.seen[key]; dup {
		return
	}
	s.seen[key] = struct{}{}
	s.alerts = append(s.alerts, a)
}

// checkStep runs the per-sub-stage rules against the running state.
func (s *alertSet) checkStep(stage cultivation.Stage, step cultivation.StageStepResult, maxOutput float64) {
	lifespanExceeded := step.CumulativeTheoreticalDuration > stage.LifespanBudget

	if lifespanExceeded && !s.full() {
		sev := cultivation.SeverityError
		if step.CumulativeTheoreticalDuration > stage.LifespanBudget*criticalLifespanFactor {
			sev = cultivation.SeverityCritical
		}
		s.add(cultivation.Alert{
			Rule:      cultivation.RuleLifespan,
			StageName: stage.Name,
			Message: fmt.Sprintf("[theoretical breakdown] %s: theory needs %s but only %g years of lifespan",
				stage.Name, FormatDuration(step.CumulativeTheoreticalDuration), stage.LifespanBudget),
			Severity:             sev,
			Actual:               step.CumulativeTheoreticalDuration,
			Threshold:            stage.LifespanBudget,
			TheoreticalBreakdown: true,
		})
	}

	if step.Cost > maxOutput && !s.full() {
		sev := cultivation.SeverityWarning
		if step.Cost > maxOutput*resourceErrorFactor {
			sev = cultivation.SeverityError
		}
		s.add(cultivation.Alert{
			Rule:      cultivation.RuleResource,
			StageName: stage.Name,
			Message: fmt.Sprintf("[resource gap] %s: one breakthrough needs %s but the best source yields %s per year",
				step.FullName(), FormatResourceAmount(step.Cost), FormatResourceAmount(maxOutput)),
			Severity:  sev,
			Actual:    step.Cost,
			Threshold: maxOutput,
		})
	}

	if lifespanExceeded && step.BottleneckRatio > bottleneckRatioThreshold && !s.full() {
		s.add(cultivation.Alert{
			Rule:      cultivation.RuleBottleneck,
			StageName: stage.Name,
			Message: fmt.Sprintf("[compounding] %s: lifespan is already short and resource-limited time is %.1f times the theoretical time",
				stage.Name, step.BottleneckRatio),
			Severity:             cultivation.SeverityError,
			Actual:               step.BottleneckRatio,
			Threshold:            bottleneckRatioThreshold,
			TheoreticalBreakdown: true,
		})
	}
}

// ExponentialAlerts returns one global curve-shape warning per multiplier
// above its threshold, small stage first.
func ExponentialAlerts(p cultivation.CultivationParams) []cultivation.Alert {
	var out []cultivation.Alert
	add := func(label string, actual, threshold float64) {
		out = append(out, cultivation.Alert{
			Rule:      cultivation.RuleExponential,
			StageName: cultivation.GlobalStageName,
			Message:   fmt.Sprintf("[exponential growth] %s (%g) too high, late stages may run away", label, actual),
			Severity:  cultivation.SeverityWarning,
			Actual:    actual,
			Threshold: threshold,
		})
	}
	if p.SmallStageMultiplier > smallMultiplierThreshold {
		add("small stage multiplier", p.SmallStageMultiplier, smallMultiplierThreshold)
	}
	if p.LargeStageMultiplier > largeMultiplierThreshold {
		add("large stage multiplier", p.LargeStageMultiplier, largeMultiplierThreshold)
	}
	return out
}
