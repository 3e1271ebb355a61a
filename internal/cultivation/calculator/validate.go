package calculator

import (
	"fmt"
	"math"

	"github.com/rsned/cultivation-server/pkg/cultivation"
)

// Upper limits that keep every ladder cost finite.
const (
	MaxBaseCost   = 1e12
	MaxMultiplier = 1e3
)

type bound struct {
	name     string
	value    float64
	min, max float64
}

// Validate checks every bounded parameter and returns one message per
// violation. An empty result means the parameters are safe to run.
func Validate(p cultivation.Params) []string {
	var errs []string

	if !finite(p.BaseCost) || p.BaseCost <= 0 || p.BaseCost > MaxBaseCost {
		errs = append(errs, fmt.Sprintf("base_cost must be greater than 0 and at most %g", float64(MaxBaseCost)))
	}
	multiplier := func(name string, v float64) {
		if !finite(v) || v < 1 || v > MaxMultiplier {
			errs = append(errs, fmt.Sprintf("%s must be between 1 and %g", name, float64(MaxMultiplier)))
		}
	}
	multiplier("small_stage_multiplier", p.SmallStageMultiplier)
	multiplier("large_stage_multiplier", p.LargeStageMultiplier)
	if p.FirstStageSubCount < 3 || p.FirstStageSubCount > 20 {
		errs = append(errs, "first_stage_sub_count must be between 3 and 20")
	}
	if p.SpiritualRoot != "" && !p.SpiritualRoot.IsValid() {
		errs = append(errs, fmt.Sprintf("spiritual_root %q is not a known root type", p.SpiritualRoot))
	}

	bounds := []bound{
		{"base_absorption_hours", p.BaseAbsorptionHours, 1, 24},
		{"technique_quality", p.TechniqueQuality, 0.1, 10},
		{"spiritual_root_coefficient", p.ResolvedRootCoefficient(), 0.1, 10},
		{"comprehension", p.Comprehension, 0.1, 10},
		{"physique", p.Physique, 0.1, 10},
		{"environment", p.Environment, 0.1, 10},
		{"retreat", p.Retreat, 0.1, 10},
		{"epiphany", p.Epiphany, 1, 100},
	}
	for _, b := range bounds {
		if !finite(b.value) || b.value < b.min || b.value > b.max {
			errs = append(errs, fmt.Sprintf("%s must be between %g and %g", b.name, b.min, b.max))
		}
	}

	if v := p.FoundationTransitionMultiplier; v != nil {
		multiplier("foundation_transition_multiplier", *v)
	}
	if v := p.ResourceGradeStepMultiplier; v != nil {
		multiplier("resource_grade_step_multiplier", *v)
	}

	return errs
}

// ValidateResources checks grades and levels of both resource sources.
func ValidateResources(r cultivation.ResourceConfig) []string {
	var errs []string
	check := func(kind cultivation.SourceType, src cultivation.ResourceSource) {
		if !src.Grade.IsValid() {
			errs = append(errs, fmt.Sprintf("%s grade %q is not a known grade", kind, src.Grade))
		}
		if src.Level < MinResourceLevel || src.Level > MaxResourceLevel {
			errs = append(errs, fmt.Sprintf("%s level must be between %d and %d", kind, MinResourceLevel, MaxResourceLevel))
		}
	}
	check(cultivation.SourceMine, r.Mine)
	check(cultivation.SourcePlant, r.Plant)
	return errs
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
