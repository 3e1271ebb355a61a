// Package calculator implements the cultivation progression model: the
// coefficient model, the stage ladder, the cost/duration walk, the
// consistency rules, input validation and presentation formatting.
//
// Every function here is pure. Callers must run Validate (and
// ValidateResources) first; the walk assumes bounded, finite inputs.
package calculator

import "github.com/rsned/cultivation-server/pkg/cultivation"

// ConversionRate returns techniqueQuality × spiritualRootCoefficient.
// Larger values make every stage cheaper.
func ConversionRate(p cultivation.CultivationParams) float64 {
	return p.TechniqueQuality * p.ResolvedRootCoefficient()
}

// AbsorptionRate returns the product of the five absorption factors.
// Larger values make every stage faster.
func AbsorptionRate(p cultivation.AbsorptionParams) float64 {
	return p.Comprehension * p.Physique * p.Environment * p.Retreat * p.Epiphany
}

// hoursAbsorbedPerYear is 12 hours of daily cultivation over a 365-day year.
const hoursAbsorbedPerYear = 12 * 365

// StonesPerYear returns how many base stones a character absorbs per year
// at an absorption rate of 1.
func StonesPerYear(p cultivation.CultivationParams) float64 {
	return hoursAbsorbedPerYear / p.BaseAbsorptionHours
}
