package calculator

import (
	"math"

	"github.com/rsned/cultivation-server/pkg/cultivation"
)

// baseOutputPerLevel is the annual base-stone yield of one level of an inferior mine.
const baseOutputPerLevel = 100

// Resource level bounds.
const (
	MinResourceLevel = 1
	MaxResourceLevel = 9
)

var sourceTypeMultipliers = map[cultivation.SourceType]float64{
	cultivation.SourceMine:  1.0,
	cultivation.SourcePlant: 0.8,
}

// GradeMultiplier returns step^rank for the grade: inferior 1, medium step,
// superior step², extreme step³. Unknown grades count as inferior.
func GradeMultiplier(g cultivation.Grade, step float64) float64 {
	rank := g.Rank()
	if rank <= 0 {
		return 1
	}
	return math.Pow(step, float64(rank))
}

// ResourceOutput returns the annual output of one source in base stones.
func ResourceOutput(src cultivation.ResourceSource, kind cultivation.SourceType, step float64) float64 {
	typeMult, ok := sourceTypeMultipliers[kind]
	if !ok {
		typeMult = 1
	}
	return baseOutputPerLevel * float64(src.Level) * GradeMultiplier(src.Grade, step) * typeMult
}

// Outputs returns the annual mine and plant outputs for the configuration.
func Outputs(cfg cultivation.ResourceConfig, step float64) (mine, plant float64) {
	mine = ResourceOutput(cfg.Mine, cultivation.SourceMine, step)
	plant = ResourceOutput(cfg.Plant, cultivation.SourcePlant, step)
	return mine, plant
}
