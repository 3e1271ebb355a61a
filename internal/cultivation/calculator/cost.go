package calculator

import (
	"math"

	"github.com/rsned/cultivation-server/pkg/cultivation"
)

// SubStageCost returns the resource cost of advancing through sub-stage
// subIndex of stage stageIndex (both 0-based).
//
// Within the first stage cost grows by the small multiplier per layer.
// Leaving the first stage multiplies its last raw cost by the foundation
// transition multiplier (or the large multiplier when unset); every later
// stage compounds by one more large multiplier. Within a later stage each
// sub-stage again grows by the small multiplier.
func SubStageCost(p cultivation.CultivationParams, stageIndex, subIndex int, conversionRate float64) float64 {
	small := math.Pow(p.SmallStageMultiplier, float64(subIndex))
	if stageIndex == 0 {
		return p.BaseCost * small / conversionRate
	}

	firstLast := p.BaseCost * math.Pow(p.SmallStageMultiplier, float64(p.FirstStageSubCount-1))
	transition := p.LargeStageMultiplier
	if p.FoundationTransitionMultiplier != nil {
		transition = *p.FoundationTransitionMultiplier
	}
	stageBase := firstLast * transition * math.Pow(p.LargeStageMultiplier, float64(stageIndex-1))

	return stageBase * small / conversionRate
}
