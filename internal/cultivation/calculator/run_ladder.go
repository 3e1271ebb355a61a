package calculator

import (
	"math"

	"github.com/rsned/cultivation-server/pkg/cultivation"
)

// RunLadder walks the ladder stage by stage and sub-stage by sub-stage,
// accumulating cost and duration and collecting consistency alerts.
//
// The walk halts right after the first sub-stage whose cumulative
// theoretical duration exceeds its stage's lifespan budget; that stage's
// summary is kept with Completed set to false.
func RunLadder(p cultivation.Params, res cultivation.ResourceConfig) *cultivation.CalculationResult {
	conversion := ConversionRate(p.CultivationParams)
	absorption := AbsorptionRate(p.AbsorptionParams)
	stonesPerYear := StonesPerYear(p.CultivationParams)

	mineOutput, plantOutput := Outputs(res, p.GradeStep())
	maxOutput := math.Max(mineOutput, plantOutput)

	result := &cultivation.CalculationResult{
		ConversionRate: conversion,
		AbsorptionRate: absorption,
		Stages:         []cultivation.StageSummary{},
		Steps:          []cultivation.StageStepResult{},
	}
	alerts := newAlertSet()

	var (
		cumCost, cumTheoretical, cumResource float64
		maxCost                              float64
		maxCostStage                         string
	)

	ladder := BuildLadder(p.FirstStageSubCount)

walk:
	for stageIndex, stage := range ladder {
		summary := cultivation.StageSummary{
			StageName:      stage.Name,
			LifespanBudget: stage.LifespanBudget,
			Completed:      true,
			Steps:          make([]cultivation.StageStepResult, 0, len(stage.SubStages)),
		}

		for _, sub := range stage.SubStages {
			cost := SubStageCost(p.CultivationParams, stageIndex, sub.Index, conversion)
			theoretical := cost / (stonesPerYear * absorption)
			constrained := cost / maxOutput

			cumCost += cost
			cumTheoretical += theoretical
			cumResource += constrained

			step := cultivation.StageStepResult{
				StageName:                     stage.Name,
				StageIndex:                    stageIndex,
				SubStageName:                  sub.Name,
				SubStageIndex:                 sub.Index,
				Cost:                          cost,
				CumulativeCost:                cumCost,
				TheoreticalDuration:           theoretical,
				CumulativeTheoreticalDuration: cumTheoretical,
				ResourceDuration:              constrained,
				CumulativeResourceDuration:    cumResource,
				BottleneckRatio:               constrained / theoretical,
				LifespanRemaining:             stage.LifespanBudget - cumTheoretical,
				LifespanExceeded:              cumTheoretical > stage.LifespanBudget,
			}

			summary.Steps = append(summary.Steps, step)
			summary.TotalCost += cost
			summary.TotalTheoreticalDuration += theoretical
			summary.TotalResourceDuration += constrained
			result.Steps = append(result.Steps, step)

			if cost > maxCost {
				maxCost = cost
				maxCostStage = step.FullName()
			}

			alerts.checkStep(stage, step, maxOutput)

			if step.LifespanExceeded {
				summary.Completed = false
				result.Stages = append(result.Stages, summary)
				result.Halted = true
				break walk
			}
			result.HighestStageReached = step.FullName()
		}

		result.Stages = append(result.Stages, summary)
	}

	alerts.alerts = append(alerts.alerts, ExponentialAlerts(p.CultivationParams)...)

	result.Alerts = alerts.alerts
	result.TotalDuration = cumTheoretical
	result.Resources = cultivation.ResourceSummary{
		MineOutput:    mineOutput,
		PlantOutput:   plantOutput,
		MaxSingleCost: maxCost,
		MaxCostStage:  maxCostStage,
		IsSufficient:  maxCost <= maxOutput,
	}

	return result
}
