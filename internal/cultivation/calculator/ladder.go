package calculator

import (
	"fmt"

	"github.com/rsned/cultivation-server/pkg/cultivation"
)

// FirstStageName is the stage whose sub-stage count is configurable.
const FirstStageName = "Qi Condensation"

const firstStageLifespan = 100

type stageDef struct {
	name     string
	lifespan float64
}

// laterStages follow the first stage in fixed order.
var laterStages = []stageDef{
	{"Foundation Establishment", 200},
	{"Core Formation", 500},
	{"Nascent Soul", 1000},
	{"Deity Transformation", 2000},
	{"Void Refinement", 4000},
	{"Body Integration", 8000},
	{"Mahayana", 20000},
	{"Tribulation Transcendence", 30000},
}

var laterSubStageNames = [...]string{"Early", "Mid", "Late", "Peak"}

// BuildLadder returns the full ordered ladder with firstStageSubCount layers
// in the first stage. The count is assumed to be validated.
func BuildLadder(firstStageSubCount int) []cultivation.Stage {
	ladder := make([]cultivation.Stage, 0, len(laterStages)+1)

	first := cultivation.Stage{
		Name:           FirstStageName,
		LifespanBudget: firstStageLifespan,
		SubStages:      make([]cultivation.SubStage, 0, firstStageSubCount),
	}
	for i := 0; i < firstStageSubCount; i++ {
		first.SubStages = append(first.SubStages, cultivation.SubStage{
			Name:  fmt.Sprintf("Layer %d", i+1),
			Index: i,
		})
	}
	ladder = append(ladder, first)

	for _, def := range laterStages {
		stage := cultivation.Stage{
			Name:           def.name,
			LifespanBudget: def.lifespan,
			SubStages:      make([]cultivation.SubStage, 0, len(laterSubStageNames)),
		}
		for i, name := range laterSubStageNames {
			stage.SubStages = append(stage.SubStages, cultivation.SubStage{Name: name, Index: i})
		}
		ladder = append(ladder, stage)
	}

	return ladder
}
