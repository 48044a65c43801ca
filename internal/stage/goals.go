package stage

import (
	"slices"
	"strings"

	"github.com/momcare/mealplan/backend/internal/types"
)

// DefaultTolerance is the accepted calorie deviation around the daily target
const DefaultTolerance = 0.15

// trimesterGoals is indexed by trimester-1. Values follow the usual pregnancy intake
// guidance: no extra energy in T1, about +340 kcal in T2 and +450 kcal in T3.
var trimesterGoals = [3]types.NutritionalGoal{
	{
		Trimester:     1,
		Calories:      2000,
		Protein:       60,
		Carbs:         175,
		Fat:           67,
		SodiumLimitMg: 2300,
		SugarLimitG:   50,
		Emphasis:      []string{"folate", "vitamin b6", "vitamin b12"},
	},
	{
		Trimester:     2,
		Calories:      2340,
		Protein:       71,
		Carbs:         175,
		Fat:           78,
		SodiumLimitMg: 2300,
		SugarLimitG:   50,
		Emphasis:      []string{"calcium", "vitamin d", "iron"},
	},
	{
		Trimester:     3,
		Calories:      2450,
		Protein:       71,
		Carbs:         175,
		Fat:           82,
		SodiumLimitMg: 2300,
		SugarLimitG:   50,
		Emphasis:      []string{"iron", "omega-3", "choline"},
	},
}

// conditionAdjustment narrows the goal for a pre-existing condition
type conditionAdjustment struct {
	sodiumLimitMg float64
	sugarLimitG   float64
	emphasis      []string
}

var conditionAdjustments = map[string]conditionAdjustment{
	"diabetes":             {sugarLimitG: 25, emphasis: []string{"fiber"}},
	"gestational diabetes": {sugarLimitG: 25, emphasis: []string{"fiber"}},
	"hypertension":         {sodiumLimitMg: 1500, emphasis: []string{"potassium"}},
	"anemia":               {emphasis: []string{"iron", "vitamin c"}},
	"pcos":                 {sugarLimitG: 30, emphasis: []string{"fiber"}},
	"kidney disease":       {sodiumLimitMg: 1500},
	"heart disease":        {sodiumLimitMg: 1500, emphasis: []string{"omega-3"}},
}

// GoalTable resolves the nutritional goal for a stage
type GoalTable struct {
	Tolerance float64
}

// NewGoalTable creates a GoalTable; a non-positive tolerance falls back to the default
func NewGoalTable(tolerance float64) *GoalTable {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &GoalTable{Tolerance: tolerance}
}

// GoalFor returns a fresh copy of the trimester goal adjusted for the given conditions.
// The result only depends on its inputs.
func (t *GoalTable) GoalFor(stage types.PregnancyStage, conditions []string) types.NutritionalGoal {
	idx := stage.Trimester - 1
	if idx < 0 {
		idx = 0
	}
	if idx > 2 {
		idx = 2
	}

	goal := trimesterGoals[idx]
	goal.Tolerance = t.Tolerance
	goal.Emphasis = append([]string(nil), goal.Emphasis...)

	for _, c := range conditions {
		adj, ok := conditionAdjustments[strings.ToLower(strings.TrimSpace(c))]
		if !ok {
			continue
		}
		if adj.sodiumLimitMg > 0 && adj.sodiumLimitMg < goal.SodiumLimitMg {
			goal.SodiumLimitMg = adj.sodiumLimitMg
		}
		if adj.sugarLimitG > 0 && adj.sugarLimitG < goal.SugarLimitG {
			goal.SugarLimitG = adj.sugarLimitG
		}
		for _, e := range adj.emphasis {
			if !slices.Contains(goal.Emphasis, e) {
				goal.Emphasis = append(goal.Emphasis, e)
			}
		}
	}
	return goal
}
