package composer

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/momcare/mealplan/backend/internal/filter"
	"github.com/momcare/mealplan/backend/internal/types"
)

// SlotConfig sets how many items a slot receives and its share of daily calories
type SlotConfig struct {
	Slot  types.MealSlot `yaml:"slot"`
	Picks int            `yaml:"picks"`
	Share float64        `yaml:"share"`
}

// DefaultSlots is the standard day: three meals and two snacks
var DefaultSlots = []SlotConfig{
	{Slot: types.Breakfast, Picks: 1, Share: 0.25},
	{Slot: types.Lunch, Picks: 1, Share: 0.35},
	{Slot: types.Dinner, Picks: 1, Share: 0.30},
	{Slot: types.Snack, Picks: 2, Share: 0.10},
}

// Composer assembles a daily plan from ranked candidates
type Composer struct {
	slots []SlotConfig
}

// New creates a Composer; an empty configuration uses DefaultSlots
func New(slots []SlotConfig) *Composer {
	if len(slots) == 0 {
		slots = DefaultSlots
	}
	return &Composer{slots: append([]SlotConfig(nil), slots...)}
}

// Slots returns the slots in composition order
func (c *Composer) Slots() []types.MealSlot {
	out := make([]types.MealSlot, 0, len(c.slots))
	for _, s := range c.slots {
		out = append(out, s.Slot)
	}
	return out
}

// Compose walks the slots in order and, for each pick, takes the first ranked
// candidate that keeps the running calorie total inside the tolerance band around
// the cumulative target. When none fits it takes the closest one. It never fails;
// a slot with fewer candidates than picks gets what exists.
func (c *Composer) Compose(userID string, date time.Time, stage types.PregnancyStage, goal types.NutritionalGoal, candidates filter.CandidateSet, catalogVersion uint64) *types.DailyMealPlan {
	plan := &types.DailyMealPlan{
		UserID:         userID,
		Date:           types.Day(date).Format(types.DateLayout),
		Stage:          stage,
		Goal:           goal,
		Meals:          make(map[types.MealSlot][]string, len(c.slots)),
		CatalogVersion: catalogVersion,
	}

	used := make(map[string]struct{})
	var cumShare float64
	for _, sc := range c.slots {
		picks := make([]string, 0, sc.Picks)
		for i := 0; i < sc.Picks; i++ {
			cumShare += sc.Share / float64(sc.Picks)
			target := goal.Calories * cumShare

			pick, ok := choose(candidates[sc.Slot], used, plan.Totals.Calories, target, goal.Tolerance)
			if !ok {
				break
			}
			used[pick.Item.ID] = struct{}{}
			picks = append(picks, pick.Item.ID)
			plan.Totals = plan.Totals.Add(pick.Item.Nutrients)
		}
		plan.Meals[sc.Slot] = picks
	}
	return plan
}

func choose(cands []filter.Candidate, used map[string]struct{}, total, target, tolerance float64) (filter.Candidate, bool) {
	low, high := target*(1-tolerance), target*(1+tolerance)

	var (
		best      filter.Candidate
		bestDev   = math.Inf(1)
		available bool
	)
	for _, cand := range cands {
		if _, taken := used[cand.Item.ID]; taken {
			continue
		}
		running := total + cand.Item.Nutrients.Calories
		if running >= low && running <= high {
			return cand, true
		}
		dev := math.Abs(running - target)
		if !available || dev < bestDev || (dev == bestDev && cand.Position < best.Position) {
			best, bestDev, available = cand, dev, true
		}
	}
	return best, available
}

// Recorder stores suggestion records
type Recorder interface {
	Record(ctx context.Context, rec types.MealSuggestionRecord) error
}

// Record writes every item of the plan back to the suggestion history
func Record(ctx context.Context, r Recorder, plan *types.DailyMealPlan) error {
	date, err := time.Parse(types.DateLayout, plan.Date)
	if err != nil {
		return fmt.Errorf("invalid plan date %q: %w", plan.Date, err)
	}
	for _, slot := range types.MealSlots {
		for _, id := range plan.Meals[slot] {
			rec := types.MealSuggestionRecord{UserID: plan.UserID, ItemID: id, Date: date, Slot: slot}
			if err := r.Record(ctx, rec); err != nil {
				return err
			}
		}
	}
	return nil
}
