package composer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/momcare/mealplan/backend/internal/filter"
	"github.com/momcare/mealplan/backend/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cand(id string, slot types.MealSlot, calories float64, pos int) filter.Candidate {
	return filter.Candidate{
		Item:     types.FoodItem{ID: id, Slot: slot, Nutrients: types.Nutrients{Calories: calories, Protein: 10}},
		Position: pos,
	}
}

var (
	planDate = time.Date(2025, 6, 4, 13, 0, 0, 0, time.UTC)
	stage    = types.PregnancyStage{Day: 100, Week: 15, Trimester: 2}
	goal     = types.NutritionalGoal{Trimester: 2, Calories: 2000, Tolerance: 0.15}
)

func TestComposeWithinBand(t *testing.T) {
	cands := filter.CandidateSet{
		types.Breakfast: {cand("b1", types.Breakfast, 800, 0), cand("b2", types.Breakfast, 500, 1)},
		types.Lunch:     {cand("l1", types.Lunch, 700, 2), cand("l2", types.Lunch, 650, 3)},
		types.Dinner:    {cand("d1", types.Dinner, 600, 4)},
		types.Snack:     {cand("s1", types.Snack, 100, 5), cand("s2", types.Snack, 100, 6), cand("s3", types.Snack, 90, 7)},
	}

	plan := New(nil).Compose("u1", planDate, stage, goal, cands, 4)

	assert.Equal(t, "u1", plan.UserID)
	assert.Equal(t, "2025-06-04", plan.Date)
	assert.Equal(t, uint64(4), plan.CatalogVersion)
	assert.Equal(t, []string{"b2"}, plan.Meals[types.Breakfast])
	assert.Equal(t, []string{"l1"}, plan.Meals[types.Lunch])
	assert.Equal(t, []string{"d1"}, plan.Meals[types.Dinner])
	assert.Equal(t, []string{"s1", "s2"}, plan.Meals[types.Snack])
	assert.Equal(t, float64(2000), plan.Totals.Calories)
	assert.Equal(t, float64(50), plan.Totals.Protein)

	low, high := goal.CalorieBand()
	assert.GreaterOrEqual(t, plan.Totals.Calories, low)
	assert.LessOrEqual(t, plan.Totals.Calories, high)
}

func TestComposeFallsBackToMinimumDeviation(t *testing.T) {
	cands := filter.CandidateSet{
		// target 500: x is 500 off, y and z are both 400 off; y is earlier in the catalog
		types.Breakfast: {cand("x", types.Breakfast, 1000, 0), cand("z", types.Breakfast, 900, 2), cand("y", types.Breakfast, 100, 1)},
	}
	c := New([]SlotConfig{{Slot: types.Breakfast, Picks: 1, Share: 0.25}})

	plan := c.Compose("u1", planDate, stage, goal, cands, 1)
	assert.Equal(t, []string{"y"}, plan.Meals[types.Breakfast])
}

func TestComposeShortSlotAndNoDuplicates(t *testing.T) {
	shared := cand("shared", types.Snack, 150, 0)
	cands := filter.CandidateSet{
		types.Breakfast: {cand("b1", types.Breakfast, 500, 1)},
		types.Snack:     {shared, shared},
	}

	plan := New(nil).Compose("u1", planDate, stage, goal, cands, 1)
	assert.Equal(t, []string{"shared"}, plan.Meals[types.Snack])
	assert.Empty(t, plan.Meals[types.Lunch])

	seen := map[string]bool{}
	for _, id := range plan.ItemIDs() {
		assert.False(t, seen[id], "duplicate %s", id)
		seen[id] = true
	}
}

func TestComposeIsDeterministic(t *testing.T) {
	cands := filter.CandidateSet{
		types.Breakfast: {cand("b1", types.Breakfast, 450, 0), cand("b2", types.Breakfast, 520, 1)},
		types.Lunch:     {cand("l1", types.Lunch, 640, 2), cand("l2", types.Lunch, 710, 3)},
		types.Dinner:    {cand("d1", types.Dinner, 590, 4), cand("d2", types.Dinner, 610, 5)},
		types.Snack:     {cand("s1", types.Snack, 120, 6), cand("s2", types.Snack, 80, 7)},
	}
	c := New(nil)
	first := c.Compose("u1", planDate, stage, goal, cands, 2)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, c.Compose("u1", planDate, stage, goal, cands, 2))
	}
}

func TestSlots(t *testing.T) {
	assert.Equal(t, []types.MealSlot{types.Breakfast, types.Lunch, types.Dinner, types.Snack}, New(nil).Slots())
}

type recorderFunc func(ctx context.Context, rec types.MealSuggestionRecord) error

func (f recorderFunc) Record(ctx context.Context, rec types.MealSuggestionRecord) error {
	return f(ctx, rec)
}

func TestRecord(t *testing.T) {
	plan := &types.DailyMealPlan{
		UserID: "u1",
		Date:   "2025-06-04",
		Meals: map[types.MealSlot][]string{
			types.Breakfast: {"b1"},
			types.Snack:     {"s1", "s2"},
		},
	}

	var got []types.MealSuggestionRecord
	err := Record(context.Background(), recorderFunc(func(ctx context.Context, rec types.MealSuggestionRecord) error {
		got = append(got, rec)
		return nil
	}), plan)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, types.MealSuggestionRecord{UserID: "u1", ItemID: "b1", Date: time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC), Slot: types.Breakfast}, got[0])
	assert.Equal(t, types.Snack, got[2].Slot)

	failing := recorderFunc(func(ctx context.Context, rec types.MealSuggestionRecord) error {
		return errors.New("store down")
	})
	assert.Error(t, Record(context.Background(), failing, plan))
}
