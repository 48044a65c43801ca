package service

import (
	"context"
	"testing"
	"time"

	"github.com/momcare/mealplan/backend/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGoalCache(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	cache := NewMemoryGoalCache(time.Hour)
	cache.now = func() time.Time { return now }

	got, err := cache.GetGoal(ctx, "goal:u1:abc")
	require.NoError(t, err)
	assert.Nil(t, got)

	goal := types.NutritionalGoal{Trimester: 2, Calories: 2340, Emphasis: []string{"iron"}}
	require.NoError(t, cache.SetGoal(ctx, "goal:u1:abc", goal))

	got, err = cache.GetGoal(ctx, "goal:u1:abc")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, goal, *got)

	// callers cannot change what is stored
	got.Emphasis[0] = "sugar"
	again, err := cache.GetGoal(ctx, "goal:u1:abc")
	require.NoError(t, err)
	assert.Equal(t, []string{"iron"}, again.Emphasis)

	now = now.Add(time.Hour)
	got, err = cache.GetGoal(ctx, "goal:u1:abc")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, cache.SetGoal(ctx, "goal:u2:def", goal))
	assert.Len(t, cache.entries, 1)
}
