package service_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/momcare/mealplan/backend/internal/history"
	"github.com/momcare/mealplan/backend/internal/mocks"
	"github.com/momcare/mealplan/backend/internal/service"
	"github.com/momcare/mealplan/backend/internal/testhelpers"
	"github.com/momcare/mealplan/backend/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func forUser(userID string) interface{} {
	return mock.MatchedBy(func(req service.PlanRequest) bool { return req.Profile.UserID == userID })
}

func TestDailyRunnerRunOnce(t *testing.T) {
	profiles := &mocks.MockProfileStore{}
	profiles.On("ListActiveProfiles", mock.Anything).Return([]types.UserProfile{
		testhelpers.SecondTrimesterProfile("u1", monday),
		testhelpers.SecondTrimesterProfile("bad", monday),
		testhelpers.SecondTrimesterProfile("u2", monday),
	}, nil)

	planner := &mocks.MockPlanner{}
	planner.On("GeneratePlan", mock.Anything, forUser("u1")).Return(&service.PlanResult{Plan: &types.DailyMealPlan{}}, nil)
	planner.On("GeneratePlan", mock.Anything, forUser("u2")).Return(&service.PlanResult{Plan: &types.DailyMealPlan{}}, nil)
	planner.On("GeneratePlan", mock.Anything, forUser("bad")).Return(nil, errors.New("boom"))

	runner := service.NewDailyRunner(planner, profiles, 2, nil)
	summary, err := runner.RunOnce(context.Background(), monday.Add(5*time.Hour))
	require.NoError(t, err)

	assert.Equal(t, service.RunSummary{Date: "2025-06-02", Users: 3, Generated: 2, Failed: 1}, summary)
	planner.AssertNumberOfCalls(t, "GeneratePlan", 3)
}

func TestDailyRunnerListFailure(t *testing.T) {
	profiles := &mocks.MockProfileStore{}
	profiles.On("ListActiveProfiles", mock.Anything).Return(nil, errors.New("db down"))

	planner := &mocks.MockPlanner{}
	runner := service.NewDailyRunner(planner, profiles, 0, nil)

	_, err := runner.RunOnce(context.Background(), monday)
	assert.Error(t, err)
	planner.AssertNotCalled(t, "GeneratePlan", mock.Anything, mock.Anything)
}

func TestDailyRunnerRunStopsOnCancel(t *testing.T) {
	profiles := &mocks.MockProfileStore{}
	profiles.On("ListActiveProfiles", mock.Anything).Return([]types.UserProfile{
		testhelpers.SecondTrimesterProfile("u1", monday),
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	planner := &mocks.MockPlanner{}
	planner.On("GeneratePlan", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return(&service.PlanResult{Plan: &types.DailyMealPlan{}}, nil)

	done := make(chan error, 1)
	go func() { done <- service.NewDailyRunner(planner, profiles, 1, nil).Run(ctx) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("runner did not stop after cancel")
	}
}

type countingProfiles struct {
	profiles []types.UserProfile
	calls    atomic.Int32
}

func (c *countingProfiles) GetProfile(ctx context.Context, userID string) (types.UserProfile, error) {
	for _, p := range c.profiles {
		if p.UserID == userID {
			return p, nil
		}
	}
	return types.UserProfile{}, service.ErrProfileNotFound
}

func (c *countingProfiles) ListActiveProfiles(ctx context.Context) ([]types.UserProfile, error) {
	c.calls.Add(1)
	return c.profiles, nil
}

func TestDailyRunnerWithPlanner(t *testing.T) {
	h := newHarness(t, nil)

	vegan := testhelpers.SecondTrimesterProfile("vegan", monday)
	vegan.DietaryPreference = types.Vegan
	noDates := types.UserProfile{UserID: "no-dates"}

	profiles := &countingProfiles{profiles: []types.UserProfile{
		testhelpers.SecondTrimesterProfile("u1", monday),
		vegan,
		noDates,
	}}
	runner := service.NewDailyRunner(h.planner, profiles, 4, nil)

	summary, err := runner.RunOnce(context.Background(), monday)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Users)
	assert.Equal(t, 2, summary.Generated)
	assert.Equal(t, 1, summary.Failed)

	from, to := history.WeekWindow(monday)
	recs, err := h.history.ListRange(context.Background(), "vegan", from, to)
	require.NoError(t, err)
	assert.Len(t, recs, 5)
}
