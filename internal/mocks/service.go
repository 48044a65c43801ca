package mocks

import (
	"context"

	"github.com/momcare/mealplan/backend/internal/service"
	"github.com/momcare/mealplan/backend/internal/types"
	"github.com/stretchr/testify/mock"
)

// MockProfileStore is a mock implementation of the ProfileStore interface
type MockProfileStore struct {
	mock.Mock
}

func (m *MockProfileStore) GetProfile(ctx context.Context, userID string) (types.UserProfile, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(types.UserProfile), args.Error(1)
}

func (m *MockProfileStore) ListActiveProfiles(ctx context.Context) ([]types.UserProfile, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.UserProfile), args.Error(1)
}

// MockPlanCache is a mock implementation of the PlanCache interface
type MockPlanCache struct {
	mock.Mock
}

func (m *MockPlanCache) GetPlan(ctx context.Context, userID, date string) (*service.CachedPlan, error) {
	args := m.Called(ctx, userID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CachedPlan), args.Error(1)
}

func (m *MockPlanCache) SetPlan(ctx context.Context, entry *service.CachedPlan) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// MockGoalCache is a mock implementation of the GoalCache interface
type MockGoalCache struct {
	mock.Mock
}

func (m *MockGoalCache) GetGoal(ctx context.Context, key string) (*types.NutritionalGoal, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.NutritionalGoal), args.Error(1)
}

func (m *MockGoalCache) SetGoal(ctx context.Context, key string, goal types.NutritionalGoal) error {
	args := m.Called(ctx, key, goal)
	return args.Error(0)
}

// MockGoalEnricher is a mock implementation of the GoalEnricher interface
type MockGoalEnricher struct {
	mock.Mock
}

func (m *MockGoalEnricher) EnrichGoal(ctx context.Context, profile types.UserProfile, stage types.PregnancyStage, base types.NutritionalGoal) (types.NutritionalGoal, error) {
	args := m.Called(ctx, profile, stage, base)
	return args.Get(0).(types.NutritionalGoal), args.Error(1)
}

// MockInsightGenerator is a mock implementation of the InsightGenerator interface
type MockInsightGenerator struct {
	mock.Mock
}

func (m *MockInsightGenerator) GenerateInsight(ctx context.Context, profile types.UserProfile, stage types.PregnancyStage, plan *types.DailyMealPlan) (*types.DailyInsight, error) {
	args := m.Called(ctx, profile, stage, plan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.DailyInsight), args.Error(1)
}

// MockPlanner is a mock implementation of the Planner interface
type MockPlanner struct {
	mock.Mock
}

func (m *MockPlanner) GeneratePlan(ctx context.Context, req service.PlanRequest) (*service.PlanResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PlanResult), args.Error(1)
}
