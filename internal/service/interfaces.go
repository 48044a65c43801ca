package service

import (
	"context"
	"time"

	"github.com/momcare/mealplan/backend/internal/catalog"
	"github.com/momcare/mealplan/backend/internal/types"
)

// ProfileStore loads planning profiles
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (types.UserProfile, error)
	ListActiveProfiles(ctx context.Context) ([]types.UserProfile, error)
}

// CatalogReader hands out the current catalog snapshot
type CatalogReader interface {
	Current() (*catalog.Index, error)
}

// HistoryTracker is the suggestion history seen by the planner
type HistoryTracker interface {
	RecentlySuggested(ctx context.Context, userID string, date time.Time) (map[string]struct{}, error)
	Record(ctx context.Context, rec types.MealSuggestionRecord) error
}

// CachedPlan is what the plan cache stores for a user and day
type CachedPlan struct {
	Fingerprint string               `json:"fingerprint"`
	Plan        *types.DailyMealPlan `json:"plan"`
	Insight     *types.DailyInsight  `json:"insight,omitempty"`
}

// PlanCache keeps the latest plan per user and day. GetPlan returns nil, nil on a miss.
type PlanCache interface {
	GetPlan(ctx context.Context, userID, date string) (*CachedPlan, error)
	SetPlan(ctx context.Context, entry *CachedPlan) error
}

// GoalCache keeps enriched goals. GetGoal returns nil, nil on a miss.
type GoalCache interface {
	GetGoal(ctx context.Context, key string) (*types.NutritionalGoal, error)
	SetGoal(ctx context.Context, key string, goal types.NutritionalGoal) error
}

// GoalEnricher refines the static goal for a profile. It may only add emphasis;
// calorie targets and limits stay as given.
type GoalEnricher interface {
	EnrichGoal(ctx context.Context, profile types.UserProfile, stage types.PregnancyStage, base types.NutritionalGoal) (types.NutritionalGoal, error)
}

// InsightGenerator writes the daily focus and tip shown next to a plan
type InsightGenerator interface {
	GenerateInsight(ctx context.Context, profile types.UserProfile, stage types.PregnancyStage, plan *types.DailyMealPlan) (*types.DailyInsight, error)
}

// Planner produces daily plans
type Planner interface {
	GeneratePlan(ctx context.Context, req PlanRequest) (*PlanResult, error)
}
