package service_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/momcare/mealplan/backend/internal/catalog"
	"github.com/momcare/mealplan/backend/internal/composer"
	apperrors "github.com/momcare/mealplan/backend/internal/errors"
	"github.com/momcare/mealplan/backend/internal/filter"
	"github.com/momcare/mealplan/backend/internal/history"
	"github.com/momcare/mealplan/backend/internal/mocks"
	"github.com/momcare/mealplan/backend/internal/service"
	"github.com/momcare/mealplan/backend/internal/stage"
	"github.com/momcare/mealplan/backend/internal/testhelpers"
	"github.com/momcare/mealplan/backend/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var monday = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

type harness struct {
	planner *service.PlannerService
	history *history.MemoryStore
	store   *catalog.Store
	logs    *bytes.Buffer
}

func newHarness(t *testing.T, enricher service.GoalEnricher, opts ...service.PlannerOption) *harness {
	t.Helper()

	ix, err := catalog.NewIndex(1, testhelpers.CatalogItems(10))
	require.NoError(t, err)
	store := catalog.NewStore(ix)

	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewJSONHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	mem := history.NewMemoryStore()
	goals := service.NewGoalResolver(stage.NewGoalTable(0), enricher, nil, 20*time.Millisecond, logger)
	planner := service.NewPlannerService(
		store,
		history.NewTracker(mem),
		stage.NewCalculator(stage.DefaultGraceDays),
		goals,
		filter.New(),
		composer.New(nil),
		logger,
		opts...,
	)
	return &harness{planner: planner, history: mem, store: store, logs: logs}
}

func planJSON(t *testing.T, plan *types.DailyMealPlan) []byte {
	t.Helper()
	data, err := json.Marshal(plan)
	require.NoError(t, err)
	return data
}

func TestGeneratePlanIsDeterministic(t *testing.T) {
	profile := testhelpers.SecondTrimesterProfile("u1", monday)
	profile.Mood = types.MoodSad
	profile.AvailableFoodItems = []string{"lunch dish 4"}
	req := service.PlanRequest{Profile: profile, Date: monday.Add(9 * time.Hour)}

	first, err := newHarness(t, nil).planner.GeneratePlan(context.Background(), req)
	require.NoError(t, err)
	second, err := newHarness(t, nil).planner.GeneratePlan(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, planJSON(t, first.Plan), planJSON(t, second.Plan))
	assert.Equal(t, "2025-06-02", first.Plan.Date)
	assert.Equal(t, 2, first.Plan.Stage.Trimester)
	assert.Equal(t, []string{"lunch-04"}, first.Plan.Meals[types.Lunch])
}

func TestGeneratePlanRegenerationIsIdempotent(t *testing.T) {
	h := newHarness(t, nil)
	req := service.PlanRequest{Profile: testhelpers.SecondTrimesterProfile("u1", monday), Date: monday}

	first, err := h.planner.GeneratePlan(context.Background(), req)
	require.NoError(t, err)

	req.Force = true
	again, err := h.planner.GeneratePlan(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, planJSON(t, first.Plan), planJSON(t, again.Plan))

	recs, err := h.history.ListRange(context.Background(), "u1", monday, monday.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Len(t, recs, len(first.Plan.ItemIDs()))
}

func TestGeneratePlanNoRepeatsWithinWeek(t *testing.T) {
	h := newHarness(t, nil)
	profile := testhelpers.SecondTrimesterProfile("u1", monday)
	profile.Intolerances = []string{"seafood"}

	seen := map[string]string{}
	for d := 0; d < 7; d++ {
		date := monday.AddDate(0, 0, d)
		res, err := h.planner.GeneratePlan(context.Background(), service.PlanRequest{Profile: profile, Date: date})
		require.NoError(t, err, "day %d", d)

		for _, slot := range types.MealSlots {
			assert.NotEmpty(t, res.Plan.Meals[slot], "day %d slot %s", d, slot)
		}
		for _, id := range res.Plan.ItemIDs() {
			prev, dup := seen[id]
			assert.False(t, dup, "%s suggested on %s and %s", id, prev, res.Plan.Date)
			seen[id] = res.Plan.Date

			ix, _ := h.store.Current()
			item, ok := ix.Get(id)
			require.True(t, ok)
			assert.NotContains(t, item.AllergenTags, "fish")
			assert.NotContains(t, item.AllergenTags, "seafood")
		}

		low, high := res.Plan.Goal.CalorieBand()
		assert.GreaterOrEqual(t, res.Plan.Totals.Calories, low)
		assert.LessOrEqual(t, res.Plan.Totals.Calories, high)
	}

	// a new week may reuse items
	res, err := h.planner.GeneratePlan(context.Background(), service.PlanRequest{Profile: profile, Date: monday.AddDate(0, 0, 7)})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Plan.ItemIDs())
}

func TestGeneratePlanNoEligibleItems(t *testing.T) {
	h := newHarness(t, nil)
	profile := testhelpers.SecondTrimesterProfile("u1", monday)
	profile.DietaryPreference = types.Vegan

	for d := 0; d < 3; d++ {
		_, err := h.planner.GeneratePlan(context.Background(), service.PlanRequest{Profile: profile, Date: monday.AddDate(0, 0, d)})
		require.NoError(t, err, "day %d", d)
	}

	_, err := h.planner.GeneratePlan(context.Background(), service.PlanRequest{Profile: profile, Date: monday.AddDate(0, 0, 3)})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNoEligibleItems)

	var noItems *apperrors.NoEligibleItemsError
	require.ErrorAs(t, err, &noItems)
	assert.Equal(t, types.Breakfast, noItems.Slot)
}

func TestGeneratePlanInvalidDate(t *testing.T) {
	h := newHarness(t, nil)

	_, err := h.planner.GeneratePlan(context.Background(), service.PlanRequest{
		Profile: types.UserProfile{UserID: "u1"},
		Date:    monday,
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidDate)

	profile := testhelpers.SecondTrimesterProfile("u1", monday)
	_, err = h.planner.GeneratePlan(context.Background(), service.PlanRequest{Profile: profile, Date: monday.AddDate(1, 0, 0)})
	assert.ErrorIs(t, err, apperrors.ErrInvalidDate)

	_, err = h.planner.GeneratePlan(context.Background(), service.PlanRequest{Date: monday})
	assert.Error(t, err)
}

func TestGeneratePlanEnrichmentTimeoutFallsBack(t *testing.T) {
	enricher := &mocks.MockGoalEnricher{}
	enricher.On("EnrichGoal", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(types.NutritionalGoal{}, context.DeadlineExceeded)

	h := newHarness(t, enricher)
	profile := testhelpers.SecondTrimesterProfile("u1", monday)

	res, err := h.planner.GeneratePlan(context.Background(), service.PlanRequest{Profile: profile, Date: monday})
	require.NoError(t, err)

	static := stage.NewGoalTable(0).GoalFor(res.Plan.Stage, nil)
	assert.Equal(t, static, res.Plan.Goal)
	assert.Contains(t, h.logs.String(), "goal enrichment")
	assert.Contains(t, h.logs.String(), "TIMEOUT")
	enricher.AssertExpectations(t)
}

func TestGeneratePlanStableWhenEnrichmentRecovers(t *testing.T) {
	base := stage.NewGoalTable(0).GoalFor(types.PregnancyStage{Trimester: 2}, nil)
	recovered := base
	recovered.Emphasis = append(append([]string(nil), base.Emphasis...), "folate", "omega-3", "choline")

	enricher := &mocks.MockGoalEnricher{}
	enricher.On("EnrichGoal", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(types.NutritionalGoal{}, errors.New("service unavailable")).Once()
	enricher.On("EnrichGoal", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(recovered, nil)

	h := newHarness(t, enricher)
	req := service.PlanRequest{Profile: testhelpers.SecondTrimesterProfile("u1", monday), Date: monday}

	first, err := h.planner.GeneratePlan(context.Background(), req)
	require.NoError(t, err)
	req.Force = true
	second, err := h.planner.GeneratePlan(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, planJSON(t, first.Plan), planJSON(t, second.Plan))
	assert.Equal(t, base.Emphasis, second.Plan.Goal.Emphasis)
	enricher.AssertNumberOfCalls(t, "EnrichGoal", 1)
}

func TestGeneratePlanInsight(t *testing.T) {
	insights := &mocks.MockInsightGenerator{}
	insights.On("GenerateInsight", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&types.DailyInsight{TodaysFocus: "Iron", DailyTip: "Pair spinach with citrus"}, nil).Once()
	insights.On("GenerateInsight", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, context.DeadlineExceeded)

	h := newHarness(t, nil, service.WithInsights(insights, 10*time.Millisecond))
	profile := testhelpers.SecondTrimesterProfile("u1", monday)

	res, err := h.planner.GeneratePlan(context.Background(), service.PlanRequest{Profile: profile, Date: monday})
	require.NoError(t, err)
	require.NotNil(t, res.Insight)
	assert.Equal(t, "Iron", res.Insight.TodaysFocus)

	// insight failures never fail the plan
	res, err = h.planner.GeneratePlan(context.Background(), service.PlanRequest{Profile: profile, Date: monday.AddDate(0, 0, 1)})
	require.NoError(t, err)
	assert.Nil(t, res.Insight)
	assert.NotEmpty(t, res.Plan.ItemIDs())
}

type memoryPlanCache struct {
	mu      sync.Mutex
	entries map[string]*service.CachedPlan
	gets    int
}

func (c *memoryPlanCache) GetPlan(ctx context.Context, userID, date string) (*service.CachedPlan, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	return c.entries[userID+"|"+date], nil
}

func (c *memoryPlanCache) SetPlan(ctx context.Context, entry *service.CachedPlan) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[entry.Plan.UserID+"|"+entry.Plan.Date] = entry
	return nil
}

func TestGeneratePlanCache(t *testing.T) {
	cache := &memoryPlanCache{entries: map[string]*service.CachedPlan{}}
	h := newHarness(t, nil, service.WithPlanCache(cache))
	profile := testhelpers.SecondTrimesterProfile("u1", monday)
	req := service.PlanRequest{Profile: profile, Date: monday}

	first, err := h.planner.GeneratePlan(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, first.FromCache)

	cached, err := h.planner.GeneratePlan(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, cached.FromCache)
	assert.Equal(t, first.Plan, cached.Plan)

	t.Run("profile change invalidates", func(t *testing.T) {
		changed := req
		changed.Profile.Mood = types.MoodTired
		res, err := h.planner.GeneratePlan(context.Background(), changed)
		require.NoError(t, err)
		assert.False(t, res.FromCache)
	})

	t.Run("force bypasses the cache", func(t *testing.T) {
		gets := cache.gets
		forced := req
		forced.Force = true
		res, err := h.planner.GeneratePlan(context.Background(), forced)
		require.NoError(t, err)
		assert.False(t, res.FromCache)
		assert.Equal(t, gets, cache.gets)
	})

	t.Run("catalog swap invalidates", func(t *testing.T) {
		ix, err := catalog.NewIndex(2, testhelpers.CatalogItems(10))
		require.NoError(t, err)
		require.NoError(t, h.store.Swap(ix))

		res, err := h.planner.GeneratePlan(context.Background(), req)
		require.NoError(t, err)
		assert.False(t, res.FromCache)
		assert.Equal(t, uint64(2), res.Plan.CatalogVersion)
	})
}

func TestGeneratePlanConcurrentSameUser(t *testing.T) {
	h := newHarness(t, nil)
	profile := testhelpers.SecondTrimesterProfile("u1", monday)

	var wg sync.WaitGroup
	results := make([]*service.PlanResult, 8)
	errs := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = h.planner.GeneratePlan(context.Background(), service.PlanRequest{Profile: profile, Date: monday})
		}(i)
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0].Plan, results[i].Plan)
	}
}

func TestGeneratePlanWithoutCatalog(t *testing.T) {
	planner := service.NewPlannerService(
		catalog.NewStore(nil),
		history.NewTracker(history.NewMemoryStore()),
		stage.NewCalculator(0),
		service.NewGoalResolver(stage.NewGoalTable(0), nil, nil, 0, nil),
		filter.New(),
		composer.New(nil),
		nil,
	)
	_, err := planner.GeneratePlan(context.Background(), service.PlanRequest{Profile: testhelpers.SecondTrimesterProfile("u1", monday), Date: monday})
	assert.ErrorIs(t, err, catalog.ErrNotLoaded)
}
