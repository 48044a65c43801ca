package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	apperrors "github.com/momcare/mealplan/backend/internal/errors"
	"github.com/momcare/mealplan/backend/internal/stage"
	"github.com/momcare/mealplan/backend/internal/types"
)

// DefaultEnrichmentTimeout bounds a single enrichment call
const DefaultEnrichmentTimeout = 5 * time.Second

// GoalResolver produces the goal a plan is composed against: the static table,
// optionally refined by an enricher. Whatever goal a user gets for a day is pinned
// in the cache, so a later run for that day sees the same goal whether or not the
// enricher answers.
type GoalResolver struct {
	table    *stage.GoalTable
	enricher GoalEnricher
	cache    GoalCache
	timeout  time.Duration
	errors   *apperrors.Handler
	logger   *slog.Logger
}

// NewGoalResolver creates a new GoalResolver instance. enricher may be nil; with an
// enricher and no cache, goals are kept in process memory.
func NewGoalResolver(table *stage.GoalTable, enricher GoalEnricher, cache GoalCache, timeout time.Duration, logger *slog.Logger) *GoalResolver {
	if timeout <= 0 {
		timeout = DefaultEnrichmentTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	if enricher != nil && cache == nil {
		cache = NewMemoryGoalCache(DefaultGoalTTL)
	}
	return &GoalResolver{
		table:    table,
		enricher: enricher,
		cache:    cache,
		timeout:  timeout,
		errors:   apperrors.NewHandler(logger),
		logger:   logger,
	}
}

// Resolve never fails: enrichment problems fall back to the cached or static goal
func (r *GoalResolver) Resolve(ctx context.Context, profile types.UserProfile, st types.PregnancyStage, date time.Time) types.NutritionalGoal {
	base := r.table.GoalFor(st, profile.PreExistingConditions)
	if r.enricher == nil {
		return base
	}

	key := goalCacheKey(profile, st)
	dayKey := key + ":" + types.Day(date).Format(types.DateLayout)
	if goal, ok := r.cached(ctx, profile.UserID, dayKey); ok {
		return goal
	}

	goal, ok := r.cached(ctx, profile.UserID, key)
	if !ok {
		goal = r.enrich(ctx, profile, st, base, key)
	}
	r.store(ctx, profile.UserID, dayKey, goal)
	return goal
}

func (r *GoalResolver) enrich(ctx context.Context, profile types.UserProfile, st types.PregnancyStage, base types.NutritionalGoal, key string) types.NutritionalGoal {
	enrichCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	enriched, err := r.enricher.EnrichGoal(enrichCtx, profile, st, base)
	if err != nil {
		r.errors.Handle(ctx, &apperrors.ExternalLookupTimeout{Operation: "goal enrichment", Err: err})
		return base
	}
	enriched = constrain(base, enriched)
	r.store(ctx, profile.UserID, key, enriched)
	return enriched
}

func (r *GoalResolver) cached(ctx context.Context, userID, key string) (types.NutritionalGoal, bool) {
	goal, err := r.cache.GetGoal(ctx, key)
	if err != nil {
		r.logger.Warn("Goal cache read failed", "user_id", userID, "error", err)
		return types.NutritionalGoal{}, false
	}
	if goal == nil {
		return types.NutritionalGoal{}, false
	}
	return *goal, true
}

func (r *GoalResolver) store(ctx context.Context, userID, key string, goal types.NutritionalGoal) {
	if err := r.cache.SetGoal(ctx, key, goal); err != nil {
		r.logger.Warn("Goal cache write failed", "user_id", userID, "error", err)
	}
}

// constrain keeps only the emphasis an enricher added; every numeric target and
// limit comes from the static goal.
func constrain(base, enriched types.NutritionalGoal) types.NutritionalGoal {
	out := base
	out.Emphasis = append([]string(nil), base.Emphasis...)
	for _, e := range enriched.Emphasis {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" && !slices.Contains(out.Emphasis, e) {
			out.Emphasis = append(out.Emphasis, e)
		}
	}
	return out
}

// goalCacheKey changes whenever anything the enricher sees changes
func goalCacheKey(profile types.UserProfile, st types.PregnancyStage) string {
	conditions := append([]string(nil), profile.PreExistingConditions...)
	intolerances := append([]string(nil), profile.Intolerances...)
	slices.Sort(conditions)
	slices.Sort(intolerances)

	h := sha256.New()
	fmt.Fprintf(h, "%d|%s|%s|%s", st.Trimester, profile.DietaryPreference,
		strings.Join(conditions, ","), strings.Join(intolerances, ","))
	return fmt.Sprintf("goal:%s:%s", profile.UserID, hex.EncodeToString(h.Sum(nil))[:16])
}
