package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/momcare/mealplan/backend/internal/composer"
	apperrors "github.com/momcare/mealplan/backend/internal/errors"
	"github.com/momcare/mealplan/backend/internal/filter"
	"github.com/momcare/mealplan/backend/internal/stage"
	"github.com/momcare/mealplan/backend/internal/types"
)

// DefaultInsightTimeout bounds insight generation
const DefaultInsightTimeout = 5 * time.Second

// PlanRequest asks for the plan of one user and day. Force skips the plan cache.
type PlanRequest struct {
	Profile types.UserProfile
	Date    time.Time
	Force   bool
}

// PlanResult carries the plan and, when available, the generated insight.
// The insight is never part of the plan value.
type PlanResult struct {
	Plan      *types.DailyMealPlan
	Insight   *types.DailyInsight
	FromCache bool
}

// PlannerService runs the planning cycle for single users
type PlannerService struct {
	catalog        CatalogReader
	history        HistoryTracker
	calculator     *stage.Calculator
	goals          *GoalResolver
	filter         *filter.Filter
	composer       *composer.Composer
	cache          PlanCache
	insights       InsightGenerator
	insightTimeout time.Duration
	locks          *userLocks
	errors         *apperrors.Handler
	logger         *slog.Logger
}

// Ensure PlannerService implements Planner
var _ Planner = (*PlannerService)(nil)

// PlannerOption configures optional collaborators
type PlannerOption func(*PlannerService)

// WithPlanCache enables the per-day plan cache
func WithPlanCache(cache PlanCache) PlannerOption {
	return func(s *PlannerService) { s.cache = cache }
}

// WithInsights enables insight generation
func WithInsights(gen InsightGenerator, timeout time.Duration) PlannerOption {
	return func(s *PlannerService) {
		s.insights = gen
		if timeout > 0 {
			s.insightTimeout = timeout
		}
	}
}

// NewPlannerService creates a new PlannerService instance
func NewPlannerService(
	catalogReader CatalogReader,
	history HistoryTracker,
	calculator *stage.Calculator,
	goals *GoalResolver,
	candidateFilter *filter.Filter,
	planComposer *composer.Composer,
	logger *slog.Logger,
	opts ...PlannerOption,
) *PlannerService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &PlannerService{
		catalog:        catalogReader,
		history:        history,
		calculator:     calculator,
		goals:          goals,
		filter:         candidateFilter,
		composer:       planComposer,
		insightTimeout: DefaultInsightTimeout,
		locks:          newUserLocks(),
		errors:         apperrors.NewHandler(logger),
		logger:         logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GeneratePlan runs one planning cycle. Calls for the same user are serialised;
// with unchanged inputs the returned plan is identical.
func (s *PlannerService) GeneratePlan(ctx context.Context, req PlanRequest) (*PlanResult, error) {
	profile := req.Profile
	if profile.UserID == "" {
		return nil, apperrors.Wrap(nil, apperrors.ErrorTypeValidation, "MISSING_USER", "profile has no user id")
	}
	date := types.Day(req.Date)
	dateStr := date.Format(types.DateLayout)

	unlock := s.locks.lock(profile.UserID)
	defer unlock()

	ix, err := s.catalog.Current()
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	fingerprint, err := planFingerprint(profile, ix.Version())
	if err != nil {
		return nil, err
	}

	if s.cache != nil && !req.Force {
		cached, err := s.cache.GetPlan(ctx, profile.UserID, dateStr)
		if err != nil {
			s.logger.Warn("Plan cache read failed", "user_id", profile.UserID, "error", err)
		} else if cached != nil && cached.Fingerprint == fingerprint && cached.Plan != nil {
			s.logger.Debug("Plan served from cache", "user_id", profile.UserID, "date", dateStr)
			return &PlanResult{Plan: cached.Plan, Insight: cached.Insight, FromCache: true}, nil
		}
	}

	st, err := s.calculator.Calculate(date, profile.ConceptionDate, profile.DueDate)
	if err != nil {
		return nil, err
	}
	goal := s.goals.Resolve(ctx, profile, st, date)

	excluded, err := s.history.RecentlySuggested(ctx, profile.UserID, date)
	if err != nil {
		return nil, err
	}

	candidates, err := s.filter.Candidates(profile, goal, ix, excluded, s.composer.Slots())
	if err != nil {
		return nil, err
	}

	plan := s.composer.Compose(profile.UserID, date, st, goal, candidates, ix.Version())
	if err := composer.Record(ctx, s.history, plan); err != nil {
		return nil, fmt.Errorf("failed to record plan history: %w", err)
	}

	result := &PlanResult{Plan: plan, Insight: s.insight(ctx, profile, st, plan)}

	if s.cache != nil {
		entry := &CachedPlan{Fingerprint: fingerprint, Plan: plan, Insight: result.Insight}
		if err := s.cache.SetPlan(ctx, entry); err != nil {
			s.logger.Warn("Plan cache write failed", "user_id", profile.UserID, "error", err)
		}
	}

	s.logger.Info("Plan generated",
		"user_id", profile.UserID,
		"date", dateStr,
		"week", st.Week,
		"trimester", st.Trimester,
		"catalog_version", ix.Version(),
		"calories", plan.Totals.Calories,
		"items", len(plan.ItemIDs()),
	)
	return result, nil
}

func (s *PlannerService) insight(ctx context.Context, profile types.UserProfile, st types.PregnancyStage, plan *types.DailyMealPlan) *types.DailyInsight {
	if s.insights == nil {
		return nil
	}
	insightCtx, cancel := context.WithTimeout(ctx, s.insightTimeout)
	defer cancel()

	insight, err := s.insights.GenerateInsight(insightCtx, profile, st, plan)
	if err != nil {
		s.errors.Handle(ctx, &apperrors.ExternalLookupTimeout{Operation: "daily insight", Err: err})
		return nil
	}
	return insight
}

// planFingerprint identifies the inputs a cached plan was built from
func planFingerprint(profile types.UserProfile, catalogVersion uint64) (string, error) {
	data, err := json.Marshal(profile)
	if err != nil {
		return "", fmt.Errorf("failed to marshal profile: %w", err)
	}
	h := sha256.New()
	h.Write(data)
	fmt.Fprintf(h, "|%d", catalogVersion)
	return hex.EncodeToString(h.Sum(nil)), nil
}
