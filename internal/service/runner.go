package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	apperrors "github.com/momcare/mealplan/backend/internal/errors"
	"github.com/momcare/mealplan/backend/internal/types"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds how many users are planned at once
const DefaultConcurrency = 8

// RunSummary counts the outcome of one daily cycle
type RunSummary struct {
	Date      string
	Users     int
	Generated int
	Failed    int
}

// DailyRunner plans every active profile once per UTC day
type DailyRunner struct {
	planner     Planner
	profiles    ProfileStore
	concurrency int
	errors      *apperrors.Handler
	logger      *slog.Logger
	now         func() time.Time
}

// NewDailyRunner creates a new DailyRunner instance
func NewDailyRunner(planner Planner, profiles ProfileStore, concurrency int, logger *slog.Logger) *DailyRunner {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DailyRunner{
		planner:     planner,
		profiles:    profiles,
		concurrency: concurrency,
		errors:      apperrors.NewHandler(logger),
		logger:      logger,
		now:         time.Now,
	}
}

// RunOnce plans date for every active profile. A failing user is logged and
// does not stop the others.
func (r *DailyRunner) RunOnce(ctx context.Context, date time.Time) (RunSummary, error) {
	summary := RunSummary{Date: types.Day(date).Format(types.DateLayout)}

	profiles, err := r.profiles.ListActiveProfiles(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to list active profiles: %w", err)
	}
	summary.Users = len(profiles)

	var generated, failed atomic.Int64
	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for _, profile := range profiles {
		g.Go(func() error {
			if ctx.Err() != nil {
				failed.Add(1)
				return nil
			}
			if _, err := r.planner.GeneratePlan(ctx, PlanRequest{Profile: profile, Date: date}); err != nil {
				failed.Add(1)
				r.errors.Handle(ctx, apperrors.Classify(err).WithContext("user_id", profile.UserID))
				return nil
			}
			generated.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	summary.Generated = int(generated.Load())
	summary.Failed = int(failed.Load())
	r.logger.Info("Daily planning cycle finished",
		"date", summary.Date,
		"users", summary.Users,
		"generated", summary.Generated,
		"failed", summary.Failed,
	)
	return summary, ctx.Err()
}

// Run plans the current day immediately and then again at every UTC midnight
// until ctx is cancelled.
func (r *DailyRunner) Run(ctx context.Context) error {
	for {
		if _, err := r.RunOnce(ctx, r.now()); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			r.logger.Error("Daily planning cycle failed", "error", err)
		}

		next := types.Day(r.now()).AddDate(0, 0, 1)
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}
