package history

import (
	"context"
	"fmt"
	"time"

	"github.com/momcare/mealplan/backend/internal/types"
)

// Store persists suggestion records. Append must ignore a record that already
// exists for the same user, day, slot and item.
type Store interface {
	Append(ctx context.Context, rec types.MealSuggestionRecord) error
	// ListRange returns the user's records with from <= Date < to
	ListRange(ctx context.Context, userID string, from, to time.Time) ([]types.MealSuggestionRecord, error)
}

// WeekWindow returns the ISO week containing date: Monday 00:00 UTC up to the
// following Monday.
func WeekWindow(date time.Time) (time.Time, time.Time) {
	day := types.Day(date)
	offset := (int(day.Weekday()) + 6) % 7
	start := day.AddDate(0, 0, -offset)
	return start, start.AddDate(0, 0, 7)
}

// Tracker answers "what has this user already been offered this week"
type Tracker struct {
	store Store
}

// NewTracker creates a new Tracker instance
func NewTracker(store Store) *Tracker {
	return &Tracker{store: store}
}

// RecentlySuggested returns the items recorded for userID in the week of date.
// Records dated on date itself are left out so the day's own plan can be
// regenerated with the same result.
func (t *Tracker) RecentlySuggested(ctx context.Context, userID string, date time.Time) (map[string]struct{}, error) {
	day := types.Day(date)
	from, to := WeekWindow(day)

	records, err := t.store.ListRange(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list suggestion history: %w", err)
	}

	seen := make(map[string]struct{}, len(records))
	for _, rec := range records {
		if types.Day(rec.Date).Equal(day) {
			continue
		}
		seen[rec.ItemID] = struct{}{}
	}
	return seen, nil
}

// Record appends one suggestion
func (t *Tracker) Record(ctx context.Context, rec types.MealSuggestionRecord) error {
	if rec.UserID == "" || rec.ItemID == "" {
		return fmt.Errorf("suggestion record needs user and item ids")
	}
	rec.Date = types.Day(rec.Date)
	if err := t.store.Append(ctx, rec); err != nil {
		return fmt.Errorf("failed to record suggestion %s for %s: %w", rec.ItemID, rec.UserID, err)
	}
	return nil
}
