package history

import (
	"context"
	"testing"
	"time"

	"github.com/momcare/mealplan/backend/internal/testhelpers"
	"github.com/momcare/mealplan/backend/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWeekWindow(t *testing.T) {
	// 2025-06-04 is a Wednesday
	from, to := WeekWindow(time.Date(2025, 6, 4, 15, 30, 0, 0, time.UTC))
	assert.Equal(t, day(2025, 6, 2), from)
	assert.Equal(t, day(2025, 6, 9), to)

	from, _ = WeekWindow(day(2025, 6, 2))
	assert.Equal(t, day(2025, 6, 2), from)

	from, to = WeekWindow(day(2025, 6, 8))
	assert.Equal(t, day(2025, 6, 2), from)
	assert.Equal(t, day(2025, 6, 9), to)
}

func stores(t *testing.T) map[string]Store {
	return map[string]Store{
		"memory": NewMemoryStore(),
		"gorm":   NewGormStore(testhelpers.SetupSQLite(t)),
	}
}

func TestTrackerRecentlySuggested(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			tracker := NewTracker(store)

			records := []types.MealSuggestionRecord{
				{UserID: "u1", ItemID: "last-week", Date: day(2025, 6, 1), Slot: types.Dinner},
				{UserID: "u1", ItemID: "monday", Date: day(2025, 6, 2), Slot: types.Lunch},
				{UserID: "u1", ItemID: "tuesday", Date: day(2025, 6, 3), Slot: types.Breakfast},
				{UserID: "u1", ItemID: "wednesday", Date: time.Date(2025, 6, 4, 9, 0, 0, 0, time.UTC), Slot: types.Snack},
				{UserID: "u2", ItemID: "other-user", Date: day(2025, 6, 3), Slot: types.Lunch},
			}
			for _, rec := range records {
				require.NoError(t, tracker.Record(ctx, rec))
			}

			seen, err := tracker.RecentlySuggested(ctx, "u1", day(2025, 6, 4))
			require.NoError(t, err)
			assert.Equal(t, map[string]struct{}{"monday": {}, "tuesday": {}}, seen)

			seen, err = tracker.RecentlySuggested(ctx, "u1", day(2025, 6, 5))
			require.NoError(t, err)
			assert.Contains(t, seen, "wednesday")
			assert.NotContains(t, seen, "last-week")
			assert.NotContains(t, seen, "other-user")

			// the next Monday starts a fresh window
			seen, err = tracker.RecentlySuggested(ctx, "u1", day(2025, 6, 9))
			require.NoError(t, err)
			assert.Empty(t, seen)
		})
	}
}

func TestTrackerRecordIsIdempotent(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			tracker := NewTracker(store)
			rec := types.MealSuggestionRecord{UserID: "u1", ItemID: "oats", Date: day(2025, 6, 3), Slot: types.Breakfast}

			require.NoError(t, tracker.Record(ctx, rec))
			require.NoError(t, tracker.Record(ctx, rec))

			got, err := store.ListRange(ctx, "u1", day(2025, 6, 2), day(2025, 6, 9))
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, "oats", got[0].ItemID)
			assert.Equal(t, types.Breakfast, got[0].Slot)
			assert.True(t, got[0].Date.Equal(day(2025, 6, 3)))
		})
	}
}

func TestTrackerRecordValidates(t *testing.T) {
	tracker := NewTracker(NewMemoryStore())
	assert.Error(t, tracker.Record(context.Background(), types.MealSuggestionRecord{UserID: "u1"}))
}

func TestGormStorePostgres(t *testing.T) {
	store := NewGormStore(testhelpers.SetupPostgres(t))
	tracker := NewTracker(store)
	ctx := context.Background()

	rec := types.MealSuggestionRecord{UserID: "u1", ItemID: "oats", Date: day(2025, 6, 3), Slot: types.Breakfast}
	require.NoError(t, tracker.Record(ctx, rec))
	require.NoError(t, tracker.Record(ctx, rec))

	seen, err := tracker.RecentlySuggested(ctx, "u1", day(2025, 6, 5))
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"oats": {}}, seen)
}
