package history

import (
	"context"
	"fmt"
	"time"

	"github.com/momcare/mealplan/backend/internal/models"
	"github.com/momcare/mealplan/backend/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore keeps history in the meal_suggestions table
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GormStore instance
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Append(ctx context.Context, rec types.MealSuggestionRecord) error {
	row := &models.MealSuggestion{
		UserID: rec.UserID,
		Day:    types.Day(rec.Date).Format(types.DateLayout),
		Slot:   string(rec.Slot),
		ItemID: rec.ItemID,
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(row).Error
	if err != nil {
		return fmt.Errorf("failed to insert meal suggestion: %w", err)
	}
	return nil
}

func (s *GormStore) ListRange(ctx context.Context, userID string, from, to time.Time) ([]types.MealSuggestionRecord, error) {
	var rows []models.MealSuggestion
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND day >= ? AND day < ?", userID,
			types.Day(from).Format(types.DateLayout), types.Day(to).Format(types.DateLayout)).
		Order("day, created_at").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list meal suggestions: %w", err)
	}

	out := make([]types.MealSuggestionRecord, 0, len(rows))
	for _, row := range rows {
		day, err := time.Parse(types.DateLayout, row.Day)
		if err != nil {
			return nil, fmt.Errorf("invalid suggestion day %q: %w", row.Day, err)
		}
		out = append(out, types.MealSuggestionRecord{
			UserID: row.UserID,
			ItemID: row.ItemID,
			Date:   day,
			Slot:   types.MealSlot(row.Slot),
		})
	}
	return out, nil
}
