package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MealSuggestion is one history row. Day is the UTC calendar day (YYYY-MM-DD);
// the composite unique index makes re-recording a no-op.
type MealSuggestion struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    string    `gorm:"size:64;not null;uniqueIndex:idx_meal_suggestion_unique,priority:1;index:idx_meal_suggestion_user_day,priority:1" json:"user_id"`
	Day       string    `gorm:"size:10;not null;uniqueIndex:idx_meal_suggestion_unique,priority:2;index:idx_meal_suggestion_user_day,priority:2" json:"day"`
	Slot      string    `gorm:"size:20;not null;uniqueIndex:idx_meal_suggestion_unique,priority:3" json:"slot"`
	ItemID    string    `gorm:"size:64;not null;uniqueIndex:idx_meal_suggestion_unique,priority:4" json:"item_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (MealSuggestion) TableName() string {
	return "meal_suggestions"
}

// BeforeCreate assigns the primary key
func (m *MealSuggestion) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
