package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/momcare/mealplan/backend/internal/types"
	"gorm.io/gorm"
)

// PregnancyProfile is the stored planning profile of a user
type PregnancyProfile struct {
	ID                    uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	UserID                string           `gorm:"size:64;not null;uniqueIndex" json:"user_id"`
	DueDate               *time.Time       `json:"due_date"`
	ConceptionDate        *time.Time       `json:"conception_date"`
	DietaryPreference     string           `gorm:"size:32;not null;default:'non-vegetarian'" json:"dietary_preference"`
	Intolerances          JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"intolerances"`
	PreExistingConditions JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"pre_existing_conditions"`
	Mood                  string           `gorm:"size:20" json:"mood"`
	AvailableFoodItems    JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"available_food_items"`
	Archived              bool             `gorm:"not null;default:false;index" json:"archived"`
	CreatedAt             time.Time        `json:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at"`
	DeletedAt             gorm.DeletedAt   `gorm:"index" json:"-"`
}

func (PregnancyProfile) TableName() string {
	return "pregnancy_profiles"
}

// BeforeCreate assigns the primary key
func (p *PregnancyProfile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// ToDomain converts the row into the snapshot the planner works on
func (p *PregnancyProfile) ToDomain() types.UserProfile {
	prof := types.UserProfile{
		UserID:                p.UserID,
		DietaryPreference:     types.ParseDietaryPreference(p.DietaryPreference),
		Intolerances:          append([]string(nil), p.Intolerances...),
		PreExistingConditions: append([]string(nil), p.PreExistingConditions...),
		Mood:                  types.ParseMoodCategory(p.Mood),
		AvailableFoodItems:    append([]string(nil), p.AvailableFoodItems...),
	}
	if p.DueDate != nil {
		d := types.Day(*p.DueDate)
		prof.DueDate = &d
	}
	if p.ConceptionDate != nil {
		d := types.Day(*p.ConceptionDate)
		prof.ConceptionDate = &d
	}
	return prof
}

// FromDomain builds a row from a profile snapshot
func FromDomain(p types.UserProfile) *PregnancyProfile {
	return &PregnancyProfile{
		UserID:                p.UserID,
		DueDate:               p.DueDate,
		ConceptionDate:        p.ConceptionDate,
		DietaryPreference:     string(p.DietaryPreference),
		Intolerances:          JSONBStringArray(p.Intolerances),
		PreExistingConditions: JSONBStringArray(p.PreExistingConditions),
		Mood:                  string(p.Mood),
		AvailableFoodItems:    JSONBStringArray(p.AvailableFoodItems),
	}
}
