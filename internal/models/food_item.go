package models

import (
	"time"

	"gorm.io/gorm"
)

// FoodItem is the persisted catalog row. Position keeps the dataset order the
// index uses for tie-breaks.
type FoodItem struct {
	ID           string           `gorm:"size:64;primaryKey" json:"id"`
	Position     int              `gorm:"not null;default:0;index" json:"position"`
	Name         string           `gorm:"size:255;not null" json:"name"`
	Slot         string           `gorm:"size:20;not null;index" json:"slot"`
	Calories     float64          `gorm:"type:float" json:"calories"`
	Protein      float64          `gorm:"type:float" json:"protein"`
	Carbs        float64          `gorm:"type:float" json:"carbs"`
	Fat          float64          `gorm:"type:float" json:"fat"`
	Sodium       float64          `gorm:"type:float" json:"sodium"`
	Sugar        float64          `gorm:"type:float" json:"sugar"`
	Vitamins     JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"vitamins"`
	DietaryTags  JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"dietary_tags"`
	AllergenTags JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"allergen_tags"`
	MoodTags     JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"mood_tags"`
	ImageURI     string           `gorm:"size:512" json:"image_uri"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	DeletedAt    gorm.DeletedAt   `gorm:"index" json:"-"`
}

func (FoodItem) TableName() string {
	return "food_items"
}

// CatalogVersion records each published dataset version
type CatalogVersion struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Version   uint64    `gorm:"not null;uniqueIndex" json:"version"`
	ItemCount int       `gorm:"not null;default:0" json:"item_count"`
	CreatedAt time.Time `json:"created_at"`
}

func (CatalogVersion) TableName() string {
	return "catalog_versions"
}

// All lists every table the planner owns
func All() []interface{} {
	return []interface{}{
		&PregnancyProfile{},
		&FoodItem{},
		&CatalogVersion{},
		&MealSuggestion{},
	}
}
