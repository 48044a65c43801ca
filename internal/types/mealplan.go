package types

import (
	"strings"
	"time"
)

// MealSlot is a category of meal within a day
type MealSlot string

const (
	Breakfast MealSlot = "breakfast"
	Lunch     MealSlot = "lunch"
	Dinner    MealSlot = "dinner"
	Snack     MealSlot = "snack"
)

// MealSlots lists the slots in the order a day is composed
var MealSlots = []MealSlot{Breakfast, Lunch, Dinner, Snack}

// ParseMealSlot accepts the slot names used by the catalog and the mobile app
// ("snacks" is the app's plural form).
func ParseMealSlot(s string) (MealSlot, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "breakfast":
		return Breakfast, true
	case "lunch":
		return Lunch, true
	case "dinner":
		return Dinner, true
	case "snack", "snacks":
		return Snack, true
	}
	return "", false
}

// DietaryPreference mirrors the preference values stored on user profiles
type DietaryPreference string

const (
	Omnivore    DietaryPreference = "non-vegetarian"
	Vegetarian  DietaryPreference = "vegetarian"
	Vegan       DietaryPreference = "vegan"
	Pescetarian DietaryPreference = "pescetarian"
	Flexitarian DietaryPreference = "flexitarian"
	GlutenFree  DietaryPreference = "gluten-free"
	Ketogenic   DietaryPreference = "ketogenic"
	HighProtein DietaryPreference = "high-protein"
	DairyFree   DietaryPreference = "dairy-free"
)

// ParseDietaryPreference normalises free-form preference strings. Unknown or empty
// values fall back to Omnivore, which places no tag restriction on the catalog.
func ParseDietaryPreference(s string) DietaryPreference {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.ReplaceAll(v, " ", "-")
	switch v {
	case "vegetarian":
		return Vegetarian
	case "vegan":
		return Vegan
	case "pescetarian", "pescatarian":
		return Pescetarian
	case "flexitarian":
		return Flexitarian
	case "gluten-free":
		return GlutenFree
	case "ketogenic", "keto":
		return Ketogenic
	case "high-protein":
		return HighProtein
	case "dairy-free":
		return DairyFree
	}
	return Omnivore
}

// MoodCategory is the user's most recent mood entry
type MoodCategory string

const (
	MoodNone     MoodCategory = ""
	MoodHappy    MoodCategory = "happy"
	MoodSad      MoodCategory = "sad"
	MoodStressed MoodCategory = "stressed"
	MoodAngry    MoodCategory = "angry"
	MoodNauseous MoodCategory = "nauseous"
	MoodTired    MoodCategory = "tired"
)

// ParseMoodCategory normalises a stored mood entry so "Sad" and " sad " name the
// same mood. Values outside the known set are kept lower-cased for custom mood tables.
func ParseMoodCategory(s string) MoodCategory {
	v := strings.ToLower(strings.TrimSpace(s))
	switch MoodCategory(v) {
	case MoodHappy, MoodSad, MoodStressed, MoodAngry, MoodNauseous, MoodTired:
		return MoodCategory(v)
	case "nausea", "nauseated":
		return MoodNauseous
	case "tiredness", "fatigued":
		return MoodTired
	}
	return MoodCategory(v)
}

// UserProfile is the immutable snapshot the engine plans against
type UserProfile struct {
	UserID                string            `json:"user_id"`
	DueDate               *time.Time        `json:"due_date,omitempty"`
	ConceptionDate        *time.Time        `json:"conception_date,omitempty"`
	DietaryPreference     DietaryPreference `json:"dietary_preference"`
	Intolerances          []string          `json:"intolerances"`
	PreExistingConditions []string          `json:"pre_existing_conditions"`
	Mood                  MoodCategory      `json:"mood,omitempty"`
	AvailableFoodItems    []string          `json:"available_food_items"`
}

// PregnancyStage is always derived from the conception or due date
type PregnancyStage struct {
	Day       int `json:"day"`
	Week      int `json:"week"`
	Trimester int `json:"trimester"`
}

// Nutrients is the per-serving nutrient vector of a food item
type Nutrients struct {
	Calories float64 `json:"calories" yaml:"calories"`
	Protein  float64 `json:"protein" yaml:"protein"`
	Carbs    float64 `json:"carbs" yaml:"carbs"`
	Fat      float64 `json:"fat" yaml:"fat"`
	Sodium   float64 `json:"sodium" yaml:"sodium"`
	Sugar    float64 `json:"sugar" yaml:"sugar"`
}

// Add returns the element-wise sum
func (n Nutrients) Add(o Nutrients) Nutrients {
	return Nutrients{
		Calories: n.Calories + o.Calories,
		Protein:  n.Protein + o.Protein,
		Carbs:    n.Carbs + o.Carbs,
		Fat:      n.Fat + o.Fat,
		Sodium:   n.Sodium + o.Sodium,
		Sugar:    n.Sugar + o.Sugar,
	}
}

// NutritionalGoal is the per-stage target profile a plan is composed against
type NutritionalGoal struct {
	Trimester     int      `json:"trimester"`
	Calories      float64  `json:"calories"`
	Tolerance     float64  `json:"tolerance"`
	Protein       float64  `json:"protein"`
	Carbs         float64  `json:"carbs"`
	Fat           float64  `json:"fat"`
	SodiumLimitMg float64  `json:"sodium_limit_mg"`
	SugarLimitG   float64  `json:"sugar_limit_g"`
	Emphasis      []string `json:"emphasis"`
}

// CalorieBand returns the inclusive calorie range accepted for the day
func (g NutritionalGoal) CalorieBand() (float64, float64) {
	return g.Calories * (1 - g.Tolerance), g.Calories * (1 + g.Tolerance)
}

// FoodItem is an immutable catalog entry
type FoodItem struct {
	ID           string    `json:"id" yaml:"id"`
	Name         string    `json:"name" yaml:"name"`
	Slot         MealSlot  `json:"slot" yaml:"slot"`
	Nutrients    Nutrients `json:"nutrients" yaml:"nutrients"`
	Vitamins     []string  `json:"vitamins" yaml:"vitamins"`
	DietaryTags  []string  `json:"dietary_tags" yaml:"dietary_tags"`
	AllergenTags []string  `json:"allergen_tags" yaml:"allergen_tags"`
	MoodTags     []string  `json:"mood_tags" yaml:"mood_tags"`
	ImageURI     string    `json:"image_uri,omitempty" yaml:"image_uri"`
}

// MealSuggestionRecord is one append-only history fact
type MealSuggestionRecord struct {
	UserID string    `json:"user_id"`
	ItemID string    `json:"item_id"`
	Date   time.Time `json:"date"`
	Slot   MealSlot  `json:"slot"`
}

// DailyMealPlan is created fresh each cycle and only superseded, never mutated
type DailyMealPlan struct {
	UserID         string                `json:"user_id"`
	Date           string                `json:"date"`
	Stage          PregnancyStage        `json:"stage"`
	Goal           NutritionalGoal       `json:"goal"`
	Meals          map[MealSlot][]string `json:"meals"`
	Totals         Nutrients             `json:"totals"`
	CatalogVersion uint64                `json:"catalog_version"`
}

// ItemIDs returns every selected identifier in slot order
func (p *DailyMealPlan) ItemIDs() []string {
	var ids []string
	for _, slot := range MealSlots {
		ids = append(ids, p.Meals[slot]...)
	}
	return ids
}

// DailyInsight is the optional generated text shown next to a plan
type DailyInsight struct {
	TodaysFocus string `json:"todays_focus"`
	DailyTip    string `json:"daily_tip"`
}

// DateLayout is the calendar-day format used for plan dates and cache keys
const DateLayout = "2006-01-02"

// Day truncates t to its UTC calendar day
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
