package filter

import (
	"strings"

	"github.com/momcare/mealplan/backend/internal/types"
)

// intoleranceAllergens maps a user-declared intolerance onto the allergen tags the
// catalog uses. Unlisted intolerances match the tag of the same name.
var intoleranceAllergens = map[string][]string{
	"seafood":   {"seafood", "fish", "shellfish"},
	"fish":      {"fish"},
	"shellfish": {"shellfish"},
	"lactose":   {"lactose", "dairy"},
	"dairy":     {"dairy", "lactose"},
	"milk":      {"dairy", "lactose"},
	"gluten":    {"gluten", "wheat"},
	"wheat":     {"wheat"},
	"egg":       {"egg"},
	"eggs":      {"egg"},
	"soy":       {"soy"},
	"nuts":      {"peanut", "tree nut"},
	"peanut":    {"peanut"},
	"peanuts":   {"peanut"},
}

// ExpandIntolerances returns the de-duplicated allergen tags to deny, in first-seen order
func ExpandIntolerances(intolerances []string) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(tag string) {
		if _, ok := seen[tag]; ok {
			return
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}

	for _, raw := range intolerances {
		key := strings.ToLower(strings.TrimSpace(raw))
		if key == "" {
			continue
		}
		tags, ok := intoleranceAllergens[key]
		if !ok {
			add(key)
			continue
		}
		for _, tag := range tags {
			add(tag)
		}
	}
	return out
}

// preferenceRule is the hard tag restriction a dietary preference places on the catalog
type preferenceRule struct {
	allowTags     []string
	denyAllergens []string
}

var preferenceRules = map[types.DietaryPreference]preferenceRule{
	types.Vegetarian:  {allowTags: []string{"vegetarian"}},
	types.Vegan:       {allowTags: []string{"vegan"}},
	types.Pescetarian: {allowTags: []string{"pescetarian"}},
	types.Ketogenic:   {allowTags: []string{"ketogenic"}},
	types.GlutenFree:  {denyAllergens: []string{"gluten", "wheat"}},
	types.DairyFree:   {denyAllergens: []string{"dairy", "lactose"}},
}

// DefaultMoodTags lists the item mood tags boosted for each mood
var DefaultMoodTags = map[types.MoodCategory][]string{
	types.MoodSad:      {"comfort"},
	types.MoodStressed: {"calming", "comfort"},
	types.MoodAngry:    {"calming", "light"},
	types.MoodNauseous: {"light", "bland", "ginger"},
	types.MoodTired:    {"energizing", "iron-rich"},
	types.MoodHappy:    {"energizing", "fresh"},
}
