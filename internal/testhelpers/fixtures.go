package testhelpers

import (
	"fmt"
	"time"

	"github.com/momcare/mealplan/backend/internal/types"
)

var slotCalories = map[types.MealSlot]float64{
	types.Breakfast: 585,
	types.Lunch:     820,
	types.Dinner:    700,
	types.Snack:     117,
}

// CatalogItems builds a deterministic catalog with perSlot items in every slot
// and twice as many snacks. Calories sit around a second-trimester day.
// Every fourth item (offset 1) contains fish.
func CatalogItems(perSlot int) []types.FoodItem {
	var items []types.FoodItem
	for _, slot := range types.MealSlots {
		n := perSlot
		if slot == types.Snack {
			n = perSlot * 2
		}
		for i := 0; i < n; i++ {
			item := types.FoodItem{
				ID:   fmt.Sprintf("%s-%02d", slot, i),
				Name: fmt.Sprintf("%s dish %d", slot, i),
				Slot: slot,
				Nutrients: types.Nutrients{
					Calories: slotCalories[slot] + float64(i%3-1)*40,
					Protein:  15 + float64(i%4)*5,
					Carbs:    40,
					Fat:      12,
					Sodium:   300 + float64(i%5)*50,
					Sugar:    8,
				},
				DietaryTags: []string{"vegetarian"},
			}
			if i%3 == 0 {
				item.DietaryTags = []string{"vegan"}
			}
			if i%4 == 1 {
				item.DietaryTags = []string{"pescetarian"}
				item.AllergenTags = []string{"fish", "seafood"}
			}
			if i%5 == 0 {
				item.MoodTags = []string{"comfort"}
			}
			if i%2 == 0 {
				item.Vitamins = []string{"iron", "folate"}
			}
			items = append(items, item)
		}
	}
	return items
}

// SecondTrimesterProfile returns a profile in pregnancy week 20 on ref
func SecondTrimesterProfile(userID string, ref time.Time) types.UserProfile {
	conception := types.Day(ref).AddDate(0, 0, -7*19)
	return types.UserProfile{
		UserID:            userID,
		ConceptionDate:    &conception,
		DietaryPreference: types.Omnivore,
	}
}
