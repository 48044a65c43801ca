package catalog

import (
	"fmt"
	"strings"

	"github.com/momcare/mealplan/backend/internal/types"
)

// tagImplications expands dietary tags at build time so a vegan dish also answers
// vegetarian and pescetarian queries.
var tagImplications = map[string][]string{
	"vegan":      {"vegetarian", "pescetarian"},
	"vegetarian": {"pescetarian"},
}

// Query selects items of one meal slot carrying every AllowTag and none of the
// DenyAllergens.
type Query struct {
	Slot          types.MealSlot
	AllowTags     []string
	DenyAllergens []string
}

type set map[string]struct{}

// Index is an immutable, versioned view over the food dataset
type Index struct {
	version   uint64
	items     []types.FoodItem
	byID      map[string]int
	bySlot    map[types.MealSlot][]int
	tags      []set
	allergens []set
}

// NewIndex builds the index once; items keep their dataset order as catalog position
func NewIndex(version uint64, items []types.FoodItem) (*Index, error) {
	ix := &Index{
		version:   version,
		items:     make([]types.FoodItem, 0, len(items)),
		byID:      make(map[string]int, len(items)),
		bySlot:    make(map[types.MealSlot][]int),
		tags:      make([]set, 0, len(items)),
		allergens: make([]set, 0, len(items)),
	}

	for _, item := range items {
		if item.ID == "" {
			return nil, fmt.Errorf("catalog item %q has no id", item.Name)
		}
		if _, dup := ix.byID[item.ID]; dup {
			return nil, fmt.Errorf("duplicate catalog item id %s", item.ID)
		}
		slot, ok := types.ParseMealSlot(string(item.Slot))
		if !ok {
			return nil, fmt.Errorf("catalog item %s has unknown slot %q", item.ID, item.Slot)
		}

		item.Slot = slot
		item.DietaryTags = normalize(item.DietaryTags)
		item.AllergenTags = normalize(item.AllergenTags)
		item.MoodTags = normalize(item.MoodTags)
		item.Vitamins = normalize(item.Vitamins)

		pos := len(ix.items)
		ix.items = append(ix.items, item)
		ix.byID[item.ID] = pos
		ix.bySlot[slot] = append(ix.bySlot[slot], pos)
		ix.tags = append(ix.tags, expandTags(item.DietaryTags))
		ix.allergens = append(ix.allergens, toSet(item.AllergenTags))
	}

	return ix, nil
}

// Version is the dataset version this index was built from
func (ix *Index) Version() uint64 {
	return ix.version
}

// Len returns the number of items
func (ix *Index) Len() int {
	return len(ix.items)
}

// Get looks an item up by identifier
func (ix *Index) Get(id string) (types.FoodItem, bool) {
	pos, ok := ix.byID[id]
	if !ok {
		return types.FoodItem{}, false
	}
	return ix.items[pos], true
}

// Position returns the dataset position of id, or -1
func (ix *Index) Position(id string) int {
	if pos, ok := ix.byID[id]; ok {
		return pos
	}
	return -1
}

// Query returns matching items in dataset order. Every tag and allergen check is a
// hash lookup; only the requested slot's postings are visited.
func (ix *Index) Query(q Query) []types.FoodItem {
	allow := normalize(q.AllowTags)
	deny := normalize(q.DenyAllergens)

	var out []types.FoodItem
	for _, pos := range ix.bySlot[q.Slot] {
		if !hasAll(ix.tags[pos], allow) || hasAny(ix.allergens[pos], deny) {
			continue
		}
		out = append(out, ix.items[pos])
	}
	return out
}

// HasTag reports whether the item carries tag, implied tags included
func (ix *Index) HasTag(id, tag string) bool {
	pos, ok := ix.byID[id]
	if !ok {
		return false
	}
	_, has := ix.tags[pos][normalizeOne(tag)]
	return has
}

func hasAll(s set, keys []string) bool {
	for _, k := range keys {
		if _, ok := s[k]; !ok {
			return false
		}
	}
	return true
}

func hasAny(s set, keys []string) bool {
	for _, k := range keys {
		if _, ok := s[k]; ok {
			return true
		}
	}
	return false
}

func expandTags(tags []string) set {
	s := toSet(tags)
	for _, t := range tags {
		for _, implied := range tagImplications[t] {
			s[implied] = struct{}{}
		}
	}
	return s
}

func toSet(values []string) set {
	s := make(set, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

func normalizeOne(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

func normalize(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if n := normalizeOne(v); n != "" {
			out = append(out, n)
		}
	}
	return out
}
