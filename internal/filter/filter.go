package filter

import (
	"sort"
	"strings"
	"unicode"

	"github.com/momcare/mealplan/backend/internal/catalog"
	apperrors "github.com/momcare/mealplan/backend/internal/errors"
	"github.com/momcare/mealplan/backend/internal/types"
)

// HighProteinGrams is the per-item protein level boosted for high-protein diets
const HighProteinGrams = 20

// Weights tunes the soft ranking signals
type Weights struct {
	Inventory    float64 `yaml:"inventory"`
	Mood         float64 `yaml:"mood"`
	Emphasis     float64 `yaml:"emphasis"`
	LimitPenalty float64 `yaml:"limit_penalty"`
	// LimitFraction is the share of a daily sodium or sugar limit one item may use
	// before it is penalised.
	LimitFraction float64 `yaml:"limit_fraction"`
}

// DefaultWeights makes inventory dominate mood, and both dominate micronutrient emphasis
var DefaultWeights = Weights{
	Inventory:     4,
	Mood:          2,
	Emphasis:      1,
	LimitPenalty:  3,
	LimitFraction: 0.5,
}

// Candidate is an eligible item with its ranking score
type Candidate struct {
	Item     types.FoodItem
	Score    float64
	Position int
}

// CandidateSet holds ranked candidates per slot
type CandidateSet map[types.MealSlot][]Candidate

// Filter applies hard constraints and ranks what is left
type Filter struct {
	weights  Weights
	moodTags map[types.MoodCategory][]string
}

// Option configures a Filter
type Option func(*Filter)

// WithWeights overrides the ranking weights
func WithWeights(w Weights) Option {
	return func(f *Filter) { f.weights = w }
}

// WithMoodTags replaces the mood boost table
func WithMoodTags(table map[types.MoodCategory][]string) Option {
	return func(f *Filter) {
		if len(table) > 0 {
			f.moodTags = table
		}
	}
}

// New creates a new Filter instance
func New(opts ...Option) *Filter {
	f := &Filter{weights: DefaultWeights, moodTags: DefaultMoodTags}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Candidates returns the ranked eligible items for every requested slot. Allergens,
// the dietary preference and the excluded set are hard filters; a slot left empty by
// them fails the call with a NoEligibleItemsError.
func (f *Filter) Candidates(profile types.UserProfile, goal types.NutritionalGoal, ix *catalog.Index, excluded map[string]struct{}, slots []types.MealSlot) (CandidateSet, error) {
	rule := preferenceRules[profile.DietaryPreference]
	deny := append(ExpandIntolerances(profile.Intolerances), rule.denyAllergens...)
	inventory := normalizeAll(profile.AvailableFoodItems)
	moodTags := toSet(normalizeAll(f.moodTags[types.ParseMoodCategory(string(profile.Mood))]))
	emphasis := toSet(normalizeAll(goal.Emphasis))

	out := make(CandidateSet, len(slots))
	for _, slot := range slots {
		items := ix.Query(catalog.Query{Slot: slot, AllowTags: rule.allowTags, DenyAllergens: deny})

		ranked := make([]Candidate, 0, len(items))
		for _, item := range items {
			if _, skip := excluded[item.ID]; skip {
				continue
			}
			ranked = append(ranked, Candidate{
				Item:     item,
				Score:    f.score(item, profile, goal, inventory, moodTags, emphasis),
				Position: ix.Position(item.ID),
			})
		}
		if len(ranked) == 0 {
			return nil, &apperrors.NoEligibleItemsError{UserID: profile.UserID, Slot: slot}
		}

		sort.SliceStable(ranked, func(i, j int) bool {
			if ranked[i].Score != ranked[j].Score {
				return ranked[i].Score > ranked[j].Score
			}
			return ranked[i].Position < ranked[j].Position
		})
		out[slot] = ranked
	}
	return out, nil
}

func (f *Filter) score(item types.FoodItem, profile types.UserProfile, goal types.NutritionalGoal, inventory []string, moodTags, emphasis map[string]struct{}) float64 {
	var score float64

	if matchesInventory(item, inventory) {
		score += f.weights.Inventory
	}
	for _, tag := range item.MoodTags {
		if _, ok := moodTags[tag]; ok {
			score += f.weights.Mood
			break
		}
	}
	for _, v := range item.Vitamins {
		if _, ok := emphasis[v]; ok {
			score += f.weights.Emphasis
		}
	}
	if profile.DietaryPreference == types.HighProtein && item.Nutrients.Protein >= HighProteinGrams {
		score += f.weights.Emphasis
	}

	if goal.SodiumLimitMg > 0 && item.Nutrients.Sodium > goal.SodiumLimitMg*f.weights.LimitFraction {
		score -= f.weights.LimitPenalty
	}
	if goal.SugarLimitG > 0 && item.Nutrients.Sugar > goal.SugarLimitG*f.weights.LimitFraction {
		score -= f.weights.LimitPenalty
	}
	return score
}

// matchesInventory is true when the user listed the item itself or an ingredient
// named in it
func matchesInventory(item types.FoodItem, inventory []string) bool {
	if len(inventory) == 0 {
		return false
	}
	id := strings.ToLower(item.ID)
	words := tokenize(item.Name)
	for _, have := range inventory {
		if have == id || containsPhrase(words, tokenize(have)) {
			return true
		}
	}
	return false
}

// tokenize splits a name into lower-case words
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// containsPhrase reports whether phrase occurs in words as a run of whole words,
// so "egg" matches "Egg fried rice" but not "Eggplant curry"
func containsPhrase(words, phrase []string) bool {
	if len(phrase) == 0 || len(phrase) > len(words) {
		return false
	}
	for i := 0; i+len(phrase) <= len(words); i++ {
		match := true
		for j, w := range phrase {
			if words[i+j] != w {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func normalizeAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if n := strings.ToLower(strings.TrimSpace(v)); n != "" {
			out = append(out, n)
		}
	}
	return out
}

func toSet(values []string) map[string]struct{} {
	s := make(map[string]struct{}, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}
