package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/momcare/mealplan/backend/internal/composer"
	"github.com/momcare/mealplan/backend/internal/filter"
	"github.com/momcare/mealplan/backend/internal/stage"
	"github.com/momcare/mealplan/backend/internal/types"
	"gopkg.in/yaml.v3"
)

// EngineConfig tunes the planning engine. Every field has a working default.
type EngineConfig struct {
	Tolerance         float64               `yaml:"tolerance"`
	GraceDays         int                   `yaml:"grace_days"`
	Concurrency       int                   `yaml:"concurrency"`
	EnrichmentTimeout time.Duration         `yaml:"enrichment_timeout"`
	InsightTimeout    time.Duration         `yaml:"insight_timeout"`
	Slots             []composer.SlotConfig `yaml:"slots"`
	Weights           filter.Weights        `yaml:"weights"`
	MoodTags          map[string][]string   `yaml:"mood_tags"`
}

// DefaultEngineConfig returns the built-in tuning
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Tolerance:         stage.DefaultTolerance,
		GraceDays:         stage.DefaultGraceDays,
		Concurrency:       8,
		EnrichmentTimeout: 5 * time.Second,
		InsightTimeout:    5 * time.Second,
		Slots:             append([]composer.SlotConfig(nil), composer.DefaultSlots...),
		Weights:           filter.DefaultWeights,
	}
}

// LoadEngineConfig reads the YAML tuning file at path over the defaults. An empty
// path yields the defaults.
func LoadEngineConfig(path string) (EngineConfig, error) {
	cfg := DefaultEngineConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read engine config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse engine config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the tuning values for consistency
func (c EngineConfig) Validate() error {
	if c.Tolerance <= 0 || c.Tolerance >= 1 {
		return ValidationError{"tolerance", fmt.Sprintf("must be between 0 and 1, got %v", c.Tolerance)}
	}
	if c.GraceDays < 0 {
		return ValidationError{"grace_days", "must not be negative"}
	}
	if len(c.Slots) == 0 {
		return ValidationError{"slots", "at least one slot is required"}
	}

	var total float64
	seen := make(map[types.MealSlot]bool)
	for _, s := range c.Slots {
		slot, ok := types.ParseMealSlot(string(s.Slot))
		if !ok {
			return ValidationError{"slots", fmt.Sprintf("unknown slot %q", s.Slot)}
		}
		if seen[slot] {
			return ValidationError{"slots", fmt.Sprintf("slot %s listed twice", slot)}
		}
		seen[slot] = true
		if s.Picks <= 0 {
			return ValidationError{"slots", fmt.Sprintf("slot %s needs at least one pick", slot)}
		}
		if s.Share <= 0 {
			return ValidationError{"slots", fmt.Sprintf("slot %s needs a positive calorie share", slot)}
		}
		total += s.Share
	}
	if total > 1.0001 {
		return ValidationError{"slots", fmt.Sprintf("calorie shares add up to %.2f", total)}
	}
	return nil
}

// NormalizedSlots returns the slot list with canonical slot names
func (c EngineConfig) NormalizedSlots() []composer.SlotConfig {
	out := make([]composer.SlotConfig, 0, len(c.Slots))
	for _, s := range c.Slots {
		if slot, ok := types.ParseMealSlot(string(s.Slot)); ok {
			s.Slot = slot
		}
		out = append(out, s)
	}
	return out
}

// MoodTable converts the configured mood tags; nil means the built-in table
func (c EngineConfig) MoodTable() map[types.MoodCategory][]string {
	if len(c.MoodTags) == 0 {
		return nil
	}
	out := make(map[types.MoodCategory][]string, len(c.MoodTags))
	for mood, tags := range c.MoodTags {
		key := types.ParseMoodCategory(mood)
		for _, tag := range tags {
			if t := strings.ToLower(strings.TrimSpace(tag)); t != "" {
				out[key] = append(out[key], t)
			}
		}
	}
	return out
}
