package service

import (
	"context"
	"sync"
	"time"

	"github.com/momcare/mealplan/backend/internal/types"
)

// MemoryGoalCache keeps goals in process memory for deployments without Redis.
// Entries expire after the configured TTL.
type MemoryGoalCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryGoal
}

type memoryGoal struct {
	goal    types.NutritionalGoal
	expires time.Time
}

// NewMemoryGoalCache creates a new MemoryGoalCache instance
func NewMemoryGoalCache(ttl time.Duration) *MemoryGoalCache {
	if ttl <= 0 {
		ttl = DefaultGoalTTL
	}
	return &MemoryGoalCache{ttl: ttl, now: time.Now, entries: make(map[string]memoryGoal)}
}

func (c *MemoryGoalCache) GetGoal(ctx context.Context, key string) (*types.NutritionalGoal, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || !c.now().Before(e.expires) {
		return nil, nil
	}
	goal := cloneGoal(e.goal)
	return &goal, nil
}

func (c *MemoryGoalCache) SetGoal(ctx context.Context, key string, goal types.NutritionalGoal) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, e := range c.entries {
		if !now.Before(e.expires) {
			delete(c.entries, k)
		}
	}
	c.entries[key] = memoryGoal{goal: cloneGoal(goal), expires: now.Add(c.ttl)}
	return nil
}

func cloneGoal(g types.NutritionalGoal) types.NutritionalGoal {
	g.Emphasis = append([]string(nil), g.Emphasis...)
	return g
}
