package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/momcare/mealplan/backend/internal/types"
	"github.com/redis/go-redis/v9"
)

// DefaultGoalTTL is how long an enriched goal is reused
const DefaultGoalTTL = 7 * 24 * time.Hour

// RedisCache stores plans and enriched goals in Redis. Plans expire at the end
// of their UTC day.
type RedisCache struct {
	client  *redis.Client
	goalTTL time.Duration
	now     func() time.Time
}

// NewRedisCache creates a new RedisCache instance
func NewRedisCache(client *redis.Client, goalTTL time.Duration) *RedisCache {
	if goalTTL <= 0 {
		goalTTL = DefaultGoalTTL
	}
	return &RedisCache{client: client, goalTTL: goalTTL, now: time.Now}
}

func planKey(userID, date string) string {
	return fmt.Sprintf("plan:%s:%s", userID, date)
}

// GetPlan retrieves a cached plan from Redis
func (c *RedisCache) GetPlan(ctx context.Context, userID, date string) (*CachedPlan, error) {
	data, err := c.client.Get(ctx, planKey(userID, date)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan from Redis: %w", err)
	}

	var entry CachedPlan
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached plan: %w", err)
	}
	return &entry, nil
}

// SetPlan saves a plan to Redis until the end of the plan's day. Plans for days
// already over are not cached.
func (c *RedisCache) SetPlan(ctx context.Context, entry *CachedPlan) error {
	day, err := time.Parse(types.DateLayout, entry.Plan.Date)
	if err != nil {
		return fmt.Errorf("invalid plan date %q: %w", entry.Plan.Date, err)
	}
	ttl := day.AddDate(0, 0, 1).Sub(c.now())
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal plan: %w", err)
	}
	if err := c.client.Set(ctx, planKey(entry.Plan.UserID, entry.Plan.Date), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save plan to Redis: %w", err)
	}
	return nil
}

// GetGoal retrieves an enriched goal from Redis
func (c *RedisCache) GetGoal(ctx context.Context, key string) (*types.NutritionalGoal, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get goal from Redis: %w", err)
	}

	var goal types.NutritionalGoal
	if err := json.Unmarshal(data, &goal); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached goal: %w", err)
	}
	return &goal, nil
}

// SetGoal saves an enriched goal to Redis
func (c *RedisCache) SetGoal(ctx context.Context, key string, goal types.NutritionalGoal) error {
	data, err := json.Marshal(goal)
	if err != nil {
		return fmt.Errorf("failed to marshal goal: %w", err)
	}
	if err := c.client.Set(ctx, key, data, c.goalTTL).Err(); err != nil {
		return fmt.Errorf("failed to save goal to Redis: %w", err)
	}
	return nil
}
