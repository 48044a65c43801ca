package history

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/momcare/mealplan/backend/internal/types"
)

type recordKey struct {
	day    string
	slot   types.MealSlot
	itemID string
}

// MemoryStore keeps history in process memory, one list per user
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]types.MealSuggestionRecord
	keys    map[string]map[recordKey]struct{}
}

// NewMemoryStore creates a new MemoryStore instance
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string][]types.MealSuggestionRecord),
		keys:    make(map[string]map[recordKey]struct{}),
	}
}

func (s *MemoryStore) Append(ctx context.Context, rec types.MealSuggestionRecord) error {
	rec.Date = types.Day(rec.Date)
	key := recordKey{day: rec.Date.Format(types.DateLayout), slot: rec.Slot, itemID: rec.ItemID}

	s.mu.Lock()
	defer s.mu.Unlock()

	userKeys, ok := s.keys[rec.UserID]
	if !ok {
		userKeys = make(map[recordKey]struct{})
		s.keys[rec.UserID] = userKeys
	}
	if _, dup := userKeys[key]; dup {
		return nil
	}
	userKeys[key] = struct{}{}
	s.records[rec.UserID] = append(s.records[rec.UserID], rec)
	return nil
}

func (s *MemoryStore) ListRange(ctx context.Context, userID string, from, to time.Time) ([]types.MealSuggestionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []types.MealSuggestionRecord
	for _, rec := range s.records[userID] {
		if !rec.Date.Before(from) && rec.Date.Before(to) {
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}
