package inventory

import (
	"sync"
	"time"

	"github.com/ecoeats/mealplanner/pkg/enums"
	"github.com/ecoeats/mealplanner/pkg/types"
)

// Snapshot is the session's in-memory view of the user's food items. It is
// replaced wholesale after a fetch and mutated only through Reserve/Release.
// The zero value is empty and not yet loaded.
type Snapshot struct {
	mu     sync.RWMutex
	items  []types.FoodItem
	byID   map[string]int
	loaded bool
}

// NewSnapshot returns a snapshot holding items.
func NewSnapshot(items []types.FoodItem) *Snapshot {
	s := &Snapshot{}
	s.Replace(items)
	return s
}

// Replace swaps in a fresh list of items.
func (s *Snapshot) Replace(items []types.FoodItem) {
	copied := append([]types.FoodItem(nil), items...)
	index := make(map[string]int, len(copied))
	for i, item := range copied {
		if item.ID == "" {
			continue
		}
		if _, dup := index[item.ID]; !dup {
			index[item.ID] = i
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = copied
	s.byID = index
	s.loaded = true
}

// Loaded reports whether Replace has been called at least once.
func (s *Snapshot) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Items returns a copy of every item in fetch order.
func (s *Snapshot) Items() []types.FoodItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.FoodItem(nil), s.items...)
}

// Available returns the items with a positive quantity.
func (s *Snapshot) Available() []types.FoodItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.FoodItem, 0, len(s.items))
	for _, item := range s.items {
		if item.InStock() {
			out = append(out, item)
		}
	}
	return out
}

// Find returns the item with id.
func (s *Snapshot) Find(id string) (types.FoodItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.byID[id]
	if !ok {
		return types.FoodItem{}, false
	}
	return s.items[idx], true
}

// Reserve takes each usage out of stock and returns the usages as recorded.
// For a known id that is the amount actually taken, the request clamped to
// what was available. A usage whose id is not in the snapshot leaves stock
// alone and is recorded as given, so the reference survives snapshot drift.
func (s *Snapshot) Reserve(usages []types.IngredientUsage) []types.IngredientUsage {
	s.mu.Lock()
	defer s.mu.Unlock()

	recorded := make([]types.IngredientUsage, 0, len(usages))
	for _, usage := range usages {
		idx, ok := s.byID[usage.ID]
		if !ok {
			recorded = append(recorded, usage)
			continue
		}
		item := &s.items[idx]
		taken := usage.UsedQty.FloorZero().Min(item.Quantity.FloorZero())
		item.Quantity = item.Quantity.Sub(taken).FloorZero()

		usage.UsedQty = taken
		if usage.Name == "" {
			usage.Name = item.Name
		}
		recorded = append(recorded, usage)
	}
	return recorded
}

// Release puts previously reserved usages back. Unknown ids are ignored.
func (s *Snapshot) Release(usages []types.IngredientUsage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, usage := range usages {
		idx, ok := s.byID[usage.ID]
		if !ok {
			continue
		}
		s.items[idx].Quantity = s.items[idx].Quantity.Add(usage.UsedQty.FloorZero())
	}
}

// ItemStatus pairs an item with its freshness.
type ItemStatus struct {
	Item   types.FoodItem
	Status enums.FoodStatus
}

// Statuses reports the freshness of every item as of now.
func (s *Snapshot) Statuses(now time.Time) []ItemStatus {
	items := s.Items()
	out := make([]ItemStatus, 0, len(items))
	for _, item := range items {
		out = append(out, ItemStatus{Item: item, Status: item.Status(now)})
	}
	return out
}
