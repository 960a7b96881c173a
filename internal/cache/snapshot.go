package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ecoeats/mealplanner/pkg/logger"
	"github.com/ecoeats/mealplanner/pkg/redis"
	"github.com/ecoeats/mealplanner/pkg/types"
)

const (
	ListSuggested = "suggested"
	ListGeneric   = "generic"
	ListCustom    = "custom"

	defaultTTL = 24 * time.Hour
)

// ErrMiss is returned when nothing is cached for the key.
var ErrMiss = errors.New("snapshot cache miss")

// Store is the key/value surface the cache needs.
type Store interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	InventoryKey(userID string) string
	RecipesKey(userID, list string) string
}

// Snapshots keeps the last good inventory and recipe lists per user so a
// failing backend can be papered over on the next load.
type Snapshots struct {
	store Store
	ttl   time.Duration
	logg  *logger.Logger
}

// New returns a snapshot cache. A nil store yields a cache that always misses.
func New(store Store, ttl time.Duration, logg *logger.Logger) *Snapshots {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Snapshots{store: store, ttl: ttl, logg: logg}
}

// Enabled reports whether a backing store is configured.
func (s *Snapshots) Enabled() bool {
	return s != nil && s.store != nil
}

func (s *Snapshots) PutInventory(ctx context.Context, userID string, items []types.FoodItem) error {
	if !s.Enabled() {
		return nil
	}
	return s.put(ctx, s.store.InventoryKey(userID), items)
}

func (s *Snapshots) Inventory(ctx context.Context, userID string) ([]types.FoodItem, error) {
	if !s.Enabled() {
		return nil, ErrMiss
	}
	var items []types.FoodItem
	if err := s.get(ctx, s.store.InventoryKey(userID), &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Snapshots) PutRecipes(ctx context.Context, userID, list string, recipes []types.Recipe) error {
	if !s.Enabled() {
		return nil
	}
	return s.put(ctx, s.store.RecipesKey(userID, list), recipes)
}

func (s *Snapshots) Recipes(ctx context.Context, userID, list string) ([]types.Recipe, error) {
	if !s.Enabled() {
		return nil, ErrMiss
	}
	var recipes []types.Recipe
	if err := s.get(ctx, s.store.RecipesKey(userID, list), &recipes); err != nil {
		return nil, err
	}
	return recipes, nil
}

// Clear drops every snapshot kept for userID.
func (s *Snapshots) Clear(ctx context.Context, userID string) error {
	if !s.Enabled() {
		return nil
	}
	return s.store.Del(ctx,
		s.store.InventoryKey(userID),
		s.store.RecipesKey(userID, ListSuggested),
		s.store.RecipesKey(userID, ListGeneric),
		s.store.RecipesKey(userID, ListCustom),
	)
}

func (s *Snapshots) put(ctx context.Context, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", key, err)
	}
	if err := s.store.Set(ctx, key, payload, s.ttl); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "cache_key", key), "snapshot cache write failed")
		return fmt.Errorf("write snapshot %s: %w", key, err)
	}
	return nil
}

func (s *Snapshots) get(ctx context.Context, key string, dest any) error {
	raw, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redis.ErrNotFound) {
			return ErrMiss
		}
		return fmt.Errorf("read snapshot %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return fmt.Errorf("decode snapshot %s: %w", key, err)
	}
	return nil
}
