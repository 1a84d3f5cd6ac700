package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/mealpoint/kiosk-api/internal/models"
	"github.com/mealpoint/kiosk-api/internal/util"
)

// catalogKey is the single namespaced key under which the catalog snapshot
// is persisted. Session state (cart, order, voice mode) is deliberately
// never written here.
const catalogKey = "kiosk:catalog"

// CatalogSnapshot is the serialized catalog state stored in Redis.
type CatalogSnapshot struct {
	Categories []models.Category `json:"categories"`
	MenuItems  []models.MenuItem `json:"menu_items"`
	SavedAt    time.Time         `json:"saved_at"`
}

// CatalogCache stores a JSON catalog snapshot in Redis so kiosk sessions can
// read menu state without hitting Postgres on every utterance.
type CatalogCache struct {
	rdb *redis.Client
}

// NewCatalogCache creates a CatalogCache and verifies connectivity.
func NewCatalogCache(addr, password string) (*CatalogCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &CatalogCache{rdb: rdb}, nil
}

// SaveSnapshot overwrites the catalog snapshot. The write is a whole-state
// replace; there is no per-item key.
func (c *CatalogCache) SaveSnapshot(ctx context.Context, snapshot *CatalogSnapshot) error {
	snapshot.SavedAt = time.Now()
	data, err := util.SerializeToJSONString(snapshot)
	if err != nil {
		return fmt.Errorf("marshal catalog snapshot: %w", err)
	}
	if err := c.rdb.Set(ctx, catalogKey, data, 0).Err(); err != nil {
		return fmt.Errorf("save catalog snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads the catalog snapshot. A missing key returns (nil, nil).
func (c *CatalogCache) LoadSnapshot(ctx context.Context) (*CatalogSnapshot, error) {
	data, err := c.rdb.Get(ctx, catalogKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("load catalog snapshot: %w", err)
	}

	var snapshot CatalogSnapshot
	if err := util.DeserializeFromJSONString(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal catalog snapshot: %w", err)
	}
	return &snapshot, nil
}

// Close closes the Redis connection.
func (c *CatalogCache) Close() error {
	return c.rdb.Close()
}
