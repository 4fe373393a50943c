// Package maintenance holds the process-wide maintenance flag checked by
// allocation and cleanup before every run.
package maintenance

import (
	"context"
	"errors"
	"fmt"

	"leadpool_backend/internal/leadpool/metrics"
	"leadpool_backend/internal/leadpool/repository"

	"github.com/redis/go-redis/v9"
)

// SettingKey is the persisted name of the flag.
const SettingKey = "maintenance_mode"

// Gate reads and sets the maintenance flag.
type Gate interface {
	Enabled(ctx context.Context) (bool, error)
	Set(ctx context.Context, enabled bool) error
}

// StoreGate keeps the flag in the Lead Store's settings table.
type StoreGate struct {
	settings repository.SettingsStore
}

// NewStoreGate creates a gate backed by the settings store.
func NewStoreGate(settings repository.SettingsStore) *StoreGate {
	return &StoreGate{settings: settings}
}

func (g *StoreGate) Enabled(ctx context.Context) (bool, error) {
	enabled, err := g.settings.GetBool(ctx, SettingKey)
	if err != nil {
		return false, fmt.Errorf("read maintenance mode: %w", err)
	}
	return enabled, nil
}

func (g *StoreGate) Set(ctx context.Context, enabled bool) error {
	if err := g.settings.SetBool(ctx, SettingKey, enabled); err != nil {
		return fmt.Errorf("set maintenance mode: %w", err)
	}
	observe(enabled)
	return nil
}

// RedisGate keeps the flag in a Redis key so every API and scheduler
// process sees a change immediately.
type RedisGate struct {
	client *redis.Client
	key    string
}

// NewRedisGate creates a gate on the given client. An empty prefix uses "leadpool".
func NewRedisGate(client *redis.Client, prefix string) *RedisGate {
	if prefix == "" {
		prefix = "leadpool"
	}
	return &RedisGate{client: client, key: prefix + ":" + SettingKey}
}

func (g *RedisGate) Enabled(ctx context.Context) (bool, error) {
	value, err := g.client.Get(ctx, g.key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read maintenance mode: %w", err)
	}
	return value == "1", nil
}

func (g *RedisGate) Set(ctx context.Context, enabled bool) error {
	value := "0"
	if enabled {
		value = "1"
	}
	if err := g.client.Set(ctx, g.key, value, 0).Err(); err != nil {
		return fmt.Errorf("set maintenance mode: %w", err)
	}
	observe(enabled)
	return nil
}

func observe(enabled bool) {
	if enabled {
		metrics.MaintenanceMode.Set(1)
		return
	}
	metrics.MaintenanceMode.Set(0)
}
