package maintenance

import (
	"context"
	"testing"

	"leadpool_backend/internal/leadpool/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseGate(t *testing.T, gate Gate) {
	t.Helper()
	ctx := context.Background()

	enabled, err := gate.Enabled(ctx)
	require.NoError(t, err)
	assert.False(t, enabled, "unset flag reads as disabled")

	require.NoError(t, gate.Set(ctx, true))
	enabled, err = gate.Enabled(ctx)
	require.NoError(t, err)
	assert.True(t, enabled)

	require.NoError(t, gate.Set(ctx, false))
	enabled, err = gate.Enabled(ctx)
	require.NoError(t, err)
	assert.False(t, enabled)
}

func TestStoreGate(t *testing.T) {
	exerciseGate(t, NewStoreGate(repository.NewMemory()))
}

func TestRedisGate(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	gate := NewRedisGate(client, "")
	exerciseGate(t, gate)

	require.NoError(t, gate.Set(context.Background(), true))
	value, err := mr.Get("leadpool:maintenance_mode")
	require.NoError(t, err)
	assert.Equal(t, "1", value)
}

func TestRedisGateUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	_, err := NewRedisGate(client, "").Enabled(context.Background())
	assert.Error(t, err)
}
