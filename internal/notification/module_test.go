package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"leadpool_backend/internal/events"
	"leadpool_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleWritesAuditEntry(t *testing.T) {
	var buf bytes.Buffer
	m := New(logger.NewWithWriter("production", &buf))

	actor := uuid.New()
	err := m.Handle(context.Background(), events.MaintenanceModeChanged{
		BaseEvent: events.NewBaseEvent(),
		Enabled:   true,
		ActorID:   actor,
	})
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "maintenance mode changed", entry["msg"])
	assert.Equal(t, "audit", entry["component"])
	assert.Equal(t, true, entry["enabled"])
	assert.Equal(t, actor.String(), entry["actorId"])
}

func TestRegisterHandlersReceivesPublishedEvents(t *testing.T) {
	var buf bytes.Buffer
	bus := events.NewInMemoryBus(logger.Nop())
	New(logger.NewWithWriter("production", &buf)).RegisterHandlers(bus)

	err := bus.PublishSync(context.Background(), events.PoolCleaned{
		BaseEvent: events.NewBaseEvent(),
		Scanned:   10,
		Removed:   2,
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"msg":"pool cleaned"`)
	assert.Contains(t, buf.String(), `"removed":2`)
}
