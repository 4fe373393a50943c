package scheduler

import (
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistributeLeadsTaskRoundTrip(t *testing.T) {
	task, err := NewDistributeLeadsTask(DistributeLeadsPayload{Force: true, Mode: "rotate", RequestedBy: "cli"})
	require.NoError(t, err)
	assert.Equal(t, TaskDistributeLeads, task.Type())

	payload, err := ParseDistributeLeadsPayload(task)
	require.NoError(t, err)
	assert.True(t, payload.Force)
	assert.Equal(t, "rotate", payload.Mode)
	assert.Equal(t, "cli", payload.RequestedBy)
}

func TestParseDistributeLeadsPayloadRejectsGarbage(t *testing.T) {
	_, err := ParseDistributeLeadsPayload(asynq.NewTask(TaskDistributeLeads, []byte("{")))
	require.Error(t, err)
}

func TestUnlockStaleLeadsTaskRoundTrip(t *testing.T) {
	task, err := NewUnlockStaleLeadsTask(UnlockStaleLeadsPayload{OlderThanSeconds: 1800})
	require.NoError(t, err)

	payload, err := ParseUnlockStaleLeadsPayload(task)
	require.NoError(t, err)
	assert.Equal(t, int64(1800), payload.OlderThanSeconds)
}

func TestRedisClientOpt(t *testing.T) {
	opt, err := redisClientOpt("redis://:secret@localhost:6380/2", false)
	require.NoError(t, err)
	assert.Equal(t, "localhost:6380", opt.Addr)
	assert.Equal(t, "secret", opt.Password)
	assert.Equal(t, 2, opt.DB)
	assert.Nil(t, opt.TLSConfig)

	opt, err = redisClientOpt("rediss://localhost:6380", true)
	require.NoError(t, err)
	require.NotNil(t, opt.TLSConfig)
	assert.True(t, opt.TLSConfig.InsecureSkipVerify)
}
