package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"leadpool_backend/internal/leadpool/transport"
	"leadpool_backend/platform/apperr"
	"leadpool_backend/platform/logger"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePool struct {
	distributeCalls []DistributeLeadsPayload
	distributeErr   error
	unlockCalls     []time.Duration
	unlockErr       error
	unlocked        int
}

func (f *fakePool) DistributeDailyLeads(_ context.Context, force bool, mode string) (transport.DistributeResponse, error) {
	f.distributeCalls = append(f.distributeCalls, DistributeLeadsPayload{Force: force, Mode: mode})
	if f.distributeErr != nil {
		return transport.DistributeResponse{}, f.distributeErr
	}
	return transport.DistributeResponse{Outcome: "success", TotalAllocated: 3}, nil
}

func (f *fakePool) UnlockStale(_ context.Context, olderThan time.Duration) (transport.UnlockResponse, error) {
	f.unlockCalls = append(f.unlockCalls, olderThan)
	if f.unlockErr != nil {
		return transport.UnlockResponse{}, f.unlockErr
	}
	return transport.UnlockResponse{UnlockedCount: f.unlocked}, nil
}

func TestWorkerDistributesWithPayloadFlags(t *testing.T) {
	pool := &fakePool{}
	w := newWorker(pool, logger.Nop())

	task, err := NewDistributeLeadsTask(DistributeLeadsPayload{Force: true, Mode: "top_up"})
	require.NoError(t, err)

	require.NoError(t, w.mux.ProcessTask(context.Background(), task))
	require.Len(t, pool.distributeCalls, 1)
	assert.True(t, pool.distributeCalls[0].Force)
	assert.Equal(t, "top_up", pool.distributeCalls[0].Mode)
}

func TestWorkerSkipsRetryOnValidationError(t *testing.T) {
	pool := &fakePool{distributeErr: apperr.Validation("daily quota must not be negative")}
	w := newWorker(pool, logger.Nop())

	task, err := NewDistributeLeadsTask(DistributeLeadsPayload{})
	require.NoError(t, err)

	err = w.mux.ProcessTask(context.Background(), task)
	require.Error(t, err)
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}

func TestWorkerReturnsStoreErrors(t *testing.T) {
	storeErr := apperr.Unavailable("lead store unavailable", errors.New("conn refused"))
	w := newWorker(&fakePool{distributeErr: storeErr}, logger.Nop())

	task, err := NewDistributeLeadsTask(DistributeLeadsPayload{})
	require.NoError(t, err)

	err = w.mux.ProcessTask(context.Background(), task)
	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
}

func TestWorkerUnlocksStaleLeads(t *testing.T) {
	pool := &fakePool{}
	w := newWorker(pool, logger.Nop())

	task, err := NewUnlockStaleLeadsTask(UnlockStaleLeadsPayload{OlderThanSeconds: 60})
	require.NoError(t, err)

	require.NoError(t, w.mux.ProcessTask(context.Background(), task))
	assert.Equal(t, []time.Duration{time.Minute}, pool.unlockCalls)
}

func TestWorkerRejectsNonPositiveUnlockAge(t *testing.T) {
	pool := &fakePool{}
	w := newWorker(pool, logger.Nop())

	task, err := NewUnlockStaleLeadsTask(UnlockStaleLeadsPayload{})
	require.NoError(t, err)

	err = w.mux.ProcessTask(context.Background(), task)
	require.Error(t, err)
	assert.True(t, errors.Is(err, asynq.SkipRetry))
	assert.Empty(t, pool.unlockCalls)
}

func TestStaleLockSweeperUsesTTL(t *testing.T) {
	pool := &fakePool{unlocked: 4}
	s := NewStaleLockSweeper(pool, logger.Nop(), time.Minute, 45*time.Minute)

	s.sweep(context.Background())
	assert.Equal(t, []time.Duration{45 * time.Minute}, pool.unlockCalls)
}

func TestStaleLockSweeperDefaultsAndStopsOnCancel(t *testing.T) {
	pool := &fakePool{unlockErr: errors.New("boom")}
	s := NewStaleLockSweeper(pool, logger.Nop(), 0, 0)
	assert.Equal(t, defaultStaleLockSweepInterval, s.interval)
	assert.Equal(t, defaultStaleLockTTL, s.ttl)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Run(ctx)
	assert.Len(t, pool.unlockCalls, 1)
}
