package recall

import (
	"context"
	"testing"
	"time"

	"leadpool_backend/internal/leadpool/domain"
	"leadpool_backend/internal/leadpool/inventory"
	"leadpool_backend/internal/leadpool/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, store *repository.Memory, n int) []uuid.UUID {
	t.Helper()
	ids := make([]uuid.UUID, n)
	leads := make([]domain.Lead, n)
	for i := range leads {
		ids[i] = uuid.New()
		leads[i] = domain.Lead{ID: ids[i], Email: uuid.NewString() + "@mail.io", CreatedAt: time.Now().Add(time.Duration(i) * time.Second)}
	}
	_, err := store.InsertLeads(context.Background(), leads)
	require.NoError(t, err)
	return ids
}

func distribute(t *testing.T, store *repository.Memory, tenantID uuid.UUID, ids []uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	now := time.Now()
	_, err := store.ClaimMany(ctx, ids, tenantID, now)
	require.NoError(t, err)
	copies := make([]domain.TenantLeadCopy, len(ids))
	for i, id := range ids {
		lead, err := store.GetLead(ctx, id)
		require.NoError(t, err)
		copies[i] = domain.NewPlatformCopy(lead, tenantID, now)
	}
	_, err = store.CommitDistribution(ctx, tenantID, copies, now)
	require.NoError(t, err)
}

func TestRecallAllIsReversible(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemory()
	ids := seed(t, store, 9)
	a, b := uuid.New(), uuid.New()
	distribute(t, store, a, ids[:4])
	distribute(t, store, b, ids[4:7])
	store.AddCopy(domain.TenantLeadCopy{TenantID: a, Email: "mine@upload.io", SourceType: domain.SourcePrivateUpload})

	before, err := store.CountByState(ctx)
	require.NoError(t, err)

	engine := NewEngine(inventory.New(store, nil, inventory.WithBatchSize(2)), store, nil)
	report, err := engine.RecallAll(ctx)
	require.NoError(t, err)

	assert.Equal(t, 7, report.DeletedCount)
	assert.Equal(t, 7, report.UnlockedCount)
	assert.Equal(t, 4, report.Batches)

	after, err := store.CountByState(ctx)
	require.NoError(t, err)
	assert.Equal(t, before.Available+before.Distributed, after.Available)
	assert.Zero(t, after.Distributed)

	copies, err := store.CountCopiesBySource(ctx)
	require.NoError(t, err)
	assert.Zero(t, copies.Platform)
	assert.Equal(t, 1, copies.Private, "private uploads survive a recall")
}

func TestForceUnlockAllLeavesCopiesAlone(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemory()
	ids := seed(t, store, 5)
	tenant := uuid.New()
	distribute(t, store, tenant, ids[:2])
	_, err := store.ClaimMany(ctx, ids[2:5], tenant, time.Now())
	require.NoError(t, err)

	engine := NewEngine(inventory.New(store, nil, inventory.WithBatchSize(2)), store, nil)
	report, err := engine.ForceUnlockAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, report.UnlockedCount)
	assert.Equal(t, 2, report.Batches)
	assert.Contains(t, report.Message, "3")

	counts, err := store.CountByState(ctx)
	require.NoError(t, err)
	assert.Zero(t, counts.Locked)
	assert.Equal(t, 2, counts.Distributed)
	assert.Len(t, store.Copies(tenant), 2)
}

func TestUnlockStaleOnlyResetsOldLocks(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemory()
	ids := seed(t, store, 3)
	tenant := uuid.New()
	_, err := store.ClaimMany(ctx, ids[:2], tenant, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)
	_, err = store.ClaimMany(ctx, ids[2:], tenant, time.Now())
	require.NoError(t, err)

	engine := NewEngine(inventory.New(store, nil), store, nil)
	report, err := engine.UnlockStale(ctx, 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 2, report.UnlockedCount)

	lead, err := store.GetLead(ctx, ids[2])
	require.NoError(t, err)
	assert.Equal(t, domain.OwnershipLocked, lead.Ownership.State)
}
