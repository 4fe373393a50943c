package inventory

import (
	"context"
	"errors"
	"testing"
	"time"

	"leadpool_backend/internal/leadpool/domain"
	"leadpool_backend/internal/leadpool/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, store *repository.Memory, n int) []domain.Lead {
	t.Helper()
	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	leads := make([]domain.Lead, n)
	for i := range leads {
		leads[i] = domain.Lead{ID: uuid.New(), Email: uuid.NewString() + "@mail.io", CreatedAt: base.Add(time.Duration(i) * time.Second)}
	}
	_, err := store.InsertLeads(context.Background(), leads)
	require.NoError(t, err)
	return leads
}

func collect(t *testing.T, m *Manager, limit int) []domain.Lead {
	t.Helper()
	var out []domain.Lead
	for lead, err := range m.ListAvailable(context.Background(), limit, nil) {
		require.NoError(t, err)
		out = append(out, lead)
	}
	return out
}

func TestListAvailableSpansPagesInOrder(t *testing.T) {
	store := repository.NewMemory()
	leads := seed(t, store, 7)
	m := New(store, nil, WithPageSize(3))

	got := collect(t, m, 0)
	require.Len(t, got, 7)
	for i := range leads {
		assert.Equal(t, leads[i].ID, got[i].ID)
	}
}

func TestListAvailableRespectsLimit(t *testing.T) {
	store := repository.NewMemory()
	seed(t, store, 7)
	m := New(store, nil, WithPageSize(3))

	assert.Len(t, collect(t, m, 4), 4)
}

func TestListAvailableDoesNotSkipWhenEarlierLeadsAreClaimed(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemory()
	leads := seed(t, store, 6)
	m := New(store, nil, WithPageSize(2))

	var seen []uuid.UUID
	for lead, err := range m.ListAvailable(ctx, 0, nil) {
		require.NoError(t, err)
		seen = append(seen, lead.ID)
		// Another run claims the lead right after we see it.
		_, err = store.ClaimMany(ctx, []uuid.UUID{lead.ID}, uuid.New(), time.Now())
		require.NoError(t, err)
	}
	assert.Len(t, seen, len(leads))
}

func TestListAvailableStopsOnCancelledContext(t *testing.T) {
	store := repository.NewMemory()
	seed(t, store, 2)
	m := New(store, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var gotErr error
	for _, err := range m.ListAvailable(ctx, 0, nil) {
		gotErr = err
	}
	assert.True(t, errors.Is(gotErr, context.Canceled))
}

func TestClaimLosesToEarlierClaim(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemory()
	leads := seed(t, store, 1)
	m := New(store, nil)

	ok, err := m.Claim(ctx, leads[0].ID, uuid.New())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.Claim(ctx, leads[0].ID, uuid.New())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMarkDistributedRequiresOwner(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemory()
	leads := seed(t, store, 1)
	m := New(store, nil)
	owner := uuid.New()

	_, err := m.Claim(ctx, leads[0].ID, owner)
	require.NoError(t, err)

	ok, err := m.MarkDistributed(ctx, leads[0].ID, uuid.New())
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = m.MarkDistributed(ctx, leads[0].ID, owner)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestBatches(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7}
	got := Batches(items, 3)
	assert.Equal(t, [][]int{{1, 2, 3}, {4, 5, 6}, {7}}, got)
	assert.Empty(t, Batches([]int{}, 3))
}

func TestClampBatchSize(t *testing.T) {
	assert.Equal(t, DefaultBatchSize, ClampBatchSize(0))
	assert.Equal(t, 1, ClampBatchSize(1))
	assert.Equal(t, MaxBatchSize, ClampBatchSize(5000))
}

func TestResetToAvailableFreesAnyState(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemory()
	leads := seed(t, store, 3)
	m := New(store, nil, WithBatchSize(2))
	tenant := uuid.New()

	_, err := m.ClaimMany(ctx, []uuid.UUID{leads[0].ID, leads[1].ID}, tenant)
	require.NoError(t, err)
	_, err = m.MarkDistributed(ctx, leads[1].ID, tenant)
	require.NoError(t, err)

	n, err := m.ResetToAvailable(ctx, []uuid.UUID{leads[0].ID, leads[1].ID, leads[2].ID})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	counts, err := m.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, counts.Unowned)
}

func TestReleaseClaimsOnlyTouchesOwnLocks(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemory()
	leads := seed(t, store, 2)
	m := New(store, nil)
	mine, theirs := uuid.New(), uuid.New()

	_, err := m.ClaimMany(ctx, []uuid.UUID{leads[0].ID}, mine)
	require.NoError(t, err)
	_, err = m.ClaimMany(ctx, []uuid.UUID{leads[1].ID}, theirs)
	require.NoError(t, err)

	n, err := m.ReleaseClaims(ctx, []uuid.UUID{leads[0].ID, leads[1].ID}, mine)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	lead, err := store.GetLead(ctx, leads[1].ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OwnershipLocked, lead.Ownership.State)
}

type flagCountingStore struct {
	*repository.Memory
	sizes []int
}

func (s *flagCountingStore) UpdateFlags(ctx context.Context, flags map[uuid.UUID]domain.Flags) error {
	s.sizes = append(s.sizes, len(flags))
	return s.Memory.UpdateFlags(ctx, flags)
}

func TestUpdateFlagsWritesInBoundedBatches(t *testing.T) {
	ctx := context.Background()
	store := &flagCountingStore{Memory: repository.NewMemory()}
	leads := seed(t, store.Memory, 1000)
	m := New(store, nil, WithBatchSize(300))

	flags := make(map[uuid.UUID]domain.Flags, len(leads))
	for _, lead := range leads {
		flags[lead.ID] = domain.NewFlags(domain.FlagShortPhone)
	}
	require.NoError(t, m.UpdateFlags(ctx, flags))
	assert.Equal(t, []int{300, 300, 300, 100}, store.sizes)

	stored, err := store.GetLead(ctx, leads[999].ID)
	require.NoError(t, err)
	assert.True(t, stored.QualityFlags.HasAny(domain.FlagShortPhone))
}

func TestUpdateFlagsSkipsEmptyInput(t *testing.T) {
	store := &flagCountingStore{Memory: repository.NewMemory()}
	m := New(store, nil)

	require.NoError(t, m.UpdateFlags(context.Background(), nil))
	assert.Empty(t, store.sizes)
}
