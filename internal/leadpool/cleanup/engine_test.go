package cleanup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"leadpool_backend/internal/leadpool/domain"
	"leadpool_backend/internal/leadpool/inventory"
	"leadpool_backend/internal/leadpool/maintenance"
	"leadpool_backend/internal/leadpool/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

func goodLead(i int) domain.Lead {
	phone := fmt.Sprintf("555200%04d", i)
	return domain.Lead{
		ID:              uuid.New(),
		FirstName:       "Driver",
		LastName:        fmt.Sprintf("Number%d", i),
		Email:           fmt.Sprintf("driver%d@haulers.io", i),
		Phone:           phone,
		NormalizedPhone: phone,
		CreatedAt:       base.Add(time.Duration(i) * time.Minute),
	}
}

type recordingQuarantine struct {
	batches [][]domain.Lead
	err     error
}

func (q *recordingQuarantine) Archive(_ context.Context, leads []domain.Lead, _ map[uuid.UUID]domain.Flags) error {
	if q.err != nil {
		return q.err
	}
	q.batches = append(q.batches, leads)
	return nil
}

func newEngine(store *repository.Memory, opts ...Option) *Engine {
	inv := inventory.New(store, nil)
	return NewEngine(inv, maintenance.NewStoreGate(store), nil, nil, opts...)
}

func TestCleanupRemovesMissingContactLeads(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemory()

	leads := make([]domain.Lead, 10)
	for i := range leads {
		leads[i] = goodLead(i)
	}
	leads[3].Email, leads[3].Phone, leads[3].NormalizedPhone = "", "", ""
	leads[7].Email, leads[7].Phone, leads[7].NormalizedPhone = "", "", ""
	_, err := store.InsertLeads(ctx, leads)
	require.NoError(t, err)

	q := &recordingQuarantine{}
	report, err := newEngine(store, WithQuarantine(q)).CleanupBad(ctx)
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeCompleted, report.Outcome)
	assert.Equal(t, 10, report.Scanned)
	assert.Equal(t, 2, report.Removed)
	assert.Equal(t, 2, report.Stats.MissingContact)
	assert.Zero(t, report.Stats.TestData)
	require.Len(t, q.batches, 1)
	assert.Len(t, q.batches[0], 2)

	counts, err := store.CountByState(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, counts.Total)

	_, err = store.GetLead(ctx, leads[3].ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCleanupKeepsSoftFlaggedLeadsAndStoresFlags(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemory()

	first := goodLead(1)
	dup := goodLead(2)
	dup.Phone, dup.NormalizedPhone = first.Phone, first.NormalizedPhone
	_, err := store.InsertLeads(ctx, []domain.Lead{first, dup})
	require.NoError(t, err)

	report, err := newEngine(store).CleanupBad(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.Removed)
	assert.Equal(t, 1, report.Stats.DuplicatePhones)
	assert.Equal(t, 1, report.Flagged)

	stored, err := store.GetLead(ctx, dup.ID)
	require.NoError(t, err)
	assert.True(t, stored.QualityFlags.Has(domain.FlagDuplicatePhone))

	original, err := store.GetLead(ctx, first.ID)
	require.NoError(t, err)
	assert.Empty(t, original.QualityFlags)
}

func TestCleanupPurgesSoftFlagsWhenConfigured(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemory()

	first := goodLead(1)
	dup := goodLead(2)
	dup.Phone, dup.NormalizedPhone = first.Phone, first.NormalizedPhone
	_, err := store.InsertLeads(ctx, []domain.Lead{first, dup})
	require.NoError(t, err)

	report, err := newEngine(store, WithPurgeSoftFlags(true)).CleanupBad(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Removed)

	_, err = store.GetLead(ctx, first.ID)
	assert.NoError(t, err, "the canonical duplicate survives")
}

func TestCleanupNeverTouchesOwnedLeads(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemory()

	bad := goodLead(1)
	bad.FirstName = "Test"
	_, err := store.InsertLeads(ctx, []domain.Lead{bad})
	require.NoError(t, err)
	_, err = store.ClaimMany(ctx, []uuid.UUID{bad.ID}, uuid.New(), base)
	require.NoError(t, err)

	report, err := newEngine(store).CleanupBad(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.Scanned)
	assert.Zero(t, report.Removed)

	_, err = store.GetLead(ctx, bad.ID)
	assert.NoError(t, err)
}

func TestCleanupPausedByMaintenance(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemory()
	bad := goodLead(1)
	bad.Email, bad.Phone, bad.NormalizedPhone = "", "", ""
	_, err := store.InsertLeads(ctx, []domain.Lead{bad})
	require.NoError(t, err)
	require.NoError(t, store.SetBool(ctx, maintenance.SettingKey, true))

	report, err := newEngine(store).CleanupBad(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeMaintenancePaused, report.Outcome)

	_, err = store.GetLead(ctx, bad.ID)
	assert.NoError(t, err)
}

func TestCleanupStopsWhenArchiveFails(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemory()
	bad := goodLead(1)
	bad.Email, bad.Phone, bad.NormalizedPhone = "", "", ""
	_, err := store.InsertLeads(ctx, []domain.Lead{bad})
	require.NoError(t, err)

	q := &recordingQuarantine{err: errors.New("bucket unreachable")}
	report, err := newEngine(store, WithQuarantine(q)).CleanupBad(ctx)
	require.Error(t, err)
	assert.Equal(t, domain.OutcomePartial, report.Outcome)
	assert.Zero(t, report.Removed)

	_, err = store.GetLead(ctx, bad.ID)
	assert.NoError(t, err, "nothing is deleted without an archive copy")
}

type memoryObjects struct {
	objects map[string][]byte
}

func (m *memoryObjects) PutObject(_ context.Context, bucket, key, _ string, reader io.Reader, _ int64) error {
	body, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	m.objects[bucket+"/"+key] = body
	return nil
}

func (m *memoryObjects) EnsureBucketExists(context.Context, string) error { return nil }

func TestObjectQuarantineWritesJSONBatch(t *testing.T) {
	objects := &memoryObjects{objects: map[string][]byte{}}
	q := NewObjectQuarantine(objects, "quarantine")
	q.now = func() time.Time { return base }

	lead := goodLead(4)
	flags := map[uuid.UUID]domain.Flags{lead.ID: domain.NewFlags(domain.FlagTestData)}
	require.NoError(t, q.Archive(context.Background(), []domain.Lead{lead}, flags))

	require.Len(t, objects.objects, 1)
	for key, body := range objects.objects {
		assert.Contains(t, key, "quarantine/cleanup/2026/03/01/")

		var batch archiveBatch
		require.NoError(t, json.Unmarshal(body, &batch))
		assert.Equal(t, 1, batch.Count)
		assert.Equal(t, lead.ID, batch.Leads[0].ID)
		assert.Equal(t, []string{"test_data"}, batch.Leads[0].QualityFlags)
	}
}
