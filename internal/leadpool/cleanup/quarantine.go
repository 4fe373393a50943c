package cleanup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"leadpool_backend/internal/adapters/storage"
	"leadpool_backend/internal/leadpool/domain"

	"github.com/google/uuid"
)

// Quarantine keeps a copy of leads that are about to be removed.
type Quarantine interface {
	Archive(ctx context.Context, leads []domain.Lead, flags map[uuid.UUID]domain.Flags) error
}

// NopQuarantine archives nothing.
type NopQuarantine struct{}

func (NopQuarantine) Archive(context.Context, []domain.Lead, map[uuid.UUID]domain.Flags) error {
	return nil
}

type archivedLead struct {
	ID              uuid.UUID `json:"id"`
	FirstName       string    `json:"firstName"`
	LastName        string    `json:"lastName"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone"`
	NormalizedPhone string    `json:"normalizedPhone"`
	City            string    `json:"city"`
	State           string    `json:"state"`
	DriverType      string    `json:"driverType"`
	ExperienceYears int       `json:"experienceYears"`
	QualityFlags    []string  `json:"qualityFlags"`
	CreatedAt       time.Time `json:"createdAt"`
}

type archiveBatch struct {
	ArchivedAt time.Time      `json:"archivedAt"`
	Count      int            `json:"count"`
	Leads      []archivedLead `json:"leads"`
}

// ObjectQuarantine writes each batch as one JSON object to a bucket.
type ObjectQuarantine struct {
	store  storage.ObjectStore
	bucket string
	now    func() time.Time
}

// NewObjectQuarantine creates a quarantine on the given bucket.
func NewObjectQuarantine(store storage.ObjectStore, bucket string) *ObjectQuarantine {
	return &ObjectQuarantine{store: store, bucket: bucket, now: time.Now}
}

// Archive uploads the batch under cleanup/YYYY/MM/DD/.
func (q *ObjectQuarantine) Archive(ctx context.Context, leads []domain.Lead, flags map[uuid.UUID]domain.Flags) error {
	if len(leads) == 0 {
		return nil
	}

	now := q.now().UTC()
	batch := archiveBatch{ArchivedAt: now, Count: len(leads), Leads: make([]archivedLead, len(leads))}
	for i, lead := range leads {
		batch.Leads[i] = archivedLead{
			ID:              lead.ID,
			FirstName:       lead.FirstName,
			LastName:        lead.LastName,
			Email:           lead.Email,
			Phone:           lead.Phone,
			NormalizedPhone: lead.NormalizedPhone,
			City:            lead.City,
			State:           lead.State,
			DriverType:      lead.DriverType,
			ExperienceYears: lead.ExperienceYears,
			QualityFlags:    flags[lead.ID].Strings(),
			CreatedAt:       lead.CreatedAt,
		}
	}

	body, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("encode quarantine batch: %w", err)
	}

	key := fmt.Sprintf("cleanup/%s/%s-%s.json", now.Format("2006/01/02"), now.Format("150405"), uuid.NewString()[:8])
	if err := q.store.PutObject(ctx, q.bucket, key, "application/json", bytes.NewReader(body), int64(len(body))); err != nil {
		return fmt.Errorf("archive %d leads: %w", len(leads), err)
	}
	return nil
}
