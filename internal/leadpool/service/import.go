package service

import (
	"context"
	"strings"

	"leadpool_backend/internal/events"
	"leadpool_backend/internal/leadpool/domain"
	"leadpool_backend/internal/leadpool/transport"
	"leadpool_backend/platform/sanitize"

	"github.com/google/uuid"
)

// ImportLeads adds new unowned leads to the pool. Contact fields are
// cleaned, phones normalized and quality flags computed on the way in, so
// unsellable leads are stored but never selected.
func (s *Service) ImportLeads(ctx context.Context, req transport.ImportLeadsRequest) (transport.ImportLeadsResponse, error) {
	now := s.inv.Now()
	leads := make([]domain.Lead, len(req.Leads))
	for i, in := range req.Leads {
		leads[i] = domain.Lead{
			ID:              uuid.New(),
			FirstName:       sanitize.Text(in.FirstName),
			LastName:        sanitize.Text(in.LastName),
			Email:           sanitize.Email(in.Email),
			Phone:           strings.TrimSpace(in.Phone),
			NormalizedPhone: s.phones.Digits(in.Phone),
			City:            sanitize.Text(in.City),
			State:           sanitize.Text(in.State),
			DriverType:      sanitize.Text(in.DriverType),
			ExperienceYears: in.ExperienceYears,
			Ownership:       domain.Unowned(),
			CreatedAt:       now,
			UpdatedAt:       now,
		}
	}

	resp := transport.ImportLeadsResponse{Received: len(leads)}
	flags := s.classifier.ClassifyBatch(leads)
	for i := range leads {
		set := flags[leads[i].ID]
		leads[i].QualityFlags = set
		if len(set) > 0 {
			resp.Flagged++
		}
		if set.HasHardFail() {
			resp.Unsellable++
		}
	}

	inserted, err := s.inv.Insert(ctx, leads)
	resp.Inserted = inserted
	if err != nil {
		return resp, s.storeError("import leads", err)
	}

	s.log.Info("pool leads imported", "received", resp.Received, "inserted", inserted, "flagged", resp.Flagged)
	s.publish(ctx, events.LeadsImported{
		BaseEvent: events.NewBaseEvent(),
		Received:  resp.Received,
		Inserted:  inserted,
	})
	return resp, nil
}
