// Package cleanup purges low-quality leads from the unowned pool.
package cleanup

import (
	"context"
	"fmt"
	"time"

	"leadpool_backend/internal/leadpool/domain"
	"leadpool_backend/internal/leadpool/inventory"
	"leadpool_backend/internal/leadpool/maintenance"
	"leadpool_backend/internal/leadpool/metrics"
	"leadpool_backend/internal/leadpool/quality"
	"leadpool_backend/platform/logger"

	"github.com/google/uuid"
)

// Stats counts scanned leads per flag. A lead with several flags is
// counted under each of them.
type Stats struct {
	MissingContact    int `json:"missingContact"`
	TestData          int `json:"testData"`
	MissingNames      int `json:"missingNames"`
	PlaceholderEmails int `json:"placeholderEmails"`
	ShortPhones       int `json:"shortPhones"`
	DuplicatePhones   int `json:"duplicatePhones"`
}

func (s *Stats) add(flags domain.Flags) {
	for flag := range flags {
		switch flag {
		case domain.FlagMissingContact:
			s.MissingContact++
		case domain.FlagTestData:
			s.TestData++
		case domain.FlagMissingName:
			s.MissingNames++
		case domain.FlagPlaceholderEmail:
			s.PlaceholderEmails++
		case domain.FlagShortPhone:
			s.ShortPhones++
		case domain.FlagDuplicatePhone:
			s.DuplicatePhones++
		}
	}
}

// Report is the result of a cleanup pass.
type Report struct {
	Outcome domain.Outcome `json:"outcome"`
	Message string         `json:"message"`
	Stats   Stats          `json:"stats"`
	Scanned int            `json:"scanned"`
	Removed int            `json:"removed"`
	Flagged int            `json:"flagged"`
}

// Engine runs cleanup passes.
type Engine struct {
	inv        *inventory.Manager
	gate       maintenance.Gate
	classifier *quality.Classifier
	quarantine Quarantine
	purgeSoft  bool
	log        *logger.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithQuarantine archives every delete batch before it is removed.
func WithQuarantine(q Quarantine) Option {
	return func(e *Engine) {
		if q != nil {
			e.quarantine = q
		}
	}
}

// WithPurgeSoftFlags also removes leads that carry only soft flags.
func WithPurgeSoftFlags(purge bool) Option {
	return func(e *Engine) { e.purgeSoft = purge }
}

// NewEngine creates an Engine.
func NewEngine(inv *inventory.Manager, gate maintenance.Gate, classifier *quality.Classifier, log *logger.Logger, opts ...Option) *Engine {
	if log == nil {
		log = logger.Nop()
	}
	if classifier == nil {
		classifier = quality.Default()
	}
	e := &Engine{
		inv:        inv,
		gate:       gate,
		classifier: classifier,
		quarantine: NopQuarantine{},
		log:        log.WithComponent("cleanup"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CleanupBad classifies every unowned lead, removes the ones that fail and
// stores the fresh flags on the ones that stay. Locked and distributed
// leads are never touched.
func (e *Engine) CleanupBad(ctx context.Context) (Report, error) {
	start := time.Now()
	defer func() { metrics.OperationDuration.WithLabelValues("cleanup").Observe(time.Since(start).Seconds()) }()

	paused, err := e.gate.Enabled(ctx)
	if err != nil {
		return Report{}, err
	}
	if paused {
		e.log.Info("cleanup paused by maintenance mode")
		return Report{Outcome: domain.OutcomeMaintenancePaused, Message: "Cleanup skipped: maintenance mode is enabled"}, nil
	}

	var leads []domain.Lead
	for lead, err := range e.inv.ListAvailable(ctx, 0, []domain.Flag{}) {
		if err != nil {
			return Report{}, fmt.Errorf("scan pool: %w", err)
		}
		leads = append(leads, lead)
	}

	report := Report{Outcome: domain.OutcomeCompleted, Scanned: len(leads)}
	flags := e.classifier.ClassifyBatch(leads)

	var (
		doomed  []domain.Lead
		changed = make(map[uuid.UUID]domain.Flags)
	)
	for _, lead := range leads {
		set := flags[lead.ID]
		report.Stats.add(set)
		for flag := range set {
			metrics.LeadsFlagged.WithLabelValues(string(flag)).Inc()
		}

		if e.shouldRemove(set) {
			doomed = append(doomed, lead)
			continue
		}
		if !set.Equal(lead.QualityFlags) {
			changed[lead.ID] = set
		}
	}

	if err := e.inv.UpdateFlags(ctx, changed); err != nil {
		return report, fmt.Errorf("store quality flags: %w", err)
	}
	report.Flagged = len(changed)

	for _, batch := range inventory.Batches(doomed, e.inv.BatchSize()) {
		if err := ctx.Err(); err != nil {
			report.Outcome = domain.OutcomePartial
			report.Message = e.message(report)
			return report, err
		}

		if err := e.quarantine.Archive(ctx, batch, flags); err != nil {
			report.Outcome = domain.OutcomePartial
			report.Message = e.message(report)
			return report, err
		}

		ids := make([]uuid.UUID, len(batch))
		for i, lead := range batch {
			ids[i] = lead.ID
		}
		removed, err := e.inv.Remove(ctx, ids)
		report.Removed += removed
		metrics.LeadsRemoved.Add(float64(removed))
		if err != nil {
			report.Outcome = domain.OutcomePartial
			report.Message = e.message(report)
			return report, fmt.Errorf("remove leads: %w", err)
		}
	}

	report.Message = e.message(report)
	e.log.Info("pool cleanup finished",
		"scanned", report.Scanned, "removed", report.Removed, "reflagged", report.Flagged, "purgeSoft", e.purgeSoft)
	return report, nil
}

func (e *Engine) shouldRemove(flags domain.Flags) bool {
	if flags.HasHardFail() {
		return true
	}
	return e.purgeSoft && len(flags) > 0
}

func (e *Engine) message(r Report) string {
	return fmt.Sprintf("Removed %d bad leads out of %d scanned", r.Removed, r.Scanned)
}
