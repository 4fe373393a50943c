// Package allocation distributes pool leads to due tenants.
//
// Every lead reaches a tenant through a conditional claim followed by a
// transactional commit, so concurrent runs (a scheduled pass and a forced
// one, or several API replicas) never hand one lead to two tenants.
package allocation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"leadpool_backend/internal/leadpool/domain"
	"leadpool_backend/internal/leadpool/inventory"
	"leadpool_backend/internal/leadpool/maintenance"
	"leadpool_backend/internal/leadpool/metrics"
	"leadpool_backend/internal/leadpool/quality"
	"leadpool_backend/internal/leadpool/quota"
	"leadpool_backend/internal/leadpool/repository"
	"leadpool_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is how many tenants are served at once.
const DefaultConcurrency = 4

// Options select the distribution mode for one run.
type Options struct {
	Mode  domain.Mode
	Force bool
}

// Stores are the Lead Store slices the engine writes to besides the inventory.
type Stores interface {
	repository.CopyStore
	repository.TenantStore
}

// Engine runs distribution passes.
type Engine struct {
	inv         *inventory.Manager
	store       Stores
	gate        maintenance.Gate
	classifier  *quality.Classifier
	log         *logger.Logger
	concurrency int
}

// NewEngine creates an Engine. concurrency <= 0 uses DefaultConcurrency.
func NewEngine(inv *inventory.Manager, store Stores, gate maintenance.Gate, classifier *quality.Classifier, log *logger.Logger, concurrency int) *Engine {
	if log == nil {
		log = logger.Nop()
	}
	if classifier == nil {
		classifier = quality.Default()
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Engine{
		inv:         inv,
		store:       store,
		gate:        gate,
		classifier:  classifier,
		log:         log.WithComponent("allocation"),
		concurrency: concurrency,
	}
}

// Run distributes leads to every due tenant in tenants.
//
// A set maintenance gate yields a maintenance_paused run with no writes.
// An invalid tenant configuration is returned as a validation error before
// anything is written. Everything else, including store failures for a
// single tenant, is reported in the run rather than returned.
func (e *Engine) Run(ctx context.Context, tenants []domain.TenantConfig, opts Options) (domain.DistributionRun, error) {
	if opts.Mode == "" {
		opts.Mode = domain.ModeTopUp
	}
	run := domain.DistributionRun{Mode: opts.Mode, Forced: opts.Force, StartedAt: e.inv.Now()}
	timer := time.Now()
	defer func() { metrics.OperationDuration.WithLabelValues("distribute").Observe(time.Since(timer).Seconds()) }()

	paused, err := e.gate.Enabled(ctx)
	if err != nil {
		return run, err
	}
	if paused {
		run.Outcome = domain.OutcomeMaintenancePaused
		run.FinishedAt = e.inv.Now()
		run.Details = []string{"Distribution skipped: maintenance mode is enabled"}
		metrics.DistributionRuns.WithLabelValues(string(run.Outcome)).Inc()
		e.log.Info("distribution paused by maintenance mode")
		return run, nil
	}

	if err := quota.Validate(tenants); err != nil {
		return run, err
	}

	ordered := quota.Order(tenants)
	results := make([]domain.TenantDistribution, len(ordered))

	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for i, tenant := range ordered {
		g.Go(func() error {
			results[i] = e.runTenant(ctx, tenant, opts, run.StartedAt)
			return nil
		})
	}
	_ = g.Wait()

	run.Tenants = results
	run.Outcome = domain.OutcomeCompleted
	for _, r := range results {
		run.TotalAllocated += r.Allocated
		if len(r.Errors) > 0 || r.Deficit > 0 {
			run.Outcome = domain.OutcomePartial
		}
		run.Details = append(run.Details, describe(r))
	}
	run.Details = append(run.Details, fmt.Sprintf("Total allocated: %d leads across %d companies", run.TotalAllocated, len(results)))
	run.FinishedAt = e.inv.Now()

	metrics.DistributionRuns.WithLabelValues(string(run.Outcome)).Inc()
	e.log.Info("distribution finished",
		"outcome", run.Outcome, "mode", run.Mode, "forced", run.Forced,
		"tenants", len(results), "allocated", run.TotalAllocated)
	return run, nil
}

func (e *Engine) runTenant(ctx context.Context, tenant domain.TenantConfig, opts Options, now time.Time) (result domain.TenantDistribution) {
	result = domain.TenantDistribution{TenantID: tenant.ID, TenantName: tenant.Name}
	defer func() {
		e.log.DistributionRun(tenant.ID.String(), result.Requested, result.Allocated, result.Contended, result.SkippedReason)
	}()

	held, err := e.store.CountCopies(ctx, tenant.ID)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("count existing leads: %v", err))
		return result
	}

	decision := quota.Decide(tenant, now, opts.Mode, opts.Force, held.Platform)
	if decision.Skipped() {
		result.SkippedReason = decision.SkipReason
		return result
	}
	result.Requested = decision.Needed

	a, err := e.newAllocator(ctx, tenant.ID, decision.Needed)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("load existing contacts: %v", err))
		return result
	}
	a.fill(ctx)

	result.Allocated = a.allocated
	result.Contended = a.contended
	result.Errors = a.errors
	result.Deficit = result.Requested - result.Allocated
	metrics.TenantDeficit.Add(float64(result.Deficit))

	// The tenant was served, possibly partially. Record it even if the
	// caller gave up so the next due time reflects committed work.
	if err := e.store.TouchLastDistribution(context.WithoutCancel(ctx), tenant.ID, now); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("record distribution time: %v", err))
	}
	return result
}

// allocator fills one tenant's quota.
type allocator struct {
	e        *Engine
	tenantID uuid.UUID
	needed   int

	known       repository.ContactKeys
	pending     []domain.Lead
	pendingKeys repository.ContactKeys
	deferred    []domain.Lead

	allocated int
	contended int
	errors    []string
	stopped   bool
}

func (e *Engine) newAllocator(ctx context.Context, tenantID uuid.UUID, needed int) (*allocator, error) {
	known, err := e.store.ContactKeys(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return &allocator{
		e:           e,
		tenantID:    tenantID,
		needed:      needed,
		known:       known,
		pendingKeys: repository.NewContactKeys(),
	}, nil
}

func (a *allocator) remaining() int {
	return a.needed - a.allocated - len(a.pending)
}

// fill walks the available leads oldest first, buffering eligible ones and
// flushing a claim+commit whenever the buffer covers what is still owed or
// reaches the batch size. Leads held back only by a buffered sibling are
// reconsidered once that sibling's claim has settled.
func (a *allocator) fill(ctx context.Context) {
	for lead, err := range a.e.inv.ListAvailable(ctx, 0, nil) {
		if err != nil {
			a.fail("scan pool: %v", err)
			break
		}
		switch a.check(lead) {
		case leadBlocked:
			continue
		case leadDeferred:
			a.deferred = append(a.deferred, lead)
			continue
		}
		a.pend(lead)
		if a.remaining() == 0 || len(a.pending) >= a.e.inv.BatchSize() {
			a.flush(ctx)
		}
		if a.stopped || a.allocated >= a.needed {
			break
		}
	}
	for !a.stopped && a.allocated < a.needed && (len(a.pending) > 0 || a.requeueDeferred()) {
		a.flush(ctx)
	}
}

type leadCheck int

const (
	leadEligible leadCheck = iota
	leadBlocked
	leadDeferred
)

// check rejects hard-failed leads and contacts the tenant already holds.
// A lead whose contact only collides with the unflushed buffer is deferred.
func (a *allocator) check(lead domain.Lead) leadCheck {
	if a.e.classifier.Classify(lead).HasHardFail() {
		return leadBlocked
	}
	phone, email := contactKeys(lead)
	if (phone != "" && has(a.known.Phones, phone)) || (email != "" && has(a.known.Emails, email)) {
		return leadBlocked
	}
	if (phone != "" && has(a.pendingKeys.Phones, phone)) || (email != "" && has(a.pendingKeys.Emails, email)) {
		return leadDeferred
	}
	return leadEligible
}

// requeueDeferred buffers deferred leads that are eligible again and
// reports whether the buffer is non-empty. Leads whose contact was
// committed in the meantime are dropped.
func (a *allocator) requeueDeferred() bool {
	var rest []domain.Lead
	for _, lead := range a.deferred {
		if a.remaining() <= 0 || len(a.pending) >= a.e.inv.BatchSize() {
			rest = append(rest, lead)
			continue
		}
		switch a.check(lead) {
		case leadEligible:
			a.pend(lead)
		case leadDeferred:
			rest = append(rest, lead)
		}
	}
	a.deferred = rest
	return len(a.pending) > 0
}

func (a *allocator) pend(lead domain.Lead) {
	a.pending = append(a.pending, lead)
	phone, email := contactKeys(lead)
	if phone != "" {
		a.pendingKeys.Phones[phone] = struct{}{}
	}
	if email != "" {
		a.pendingKeys.Emails[email] = struct{}{}
	}
}

// flush claims the buffered leads and commits the winners in one
// transaction. Lost claims are contention, not errors. A failed commit
// stops the tenant and hands its claims back to the pool.
func (a *allocator) flush(ctx context.Context) {
	batch := a.pending
	a.pending = nil
	a.pendingKeys = repository.NewContactKeys()
	if len(batch) == 0 {
		return
	}

	ids := make([]uuid.UUID, len(batch))
	byID := make(map[uuid.UUID]domain.Lead, len(batch))
	for i, lead := range batch {
		ids[i] = lead.ID
		byID[lead.ID] = lead
	}

	claimed, err := a.e.inv.ClaimMany(ctx, ids, a.tenantID)
	if err != nil {
		a.fail("claim leads: %v", err)
		a.release(ctx, claimed)
		return
	}
	a.contended += len(ids) - len(claimed)
	if len(claimed) == 0 {
		return
	}

	now := a.e.inv.Now()
	copies := make([]domain.TenantLeadCopy, len(claimed))
	for i, id := range claimed {
		copies[i] = domain.NewPlatformCopy(byID[id], a.tenantID, now)
	}

	committed, err := a.e.store.CommitDistribution(ctx, a.tenantID, copies, now)
	if err != nil {
		a.fail("commit batch of %d leads: %v", len(copies), err)
		a.release(ctx, claimed)
		return
	}

	// Claims that did not survive to the commit were reset by an unlock in
	// between; from this tenant's point of view they were lost to contention.
	a.contended += len(claimed) - len(committed)
	a.allocated += len(committed)
	metrics.LeadsDistributed.Add(float64(len(committed)))

	for _, id := range committed {
		phone, email := contactKeys(byID[id])
		if phone != "" {
			a.known.Phones[phone] = struct{}{}
		}
		if email != "" {
			a.known.Emails[email] = struct{}{}
		}
	}
}

func (a *allocator) release(ctx context.Context, ids []uuid.UUID) {
	if len(ids) == 0 {
		return
	}
	if _, err := a.e.inv.ReleaseClaims(context.WithoutCancel(ctx), ids, a.tenantID); err != nil {
		a.e.log.Warn("failed to release claimed leads, stale-lock sweep will reset them",
			"tenantId", a.tenantID, "count", len(ids), "error", err)
	}
}

func (a *allocator) fail(format string, args ...any) {
	a.errors = append(a.errors, fmt.Sprintf(format, args...))
	a.stopped = true
}

func contactKeys(lead domain.Lead) (phone, email string) {
	return lead.NormalizedPhone, strings.ToLower(strings.TrimSpace(lead.Email))
}

func has(set map[string]struct{}, key string) bool {
	_, ok := set[key]
	return ok
}

func describe(r domain.TenantDistribution) string {
	name := r.TenantName
	if name == "" {
		name = r.TenantID.String()
	}
	switch {
	case r.SkippedReason != "":
		return fmt.Sprintf("%s: skipped (%s)", name, r.SkippedReason)
	case len(r.Errors) > 0:
		return fmt.Sprintf("%s: allocated %d of %d, stopped on error: %s", name, r.Allocated, r.Requested, strings.Join(r.Errors, "; "))
	case r.Deficit > 0:
		return fmt.Sprintf("%s: allocated %d of %d (deficit %d)", name, r.Allocated, r.Requested, r.Deficit)
	default:
		return fmt.Sprintf("%s: allocated %d leads", name, r.Allocated)
	}
}
