package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"leadpool_backend/internal/leadpool/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository is the PostgreSQL Store.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a Repository on the given pool.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const leadColumns = `id, first_name, last_name, email, phone, normalized_phone, city, state,
	driver_type, experience_years, ownership_state, owner_tenant_id, locked_at, distributed_at,
	quality_flags, created_at, updated_at`

func scanLead(row pgx.Row) (domain.Lead, error) {
	var (
		lead  domain.Lead
		state string
		flags []string
	)
	err := row.Scan(
		&lead.ID, &lead.FirstName, &lead.LastName, &lead.Email, &lead.Phone, &lead.NormalizedPhone,
		&lead.City, &lead.State, &lead.DriverType, &lead.ExperienceYears,
		&state, &lead.Ownership.TenantID, &lead.Ownership.LockedAt, &lead.Ownership.DistributedAt,
		&flags, &lead.CreatedAt, &lead.UpdatedAt,
	)
	if err != nil {
		return domain.Lead{}, err
	}
	lead.Ownership.State = domain.OwnershipState(state)
	lead.QualityFlags = domain.FlagsFromStrings(flags)
	return lead, nil
}

func flagStrings(flags []domain.Flag) []string {
	out := make([]string, len(flags))
	for i, f := range flags {
		out[i] = string(f)
	}
	return out
}

func (r *Repository) ListUnowned(ctx context.Context, after *Cursor, limit int, excludeFlags []domain.Flag) ([]domain.Lead, error) {
	var (
		afterAt *time.Time
		afterID *uuid.UUID
	)
	if after != nil {
		afterAt, afterID = &after.CreatedAt, &after.ID
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+`
		FROM pool_leads
		WHERE ownership_state = 'unowned'
			AND NOT (quality_flags && $1::text[])
			AND ($2::timestamptz IS NULL OR (created_at, id) > ($2, $3::uuid))
		ORDER BY created_at ASC, id ASC
		LIMIT $4
	`, flagStrings(excludeFlags), afterAt, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("list unowned leads: %w", err)
	}
	defer rows.Close()

	leads := make([]domain.Lead, 0, limit)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		leads = append(leads, lead)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return leads, nil
}

func (r *Repository) GetLead(ctx context.Context, id uuid.UUID) (domain.Lead, error) {
	lead, err := scanLead(r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM pool_leads WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, ErrNotFound
	}
	if err != nil {
		return domain.Lead{}, fmt.Errorf("get lead: %w", err)
	}
	return lead, nil
}

func (r *Repository) CountByState(ctx context.Context) (domain.PoolCounts, error) {
	var counts domain.PoolCounts
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE ownership_state = 'unowned'),
			COUNT(*) FILTER (WHERE ownership_state = 'locked'),
			COUNT(*) FILTER (WHERE ownership_state = 'distributed'),
			COUNT(*) FILTER (WHERE ownership_state = 'unowned' AND NOT (quality_flags && $1::text[]))
		FROM pool_leads
	`, flagStrings(domain.HardFailFlags())).Scan(
		&counts.Total, &counts.Unowned, &counts.Locked, &counts.Distributed, &counts.Available,
	)
	if err != nil {
		return domain.PoolCounts{}, fmt.Errorf("count leads by state: %w", err)
	}
	return counts, nil
}

// ClaimMany queues one guarded update per lead in a single round trip. Each
// update succeeds or loses independently, exactly like separate claims.
func (r *Repository) ClaimMany(ctx context.Context, ids []uuid.UUID, tenantID uuid.UUID, at time.Time) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	batch := &pgx.Batch{}
	for _, id := range ids {
		batch.Queue(`
			UPDATE pool_leads
			SET ownership_state = 'locked', owner_tenant_id = $2, locked_at = $3, updated_at = $3
			WHERE id = $1 AND ownership_state = 'unowned'
		`, id, tenantID, at)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	claimed := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		tag, err := results.Exec()
		if err != nil {
			return claimed, fmt.Errorf("claim lead %s: %w", id, err)
		}
		if tag.RowsAffected() == 1 {
			claimed = append(claimed, id)
		}
	}
	return claimed, nil
}

func (r *Repository) MarkDistributed(ctx context.Context, id, tenantID uuid.UUID, at time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE pool_leads
		SET ownership_state = 'distributed', distributed_at = $3, updated_at = $3
		WHERE id = $1 AND ownership_state = 'locked' AND owner_tenant_id = $2
	`, id, tenantID, at)
	if err != nil {
		return false, fmt.Errorf("mark lead distributed: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *Repository) ReleaseClaims(ctx context.Context, ids []uuid.UUID, tenantID uuid.UUID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE pool_leads
		SET ownership_state = 'unowned', owner_tenant_id = NULL, locked_at = NULL, updated_at = now()
		WHERE id = ANY($1) AND ownership_state = 'locked' AND owner_tenant_id = $2
	`, ids, tenantID)
	if err != nil {
		return 0, fmt.Errorf("release claims: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *Repository) ResetToAvailable(ctx context.Context, ids []uuid.UUID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE pool_leads
		SET ownership_state = 'unowned', owner_tenant_id = NULL, locked_at = NULL,
			distributed_at = NULL, updated_at = now()
		WHERE id = ANY($1) AND ownership_state <> 'unowned'
	`, ids)
	if err != nil {
		return 0, fmt.Errorf("reset leads: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *Repository) ResetLocked(ctx context.Context, lockedBefore time.Time, limit int) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		WITH stale AS (
			SELECT id
			FROM pool_leads
			WHERE ownership_state = 'locked' AND locked_at < $1
			ORDER BY locked_at ASC
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		UPDATE pool_leads p
		SET ownership_state = 'unowned', owner_tenant_id = NULL, locked_at = NULL, updated_at = now()
		FROM stale
		WHERE p.id = stale.id AND p.ownership_state = 'locked'
	`, lockedBefore, limit)
	if err != nil {
		return 0, fmt.Errorf("reset locked leads: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

var insertLeadColumns = []string{
	"id", "first_name", "last_name", "email", "phone", "normalized_phone", "city", "state",
	"driver_type", "experience_years", "quality_flags", "created_at", "updated_at",
}

// InsertLeads adds unowned leads in one multi-row statement. Existing ids are skipped.
func (r *Repository) InsertLeads(ctx context.Context, leads []domain.Lead) (int, error) {
	if len(leads) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	placeholders := make([]string, 0, len(leads))
	args := make([]any, 0, len(leads)*len(insertLeadColumns))
	argi := 1
	for _, lead := range leads {
		if lead.ID == uuid.Nil {
			lead.ID = uuid.New()
		}
		if lead.CreatedAt.IsZero() {
			lead.CreatedAt = now
		}
		args = append(args,
			lead.ID, lead.FirstName, lead.LastName, lead.Email, lead.Phone, lead.NormalizedPhone,
			lead.City, lead.State, lead.DriverType, lead.ExperienceYears,
			lead.QualityFlags.Strings(), lead.CreatedAt, now,
		)
		ph := make([]string, len(insertLeadColumns))
		for i := range ph {
			ph[i] = fmt.Sprintf("$%d", argi)
			argi++
		}
		placeholders = append(placeholders, "("+strings.Join(ph, ",")+")")
	}

	sql := "INSERT INTO pool_leads (" + strings.Join(insertLeadColumns, ",") + ") VALUES " +
		strings.Join(placeholders, ",") +
		" ON CONFLICT (id) DO NOTHING"

	tag, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("insert leads: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *Repository) UpdateFlags(ctx context.Context, flags map[uuid.UUID]domain.Flags) error {
	if len(flags) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for id, set := range flags {
		batch.Queue(`UPDATE pool_leads SET quality_flags = $2, updated_at = now() WHERE id = $1`, id, set.Strings())
	}
	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("update quality flags: %w", err)
	}
	return nil
}

func (r *Repository) RemoveUnowned(ctx context.Context, ids []uuid.UUID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM pool_leads WHERE id = ANY($1) AND ownership_state = 'unowned'`, ids)
	if err != nil {
		return 0, fmt.Errorf("remove leads: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
