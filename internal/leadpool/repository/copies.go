package repository

import (
	"context"
	"fmt"
	"time"

	"leadpool_backend/internal/leadpool/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CommitDistribution runs the locked -> distributed transition for the whole
// batch with RETURNING, then inserts copies only for the leads that made it.
// A lead reset by an unlock between claim and commit is silently skipped.
func (r *Repository) CommitDistribution(ctx context.Context, tenantID uuid.UUID, copies []domain.TenantLeadCopy, at time.Time) ([]uuid.UUID, error) {
	if len(copies) == 0 {
		return nil, nil
	}

	byLead := make(map[uuid.UUID]domain.TenantLeadCopy, len(copies))
	ids := make([]uuid.UUID, 0, len(copies))
	for _, c := range copies {
		if c.PoolLeadID == nil {
			continue
		}
		byLead[*c.PoolLeadID] = c
		ids = append(ids, *c.PoolLeadID)
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin distribution commit: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `
		UPDATE pool_leads
		SET ownership_state = 'distributed', distributed_at = $3, updated_at = $3
		WHERE id = ANY($1) AND ownership_state = 'locked' AND owner_tenant_id = $2
		RETURNING id
	`, ids, tenantID, at)
	if err != nil {
		return nil, fmt.Errorf("mark leads distributed: %w", err)
	}
	committed, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("mark leads distributed: %w", err)
	}

	batch := &pgx.Batch{}
	for _, id := range committed {
		c := byLead[id]
		batch.Queue(`
			INSERT INTO tenant_lead_copies (
				id, tenant_id, pool_lead_id, first_name, last_name, email, phone, normalized_phone,
				city, state, driver_type, experience_years, source_type, assigned_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		`, c.ID, tenantID, id, c.FirstName, c.LastName, c.Email, c.Phone, c.NormalizedPhone,
			c.City, c.State, c.DriverType, c.ExperienceYears, string(domain.SourcePlatformDistributed), c.AssignedAt)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return nil, fmt.Errorf("insert tenant lead copies: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit distribution: %w", err)
	}
	return committed, nil
}

func (r *Repository) ContactKeys(ctx context.Context, tenantID uuid.UUID) (ContactKeys, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT normalized_phone, lower(trim(email))
		FROM tenant_lead_copies
		WHERE tenant_id = $1
	`, tenantID)
	if err != nil {
		return ContactKeys{}, fmt.Errorf("list tenant contact keys: %w", err)
	}
	defer rows.Close()

	keys := NewContactKeys()
	for rows.Next() {
		var phone, email string
		if err := rows.Scan(&phone, &email); err != nil {
			return ContactKeys{}, err
		}
		if phone != "" {
			keys.Phones[phone] = struct{}{}
		}
		if email != "" {
			keys.Emails[email] = struct{}{}
		}
	}
	if rows.Err() != nil {
		return ContactKeys{}, rows.Err()
	}
	return keys, nil
}

func (r *Repository) CountCopies(ctx context.Context, tenantID uuid.UUID) (domain.CopyCounts, error) {
	var counts domain.CopyCounts
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE source_type = 'platform_distributed'),
			COUNT(*) FILTER (WHERE source_type = 'private_upload')
		FROM tenant_lead_copies
		WHERE tenant_id = $1
	`, tenantID).Scan(&counts.Platform, &counts.Private)
	if err != nil {
		return domain.CopyCounts{}, fmt.Errorf("count tenant copies: %w", err)
	}
	return counts, nil
}

func (r *Repository) CountCopiesBySource(ctx context.Context) (domain.CopyCounts, error) {
	var counts domain.CopyCounts
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE source_type = 'platform_distributed'),
			COUNT(*) FILTER (WHERE source_type = 'private_upload')
		FROM tenant_lead_copies
	`).Scan(&counts.Platform, &counts.Private)
	if err != nil {
		return domain.CopyCounts{}, fmt.Errorf("count copies by source: %w", err)
	}
	return counts, nil
}

func (r *Repository) CopyCountsByTenant(ctx context.Context) (map[uuid.UUID]domain.CopyCounts, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT tenant_id,
			COUNT(*) FILTER (WHERE source_type = 'platform_distributed'),
			COUNT(*) FILTER (WHERE source_type = 'private_upload')
		FROM tenant_lead_copies
		GROUP BY tenant_id
	`)
	if err != nil {
		return nil, fmt.Errorf("count copies by tenant: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID]domain.CopyCounts)
	for rows.Next() {
		var (
			id     uuid.UUID
			counts domain.CopyCounts
		)
		if err := rows.Scan(&id, &counts.Platform, &counts.Private); err != nil {
			return nil, err
		}
		out[id] = counts
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *Repository) ListPlatformCopies(ctx context.Context, after uuid.UUID, limit int) ([]domain.CopyRef, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, tenant_id, pool_lead_id
		FROM tenant_lead_copies
		WHERE source_type = 'platform_distributed' AND id > $1
		ORDER BY id ASC
		LIMIT $2
	`, after, limit)
	if err != nil {
		return nil, fmt.Errorf("list platform copies: %w", err)
	}
	defer rows.Close()

	refs := make([]domain.CopyRef, 0, limit)
	for rows.Next() {
		var ref domain.CopyRef
		if err := rows.Scan(&ref.ID, &ref.TenantID, &ref.PoolLeadID); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return refs, nil
}

// RecallCopies deletes the copies and releases their pool leads. The release
// only touches leads still owned by the copy's tenant.
func (r *Repository) RecallCopies(ctx context.Context, refs []domain.CopyRef) (int, int, error) {
	if len(refs) == 0 {
		return 0, 0, nil
	}

	copyIDs := make([]uuid.UUID, len(refs))
	for i, ref := range refs {
		copyIDs[i] = ref.ID
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, 0, fmt.Errorf("begin recall: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `
		DELETE FROM tenant_lead_copies
		WHERE id = ANY($1) AND source_type = 'platform_distributed'
		RETURNING tenant_id, pool_lead_id
	`, copyIDs)
	if err != nil {
		return 0, 0, fmt.Errorf("delete platform copies: %w", err)
	}

	var (
		tenantIDs []uuid.UUID
		leadIDs   []uuid.UUID
		deleted   int
	)
	for rows.Next() {
		var (
			tenantID uuid.UUID
			leadID   *uuid.UUID
		)
		if err := rows.Scan(&tenantID, &leadID); err != nil {
			rows.Close()
			return 0, 0, err
		}
		deleted++
		if leadID != nil {
			tenantIDs = append(tenantIDs, tenantID)
			leadIDs = append(leadIDs, *leadID)
		}
	}
	rows.Close()
	if rows.Err() != nil {
		return 0, 0, fmt.Errorf("delete platform copies: %w", rows.Err())
	}

	tag, err := tx.Exec(ctx, `
		UPDATE pool_leads p
		SET ownership_state = 'unowned', owner_tenant_id = NULL, locked_at = NULL,
			distributed_at = NULL, updated_at = now()
		FROM unnest($1::uuid[], $2::uuid[]) AS recalled(lead_id, tenant_id)
		WHERE p.id = recalled.lead_id AND p.owner_tenant_id = recalled.tenant_id
	`, leadIDs, tenantIDs)
	if err != nil {
		return 0, 0, fmt.Errorf("release recalled leads: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, fmt.Errorf("commit recall: %w", err)
	}
	return deleted, int(tag.RowsAffected()), nil
}
