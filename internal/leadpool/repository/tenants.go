package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"leadpool_backend/internal/leadpool/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const tenantColumns = `id, name, daily_quota, is_active, distribution_interval_hours, last_distribution_at`

func scanTenant(row pgx.Row) (domain.TenantConfig, error) {
	var t domain.TenantConfig
	err := row.Scan(&t.ID, &t.Name, &t.DailyQuota, &t.IsActive, &t.DistributionIntervalHours, &t.LastDistributionAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.TenantConfig{}, ErrNotFound
	}
	return t, err
}

func (r *Repository) ListTenants(ctx context.Context) ([]domain.TenantConfig, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+tenantColumns+` FROM tenants ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	tenants := make([]domain.TenantConfig, 0)
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tenant: %w", err)
		}
		tenants = append(tenants, t)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return tenants, nil
}

func (r *Repository) GetTenant(ctx context.Context, id uuid.UUID) (domain.TenantConfig, error) {
	t, err := scanTenant(r.pool.QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return domain.TenantConfig{}, fmt.Errorf("get tenant: %w", err)
	}
	return t, err
}

func (r *Repository) SaveTenant(ctx context.Context, t domain.TenantConfig) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.DistributionIntervalHours <= 0 {
		t.DistributionIntervalHours = domain.DefaultDistributionIntervalHours
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO tenants (id, name, daily_quota, is_active, distribution_interval_hours, last_distribution_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			daily_quota = EXCLUDED.daily_quota,
			is_active = EXCLUDED.is_active,
			distribution_interval_hours = EXCLUDED.distribution_interval_hours,
			updated_at = now()
	`, t.ID, t.Name, t.DailyQuota, t.IsActive, t.DistributionIntervalHours, t.LastDistributionAt)
	if err != nil {
		return fmt.Errorf("save tenant: %w", err)
	}
	return nil
}

func (r *Repository) SetTenantActive(ctx context.Context, id uuid.UUID, active bool) (domain.TenantConfig, error) {
	return r.updateTenant(ctx, `
		UPDATE tenants SET is_active = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+tenantColumns, id, active)
}

func (r *Repository) SetTenantQuota(ctx context.Context, id uuid.UUID, dailyQuota, intervalHours int) (domain.TenantConfig, error) {
	return r.updateTenant(ctx, `
		UPDATE tenants SET
			daily_quota = $2,
			distribution_interval_hours = CASE WHEN $3 > 0 THEN $3 ELSE distribution_interval_hours END,
			updated_at = now()
		WHERE id = $1
		RETURNING `+tenantColumns, id, dailyQuota, intervalHours)
}

func (r *Repository) TouchLastDistribution(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE tenants SET last_distribution_at = $2, updated_at = now() WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("touch last distribution: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) updateTenant(ctx context.Context, query string, args ...any) (domain.TenantConfig, error) {
	t, err := scanTenant(r.pool.QueryRow(ctx, query, args...))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return domain.TenantConfig{}, fmt.Errorf("update tenant: %w", err)
	}
	return t, err
}

// ---- settings ----

func (r *Repository) GetBool(ctx context.Context, key string) (bool, error) {
	var value bool
	err := r.pool.QueryRow(ctx, `SELECT bool_value FROM pool_settings WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get setting %s: %w", key, err)
	}
	return value, nil
}

func (r *Repository) SetBool(ctx context.Context, key string, value bool) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO pool_settings (key, bool_value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET bool_value = EXCLUDED.bool_value, updated_at = now()
	`, key, value)
	if err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}
