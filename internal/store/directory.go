package store

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/kiranshivaraju/hrms/pkg/models"
)

const tenantColumns = `id, name, slug, schema_name, status, admin_email, settings, created_at, updated_at, deleted_at`

func scanTenant(row pgx.Row) (*models.Tenant, error) {
	var t models.Tenant
	err := row.Scan(&t.ID, &t.Name, &t.Slug, &t.SchemaName, &t.Status, &t.AdminEmail,
		&t.Settings, &t.CreatedAt, &t.UpdatedAt, &t.DeletedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *PostgresStore) CreateTenant(ctx context.Context, t *models.Tenant) error {
	settings := t.Settings
	if settings == nil {
		settings = map[string]any{}
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO tenants (id, name, slug, schema_name, status, admin_email, settings, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		t.ID, t.Name, t.Slug, t.SchemaName, t.Status, t.AdminEmail, settings, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("create tenant: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetTenant(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	t, err := scanTenant(s.pool.QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get tenant: %w", err)
	}
	return t, nil
}

func (s *PostgresStore) GetTenantBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	t, err := scanTenant(s.pool.QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE slug = $1`, slug))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get tenant by slug: %w", err)
	}
	return t, nil
}

// ListTenants returns tenants ordered by creation time. An empty status
// returns every tenant.
func (s *PostgresStore) ListTenants(ctx context.Context, status string) ([]*models.Tenant, error) {
	q := psql.Select(tenantColumns).From("tenants").OrderBy("created_at DESC")
	if status != "" {
		q = q.Where(sq.Eq{"status": status})
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list tenants: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []*models.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tenant: %w", err)
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

func (s *PostgresStore) SetTenantStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE tenants SET status = $2, updated_at = NOW(),
		   deleted_at = CASE WHEN $2 = 'inactive' THEN deleted_at ELSE NULL END
		 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("set tenant status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SoftDeleteTenant marks the tenant inactive. Its namespace is kept until an
// operator drops it.
func (s *PostgresStore) SoftDeleteTenant(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE tenants SET status = 'inactive', deleted_at = COALESCE(deleted_at, NOW()), updated_at = NOW()
		 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("soft delete tenant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Feature flags ---

const featureColumns = `id, tenant_id, feature_name, enabled, config, created_at, updated_at`

func scanFeature(row pgx.Row) (*models.FeatureFlag, error) {
	var f models.FeatureFlag
	if err := row.Scan(&f.ID, &f.TenantID, &f.FeatureName, &f.Enabled, &f.Config, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}

// SetFeature upserts a flag. The last write for a (tenant, name) pair wins.
func (s *PostgresStore) SetFeature(ctx context.Context, tenantID uuid.UUID, name string, enabled bool, config map[string]any) (*models.FeatureFlag, error) {
	if config == nil {
		config = map[string]any{}
	}
	f, err := scanFeature(s.pool.QueryRow(ctx,
		`INSERT INTO tenant_features (id, tenant_id, feature_name, enabled, config)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (tenant_id, feature_name) DO UPDATE SET
		   enabled = EXCLUDED.enabled,
		   config = EXCLUDED.config,
		   updated_at = NOW()
		 RETURNING `+featureColumns,
		uuid.New(), tenantID, name, enabled, config))
	if err != nil {
		if isForeignKeyError(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("set feature: %w", err)
	}
	return f, nil
}

func (s *PostgresStore) GetFeature(ctx context.Context, tenantID uuid.UUID, name string) (*models.FeatureFlag, error) {
	f, err := scanFeature(s.pool.QueryRow(ctx,
		`SELECT `+featureColumns+` FROM tenant_features WHERE tenant_id = $1 AND feature_name = $2`,
		tenantID, name))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get feature: %w", err)
	}
	return f, nil
}

// IsFeatureEnabled reports whether the flag is on. Unknown flags are off.
func (s *PostgresStore) IsFeatureEnabled(ctx context.Context, tenantID uuid.UUID, name string) (bool, error) {
	var enabled bool
	err := s.pool.QueryRow(ctx,
		`SELECT enabled FROM tenant_features WHERE tenant_id = $1 AND feature_name = $2`,
		tenantID, name).Scan(&enabled)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check feature: %w", err)
	}
	return enabled, nil
}

func (s *PostgresStore) ListFeatures(ctx context.Context, tenantID uuid.UUID) ([]*models.FeatureFlag, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+featureColumns+` FROM tenant_features WHERE tenant_id = $1 ORDER BY feature_name`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list features: %w", err)
	}
	defer rows.Close()

	var flags []*models.FeatureFlag
	for rows.Next() {
		f, err := scanFeature(rows)
		if err != nil {
			return nil, fmt.Errorf("scan feature: %w", err)
		}
		flags = append(flags, f)
	}
	return flags, rows.Err()
}

// --- Tenant audit ---

func (s *PostgresStore) LogTenantAction(ctx context.Context, e *models.TenantAuditEntry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO tenant_audit (id, tenant_id, action, changes, changed_by)
		 VALUES ($1, $2, $3, $4, $5)`,
		e.ID, e.TenantID, e.Action, e.Changes, e.ChangedBy)
	if err != nil {
		return fmt.Errorf("log tenant action: %w", err)
	}
	return nil
}
