package tenant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/hrms/internal/auth"
	"github.com/kiranshivaraju/hrms/internal/cache"
	"github.com/kiranshivaraju/hrms/internal/metrics"
	"github.com/kiranshivaraju/hrms/internal/store"
	"github.com/kiranshivaraju/hrms/pkg/models"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	// ErrTenantActive is returned when a destructive operation requires the
	// tenant to be soft deleted first.
	ErrTenantActive = errors.New("tenant must be inactive")
)

var featureNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]{1,63}$`)

// Namespaces creates and removes tenant namespaces.
type Namespaces interface {
	Provision(ctx context.Context, schema store.Schema) error
	Drop(ctx context.Context, schema store.Schema) error
}

// Forgetter drops cached tenant rows.
type Forgetter interface {
	Forget(id uuid.UUID)
}

// Service manages the tenant lifecycle.
type Service struct {
	dir        store.Directory
	users      store.UserStore
	namespaces Namespaces
	cache      *cache.TenantCache
	resolver   Forgetter
	metrics    *metrics.Metrics
	now        func() time.Time
}

// NewService wires a tenant Service. tc, resolver and m may be nil.
func NewService(dir store.Directory, users store.UserStore, ns Namespaces, tc *cache.TenantCache, resolver Forgetter, m *metrics.Metrics) *Service {
	return &Service{
		dir:        dir,
		users:      users,
		namespaces: ns,
		cache:      tc,
		resolver:   resolver,
		metrics:    m,
		now:        time.Now,
	}
}

type RegisterInput struct {
	CompanyName   string
	Slug          string
	AdminEmail    string
	AdminPassword string
	AdminName     string
}

func (in RegisterInput) validate() error {
	if strings.TrimSpace(in.CompanyName) == "" {
		return fmt.Errorf("%w: company_name is required", ErrInvalidInput)
	}
	if err := store.ValidateSlug(in.Slug); err != nil {
		return fmt.Errorf("%w: slug must be 2-40 lower-case letters, digits or single hyphens", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(in.AdminEmail); err != nil {
		return fmt.Errorf("%w: admin_email is not a valid address", ErrInvalidInput)
	}
	if strings.TrimSpace(in.AdminName) == "" {
		return fmt.Errorf("%w: admin_name is required", ErrInvalidInput)
	}
	return nil
}

// Register creates a tenant: namespace first, then its first admin user, and
// the directory row last so a tenant is only visible once it is usable. Any
// failure after the namespace exists drops it again.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.Tenant, *models.User, error) {
	in.Slug = strings.ToLower(strings.TrimSpace(in.Slug))
	in.AdminEmail = strings.TrimSpace(in.AdminEmail)
	if err := in.validate(); err != nil {
		return nil, nil, err
	}

	hash, err := auth.HashPassword(in.AdminPassword)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if _, err := s.dir.GetTenantBySlug(ctx, in.Slug); err == nil {
		return nil, nil, fmt.Errorf("slug %q: %w", in.Slug, store.ErrAlreadyExists)
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, nil, fmt.Errorf("check slug: %w", err)
	}

	id := uuid.New()
	schema, err := store.NamespaceName(in.Slug, id)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := s.namespaces.Provision(ctx, schema); err != nil {
		return nil, nil, err
	}

	now := s.now().UTC()
	admin := &models.User{
		ID:           uuid.New(),
		Email:        in.AdminEmail,
		PasswordHash: hash,
		FullName:     in.AdminName,
		Role:         models.RoleAdmin,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.CreateUser(ctx, schema, admin); err != nil {
		s.rollback(ctx, schema)
		return nil, nil, fmt.Errorf("seed admin user: %w", err)
	}

	t := &models.Tenant{
		ID:         id,
		Name:       strings.TrimSpace(in.CompanyName),
		Slug:       in.Slug,
		SchemaName: schema.String(),
		Status:     models.TenantStatusActive,
		AdminEmail: in.AdminEmail,
		Settings:   map[string]any{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.dir.CreateTenant(ctx, t); err != nil {
		s.rollback(ctx, schema)
		return nil, nil, fmt.Errorf("record tenant: %w", err)
	}

	s.audit(ctx, id, "created", map[string]any{"slug": t.Slug, "schema_name": t.SchemaName}, in.AdminEmail)
	slog.Info("tenant registered", "tenant_id", id, "slug", t.Slug, "schema", schema)
	return t, admin, nil
}

func (s *Service) rollback(ctx context.Context, schema store.Schema) {
	if err := s.namespaces.Drop(context.WithoutCancel(ctx), schema); err != nil {
		slog.Warn("orphaned namespace", "schema", schema, "error", err)
		if s.metrics != nil {
			s.metrics.OrphanedNamespaces.Inc()
		}
	}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	return s.dir.GetTenant(ctx, id)
}

func (s *Service) GetBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	return s.dir.GetTenantBySlug(ctx, slug)
}

func (s *Service) List(ctx context.Context, status string) ([]*models.Tenant, error) {
	if status != "" && !models.ValidTenantStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	return s.dir.ListTenants(ctx, status)
}

// SetStatus changes a tenant's lifecycle status. The change is visible to this
// process immediately; other processes see it once their cached row expires.
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, status, by string) error {
	if !models.ValidTenantStatus(status) {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	if err := s.dir.SetTenantStatus(ctx, id, status); err != nil {
		return err
	}
	s.forget(ctx, id, status != models.TenantStatusActive)
	s.audit(ctx, id, "status_changed", map[string]any{"status": status}, by)
	return nil
}

// SoftDelete marks the tenant inactive. The namespace survives until
// DropNamespace.
func (s *Service) SoftDelete(ctx context.Context, id uuid.UUID, by string) error {
	if err := s.dir.SoftDeleteTenant(ctx, id); err != nil {
		return err
	}
	s.forget(ctx, id, true)
	s.audit(ctx, id, "deleted", map[string]any{"status": models.TenantStatusInactive}, by)
	return nil
}

// DropNamespace irreversibly removes the namespace of a soft deleted tenant.
func (s *Service) DropNamespace(ctx context.Context, id uuid.UUID, by string) error {
	t, err := s.dir.GetTenant(ctx, id)
	if err != nil {
		return err
	}
	if t.Status != models.TenantStatusInactive {
		return ErrTenantActive
	}
	schema, err := store.ParseSchema(t.SchemaName)
	if err != nil {
		return err
	}
	if err := s.namespaces.Drop(ctx, schema); err != nil {
		return err
	}
	s.audit(ctx, id, "namespace_dropped", map[string]any{"schema_name": t.SchemaName}, by)
	slog.Warn("tenant namespace dropped", "tenant_id", id, "schema", schema, "by", by)
	return nil
}

func (s *Service) SetFeature(ctx context.Context, tenantID uuid.UUID, name string, enabled bool, config map[string]any, by string) (*models.FeatureFlag, error) {
	if !featureNamePattern.MatchString(name) {
		return nil, fmt.Errorf("%w: invalid feature name %q", ErrInvalidInput, name)
	}
	f, err := s.dir.SetFeature(ctx, tenantID, name, enabled, config)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, tenantID, "feature_set", map[string]any{"feature": name, "enabled": enabled}, by)
	return f, nil
}

func (s *Service) GetFeature(ctx context.Context, tenantID uuid.UUID, name string) (*models.FeatureFlag, error) {
	return s.dir.GetFeature(ctx, tenantID, name)
}

func (s *Service) IsFeatureEnabled(ctx context.Context, tenantID uuid.UUID, name string) (bool, error) {
	return s.dir.IsFeatureEnabled(ctx, tenantID, name)
}

func (s *Service) ListFeatures(ctx context.Context, tenantID uuid.UUID) ([]*models.FeatureFlag, error) {
	return s.dir.ListFeatures(ctx, tenantID)
}

func (s *Service) forget(ctx context.Context, id uuid.UUID, purge bool) {
	if s.resolver != nil {
		s.resolver.Forget(id)
	}
	if purge && s.cache != nil {
		if err := s.cache.InvalidateTenant(ctx, id); err != nil {
			slog.Warn("tenant cache purge failed", "tenant_id", id, "error", err)
		}
	}
}

func (s *Service) audit(ctx context.Context, id uuid.UUID, action string, changes map[string]any, by string) {
	entry := &models.TenantAuditEntry{TenantID: id, Action: action, Changes: changes}
	if by != "" {
		entry.ChangedBy = &by
	}
	if err := s.dir.LogTenantAction(ctx, entry); err != nil {
		slog.Warn("tenant audit write failed", "tenant_id", id, "action", action, "error", err)
	}
}
