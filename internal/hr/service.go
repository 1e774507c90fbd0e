// Package hr implements the per-tenant HR operations: departments, employees,
// leave, payroll, the executive dashboard and the audit trail. Every call
// carries a Scope naming the tenant namespace it operates on.
package hr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/hrms/internal/cache"
	"github.com/kiranshivaraju/hrms/internal/store"
	"github.com/kiranshivaraju/hrms/pkg/models"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrFeatureDisabled = errors.New("feature not enabled for tenant")
)

const (
	FeatureAuditLog = "audit_log"

	dashboardTTL    = 15 * time.Minute
	departmentsTTL  = time.Hour
	employeeTTL     = 10 * time.Minute
	leaveBalanceTTL = time.Hour

	dateLayout = "2006-01-02"
)

// Scope identifies the tenant namespace and the acting user of a call.
type Scope struct {
	TenantID uuid.UUID
	Schema   store.Schema
	ActorID  uuid.UUID
	IP       string
}

// Store is the namespace data the HR service needs.
type Store interface {
	store.DepartmentStore
	store.EmployeeStore
	store.LeaveStore
	store.PayrollStore
	store.AuditStore
	store.DashboardStore
}

// FeatureChecker reports per-tenant feature flags.
type FeatureChecker interface {
	IsFeatureEnabled(ctx context.Context, tenantID uuid.UUID, name string) (bool, error)
}

type Service struct {
	store    Store
	cache    *cache.TenantCache
	features FeatureChecker
	now      func() time.Time
}

// NewService creates the HR service. tc may be nil, in which case every read
// goes to storage.
func NewService(s Store, tc *cache.TenantCache, features FeatureChecker) *Service {
	return &Service{store: s, cache: tc, features: features, now: time.Now}
}

// cached reads dest from the tenant cache. Cache failures read as a miss.
func (s *Service) cached(ctx context.Context, sc Scope, domain cache.Domain, dest any, qualifiers ...string) bool {
	if s.cache == nil {
		return false
	}
	found, err := s.cache.GetJSON(ctx, sc.TenantID, domain, dest, qualifiers...)
	if err != nil {
		slog.Debug("cache read degraded", "tenant_id", sc.TenantID, "domain", domain, "error", err)
		return false
	}
	return found
}

func (s *Service) remember(ctx context.Context, sc Scope, domain cache.Domain, value any, ttl time.Duration, qualifiers ...string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetJSON(ctx, sc.TenantID, domain, value, ttl, qualifiers...); err != nil {
		slog.Warn("cache write failed", "tenant_id", sc.TenantID, "domain", domain, "error", err)
	}
}

// forget invalidates cache entries after a mutation. The executive dashboard
// depends on every entity, so it is always dropped.
func (s *Service) forget(ctx context.Context, sc Scope, domain cache.Domain, qualifiers ...string) {
	s.invalidate(ctx, sc, domain, false, qualifiers...)
}

// forgetPrefix is forget for every key under domain and qualifiers.
func (s *Service) forgetPrefix(ctx context.Context, sc Scope, domain cache.Domain, qualifiers ...string) {
	s.invalidate(ctx, sc, domain, true, qualifiers...)
}

func (s *Service) invalidate(ctx context.Context, sc Scope, domain cache.Domain, prefix bool, qualifiers ...string) {
	if s.cache == nil {
		return
	}
	if domain != "" {
		var err error
		if prefix {
			err = s.cache.InvalidatePrefix(ctx, sc.TenantID, domain, qualifiers...)
		} else {
			err = s.cache.Invalidate(ctx, sc.TenantID, domain, qualifiers...)
		}
		if err != nil {
			slog.Warn("cache invalidation failed", "tenant_id", sc.TenantID, "domain", domain, "error", err)
		}
	}
	if err := s.cache.Invalidate(ctx, sc.TenantID, cache.DomainDashboard); err != nil {
		slog.Warn("cache invalidation failed", "tenant_id", sc.TenantID, "domain", cache.DomainDashboard, "error", err)
	}
}

// audit appends to the namespace audit log. Failures are logged and do not
// fail the mutation.
func (s *Service) audit(ctx context.Context, sc Scope, action, resourceType string, resourceID uuid.UUID, name string, oldValues, newValues map[string]any) {
	e := &models.AuditEntry{
		ID:           uuid.New(),
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   &resourceID,
		OldValues:    oldValues,
		NewValues:    newValues,
		CreatedAt:    s.now().UTC(),
	}
	if name != "" {
		e.ResourceName = &name
	}
	if sc.ActorID != uuid.Nil {
		actor := sc.ActorID
		e.PerformedBy = &actor
	}
	if sc.IP != "" {
		ip := sc.IP
		e.IPAddress = &ip
	}
	if err := s.store.AppendAudit(ctx, sc.Schema, e); err != nil {
		slog.Warn("audit write failed", "tenant_id", sc.TenantID, "action", action, "resource", resourceType, "error", err)
	}
}

func (s *Service) actor(sc Scope) *uuid.UUID {
	if sc.ActorID == uuid.Nil {
		return nil
	}
	id := sc.ActorID
	return &id
}

func parseDate(field, v string) (time.Time, error) {
	d, err := time.Parse(dateLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be a date in YYYY-MM-DD form", ErrInvalidInput, field)
	}
	return d, nil
}

func parseOptionalDate(field string, v *string) (*time.Time, error) {
	if v == nil || *v == "" {
		return nil, nil
	}
	d, err := parseDate(field, *v)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Dashboard returns the executive overview, computing it at most once per
// cache period.
func (s *Service) Dashboard(ctx context.Context, sc Scope) (*models.DashboardMetrics, error) {
	var m models.DashboardMetrics
	if s.cached(ctx, sc, cache.DomainDashboard, &m, "executive") {
		return &m, nil
	}
	fresh, err := s.store.DashboardMetrics(ctx, sc.Schema, s.now().UTC())
	if err != nil {
		return nil, err
	}
	s.remember(ctx, sc, cache.DomainDashboard, fresh, dashboardTTL, "executive")
	return fresh, nil
}

// ListAudit lists the namespace audit log. Tenants must enable the audit_log
// feature to read it.
func (s *Service) ListAudit(ctx context.Context, sc Scope, filter store.AuditFilter) ([]*models.AuditEntry, int, error) {
	enabled, err := s.features.IsFeatureEnabled(ctx, sc.TenantID, FeatureAuditLog)
	if err != nil {
		return nil, 0, err
	}
	if !enabled {
		return nil, 0, ErrFeatureDisabled
	}
	return s.store.ListAudit(ctx, sc.Schema, filter)
}
