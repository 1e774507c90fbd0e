// Package models contains shared data models used across the HRMS codebase.
package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	TenantStatusActive    = "active"
	TenantStatusSuspended = "suspended"
	TenantStatusInactive  = "inactive"
)

// Tenant is an isolated customer organization. Its entity tables live in the
// PostgreSQL schema named by SchemaName; the row itself lives in the shared
// public.tenants directory.
type Tenant struct {
	ID         uuid.UUID      `db:"id"          json:"id"`
	Name       string         `db:"name"        json:"name"`
	Slug       string         `db:"slug"        json:"slug"`
	SchemaName string         `db:"schema_name" json:"schema_name"`
	Status     string         `db:"status"      json:"status"`
	AdminEmail string         `db:"admin_email" json:"admin_email"`
	Settings   map[string]any `db:"settings"    json:"settings"`
	CreatedAt  time.Time      `db:"created_at"  json:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at"  json:"updated_at"`
	DeletedAt  *time.Time     `db:"deleted_at"  json:"deleted_at,omitempty"`
}

// IsActive reports whether requests may be served for the tenant.
func (t *Tenant) IsActive() bool {
	return t.Status == TenantStatusActive && t.DeletedAt == nil
}

// ValidTenantStatus reports whether s is a known lifecycle status.
func ValidTenantStatus(s string) bool {
	switch s {
	case TenantStatusActive, TenantStatusSuspended, TenantStatusInactive:
		return true
	}
	return false
}

// FeatureFlag toggles optional functionality for a single tenant.
type FeatureFlag struct {
	ID          uuid.UUID      `db:"id"           json:"id"`
	TenantID    uuid.UUID      `db:"tenant_id"    json:"tenant_id"`
	FeatureName string         `db:"feature_name" json:"feature_name"`
	Enabled     bool           `db:"enabled"      json:"enabled"`
	Config      map[string]any `db:"config"       json:"config"`
	CreatedAt   time.Time      `db:"created_at"   json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"   json:"updated_at"`
}

// TenantAuditEntry records a lifecycle change on a tenant directory row.
type TenantAuditEntry struct {
	ID        uuid.UUID      `db:"id"         json:"id"`
	TenantID  uuid.UUID      `db:"tenant_id"  json:"tenant_id"`
	Action    string         `db:"action"     json:"action"`
	Changes   map[string]any `db:"changes"    json:"changes"`
	ChangedBy *string        `db:"changed_by" json:"changed_by,omitempty"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}
