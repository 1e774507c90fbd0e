package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditEntry is one row of a tenant namespace's audit_log table.
type AuditEntry struct {
	ID           uuid.UUID      `db:"id"            json:"id"`
	Action       string         `db:"action"        json:"action"`
	ResourceType string         `db:"resource_type" json:"resource_type"`
	ResourceID   *uuid.UUID     `db:"resource_id"   json:"resource_id,omitempty"`
	ResourceName *string        `db:"resource_name" json:"resource_name,omitempty"`
	OldValues    map[string]any `db:"old_values"    json:"old_values,omitempty"`
	NewValues    map[string]any `db:"new_values"    json:"new_values,omitempty"`
	PerformedBy  *uuid.UUID     `db:"performed_by"  json:"performed_by,omitempty"`
	IPAddress    *string        `db:"ip_address"    json:"ip_address,omitempty"`
	CreatedAt    time.Time      `db:"created_at"    json:"created_at"`
}

// DashboardMetrics is the executive overview of a tenant. It is expensive to
// compute and is cached per tenant.
type DashboardMetrics struct {
	TotalEmployees          int            `json:"total_employees"`
	ActiveEmployees         int            `json:"active_employees"`
	OnLeaveCount            int            `json:"on_leave_count"`
	NewJoinersThisMonth     int            `json:"new_joiners_this_month"`
	DepartmentDistribution  map[string]int `json:"department_distribution"`
	LeavesPendingApproval   int            `json:"leaves_pending_approval"`
	LeavesApprovedThisMonth int            `json:"leaves_approved_this_month"`
	PayrollPeriodsOpen      int            `json:"payroll_periods_open"`
	LastUpdated             time.Time      `json:"last_updated"`
}
