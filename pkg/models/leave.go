package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	LeaveStatusSubmitted = "submitted"
	LeaveStatusApproved  = "approved"
	LeaveStatusRejected  = "rejected"
	LeaveStatusCancelled = "cancelled"
)

// LeaveType describes a category of leave and its yearly entitlement.
type LeaveType struct {
	ID                uuid.UUID `db:"id"                 json:"id"`
	Name              string    `db:"name"               json:"name"`
	Code              *string   `db:"code"               json:"code,omitempty"`
	AnnualEntitlement int       `db:"annual_entitlement" json:"annual_entitlement"`
	Paid              bool      `db:"paid"               json:"paid"`
	RequiresApproval  bool      `db:"requires_approval"  json:"requires_approval"`
	CreatedAt         time.Time `db:"created_at"         json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"         json:"updated_at"`
}

// LeaveRequest is an employee's request for time off.
type LeaveRequest struct {
	ID              uuid.UUID  `db:"id"               json:"id"`
	EmployeeID      uuid.UUID  `db:"employee_id"      json:"employee_id"`
	LeaveTypeID     uuid.UUID  `db:"leave_type_id"    json:"leave_type_id"`
	StartDate       time.Time  `db:"start_date"       json:"start_date"`
	EndDate         time.Time  `db:"end_date"         json:"end_date"`
	DurationDays    int        `db:"duration_days"    json:"duration_days"`
	Reason          *string    `db:"reason"           json:"reason,omitempty"`
	Status          string     `db:"status"           json:"status"`
	ApprovedBy      *uuid.UUID `db:"approved_by"      json:"approved_by,omitempty"`
	ApprovalComment *string    `db:"approval_comment" json:"approval_comment,omitempty"`
	ApprovedAt      *time.Time `db:"approved_at"      json:"approved_at,omitempty"`
	CreatedAt       time.Time  `db:"created_at"       json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"       json:"updated_at"`
}

// LeaveBalance summarizes usage of one leave type for an employee in a year.
type LeaveBalance struct {
	LeaveTypeID      uuid.UUID `json:"leave_type_id"`
	LeaveType        string    `json:"leave_type"`
	TotalEntitlement int       `json:"total_entitlement"`
	UsedDays         int       `json:"used_days"`
	RemainingDays    int       `json:"remaining_days"`
}
