package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	EmploymentStatusActive     = "active"
	EmploymentStatusOnLeave    = "on_leave"
	EmploymentStatusSuspended  = "suspended"
	EmploymentStatusTerminated = "terminated"
)

// Employee is a person employed by the tenant organization.
type Employee struct {
	ID               uuid.UUID  `db:"id"                json:"id"`
	EmployeeCode     string     `db:"employee_code"     json:"employee_code"`
	FirstName        string     `db:"first_name"        json:"first_name"`
	LastName         string     `db:"last_name"         json:"last_name"`
	EmailCompany     string     `db:"email_company"     json:"email_company"`
	JobTitle         *string    `db:"job_title"         json:"job_title,omitempty"`
	DepartmentID     *uuid.UUID `db:"department_id"     json:"department_id,omitempty"`
	ManagerID        *uuid.UUID `db:"manager_id"        json:"manager_id,omitempty"`
	EmploymentType   string     `db:"employment_type"   json:"employment_type"`
	EmploymentStatus string     `db:"employment_status" json:"employment_status"`
	StartDate        time.Time  `db:"start_date"        json:"start_date"`
	EndDate          *time.Time `db:"end_date"          json:"end_date,omitempty"`
	CreatedBy        *uuid.UUID `db:"created_by"        json:"created_by,omitempty"`
	UpdatedBy        *uuid.UUID `db:"updated_by"        json:"updated_by,omitempty"`
	CreatedAt        time.Time  `db:"created_at"        json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at"        json:"updated_at"`
	DeletedAt        *time.Time `db:"deleted_at"        json:"-"`
}
