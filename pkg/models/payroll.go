package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	PayrollStatusDraft      = "draft"
	PayrollStatusProcessing = "processing"
	PayrollStatusProcessed  = "processed"
)

const (
	SlipStatusPending = "pending"
	SlipStatusPaid    = "paid"
)

// PayrollPeriod is a pay cycle. Start/end pairs are unique per tenant.
type PayrollPeriod struct {
	ID             uuid.UUID       `db:"id"              json:"id"`
	PeriodName     string          `db:"period_name"     json:"period_name"`
	StartDate      time.Time       `db:"start_date"      json:"start_date"`
	EndDate        time.Time       `db:"end_date"        json:"end_date"`
	SalaryDueDate  *time.Time      `db:"salary_due_date" json:"salary_due_date,omitempty"`
	Status         string          `db:"status"          json:"status"`
	TotalEmployees int             `db:"total_employees" json:"total_employees"`
	TotalSalary    decimal.Decimal `db:"total_salary"    json:"total_salary"`
	CreatedAt      time.Time       `db:"created_at"      json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at"      json:"updated_at"`
}

// SalarySlip records what an employee is paid for one payroll period.
// Amounts are stored exactly as supplied by the caller.
type SalarySlip struct {
	ID               uuid.UUID       `db:"id"                json:"id"`
	EmployeeID       uuid.UUID       `db:"employee_id"       json:"employee_id"`
	PayrollPeriodID  uuid.UUID       `db:"payroll_period_id" json:"payroll_period_id"`
	BaseSalary       decimal.Decimal `db:"base_salary"       json:"base_salary"`
	Allowances       decimal.Decimal `db:"allowances"        json:"allowances"`
	Deductions       decimal.Decimal `db:"deductions"        json:"deductions"`
	NetSalary        decimal.Decimal `db:"net_salary"        json:"net_salary"`
	PaidStatus       string          `db:"paid_status"       json:"paid_status"`
	PaidAt           *time.Time      `db:"paid_at"           json:"paid_at,omitempty"`
	PaymentReference *string         `db:"payment_reference" json:"payment_reference,omitempty"`
	CreatedAt        time.Time       `db:"created_at"        json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at"        json:"updated_at"`
}
