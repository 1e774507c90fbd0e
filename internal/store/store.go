package store

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/kiranshivaraju/hrms/pkg/models"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound           = errors.New("resource not found")
	ErrAlreadyExists      = errors.New("resource already exists")
	ErrProvisioningFailed = errors.New("namespace provisioning failed")
	ErrInvalidSchema      = errors.New("invalid namespace name")
	ErrInvalidSlug        = errors.New("invalid tenant slug")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrNoChanges          = errors.New("no fields to update")
)

// DB is the subset of pgxpool.Pool and pgx.Tx used by the store.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Directory is the shared tenant registry. It lives outside every tenant
// namespace and is the only authority on which tenants exist.
type Directory interface {
	CreateTenant(ctx context.Context, t *models.Tenant) error
	GetTenant(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	GetTenantBySlug(ctx context.Context, slug string) (*models.Tenant, error)
	ListTenants(ctx context.Context, status string) ([]*models.Tenant, error)
	SetTenantStatus(ctx context.Context, id uuid.UUID, status string) error
	SoftDeleteTenant(ctx context.Context, id uuid.UUID) error

	SetFeature(ctx context.Context, tenantID uuid.UUID, name string, enabled bool, config map[string]any) (*models.FeatureFlag, error)
	GetFeature(ctx context.Context, tenantID uuid.UUID, name string) (*models.FeatureFlag, error)
	IsFeatureEnabled(ctx context.Context, tenantID uuid.UUID, name string) (bool, error)
	ListFeatures(ctx context.Context, tenantID uuid.UUID) ([]*models.FeatureFlag, error)

	LogTenantAction(ctx context.Context, entry *models.TenantAuditEntry) error
}

// Every method below takes the tenant namespace explicitly. Callers obtain a
// Schema from the tenant directory, never from client input.

type UserStore interface {
	CreateUser(ctx context.Context, s Schema, u *models.User) error
	GetUser(ctx context.Context, s Schema, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, s Schema, email string) (*models.User, error)
	TouchUserLogin(ctx context.Context, s Schema, id uuid.UUID, at time.Time) error
}

type DepartmentStore interface {
	ListDepartments(ctx context.Context, s Schema) ([]*models.Department, error)
	GetDepartment(ctx context.Context, s Schema, id uuid.UUID) (*models.Department, error)
	CreateDepartment(ctx context.Context, s Schema, d *models.Department) error
	UpdateDepartment(ctx context.Context, s Schema, id uuid.UUID, patch DepartmentPatch) (*models.Department, error)
	DeleteDepartment(ctx context.Context, s Schema, id uuid.UUID) error
}

type EmployeeStore interface {
	ListEmployees(ctx context.Context, s Schema, filter EmployeeFilter) ([]*models.Employee, int, error)
	GetEmployee(ctx context.Context, s Schema, id uuid.UUID) (*models.Employee, error)
	CreateEmployee(ctx context.Context, s Schema, e *models.Employee) error
	UpdateEmployee(ctx context.Context, s Schema, id uuid.UUID, patch EmployeePatch) (*models.Employee, error)
	SoftDeleteEmployee(ctx context.Context, s Schema, id uuid.UUID, by *uuid.UUID) error
}

type LeaveStore interface {
	ListLeaveTypes(ctx context.Context, s Schema) ([]*models.LeaveType, error)
	GetLeaveType(ctx context.Context, s Schema, id uuid.UUID) (*models.LeaveType, error)
	CreateLeaveType(ctx context.Context, s Schema, lt *models.LeaveType) error

	ListLeaveRequests(ctx context.Context, s Schema, filter LeaveFilter) ([]*models.LeaveRequest, int, error)
	GetLeaveRequest(ctx context.Context, s Schema, id uuid.UUID) (*models.LeaveRequest, error)
	CreateLeaveRequest(ctx context.Context, s Schema, lr *models.LeaveRequest) error
	DecideLeaveRequest(ctx context.Context, s Schema, id uuid.UUID, decision LeaveDecision) (*models.LeaveRequest, error)
	LeaveBalances(ctx context.Context, s Schema, employeeID uuid.UUID, year int) ([]*models.LeaveBalance, error)
}

type PayrollStore interface {
	ListPayrollPeriods(ctx context.Context, s Schema, status string) ([]*models.PayrollPeriod, error)
	GetPayrollPeriod(ctx context.Context, s Schema, id uuid.UUID) (*models.PayrollPeriod, error)
	CreatePayrollPeriod(ctx context.Context, s Schema, p *models.PayrollPeriod) error
	TransitionPayrollPeriod(ctx context.Context, s Schema, id uuid.UUID, from, to string) (*models.PayrollPeriod, error)

	CreateSalarySlip(ctx context.Context, s Schema, slip *models.SalarySlip) error
	GetSalarySlip(ctx context.Context, s Schema, id uuid.UUID) (*models.SalarySlip, error)
	ListSalarySlips(ctx context.Context, s Schema, periodID uuid.UUID) ([]*models.SalarySlip, error)
}

type AuditStore interface {
	AppendAudit(ctx context.Context, s Schema, e *models.AuditEntry) error
	ListAudit(ctx context.Context, s Schema, filter AuditFilter) ([]*models.AuditEntry, int, error)
}

type DashboardStore interface {
	DashboardMetrics(ctx context.Context, s Schema, now time.Time) (*models.DashboardMetrics, error)
}

// Store is the complete data access interface.
type Store interface {
	Ping(ctx context.Context) error
	Directory
	UserStore
	DepartmentStore
	EmployeeStore
	LeaveStore
	PayrollStore
	AuditStore
	DashboardStore
}

type EmployeeFilter struct {
	DepartmentID *uuid.UUID
	Status       string
	Search       string
	Page         int
	Limit        int
}

type EmployeePatch struct {
	FirstName        *string
	LastName         *string
	EmailCompany     *string
	JobTitle         *string
	DepartmentID     *uuid.UUID
	ManagerID        *uuid.UUID
	EmploymentType   *string
	EmploymentStatus *string
	EndDate          *time.Time
	UpdatedBy        *uuid.UUID
}

type DepartmentPatch struct {
	Name               *string
	Code               *string
	ParentDepartmentID *uuid.UUID
	Budget             *decimal.Decimal
}

type LeaveFilter struct {
	EmployeeID *uuid.UUID
	Status     string
	Page       int
	Limit      int
}

// LeaveDecision moves a submitted leave request to approved or rejected.
type LeaveDecision struct {
	Status     string
	ApprovedBy uuid.UUID
	Comment    *string
	At         time.Time
}

type AuditFilter struct {
	ResourceType string
	Page         int
	Limit        int
}

// maxOffset caps OFFSET well inside PostgreSQL's bigint range. Pages past it
// are empty anyway.
const maxOffset = math.MaxInt32

// pageBounds returns LIMIT and OFFSET for a 1-based page.
func pageBounds(page, limit int) (uint64, uint64) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if uint64(page-1) > maxOffset/uint64(limit) {
		return uint64(limit), maxOffset
	}
	return uint64(limit), uint64(page-1) * uint64(limit)
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}

// isForeignKeyError checks if a pgx error is a foreign key violation.
func isForeignKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return false
}
