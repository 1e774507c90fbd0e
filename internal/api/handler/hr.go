package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/hrms/internal/api/response"
	"github.com/kiranshivaraju/hrms/internal/hr"
	"github.com/kiranshivaraju/hrms/internal/store"
	"github.com/kiranshivaraju/hrms/pkg/models"
)

// DepartmentService is the department part of hr.Service.
type DepartmentService interface {
	ListDepartments(ctx context.Context, sc hr.Scope) ([]*models.Department, error)
	GetDepartment(ctx context.Context, sc hr.Scope, id uuid.UUID) (*models.Department, error)
	CreateDepartment(ctx context.Context, sc hr.Scope, in hr.DepartmentInput) (*models.Department, error)
	UpdateDepartment(ctx context.Context, sc hr.Scope, id uuid.UUID, patch store.DepartmentPatch) (*models.Department, error)
	DeleteDepartment(ctx context.Context, sc hr.Scope, id uuid.UUID) error
}

// EmployeeService is the employee part of hr.Service.
type EmployeeService interface {
	ListEmployees(ctx context.Context, sc hr.Scope, filter store.EmployeeFilter) ([]*models.Employee, int, error)
	GetEmployee(ctx context.Context, sc hr.Scope, id uuid.UUID) (*models.Employee, error)
	CreateEmployee(ctx context.Context, sc hr.Scope, in hr.EmployeeInput) (*models.Employee, error)
	UpdateEmployee(ctx context.Context, sc hr.Scope, id uuid.UUID, in hr.EmployeeUpdate) (*models.Employee, error)
	DeleteEmployee(ctx context.Context, sc hr.Scope, id uuid.UUID) error
}

// LeaveService is the leave part of hr.Service.
type LeaveService interface {
	ListLeaveTypes(ctx context.Context, sc hr.Scope) ([]*models.LeaveType, error)
	CreateLeaveType(ctx context.Context, sc hr.Scope, in hr.LeaveTypeInput) (*models.LeaveType, error)
	ListLeaveRequests(ctx context.Context, sc hr.Scope, filter store.LeaveFilter) ([]*models.LeaveRequest, int, error)
	GetLeaveRequest(ctx context.Context, sc hr.Scope, id uuid.UUID) (*models.LeaveRequest, error)
	CreateLeaveRequest(ctx context.Context, sc hr.Scope, in hr.LeaveRequestInput) (*models.LeaveRequest, error)
	ApproveLeaveRequest(ctx context.Context, sc hr.Scope, id uuid.UUID, comment *string) (*models.LeaveRequest, error)
	RejectLeaveRequest(ctx context.Context, sc hr.Scope, id uuid.UUID, comment *string) (*models.LeaveRequest, error)
	LeaveBalance(ctx context.Context, sc hr.Scope, employeeID uuid.UUID, year int) ([]*models.LeaveBalance, error)
}

// PayrollService is the payroll part of hr.Service.
type PayrollService interface {
	ListPayrollPeriods(ctx context.Context, sc hr.Scope, status string) ([]*models.PayrollPeriod, error)
	GetPayrollPeriod(ctx context.Context, sc hr.Scope, id uuid.UUID) (*models.PayrollPeriod, error)
	CreatePayrollPeriod(ctx context.Context, sc hr.Scope, in hr.PayrollPeriodInput) (*models.PayrollPeriod, error)
	AdvancePayrollPeriod(ctx context.Context, sc hr.Scope, id uuid.UUID) (*models.PayrollPeriod, error)
	CreateSalarySlip(ctx context.Context, sc hr.Scope, periodID uuid.UUID, in hr.SalarySlipInput) (*models.SalarySlip, error)
	ListSalarySlips(ctx context.Context, sc hr.Scope, periodID uuid.UUID) ([]*models.SalarySlip, error)
	GetSalarySlip(ctx context.Context, sc hr.Scope, id uuid.UUID) (*models.SalarySlip, error)
}

// InsightService is the reporting part of hr.Service.
type InsightService interface {
	Dashboard(ctx context.Context, sc hr.Scope) (*models.DashboardMetrics, error)
	ListAudit(ctx context.Context, sc hr.Scope, filter store.AuditFilter) ([]*models.AuditEntry, int, error)
}

// HRService is everything hr.Service offers over HTTP.
type HRService interface {
	DepartmentService
	EmployeeService
	LeaveService
	PayrollService
	InsightService
}

var _ HRService = (*hr.Service)(nil)

func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// --- Departments ---

type Departments struct {
	svc DepartmentService
}

func NewDepartments(svc DepartmentService) *Departments {
	return &Departments{svc: svc}
}

func (h *Departments) List() http.HandlerFunc {
	return withScope(func(w http.ResponseWriter, r *http.Request, sc hr.Scope) {
		depts, err := h.svc.ListDepartments(r.Context(), sc)
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.JSON(w, orEmpty(depts))
	})
}

func (h *Departments) Get() http.HandlerFunc {
	return withScope(func(w http.ResponseWriter, r *http.Request, sc hr.Scope) {
		id, ok := pathID(w, r, "departmentID")
		if !ok {
			return
		}
		d, err := h.svc.GetDepartment(r.Context(), sc, id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.JSON(w, d)
	})
}

func (h *Departments) Create() http.HandlerFunc {
	return withScope(func(w http.ResponseWriter, r *http.Request, sc hr.Scope) {
		var in hr.DepartmentInput
		if !decode(w, r, &in) {
			return
		}
		d, err := h.svc.CreateDepartment(r.Context(), sc, in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.Created(w, d)
	})
}

func (h *Departments) Update() http.HandlerFunc {
	return withScope(func(w http.ResponseWriter, r *http.Request, sc hr.Scope) {
		id, ok := pathID(w, r, "departmentID")
		if !ok {
			return
		}
		var in hr.DepartmentInput
		if !decode(w, r, &in) {
			return
		}
		patch := store.DepartmentPatch{
			Code:               in.Code,
			ParentDepartmentID: in.ParentDepartmentID,
			Budget:             in.Budget,
		}
		if in.Name != "" {
			patch.Name = &in.Name
		}
		d, err := h.svc.UpdateDepartment(r.Context(), sc, id, patch)
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.JSON(w, d)
	})
}

func (h *Departments) Delete() http.HandlerFunc {
	return withScope(func(w http.ResponseWriter, r *http.Request, sc hr.Scope) {
		id, ok := pathID(w, r, "departmentID")
		if !ok {
			return
		}
		if err := h.svc.DeleteDepartment(r.Context(), sc, id); err != nil {
			writeError(w, r, err)
			return
		}
		response.NoContent(w)
	})
}

// --- Employees ---

type Employees struct {
	svc EmployeeService
}

func NewEmployees(svc EmployeeService) *Employees {
	return &Employees{svc: svc}
}

func (h *Employees) List() http.HandlerFunc {
	return withScope(func(w http.ResponseWriter, r *http.Request, sc hr.Scope) {
		deptID, ok := queryID(w, r, "department_id")
		if !ok {
			return
		}
		page, limit := paging(r)
		filter := store.EmployeeFilter{
			DepartmentID: deptID,
			Status:       r.URL.Query().Get("status"),
			Search:       r.URL.Query().Get("search"),
			Page:         page,
			Limit:        limit,
		}
		employees, total, err := h.svc.ListEmployees(r.Context(), sc, filter)
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.Collection(w, orEmpty(employees), response.NewPaginationMeta(page, limit, total))
	})
}

func (h *Employees) Get() http.HandlerFunc {
	return withScope(func(w http.ResponseWriter, r *http.Request, sc hr.Scope) {
		id, ok := pathID(w, r, "employeeID")
		if !ok {
			return
		}
		e, err := h.svc.GetEmployee(r.Context(), sc, id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.JSON(w, e)
	})
}

func (h *Employees) Create() http.HandlerFunc {
	return withScope(func(w http.ResponseWriter, r *http.Request, sc hr.Scope) {
		var in hr.EmployeeInput
		if !decode(w, r, &in) {
			return
		}
		e, err := h.svc.CreateEmployee(r.Context(), sc, in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.Created(w, e)
	})
}

func (h *Employees) Update() http.HandlerFunc {
	return withScope(func(w http.ResponseWriter, r *http.Request, sc hr.Scope) {
		id, ok := pathID(w, r, "employeeID")
		if !ok {
			return
		}
		var in hr.EmployeeUpdate
		if !decode(w, r, &in) {
			return
		}
		e, err := h.svc.UpdateEmployee(r.Context(), sc, id, in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.JSON(w, e)
	})
}

func (h *Employees) Delete() http.HandlerFunc {
	return withScope(func(w http.ResponseWriter, r *http.Request, sc hr.Scope) {
		id, ok := pathID(w, r, "employeeID")
		if !ok {
			return
		}
		if err := h.svc.DeleteEmployee(r.Context(), sc, id); err != nil {
			writeError(w, r, err)
			return
		}
		response.NoContent(w)
	})
}

// --- Leave ---

type Leaves struct {
	svc LeaveService
	now func() time.Time
}

func NewLeaves(svc LeaveService) *Leaves {
	return &Leaves{svc: svc, now: time.Now}
}

func (h *Leaves) ListTypes() http.HandlerFunc {
	return withScope(func(w http.ResponseWriter, r *http.Request, sc hr.Scope) {
		types, err := h.svc.ListLeaveTypes(r.Context(), sc)
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.JSON(w, orEmpty(types))
	})
}

func (h *Leaves) CreateType() http.HandlerFunc {
	return withScope(func(w http.ResponseWriter, r *http.Request, sc hr.Scope) {
		var in hr.LeaveTypeInput
		if !decode(w, r, &in) {
			return
		}
		lt, err := h.svc.CreateLeaveType(r.Context(), sc, in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.Created(w, lt)
	})
}

func (h *Leaves) List() http.HandlerFunc {
	return withScope(func(w http.ResponseWriter, r *http.Request, sc hr.Scope) {
		empID, ok := queryID(w, r, "employee_id")
		if !ok {
			return
		}
		page, limit := paging(r)
		requests, total, err := h.svc.ListLeaveRequests(r.Context(), sc, store.LeaveFilter{
			EmployeeID: empID,
			Status:     r.URL.Query().Get("status"),
			Page:       page,
			Limit:      limit,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.Collection(w, orEmpty(requests), response.NewPaginationMeta(page, limit, total))
	})
}

func (h *Leaves) Get() http.HandlerFunc {
	return withScope(func(w http.ResponseWriter, r *http.Request, sc hr.Scope) {
		id, ok := pathID(w, r, "leaveID")
		if !ok {
			return
		}
		lr, err := h.svc.GetLeaveRequest(r.Context(), sc, id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.JSON(w, lr)
	})
}

func (h *Leaves) Create() http.HandlerFunc {
	return withScope(func(w http.ResponseWriter, r *http.Request, sc hr.Scope) {
		var in hr.LeaveRequestInput
		if !decode(w, r, &in) {
			return
		}
		lr, err := h.svc.CreateLeaveRequest(r.Context(), sc, in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.Created(w, lr)
	})
}

func (h *Leaves) Approve() http.HandlerFunc {
	return h.decide(h.svc.ApproveLeaveRequest)
}

func (h *Leaves) Reject() http.HandlerFunc {
	return h.decide(h.svc.RejectLeaveRequest)
}

func (h *Leaves) decide(fn func(context.Context, hr.Scope, uuid.UUID, *string) (*models.LeaveRequest, error)) http.HandlerFunc {
	return withScope(func(w http.ResponseWriter, r *http.Request, sc hr.Scope) {
		id, ok := pathID(w, r, "leaveID")
		if !ok {
			return
		}
		var req struct {
			Comment *string `json:"comment"`
		}
		if r.ContentLength != 0 && !decode(w, r, &req) {
			return
		}
		lr, err := fn(r.Context(), sc, id, req.Comment)
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.JSON(w, lr)
	})
}

func (h *Leaves) Balance() http.HandlerFunc {
	return withScope(func(w http.ResponseWriter, r *http.Request, sc hr.Scope) {
		id, ok := pathID(w, r, "employeeID")
		if !ok {
			return
		}
		year := h.now().Year()
		if v := r.URL.Query().Get("year"); v != "" {
			y, err := strconv.Atoi(v)
			if err != nil {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "year must be a number", nil)
				return
			}
			year = y
		}
		balances, err := h.svc.LeaveBalance(r.Context(), sc, id, year)
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.JSON(w, balances)
	})
}

// --- Payroll ---

type Payroll struct {
	svc PayrollService
}

func NewPayroll(svc PayrollService) *Payroll {
	return &Payroll{svc: svc}
}

func (h *Payroll) ListPeriods() http.HandlerFunc {
	return withScope(func(w http.ResponseWriter, r *http.Request, sc hr.Scope) {
		periods, err := h.svc.ListPayrollPeriods(r.Context(), sc, r.URL.Query().Get("status"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.JSON(w, orEmpty(periods))
	})
}

func (h *Payroll) GetPeriod() http.HandlerFunc {
	return withScope(func(w http.ResponseWriter, r *http.Request, sc hr.Scope) {
		id, ok := pathID(w, r, "periodID")
		if !ok {
			return
		}
		p, err := h.svc.GetPayrollPeriod(r.Context(), sc, id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.JSON(w, p)
	})
}

func (h *Payroll) CreatePeriod() http.HandlerFunc {
	return withScope(func(w http.ResponseWriter, r *http.Request, sc hr.Scope) {
		var in hr.PayrollPeriodInput
		if !decode(w, r, &in) {
			return
		}
		p, err := h.svc.CreatePayrollPeriod(r.Context(), sc, in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.Created(w, p)
	})
}

func (h *Payroll) AdvancePeriod() http.HandlerFunc {
	return withScope(func(w http.ResponseWriter, r *http.Request, sc hr.Scope) {
		id, ok := pathID(w, r, "periodID")
		if !ok {
			return
		}
		p, err := h.svc.AdvancePayrollPeriod(r.Context(), sc, id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.JSON(w, p)
	})
}

func (h *Payroll) ListSlips() http.HandlerFunc {
	return withScope(func(w http.ResponseWriter, r *http.Request, sc hr.Scope) {
		id, ok := pathID(w, r, "periodID")
		if !ok {
			return
		}
		slips, err := h.svc.ListSalarySlips(r.Context(), sc, id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.JSON(w, orEmpty(slips))
	})
}

func (h *Payroll) CreateSlip() http.HandlerFunc {
	return withScope(func(w http.ResponseWriter, r *http.Request, sc hr.Scope) {
		id, ok := pathID(w, r, "periodID")
		if !ok {
			return
		}
		var in hr.SalarySlipInput
		if !decode(w, r, &in) {
			return
		}
		slip, err := h.svc.CreateSalarySlip(r.Context(), sc, id, in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.Created(w, slip)
	})
}

func (h *Payroll) GetSlip() http.HandlerFunc {
	return withScope(func(w http.ResponseWriter, r *http.Request, sc hr.Scope) {
		id, ok := pathID(w, r, "slipID")
		if !ok {
			return
		}
		slip, err := h.svc.GetSalarySlip(r.Context(), sc, id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.JSON(w, slip)
	})
}

// --- Dashboard & audit ---

type Insights struct {
	svc InsightService
}

func NewInsights(svc InsightService) *Insights {
	return &Insights{svc: svc}
}

func (h *Insights) Dashboard() http.HandlerFunc {
	return withScope(func(w http.ResponseWriter, r *http.Request, sc hr.Scope) {
		m, err := h.svc.Dashboard(r.Context(), sc)
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.JSON(w, m)
	})
}

func (h *Insights) Audit() http.HandlerFunc {
	return withScope(func(w http.ResponseWriter, r *http.Request, sc hr.Scope) {
		page, limit := paging(r)
		entries, total, err := h.svc.ListAudit(r.Context(), sc, store.AuditFilter{
			ResourceType: r.URL.Query().Get("resource_type"),
			Page:         page,
			Limit:        limit,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.Collection(w, orEmpty(entries), response.NewPaginationMeta(page, limit, total))
	})
}
