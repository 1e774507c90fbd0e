package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	mw "github.com/kiranshivaraju/hrms/internal/api/middleware"
	"github.com/kiranshivaraju/hrms/internal/api/response"
	"github.com/kiranshivaraju/hrms/internal/metrics"
	"github.com/kiranshivaraju/hrms/pkg/models"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	Auth      *mw.Auth
	Tenant    *mw.TenantContext
	RateLimit *mw.RateLimit
	Metrics   *metrics.Metrics

	MetricsHandler  http.Handler
	HealthHandler   http.HandlerFunc
	RegisterHandler http.HandlerFunc
	LoginHandler    http.HandlerFunc

	GetTenant    http.HandlerFunc
	DeleteTenant http.HandlerFunc
	ListFeatures http.HandlerFunc
	GetFeature   http.HandlerFunc
	SetFeature   http.HandlerFunc

	Dashboard http.HandlerFunc
	ListAudit http.HandlerFunc

	ListDepartments  http.HandlerFunc
	GetDepartment    http.HandlerFunc
	CreateDepartment http.HandlerFunc
	UpdateDepartment http.HandlerFunc
	DeleteDepartment http.HandlerFunc

	ListEmployees  http.HandlerFunc
	GetEmployee    http.HandlerFunc
	CreateEmployee http.HandlerFunc
	UpdateEmployee http.HandlerFunc
	DeleteEmployee http.HandlerFunc

	ListLeaveTypes     http.HandlerFunc
	CreateLeaveType    http.HandlerFunc
	ListLeaveRequests  http.HandlerFunc
	GetLeaveRequest    http.HandlerFunc
	CreateLeaveRequest http.HandlerFunc
	ApproveLeave       http.HandlerFunc
	RejectLeave        http.HandlerFunc
	LeaveBalance       http.HandlerFunc

	ListPayrollPeriods   http.HandlerFunc
	GetPayrollPeriod     http.HandlerFunc
	CreatePayrollPeriod  http.HandlerFunc
	AdvancePayrollPeriod http.HandlerFunc
	ListSalarySlips      http.HandlerFunc
	CreateSalarySlip     http.HandlerFunc
	GetSalarySlip        http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.Logger)
	r.Use(mw.Recovery)
	if deps.Metrics != nil {
		r.Use(mw.Instrument(deps.Metrics))
	}

	// Public routes
	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}
	r.Post("/api/v1/auth/register", orNotImplemented(deps.RegisterHandler))
	r.Post("/api/v1/auth/login", orNotImplemented(deps.LoginHandler))

	// Tenant routes: a verified token naming an active tenant is required
	// before anything below runs.
	r.Group(func(r chi.Router) {
		r.Use(deps.Auth.Authenticate)
		r.Use(deps.Tenant.Bind)
		r.Use(deps.RateLimit.Limit)

		staff := deps.Auth.RequireRole(models.RoleAdmin, models.RoleHR)
		managers := deps.Auth.RequireRole(models.RoleAdmin, models.RoleHR, models.RoleManager)
		admin := deps.Auth.RequireRole(models.RoleAdmin)

		r.Get("/api/v1/tenant", orNotImplemented(deps.GetTenant))
		r.With(admin).Delete("/api/v1/tenant", orNotImplemented(deps.DeleteTenant))
		r.Get("/api/v1/features", orNotImplemented(deps.ListFeatures))
		r.Get("/api/v1/features/{name}", orNotImplemented(deps.GetFeature))
		r.With(admin).Put("/api/v1/features/{name}", orNotImplemented(deps.SetFeature))

		r.With(managers).Get("/api/v1/dashboard", orNotImplemented(deps.Dashboard))
		r.With(admin).Get("/api/v1/audit", orNotImplemented(deps.ListAudit))

		r.Route("/api/v1/departments", func(r chi.Router) {
			r.Get("/", orNotImplemented(deps.ListDepartments))
			r.Get("/{departmentID}", orNotImplemented(deps.GetDepartment))
			r.With(staff).Post("/", orNotImplemented(deps.CreateDepartment))
			r.With(staff).Patch("/{departmentID}", orNotImplemented(deps.UpdateDepartment))
			r.With(staff).Delete("/{departmentID}", orNotImplemented(deps.DeleteDepartment))
		})

		r.Route("/api/v1/employees", func(r chi.Router) {
			r.Get("/", orNotImplemented(deps.ListEmployees))
			r.Get("/{employeeID}", orNotImplemented(deps.GetEmployee))
			r.Get("/{employeeID}/leave-balance", orNotImplemented(deps.LeaveBalance))
			r.With(staff).Post("/", orNotImplemented(deps.CreateEmployee))
			r.With(staff).Patch("/{employeeID}", orNotImplemented(deps.UpdateEmployee))
			r.With(staff).Delete("/{employeeID}", orNotImplemented(deps.DeleteEmployee))
		})

		r.Route("/api/v1/leave-types", func(r chi.Router) {
			r.Get("/", orNotImplemented(deps.ListLeaveTypes))
			r.With(staff).Post("/", orNotImplemented(deps.CreateLeaveType))
		})

		r.Route("/api/v1/leave-requests", func(r chi.Router) {
			r.Get("/", orNotImplemented(deps.ListLeaveRequests))
			r.Post("/", orNotImplemented(deps.CreateLeaveRequest))
			r.Get("/{leaveID}", orNotImplemented(deps.GetLeaveRequest))
			r.With(managers).Post("/{leaveID}/approve", orNotImplemented(deps.ApproveLeave))
			r.With(managers).Post("/{leaveID}/reject", orNotImplemented(deps.RejectLeave))
		})

		r.Route("/api/v1/payroll", func(r chi.Router) {
			r.Use(staff)
			r.Get("/periods", orNotImplemented(deps.ListPayrollPeriods))
			r.Post("/periods", orNotImplemented(deps.CreatePayrollPeriod))
			r.Get("/periods/{periodID}", orNotImplemented(deps.GetPayrollPeriod))
			r.Post("/periods/{periodID}/advance", orNotImplemented(deps.AdvancePayrollPeriod))
			r.Get("/periods/{periodID}/slips", orNotImplemented(deps.ListSalarySlips))
			r.Post("/periods/{periodID}/slips", orNotImplemented(deps.CreateSalarySlip))
			r.Get("/slips/{slipID}", orNotImplemented(deps.GetSalarySlip))
		})
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
