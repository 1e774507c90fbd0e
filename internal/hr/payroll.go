package hr

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/hrms/internal/store"
	"github.com/kiranshivaraju/hrms/pkg/models"
	"github.com/shopspring/decimal"
)

type PayrollPeriodInput struct {
	PeriodName    string  `json:"period_name"`
	StartDate     string  `json:"start_date"`
	EndDate       string  `json:"end_date"`
	SalaryDueDate *string `json:"salary_due_date"`
}

type SalarySlipInput struct {
	EmployeeID uuid.UUID       `json:"employee_id"`
	BaseSalary decimal.Decimal `json:"base_salary"`
	Allowances decimal.Decimal `json:"allowances"`
	Deductions decimal.Decimal `json:"deductions"`
	NetSalary  decimal.Decimal `json:"net_salary"`
}

// nextPayrollStatus is the only forward move allowed from each status.
var nextPayrollStatus = map[string]string{
	models.PayrollStatusDraft:      models.PayrollStatusProcessing,
	models.PayrollStatusProcessing: models.PayrollStatusProcessed,
}

func (s *Service) ListPayrollPeriods(ctx context.Context, sc Scope, status string) ([]*models.PayrollPeriod, error) {
	switch status {
	case "", models.PayrollStatusDraft, models.PayrollStatusProcessing, models.PayrollStatusProcessed:
	default:
		return nil, fmt.Errorf("%w: unknown payroll status %q", ErrInvalidInput, status)
	}
	return s.store.ListPayrollPeriods(ctx, sc.Schema, status)
}

func (s *Service) GetPayrollPeriod(ctx context.Context, sc Scope, id uuid.UUID) (*models.PayrollPeriod, error) {
	return s.store.GetPayrollPeriod(ctx, sc.Schema, id)
}

func (s *Service) CreatePayrollPeriod(ctx context.Context, sc Scope, in PayrollPeriodInput) (*models.PayrollPeriod, error) {
	name := strings.TrimSpace(in.PeriodName)
	if name == "" {
		return nil, fmt.Errorf("%w: period_name is required", ErrInvalidInput)
	}
	start, err := parseDate("start_date", in.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDate("end_date", in.EndDate)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end_date is before start_date", ErrInvalidInput)
	}
	due, err := parseOptionalDate("salary_due_date", in.SalaryDueDate)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	p := &models.PayrollPeriod{
		ID:            uuid.New(),
		PeriodName:    name,
		StartDate:     start,
		EndDate:       end,
		SalaryDueDate: due,
		Status:        models.PayrollStatusDraft,
		TotalSalary:   decimal.Zero,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.CreatePayrollPeriod(ctx, sc.Schema, p); err != nil {
		return nil, err
	}

	s.forget(ctx, sc, "")
	s.audit(ctx, sc, "create", "payroll_period", p.ID, p.PeriodName, nil, map[string]any{"status": p.Status})
	return p, nil
}

// AdvancePayrollPeriod moves a period one step along draft, processing,
// processed. Processed periods cannot move.
func (s *Service) AdvancePayrollPeriod(ctx context.Context, sc Scope, id uuid.UUID) (*models.PayrollPeriod, error) {
	current, err := s.store.GetPayrollPeriod(ctx, sc.Schema, id)
	if err != nil {
		return nil, err
	}
	next, ok := nextPayrollStatus[current.Status]
	if !ok {
		return nil, fmt.Errorf("%w: payroll period is %s", store.ErrInvalidTransition, current.Status)
	}
	p, err := s.store.TransitionPayrollPeriod(ctx, sc.Schema, id, current.Status, next)
	if err != nil {
		return nil, err
	}

	s.forget(ctx, sc, "")
	s.audit(ctx, sc, "update", "payroll_period", p.ID, p.PeriodName,
		map[string]any{"status": current.Status}, map[string]any{"status": p.Status})
	return p, nil
}

func (s *Service) CreateSalarySlip(ctx context.Context, sc Scope, periodID uuid.UUID, in SalarySlipInput) (*models.SalarySlip, error) {
	if in.EmployeeID == uuid.Nil {
		return nil, fmt.Errorf("%w: employee_id is required", ErrInvalidInput)
	}
	for field, v := range map[string]decimal.Decimal{
		"base_salary": in.BaseSalary,
		"allowances":  in.Allowances,
		"deductions":  in.Deductions,
	} {
		if v.IsNegative() {
			return nil, fmt.Errorf("%w: %s must not be negative", ErrInvalidInput, field)
		}
	}

	period, err := s.store.GetPayrollPeriod(ctx, sc.Schema, periodID)
	if err != nil {
		return nil, err
	}
	if period.Status == models.PayrollStatusProcessed {
		return nil, fmt.Errorf("%w: payroll period is already processed", store.ErrInvalidTransition)
	}

	now := s.now().UTC()
	slip := &models.SalarySlip{
		ID:              uuid.New(),
		EmployeeID:      in.EmployeeID,
		PayrollPeriodID: periodID,
		BaseSalary:      in.BaseSalary,
		Allowances:      in.Allowances,
		Deductions:      in.Deductions,
		NetSalary:       in.NetSalary,
		PaidStatus:      models.SlipStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.CreateSalarySlip(ctx, sc.Schema, slip); err != nil {
		return nil, err
	}

	s.forget(ctx, sc, "")
	s.audit(ctx, sc, "create", "salary_slip", slip.ID, "", nil,
		map[string]any{"employee_id": slip.EmployeeID.String(), "net_salary": slip.NetSalary.String()})
	return slip, nil
}

func (s *Service) ListSalarySlips(ctx context.Context, sc Scope, periodID uuid.UUID) ([]*models.SalarySlip, error) {
	if _, err := s.store.GetPayrollPeriod(ctx, sc.Schema, periodID); err != nil {
		return nil, err
	}
	return s.store.ListSalarySlips(ctx, sc.Schema, periodID)
}

func (s *Service) GetSalarySlip(ctx context.Context, sc Scope, id uuid.UUID) (*models.SalarySlip, error) {
	return s.store.GetSalarySlip(ctx, sc.Schema, id)
}
