package hr

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/hrms/internal/cache"
	"github.com/kiranshivaraju/hrms/internal/store"
	"github.com/kiranshivaraju/hrms/pkg/models"
)

var employmentTypes = map[string]bool{
	"full_time":  true,
	"part_time":  true,
	"contract":   true,
	"intern":     true,
	"consultant": true,
}

var employmentStatuses = map[string]bool{
	models.EmploymentStatusActive:     true,
	models.EmploymentStatusOnLeave:    true,
	models.EmploymentStatusSuspended:  true,
	models.EmploymentStatusTerminated: true,
}

type EmployeeInput struct {
	EmployeeCode   string     `json:"employee_code"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	EmailCompany   string     `json:"email_company"`
	JobTitle       *string    `json:"job_title"`
	DepartmentID   *uuid.UUID `json:"department_id"`
	ManagerID      *uuid.UUID `json:"manager_id"`
	EmploymentType string     `json:"employment_type"`
	StartDate      string     `json:"start_date"`
}

type EmployeeUpdate struct {
	FirstName        *string    `json:"first_name"`
	LastName         *string    `json:"last_name"`
	EmailCompany     *string    `json:"email_company"`
	JobTitle         *string    `json:"job_title"`
	DepartmentID     *uuid.UUID `json:"department_id"`
	ManagerID        *uuid.UUID `json:"manager_id"`
	EmploymentType   *string    `json:"employment_type"`
	EmploymentStatus *string    `json:"employment_status"`
	EndDate          *string    `json:"end_date"`
}

func (s *Service) ListEmployees(ctx context.Context, sc Scope, filter store.EmployeeFilter) ([]*models.Employee, int, error) {
	if filter.Status != "" && !employmentStatuses[filter.Status] {
		return nil, 0, fmt.Errorf("%w: unknown employment status %q", ErrInvalidInput, filter.Status)
	}
	return s.store.ListEmployees(ctx, sc.Schema, filter)
}

func (s *Service) GetEmployee(ctx context.Context, sc Scope, id uuid.UUID) (*models.Employee, error) {
	var e models.Employee
	if s.cached(ctx, sc, cache.DomainEmployee, &e, id.String()) {
		return &e, nil
	}
	fresh, err := s.store.GetEmployee(ctx, sc.Schema, id)
	if err != nil {
		return nil, err
	}
	s.remember(ctx, sc, cache.DomainEmployee, fresh, employeeTTL, id.String())
	return fresh, nil
}

func (s *Service) CreateEmployee(ctx context.Context, sc Scope, in EmployeeInput) (*models.Employee, error) {
	if strings.TrimSpace(in.EmployeeCode) == "" {
		return nil, fmt.Errorf("%w: employee_code is required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.FirstName) == "" || strings.TrimSpace(in.LastName) == "" {
		return nil, fmt.Errorf("%w: first_name and last_name are required", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(in.EmailCompany); err != nil {
		return nil, fmt.Errorf("%w: email_company is not a valid address", ErrInvalidInput)
	}
	if in.EmploymentType == "" {
		in.EmploymentType = "full_time"
	}
	if !employmentTypes[in.EmploymentType] {
		return nil, fmt.Errorf("%w: unknown employment_type %q", ErrInvalidInput, in.EmploymentType)
	}
	start, err := parseDate("start_date", in.StartDate)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	e := &models.Employee{
		ID:               uuid.New(),
		EmployeeCode:     strings.TrimSpace(in.EmployeeCode),
		FirstName:        strings.TrimSpace(in.FirstName),
		LastName:         strings.TrimSpace(in.LastName),
		EmailCompany:     in.EmailCompany,
		JobTitle:         in.JobTitle,
		DepartmentID:     in.DepartmentID,
		ManagerID:        in.ManagerID,
		EmploymentType:   in.EmploymentType,
		EmploymentStatus: models.EmploymentStatusActive,
		StartDate:        start,
		CreatedBy:        s.actor(sc),
		UpdatedBy:        s.actor(sc),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.store.CreateEmployee(ctx, sc.Schema, e); err != nil {
		return nil, err
	}

	s.forget(ctx, sc, "")
	s.audit(ctx, sc, "create", "employee", e.ID, e.FirstName+" "+e.LastName, nil,
		map[string]any{"employee_code": e.EmployeeCode, "email_company": e.EmailCompany})
	return e, nil
}

func (s *Service) UpdateEmployee(ctx context.Context, sc Scope, id uuid.UUID, in EmployeeUpdate) (*models.Employee, error) {
	if in.EmploymentType != nil && !employmentTypes[*in.EmploymentType] {
		return nil, fmt.Errorf("%w: unknown employment_type %q", ErrInvalidInput, *in.EmploymentType)
	}
	if in.EmploymentStatus != nil && !employmentStatuses[*in.EmploymentStatus] {
		return nil, fmt.Errorf("%w: unknown employment_status %q", ErrInvalidInput, *in.EmploymentStatus)
	}
	if in.EmailCompany != nil {
		if _, err := mail.ParseAddress(*in.EmailCompany); err != nil {
			return nil, fmt.Errorf("%w: email_company is not a valid address", ErrInvalidInput)
		}
	}
	if in.ManagerID != nil && *in.ManagerID == id {
		return nil, fmt.Errorf("%w: an employee cannot manage themselves", ErrInvalidInput)
	}
	end, err := parseOptionalDate("end_date", in.EndDate)
	if err != nil {
		return nil, err
	}

	patch := store.EmployeePatch{
		FirstName:        in.FirstName,
		LastName:         in.LastName,
		EmailCompany:     in.EmailCompany,
		JobTitle:         in.JobTitle,
		DepartmentID:     in.DepartmentID,
		ManagerID:        in.ManagerID,
		EmploymentType:   in.EmploymentType,
		EmploymentStatus: in.EmploymentStatus,
		EndDate:          end,
		UpdatedBy:        s.actor(sc),
	}
	e, err := s.store.UpdateEmployee(ctx, sc.Schema, id, patch)
	if err != nil {
		return nil, err
	}

	s.forget(ctx, sc, cache.DomainEmployee, id.String())
	s.audit(ctx, sc, "update", "employee", e.ID, e.FirstName+" "+e.LastName, nil,
		map[string]any{"employment_status": e.EmploymentStatus})
	return e, nil
}

func (s *Service) DeleteEmployee(ctx context.Context, sc Scope, id uuid.UUID) error {
	if err := s.store.SoftDeleteEmployee(ctx, sc.Schema, id, s.actor(sc)); err != nil {
		return err
	}
	s.forget(ctx, sc, cache.DomainEmployee, id.String())
	s.audit(ctx, sc, "delete", "employee", id, "", nil, nil)
	return nil
}
