package hr

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/hrms/internal/cache"
	"github.com/kiranshivaraju/hrms/internal/store"
	"github.com/kiranshivaraju/hrms/pkg/models"
	"github.com/shopspring/decimal"
)

type DepartmentInput struct {
	Name               string           `json:"name"`
	Code               *string          `json:"code"`
	ParentDepartmentID *uuid.UUID       `json:"parent_department_id"`
	Budget             *decimal.Decimal `json:"budget"`
}

func (s *Service) ListDepartments(ctx context.Context, sc Scope) ([]*models.Department, error) {
	var depts []*models.Department
	if s.cached(ctx, sc, cache.DomainOrg, &depts, "departments") {
		return depts, nil
	}
	depts, err := s.store.ListDepartments(ctx, sc.Schema)
	if err != nil {
		return nil, err
	}
	if depts == nil {
		depts = []*models.Department{}
	}
	s.remember(ctx, sc, cache.DomainOrg, depts, departmentsTTL, "departments")
	return depts, nil
}

func (s *Service) GetDepartment(ctx context.Context, sc Scope, id uuid.UUID) (*models.Department, error) {
	return s.store.GetDepartment(ctx, sc.Schema, id)
}

func (s *Service) CreateDepartment(ctx context.Context, sc Scope, in DepartmentInput) (*models.Department, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if in.Budget != nil && in.Budget.IsNegative() {
		return nil, fmt.Errorf("%w: budget must not be negative", ErrInvalidInput)
	}

	now := s.now().UTC()
	d := &models.Department{
		ID:                 uuid.New(),
		Name:               name,
		Code:               in.Code,
		ParentDepartmentID: in.ParentDepartmentID,
		Budget:             in.Budget,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.store.CreateDepartment(ctx, sc.Schema, d); err != nil {
		return nil, err
	}

	s.forget(ctx, sc, cache.DomainOrg)
	s.audit(ctx, sc, "create", "department", d.ID, d.Name, nil, map[string]any{"name": d.Name})
	return d, nil
}

func (s *Service) UpdateDepartment(ctx context.Context, sc Scope, id uuid.UUID, patch store.DepartmentPatch) (*models.Department, error) {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, fmt.Errorf("%w: name must not be empty", ErrInvalidInput)
	}
	if patch.ParentDepartmentID != nil && *patch.ParentDepartmentID == id {
		return nil, fmt.Errorf("%w: a department cannot be its own parent", ErrInvalidInput)
	}
	d, err := s.store.UpdateDepartment(ctx, sc.Schema, id, patch)
	if err != nil {
		return nil, err
	}

	s.forget(ctx, sc, cache.DomainOrg)
	s.audit(ctx, sc, "update", "department", d.ID, d.Name, nil, map[string]any{"name": d.Name})
	return d, nil
}

func (s *Service) DeleteDepartment(ctx context.Context, sc Scope, id uuid.UUID) error {
	if err := s.store.DeleteDepartment(ctx, sc.Schema, id); err != nil {
		return err
	}
	s.forget(ctx, sc, cache.DomainOrg)
	s.audit(ctx, sc, "delete", "department", id, "", nil, nil)
	return nil
}
