package hr

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/hrms/internal/cache"
	"github.com/kiranshivaraju/hrms/internal/store"
	"github.com/kiranshivaraju/hrms/pkg/models"
)

type LeaveTypeInput struct {
	Name              string  `json:"name"`
	Code              *string `json:"code"`
	AnnualEntitlement int     `json:"annual_entitlement"`
	Paid              *bool   `json:"paid"`
	RequiresApproval  *bool   `json:"requires_approval"`
}

type LeaveRequestInput struct {
	EmployeeID  uuid.UUID `json:"employee_id"`
	LeaveTypeID uuid.UUID `json:"leave_type_id"`
	StartDate   string    `json:"start_date"`
	EndDate     string    `json:"end_date"`
	Reason      *string   `json:"reason"`
}

var leaveStatuses = map[string]bool{
	models.LeaveStatusSubmitted: true,
	models.LeaveStatusApproved:  true,
	models.LeaveStatusRejected:  true,
	models.LeaveStatusCancelled: true,
}

func (s *Service) ListLeaveTypes(ctx context.Context, sc Scope) ([]*models.LeaveType, error) {
	return s.store.ListLeaveTypes(ctx, sc.Schema)
}

func (s *Service) CreateLeaveType(ctx context.Context, sc Scope, in LeaveTypeInput) (*models.LeaveType, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if in.AnnualEntitlement < 0 {
		return nil, fmt.Errorf("%w: annual_entitlement must not be negative", ErrInvalidInput)
	}

	now := s.now().UTC()
	lt := &models.LeaveType{
		ID:                uuid.New(),
		Name:              name,
		Code:              in.Code,
		AnnualEntitlement: in.AnnualEntitlement,
		Paid:              in.Paid == nil || *in.Paid,
		RequiresApproval:  in.RequiresApproval == nil || *in.RequiresApproval,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.store.CreateLeaveType(ctx, sc.Schema, lt); err != nil {
		return nil, err
	}

	// Balances are derived from entitlements.
	s.forgetPrefix(ctx, sc, cache.DomainStats, "leave_balance")
	s.audit(ctx, sc, "create", "leave_type", lt.ID, lt.Name, nil, map[string]any{"annual_entitlement": lt.AnnualEntitlement})
	return lt, nil
}

func (s *Service) ListLeaveRequests(ctx context.Context, sc Scope, filter store.LeaveFilter) ([]*models.LeaveRequest, int, error) {
	if filter.Status != "" && !leaveStatuses[filter.Status] {
		return nil, 0, fmt.Errorf("%w: unknown leave status %q", ErrInvalidInput, filter.Status)
	}
	return s.store.ListLeaveRequests(ctx, sc.Schema, filter)
}

func (s *Service) GetLeaveRequest(ctx context.Context, sc Scope, id uuid.UUID) (*models.LeaveRequest, error) {
	return s.store.GetLeaveRequest(ctx, sc.Schema, id)
}

// CreateLeaveRequest submits a request. The duration counts both the first
// and the last day.
func (s *Service) CreateLeaveRequest(ctx context.Context, sc Scope, in LeaveRequestInput) (*models.LeaveRequest, error) {
	if in.EmployeeID == uuid.Nil || in.LeaveTypeID == uuid.Nil {
		return nil, fmt.Errorf("%w: employee_id and leave_type_id are required", ErrInvalidInput)
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

	now := s.now().UTC()
	lr := &models.LeaveRequest{
		ID:           uuid.New(),
		EmployeeID:   in.EmployeeID,
		LeaveTypeID:  in.LeaveTypeID,
		StartDate:    start,
		EndDate:      end,
		DurationDays: inclusiveDays(start, end),
		Reason:       in.Reason,
		Status:       models.LeaveStatusSubmitted,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateLeaveRequest(ctx, sc.Schema, lr); err != nil {
		return nil, err
	}

	s.forget(ctx, sc, "")
	s.audit(ctx, sc, "create", "leave_request", lr.ID, "", nil,
		map[string]any{"employee_id": lr.EmployeeID.String(), "duration_days": lr.DurationDays})
	return lr, nil
}

func (s *Service) ApproveLeaveRequest(ctx context.Context, sc Scope, id uuid.UUID, comment *string) (*models.LeaveRequest, error) {
	return s.decideLeave(ctx, sc, id, models.LeaveStatusApproved, comment)
}

func (s *Service) RejectLeaveRequest(ctx context.Context, sc Scope, id uuid.UUID, comment *string) (*models.LeaveRequest, error) {
	return s.decideLeave(ctx, sc, id, models.LeaveStatusRejected, comment)
}

func (s *Service) decideLeave(ctx context.Context, sc Scope, id uuid.UUID, status string, comment *string) (*models.LeaveRequest, error) {
	lr, err := s.store.DecideLeaveRequest(ctx, sc.Schema, id, store.LeaveDecision{
		Status:     status,
		ApprovedBy: sc.ActorID,
		Comment:    comment,
		At:         s.now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	s.forgetPrefix(ctx, sc, cache.DomainStats, "leave_balance", lr.EmployeeID.String())
	s.audit(ctx, sc, status, "leave_request", lr.ID, "",
		map[string]any{"status": models.LeaveStatusSubmitted}, map[string]any{"status": lr.Status})
	return lr, nil
}

// LeaveBalance reports an employee's per-type balance for a calendar year.
func (s *Service) LeaveBalance(ctx context.Context, sc Scope, employeeID uuid.UUID, year int) ([]*models.LeaveBalance, error) {
	if year < 1900 || year > 9999 {
		return nil, fmt.Errorf("%w: year out of range", ErrInvalidInput)
	}
	q := []string{"leave_balance", employeeID.String(), strconv.Itoa(year)}

	var balances []*models.LeaveBalance
	if s.cached(ctx, sc, cache.DomainStats, &balances, q...) {
		return balances, nil
	}
	balances, err := s.store.LeaveBalances(ctx, sc.Schema, employeeID, year)
	if err != nil {
		return nil, err
	}
	if balances == nil {
		balances = []*models.LeaveBalance{}
	}
	s.remember(ctx, sc, cache.DomainStats, balances, leaveBalanceTTL, q...)
	return balances, nil
}

func inclusiveDays(start, end time.Time) int {
	return int(end.Sub(start).Hours()/24) + 1
}
