package store

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/kiranshivaraju/hrms/pkg/models"
)

// --- Leave types ---

const leaveTypeColumns = `id, name, code, annual_entitlement, paid, requires_approval, created_at, updated_at`

func scanLeaveType(row pgx.Row) (*models.LeaveType, error) {
	var lt models.LeaveType
	if err := row.Scan(&lt.ID, &lt.Name, &lt.Code, &lt.AnnualEntitlement, &lt.Paid, &lt.RequiresApproval,
		&lt.CreatedAt, &lt.UpdatedAt); err != nil {
		return nil, err
	}
	return &lt, nil
}

func (s *PostgresStore) ListLeaveTypes(ctx context.Context, schema Schema) ([]*models.LeaveType, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+leaveTypeColumns+` FROM `+schema.Table("leave_types")+` ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list leave types: %w", err)
	}
	defer rows.Close()

	var types []*models.LeaveType
	for rows.Next() {
		lt, err := scanLeaveType(rows)
		if err != nil {
			return nil, fmt.Errorf("scan leave type: %w", err)
		}
		types = append(types, lt)
	}
	return types, rows.Err()
}

func (s *PostgresStore) GetLeaveType(ctx context.Context, schema Schema, id uuid.UUID) (*models.LeaveType, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	lt, err := scanLeaveType(s.pool.QueryRow(ctx,
		`SELECT `+leaveTypeColumns+` FROM `+schema.Table("leave_types")+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get leave type: %w", err)
	}
	return lt, nil
}

func (s *PostgresStore) CreateLeaveType(ctx context.Context, schema Schema, lt *models.LeaveType) error {
	if err := schema.Validate(); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO `+schema.Table("leave_types")+` (id, name, code, annual_entitlement, paid, requires_approval, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		lt.ID, lt.Name, lt.Code, lt.AnnualEntitlement, lt.Paid, lt.RequiresApproval, lt.CreatedAt, lt.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("create leave type: %w", err)
	}
	return nil
}

// --- Leave requests ---

const leaveRequestColumns = `id, employee_id, leave_type_id, start_date, end_date, duration_days, reason,
	status, approved_by, approval_comment, approved_at, created_at, updated_at`

func scanLeaveRequest(row pgx.Row) (*models.LeaveRequest, error) {
	var lr models.LeaveRequest
	if err := row.Scan(&lr.ID, &lr.EmployeeID, &lr.LeaveTypeID, &lr.StartDate, &lr.EndDate, &lr.DurationDays,
		&lr.Reason, &lr.Status, &lr.ApprovedBy, &lr.ApprovalComment, &lr.ApprovedAt,
		&lr.CreatedAt, &lr.UpdatedAt); err != nil {
		return nil, err
	}
	return &lr, nil
}

func (s *PostgresStore) ListLeaveRequests(ctx context.Context, schema Schema, filter LeaveFilter) ([]*models.LeaveRequest, int, error) {
	if err := schema.Validate(); err != nil {
		return nil, 0, err
	}

	where := sq.Eq{}
	if filter.EmployeeID != nil {
		where["employee_id"] = *filter.EmployeeID
	}
	if filter.Status != "" {
		where["status"] = filter.Status
	}

	countQuery, countArgs, err := psql.Select("COUNT(*)").From(schema.Table("leave_requests")).Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count leave requests: %w", err)
	}
	var total int
	if err := s.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count leave requests: %w", err)
	}

	limit, offset := pageBounds(filter.Page, filter.Limit)
	query, args, err := psql.Select(leaveRequestColumns).From(schema.Table("leave_requests")).Where(where).
		OrderBy("created_at DESC").
		Limit(limit).Offset(offset).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list leave requests: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list leave requests: %w", err)
	}
	defer rows.Close()

	var requests []*models.LeaveRequest
	for rows.Next() {
		lr, err := scanLeaveRequest(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan leave request: %w", err)
		}
		requests = append(requests, lr)
	}
	return requests, total, rows.Err()
}

func (s *PostgresStore) GetLeaveRequest(ctx context.Context, schema Schema, id uuid.UUID) (*models.LeaveRequest, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	lr, err := scanLeaveRequest(s.pool.QueryRow(ctx,
		`SELECT `+leaveRequestColumns+` FROM `+schema.Table("leave_requests")+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get leave request: %w", err)
	}
	return lr, nil
}

func (s *PostgresStore) CreateLeaveRequest(ctx context.Context, schema Schema, lr *models.LeaveRequest) error {
	if err := schema.Validate(); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO `+schema.Table("leave_requests")+` (id, employee_id, leave_type_id, start_date, end_date,
		   duration_days, reason, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		lr.ID, lr.EmployeeID, lr.LeaveTypeID, lr.StartDate, lr.EndDate, lr.DurationDays, lr.Reason,
		lr.Status, lr.CreatedAt, lr.UpdatedAt)
	if err != nil {
		if isForeignKeyError(err) {
			return fmt.Errorf("employee or leave type: %w", ErrNotFound)
		}
		return fmt.Errorf("create leave request: %w", err)
	}
	return nil
}

// DecideLeaveRequest approves or rejects a submitted request. Requests in any
// other state return ErrInvalidTransition.
func (s *PostgresStore) DecideLeaveRequest(ctx context.Context, schema Schema, id uuid.UUID, d LeaveDecision) (*models.LeaveRequest, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	if d.Status != models.LeaveStatusApproved && d.Status != models.LeaveStatusRejected {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTransition, d.Status)
	}

	lr, err := scanLeaveRequest(s.pool.QueryRow(ctx,
		`UPDATE `+schema.Table("leave_requests")+`
		 SET status = $2, approved_by = $3, approval_comment = $4, approved_at = $5, updated_at = NOW()
		 WHERE id = $1 AND status = 'submitted'
		 RETURNING `+leaveRequestColumns,
		id, d.Status, d.ApprovedBy, d.Comment, d.At))
	if errors.Is(err, pgx.ErrNoRows) {
		if _, getErr := s.GetLeaveRequest(ctx, schema, id); getErr != nil {
			return nil, getErr
		}
		return nil, ErrInvalidTransition
	}
	if err != nil {
		return nil, fmt.Errorf("decide leave request: %w", err)
	}
	return lr, nil
}

// LeaveBalances reports entitlement and approved usage per leave type for an
// employee in the calendar year.
func (s *PostgresStore) LeaveBalances(ctx context.Context, schema Schema, employeeID uuid.UUID, year int) ([]*models.LeaveBalance, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx,
		`SELECT lt.id, lt.name, lt.annual_entitlement, COALESCE(SUM(lr.duration_days), 0)
		 FROM `+schema.Table("leave_types")+` lt
		 LEFT JOIN `+schema.Table("leave_requests")+` lr
		   ON lr.leave_type_id = lt.id
		  AND lr.employee_id = $1
		  AND lr.status = 'approved'
		  AND EXTRACT(YEAR FROM lr.start_date) = $2
		 GROUP BY lt.id, lt.name, lt.annual_entitlement
		 ORDER BY lt.name`, employeeID, year)
	if err != nil {
		return nil, fmt.Errorf("leave balances: %w", err)
	}
	defer rows.Close()

	var balances []*models.LeaveBalance
	for rows.Next() {
		var b models.LeaveBalance
		if err := rows.Scan(&b.LeaveTypeID, &b.LeaveType, &b.TotalEntitlement, &b.UsedDays); err != nil {
			return nil, fmt.Errorf("scan leave balance: %w", err)
		}
		b.RemainingDays = b.TotalEntitlement - b.UsedDays
		balances = append(balances, &b)
	}
	return balances, rows.Err()
}
