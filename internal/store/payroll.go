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

// --- Payroll periods ---

const payrollPeriodColumns = `id, period_name, start_date, end_date, salary_due_date, status,
	total_employees, total_salary, created_at, updated_at`

func scanPayrollPeriod(row pgx.Row) (*models.PayrollPeriod, error) {
	var p models.PayrollPeriod
	if err := row.Scan(&p.ID, &p.PeriodName, &p.StartDate, &p.EndDate, &p.SalaryDueDate, &p.Status,
		&p.TotalEmployees, &p.TotalSalary, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PostgresStore) ListPayrollPeriods(ctx context.Context, schema Schema, status string) ([]*models.PayrollPeriod, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	q := psql.Select(payrollPeriodColumns).From(schema.Table("payroll_periods")).OrderBy("start_date DESC")
	if status != "" {
		q = q.Where(sq.Eq{"status": status})
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list payroll periods: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list payroll periods: %w", err)
	}
	defer rows.Close()

	var periods []*models.PayrollPeriod
	for rows.Next() {
		p, err := scanPayrollPeriod(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payroll period: %w", err)
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

func (s *PostgresStore) GetPayrollPeriod(ctx context.Context, schema Schema, id uuid.UUID) (*models.PayrollPeriod, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	p, err := scanPayrollPeriod(s.pool.QueryRow(ctx,
		`SELECT `+payrollPeriodColumns+` FROM `+schema.Table("payroll_periods")+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get payroll period: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) CreatePayrollPeriod(ctx context.Context, schema Schema, p *models.PayrollPeriod) error {
	if err := schema.Validate(); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO `+schema.Table("payroll_periods")+` (id, period_name, start_date, end_date, salary_due_date,
		   status, total_employees, total_salary, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.ID, p.PeriodName, p.StartDate, p.EndDate, p.SalaryDueDate, p.Status,
		p.TotalEmployees, p.TotalSalary, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("create payroll period: %w", err)
	}
	return nil
}

// TransitionPayrollPeriod moves a period from one status to the next. Moving
// to processed records the slip count and salary total of the period.
func (s *PostgresStore) TransitionPayrollPeriod(ctx context.Context, schema Schema, id uuid.UUID, from, to string) (*models.PayrollPeriod, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	slips := schema.Table("salary_slips")
	p, err := scanPayrollPeriod(s.pool.QueryRow(ctx,
		`UPDATE `+schema.Table("payroll_periods")+` p
		 SET status = $3,
		     total_employees = CASE WHEN $3 = 'processed'
		       THEN (SELECT COUNT(*) FROM `+slips+` WHERE payroll_period_id = p.id) ELSE p.total_employees END,
		     total_salary = CASE WHEN $3 = 'processed'
		       THEN (SELECT COALESCE(SUM(net_salary), 0) FROM `+slips+` WHERE payroll_period_id = p.id) ELSE p.total_salary END,
		     updated_at = NOW()
		 WHERE p.id = $1 AND p.status = $2
		 RETURNING `+prefixColumns("p", payrollPeriodColumns),
		id, from, to))
	if errors.Is(err, pgx.ErrNoRows) {
		if _, getErr := s.GetPayrollPeriod(ctx, schema, id); getErr != nil {
			return nil, getErr
		}
		return nil, ErrInvalidTransition
	}
	if err != nil {
		return nil, fmt.Errorf("transition payroll period: %w", err)
	}
	return p, nil
}

// --- Salary slips ---

const salarySlipColumns = `id, employee_id, payroll_period_id, base_salary, allowances, deductions,
	net_salary, paid_status, paid_at, payment_reference, created_at, updated_at`

func scanSalarySlip(row pgx.Row) (*models.SalarySlip, error) {
	var ss models.SalarySlip
	if err := row.Scan(&ss.ID, &ss.EmployeeID, &ss.PayrollPeriodID, &ss.BaseSalary, &ss.Allowances,
		&ss.Deductions, &ss.NetSalary, &ss.PaidStatus, &ss.PaidAt, &ss.PaymentReference,
		&ss.CreatedAt, &ss.UpdatedAt); err != nil {
		return nil, err
	}
	return &ss, nil
}

func (s *PostgresStore) CreateSalarySlip(ctx context.Context, schema Schema, ss *models.SalarySlip) error {
	if err := schema.Validate(); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO `+schema.Table("salary_slips")+` (id, employee_id, payroll_period_id, base_salary,
		   allowances, deductions, net_salary, paid_status, paid_at, payment_reference, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		ss.ID, ss.EmployeeID, ss.PayrollPeriodID, ss.BaseSalary, ss.Allowances, ss.Deductions,
		ss.NetSalary, ss.PaidStatus, ss.PaidAt, ss.PaymentReference, ss.CreatedAt, ss.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrAlreadyExists
		}
		if isForeignKeyError(err) {
			return fmt.Errorf("employee or payroll period: %w", ErrNotFound)
		}
		return fmt.Errorf("create salary slip: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetSalarySlip(ctx context.Context, schema Schema, id uuid.UUID) (*models.SalarySlip, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	ss, err := scanSalarySlip(s.pool.QueryRow(ctx,
		`SELECT `+salarySlipColumns+` FROM `+schema.Table("salary_slips")+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get salary slip: %w", err)
	}
	return ss, nil
}

func (s *PostgresStore) ListSalarySlips(ctx context.Context, schema Schema, periodID uuid.UUID) ([]*models.SalarySlip, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+salarySlipColumns+` FROM `+schema.Table("salary_slips")+`
		 WHERE payroll_period_id = $1 ORDER BY created_at`, periodID)
	if err != nil {
		return nil, fmt.Errorf("list salary slips: %w", err)
	}
	defer rows.Close()

	var slips []*models.SalarySlip
	for rows.Next() {
		ss, err := scanSalarySlip(rows)
		if err != nil {
			return nil, fmt.Errorf("scan salary slip: %w", err)
		}
		slips = append(slips, ss)
	}
	return slips, rows.Err()
}
