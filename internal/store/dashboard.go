package store

import (
	"context"
	"fmt"
	"time"

	"github.com/kiranshivaraju/hrms/pkg/models"
)

// DashboardMetrics aggregates the executive overview for a namespace.
func (s *PostgresStore) DashboardMetrics(ctx context.Context, schema Schema, now time.Time) (*models.DashboardMetrics, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	employees := schema.Table("employees")
	leaves := schema.Table("leave_requests")

	m := &models.DashboardMetrics{
		DepartmentDistribution: map[string]int{},
		LastUpdated:            now,
	}

	err := s.pool.QueryRow(ctx,
		`SELECT
		   COUNT(*),
		   COUNT(*) FILTER (WHERE employment_status = 'active'),
		   COUNT(*) FILTER (WHERE employment_status = 'on_leave'),
		   COUNT(*) FILTER (WHERE start_date >= $1)
		 FROM `+employees+` WHERE deleted_at IS NULL`, monthStart,
	).Scan(&m.TotalEmployees, &m.ActiveEmployees, &m.OnLeaveCount, &m.NewJoinersThisMonth)
	if err != nil {
		return nil, fmt.Errorf("dashboard employee counts: %w", err)
	}

	err = s.pool.QueryRow(ctx,
		`SELECT
		   COUNT(*) FILTER (WHERE status = 'submitted'),
		   COUNT(*) FILTER (WHERE status = 'approved' AND approved_at >= $1)
		 FROM `+leaves, monthStart,
	).Scan(&m.LeavesPendingApproval, &m.LeavesApprovedThisMonth)
	if err != nil {
		return nil, fmt.Errorf("dashboard leave counts: %w", err)
	}

	err = s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM `+schema.Table("payroll_periods")+` WHERE status <> 'processed'`,
	).Scan(&m.PayrollPeriodsOpen)
	if err != nil {
		return nil, fmt.Errorf("dashboard payroll counts: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT COALESCE(d.name, 'Unassigned'), COUNT(*)
		 FROM `+employees+` e
		 LEFT JOIN `+schema.Table("departments")+` d ON d.id = e.department_id
		 WHERE e.deleted_at IS NULL
		 GROUP BY 1`)
	if err != nil {
		return nil, fmt.Errorf("dashboard department distribution: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		var count int
		if err := rows.Scan(&name, &count); err != nil {
			return nil, fmt.Errorf("scan department distribution: %w", err)
		}
		m.DepartmentDistribution[name] = count
	}
	return m, rows.Err()
}
