package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/kiranshivaraju/hrms/pkg/models"
)

const employeeColumns = `id, employee_code, first_name, last_name, email_company, job_title, department_id,
	manager_id, employment_type, employment_status, start_date, end_date, created_by, updated_by,
	created_at, updated_at, deleted_at`

func scanEmployee(row pgx.Row) (*models.Employee, error) {
	var e models.Employee
	if err := row.Scan(&e.ID, &e.EmployeeCode, &e.FirstName, &e.LastName, &e.EmailCompany, &e.JobTitle,
		&e.DepartmentID, &e.ManagerID, &e.EmploymentType, &e.EmploymentStatus, &e.StartDate, &e.EndDate,
		&e.CreatedBy, &e.UpdatedBy, &e.CreatedAt, &e.UpdatedAt, &e.DeletedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

// ListEmployees returns one page of non-deleted employees matching filter and
// the total number of matches.
func (s *PostgresStore) ListEmployees(ctx context.Context, schema Schema, filter EmployeeFilter) ([]*models.Employee, int, error) {
	if err := schema.Validate(); err != nil {
		return nil, 0, err
	}

	where := sq.And{sq.Eq{"deleted_at": nil}}
	if filter.DepartmentID != nil {
		where = append(where, sq.Eq{"department_id": *filter.DepartmentID})
	}
	if filter.Status != "" {
		where = append(where, sq.Eq{"employment_status": filter.Status})
	}
	if filter.Search != "" {
		pattern := "%" + escapeLike(filter.Search) + "%"
		where = append(where, sq.Or{
			sq.ILike{"first_name": pattern},
			sq.ILike{"last_name": pattern},
			sq.ILike{"email_company": pattern},
			sq.ILike{"employee_code": pattern},
		})
	}

	countQuery, countArgs, err := psql.Select("COUNT(*)").From(schema.Table("employees")).Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count employees: %w", err)
	}
	var total int
	if err := s.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count employees: %w", err)
	}

	limit, offset := pageBounds(filter.Page, filter.Limit)
	query, args, err := psql.Select(employeeColumns).From(schema.Table("employees")).Where(where).
		OrderBy("last_name", "first_name").
		Limit(limit).Offset(offset).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list employees: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()

	var employees []*models.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan employee: %w", err)
		}
		employees = append(employees, e)
	}
	return employees, total, rows.Err()
}

func (s *PostgresStore) GetEmployee(ctx context.Context, schema Schema, id uuid.UUID) (*models.Employee, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	e, err := scanEmployee(s.pool.QueryRow(ctx,
		`SELECT `+employeeColumns+` FROM `+schema.Table("employees")+` WHERE id = $1 AND deleted_at IS NULL`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get employee: %w", err)
	}
	return e, nil
}

func (s *PostgresStore) CreateEmployee(ctx context.Context, schema Schema, e *models.Employee) error {
	if err := schema.Validate(); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO `+schema.Table("employees")+` (id, employee_code, first_name, last_name, email_company,
		   job_title, department_id, manager_id, employment_type, employment_status, start_date, end_date,
		   created_by, updated_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		e.ID, e.EmployeeCode, e.FirstName, e.LastName, e.EmailCompany, e.JobTitle, e.DepartmentID,
		e.ManagerID, e.EmploymentType, e.EmploymentStatus, e.StartDate, e.EndDate,
		e.CreatedBy, e.UpdatedBy, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrAlreadyExists
		}
		if isForeignKeyError(err) {
			return fmt.Errorf("department or manager: %w", ErrNotFound)
		}
		return fmt.Errorf("create employee: %w", err)
	}
	return nil
}

// UpdateEmployee applies the non-nil fields of patch.
func (s *PostgresStore) UpdateEmployee(ctx context.Context, schema Schema, id uuid.UUID, patch EmployeePatch) (*models.Employee, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	set := map[string]any{}
	if patch.FirstName != nil {
		set["first_name"] = *patch.FirstName
	}
	if patch.LastName != nil {
		set["last_name"] = *patch.LastName
	}
	if patch.EmailCompany != nil {
		set["email_company"] = *patch.EmailCompany
	}
	if patch.JobTitle != nil {
		set["job_title"] = *patch.JobTitle
	}
	if patch.DepartmentID != nil {
		set["department_id"] = *patch.DepartmentID
	}
	if patch.ManagerID != nil {
		set["manager_id"] = *patch.ManagerID
	}
	if patch.EmploymentType != nil {
		set["employment_type"] = *patch.EmploymentType
	}
	if patch.EmploymentStatus != nil {
		set["employment_status"] = *patch.EmploymentStatus
	}
	if patch.EndDate != nil {
		set["end_date"] = *patch.EndDate
	}
	if len(set) == 0 {
		return nil, ErrNoChanges
	}
	if patch.UpdatedBy != nil {
		set["updated_by"] = *patch.UpdatedBy
	}

	query, args, err := psql.Update(schema.Table("employees")).
		SetMap(set).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id, "deleted_at": nil}).
		Suffix("RETURNING " + employeeColumns).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update employee: %w", err)
	}

	e, err := scanEmployee(s.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, ErrAlreadyExists
		}
		if isForeignKeyError(err) {
			return nil, fmt.Errorf("department or manager: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("update employee: %w", err)
	}
	return e, nil
}

func (s *PostgresStore) SoftDeleteEmployee(ctx context.Context, schema Schema, id uuid.UUID, by *uuid.UUID) error {
	if err := schema.Validate(); err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE `+schema.Table("employees")+`
		 SET deleted_at = NOW(), employment_status = 'terminated', updated_by = $2, updated_at = NOW()
		 WHERE id = $1 AND deleted_at IS NULL`, id, by)
	if err != nil {
		return fmt.Errorf("soft delete employee: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
