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

const departmentColumns = `id, name, code, parent_department_id, budget, created_at, updated_at`

func scanDepartment(row pgx.Row) (*models.Department, error) {
	var d models.Department
	if err := row.Scan(&d.ID, &d.Name, &d.Code, &d.ParentDepartmentID, &d.Budget, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *PostgresStore) ListDepartments(ctx context.Context, schema Schema) ([]*models.Department, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+departmentColumns+` FROM `+schema.Table("departments")+` ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	defer rows.Close()

	var depts []*models.Department
	for rows.Next() {
		d, err := scanDepartment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan department: %w", err)
		}
		depts = append(depts, d)
	}
	return depts, rows.Err()
}

func (s *PostgresStore) GetDepartment(ctx context.Context, schema Schema, id uuid.UUID) (*models.Department, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	d, err := scanDepartment(s.pool.QueryRow(ctx,
		`SELECT `+departmentColumns+` FROM `+schema.Table("departments")+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get department: %w", err)
	}
	return d, nil
}

func (s *PostgresStore) CreateDepartment(ctx context.Context, schema Schema, d *models.Department) error {
	if err := schema.Validate(); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO `+schema.Table("departments")+` (id, name, code, parent_department_id, budget, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		d.ID, d.Name, d.Code, d.ParentDepartmentID, d.Budget, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrAlreadyExists
		}
		if isForeignKeyError(err) {
			return fmt.Errorf("parent department: %w", ErrNotFound)
		}
		return fmt.Errorf("create department: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateDepartment(ctx context.Context, schema Schema, id uuid.UUID, patch DepartmentPatch) (*models.Department, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	set := map[string]any{}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Code != nil {
		set["code"] = *patch.Code
	}
	if patch.ParentDepartmentID != nil {
		set["parent_department_id"] = *patch.ParentDepartmentID
	}
	if patch.Budget != nil {
		set["budget"] = *patch.Budget
	}
	if len(set) == 0 {
		return nil, ErrNoChanges
	}

	query, args, err := psql.Update(schema.Table("departments")).
		SetMap(set).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + departmentColumns).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update department: %w", err)
	}

	d, err := scanDepartment(s.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("update department: %w", err)
	}
	return d, nil
}

func (s *PostgresStore) DeleteDepartment(ctx context.Context, schema Schema, id uuid.UUID) error {
	if err := schema.Validate(); err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM `+schema.Table("departments")+` WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete department: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
