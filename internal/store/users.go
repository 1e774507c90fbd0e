package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/kiranshivaraju/hrms/pkg/models"
)

const userColumns = `id, email, password_hash, full_name, role, is_active, last_login_at, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Role, &u.IsActive,
		&u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, schema Schema, u *models.User) error {
	return createUser(ctx, s.pool, schema, u)
}

// createUser is shared with callers that seed users outside a request, such
// as tenant registration.
func createUser(ctx context.Context, db DB, schema Schema, u *models.User) error {
	if err := schema.Validate(); err != nil {
		return err
	}
	_, err := db.Exec(ctx,
		`INSERT INTO `+schema.Table("users")+` (id, email, password_hash, full_name, role, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, u.Email, u.PasswordHash, u.FullName, u.Role, u.IsActive, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetUser(ctx context.Context, schema Schema, id uuid.UUID) (*models.User, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	u, err := scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM `+schema.Table("users")+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, schema Schema, email string) (*models.User, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	u, err := scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM `+schema.Table("users")+` WHERE lower(email) = lower($1)`, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) TouchUserLogin(ctx context.Context, schema Schema, id uuid.UUID, at time.Time) error {
	if err := schema.Validate(); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx,
		`UPDATE `+schema.Table("users")+` SET last_login_at = $2, updated_at = NOW() WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("touch user login: %w", err)
	}
	return nil
}
