package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleAdmin    = "admin"
	RoleHR       = "hr"
	RoleManager  = "manager"
	RoleEmployee = "employee"
)

// ValidRole reports whether r is a known user role.
func ValidRole(r string) bool {
	switch r {
	case RoleAdmin, RoleHR, RoleManager, RoleEmployee:
		return true
	}
	return false
}

// User is a login identity inside a tenant's namespace.
// Only the bcrypt hash of the password is stored.
type User struct {
	ID           uuid.UUID  `db:"id"            json:"id"`
	Email        string     `db:"email"         json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name"     json:"full_name"`
	Role         string     `db:"role"          json:"role"`
	IsActive     bool       `db:"is_active"     json:"is_active"`
	LastLoginAt  *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at"    json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"    json:"updated_at"`
}
