package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Department is a node in a tenant's organizational tree.
type Department struct {
	ID                 uuid.UUID        `db:"id"                   json:"id"`
	Name               string           `db:"name"                 json:"name"`
	Code               *string          `db:"code"                 json:"code,omitempty"`
	ParentDepartmentID *uuid.UUID       `db:"parent_department_id" json:"parent_department_id,omitempty"`
	Budget             *decimal.Decimal `db:"budget"               json:"budget,omitempty"`
	CreatedAt          time.Time        `db:"created_at"           json:"created_at"`
	UpdatedAt          time.Time        `db:"updated_at"           json:"updated_at"`
}
