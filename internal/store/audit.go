package store

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/kiranshivaraju/hrms/pkg/models"
)

const auditColumns = `id, action, resource_type, resource_id, resource_name, old_values, new_values,
	performed_by, ip_address, created_at`

func (s *PostgresStore) AppendAudit(ctx context.Context, schema Schema, e *models.AuditEntry) error {
	if err := schema.Validate(); err != nil {
		return err
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO `+schema.Table("audit_log")+` (id, action, resource_type, resource_id, resource_name,
		   old_values, new_values, performed_by, ip_address, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		e.ID, e.Action, e.ResourceType, e.ResourceID, e.ResourceName, e.OldValues, e.NewValues,
		e.PerformedBy, e.IPAddress, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("append audit: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListAudit(ctx context.Context, schema Schema, filter AuditFilter) ([]*models.AuditEntry, int, error) {
	if err := schema.Validate(); err != nil {
		return nil, 0, err
	}
	where := sq.Eq{}
	if filter.ResourceType != "" {
		where["resource_type"] = filter.ResourceType
	}

	countQuery, countArgs, err := psql.Select("COUNT(*)").From(schema.Table("audit_log")).Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count audit: %w", err)
	}
	var total int
	if err := s.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count audit: %w", err)
	}

	limit, offset := pageBounds(filter.Page, filter.Limit)
	query, args, err := psql.Select(auditColumns).From(schema.Table("audit_log")).Where(where).
		OrderBy("created_at DESC").Limit(limit).Offset(offset).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list audit: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list audit: %w", err)
	}
	defer rows.Close()

	var entries []*models.AuditEntry
	for rows.Next() {
		var e models.AuditEntry
		if err := rows.Scan(&e.ID, &e.Action, &e.ResourceType, &e.ResourceID, &e.ResourceName,
			&e.OldValues, &e.NewValues, &e.PerformedBy, &e.IPAddress, &e.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, total, rows.Err()
}

// prefixColumns qualifies each column of a comma separated list with alias.
func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
