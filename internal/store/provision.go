package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kiranshivaraju/hrms/internal/metrics"
)

const (
	defaultProvisionTimeout = 60 * time.Second
	compensationTimeout     = 30 * time.Second
)

// Provisioner creates and removes tenant namespaces.
type Provisioner struct {
	db      DB
	timeout time.Duration
	metrics *metrics.Metrics
}

// NewProvisioner creates a Provisioner. A non-positive timeout falls back to
// one minute. m may be nil.
func NewProvisioner(db DB, timeout time.Duration, m *metrics.Metrics) *Provisioner {
	if timeout <= 0 {
		timeout = defaultProvisionTimeout
	}
	return &Provisioner{db: db, timeout: timeout, metrics: m}
}

// Provision creates schema and its full table set. Re-running over a complete
// namespace is a no-op. If any step fails, a namespace created by this call
// is dropped again before the error is returned; a namespace that already
// existed is left untouched.
//
// The work is detached from ctx cancellation and bounded by the provisioner
// timeout, so an abandoned request cannot leave a half-built namespace.
func (p *Provisioner) Provision(ctx context.Context, schema Schema) (err error) {
	if err := schema.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		result := metrics.LabelSuccess
		if err != nil {
			result = metrics.LabelFailure
		}
		if p.metrics != nil {
			p.metrics.Provisions.WithLabelValues(result).Inc()
			p.metrics.ProvisionDuration.Observe(time.Since(start).Seconds())
		}
	}()

	existed, err := p.Exists(ctx, schema)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrProvisioningFailed, schema, err)
	}

	if _, err := p.db.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+schema.Ident()); err != nil {
		p.compensate(ctx, schema, existed)
		return fmt.Errorf("%w: create schema %s: %w", ErrProvisioningFailed, schema, err)
	}

	for _, table := range namespaceTables {
		for _, stmt := range table.ddl(schema) {
			if _, err := p.db.Exec(ctx, stmt); err != nil {
				p.compensate(ctx, schema, existed)
				return fmt.Errorf("%w: create table %s.%s: %w", ErrProvisioningFailed, schema, table.name, err)
			}
		}
	}

	slog.Info("namespace provisioned", "schema", schema, "tables", len(namespaceTables), "existed", existed)
	return nil
}

// compensate drops a namespace this provisioning run created. Failure to drop
// is logged and counted, never returned.
func (p *Provisioner) compensate(ctx context.Context, schema Schema, existed bool) {
	if existed {
		slog.Warn("provisioning failed on pre-existing namespace, leaving it in place", "schema", schema)
		return
	}

	dropCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	if err := p.Drop(dropCtx, schema); err != nil {
		slog.Warn("orphaned namespace", "schema", schema, "error", err)
		if p.metrics != nil {
			p.metrics.OrphanedNamespaces.Inc()
		}
		return
	}
	slog.Info("namespace rolled back", "schema", schema)
}

// Drop irreversibly removes schema and everything in it.
func (p *Provisioner) Drop(ctx context.Context, schema Schema) error {
	if err := schema.Validate(); err != nil {
		return err
	}
	if _, err := p.db.Exec(ctx, "DROP SCHEMA IF EXISTS "+schema.Ident()+" CASCADE"); err != nil {
		return fmt.Errorf("drop namespace %s: %w", schema, err)
	}
	return nil
}

// Exists reports whether schema is present in the database.
func (p *Provisioner) Exists(ctx context.Context, schema Schema) (bool, error) {
	var exists bool
	err := p.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM information_schema.schemata WHERE schema_name = $1)`,
		string(schema),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check namespace %s: %w", schema, err)
	}
	return exists, nil
}

// Tables lists the base tables present in schema, sorted by name.
func (p *Provisioner) Tables(ctx context.Context, schema Schema) ([]string, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	rows, err := p.db.Query(ctx,
		`SELECT table_name FROM information_schema.tables
		 WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		 ORDER BY table_name`, string(schema))
	if err != nil {
		return nil, fmt.Errorf("list namespace tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}
