package store

import "fmt"

type tableDef struct {
	name string
	ddl  func(s Schema) []string
}

// namespaceTables is the fixed table set of every tenant namespace, in
// foreign-key dependency order.
var namespaceTables = []tableDef{
	{name: "users", ddl: func(s Schema) []string {
		return []string{
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
				id            UUID PRIMARY KEY,
				email         TEXT NOT NULL,
				password_hash TEXT NOT NULL,
				full_name     TEXT NOT NULL,
				role          TEXT NOT NULL DEFAULT 'employee'
				              CHECK (role IN ('admin', 'hr', 'manager', 'employee')),
				is_active     BOOLEAN NOT NULL DEFAULT TRUE,
				last_login_at TIMESTAMPTZ,
				created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`, s.Table("users")),
			// Logins match email case-insensitively, so uniqueness must too.
			fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email_lower ON %s (lower(email))`, s.Table("users")),
		}
	}},
	{name: "departments", ddl: func(s Schema) []string {
		return []string{fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id                   UUID PRIMARY KEY,
			name                 TEXT NOT NULL UNIQUE,
			code                 TEXT UNIQUE,
			parent_department_id UUID REFERENCES %s (id) ON DELETE SET NULL,
			budget               NUMERIC(15, 2),
			created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, s.Table("departments"), s.Table("departments"))}
	}},
	{name: "employees", ddl: func(s Schema) []string {
		return []string{
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
				id                UUID PRIMARY KEY,
				employee_code     TEXT NOT NULL UNIQUE,
				first_name        TEXT NOT NULL,
				last_name         TEXT NOT NULL,
				email_company     TEXT NOT NULL UNIQUE,
				job_title         TEXT,
				department_id     UUID REFERENCES %s (id) ON DELETE SET NULL,
				manager_id        UUID REFERENCES %s (id) ON DELETE SET NULL,
				employment_type   TEXT NOT NULL DEFAULT 'full_time',
				employment_status TEXT NOT NULL DEFAULT 'active'
				                  CHECK (employment_status IN ('active', 'on_leave', 'suspended', 'terminated')),
				start_date        DATE NOT NULL,
				end_date          DATE,
				created_by        UUID,
				updated_by        UUID,
				created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				deleted_at        TIMESTAMPTZ
			)`, s.Table("employees"), s.Table("departments"), s.Table("employees")),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_employees_department ON %s (department_id)`, s.Table("employees")),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_employees_status ON %s (employment_status)`, s.Table("employees")),
		}
	}},
	{name: "leave_types", ddl: func(s Schema) []string {
		return []string{fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id                 UUID PRIMARY KEY,
			name               TEXT NOT NULL UNIQUE,
			code               TEXT UNIQUE,
			annual_entitlement INT NOT NULL DEFAULT 0 CHECK (annual_entitlement >= 0),
			paid               BOOLEAN NOT NULL DEFAULT TRUE,
			requires_approval  BOOLEAN NOT NULL DEFAULT TRUE,
			created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, s.Table("leave_types"))}
	}},
	{name: "leave_requests", ddl: func(s Schema) []string {
		return []string{
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
				id               UUID PRIMARY KEY,
				employee_id      UUID NOT NULL REFERENCES %s (id) ON DELETE CASCADE,
				leave_type_id    UUID NOT NULL REFERENCES %s (id),
				start_date       DATE NOT NULL,
				end_date         DATE NOT NULL,
				duration_days    INT NOT NULL CHECK (duration_days > 0),
				reason           TEXT,
				status           TEXT NOT NULL DEFAULT 'submitted'
				                 CHECK (status IN ('submitted', 'approved', 'rejected', 'cancelled')),
				approved_by      UUID,
				approval_comment TEXT,
				approved_at      TIMESTAMPTZ,
				created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				CHECK (end_date >= start_date)
			)`, s.Table("leave_requests"), s.Table("employees"), s.Table("leave_types")),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_leave_requests_employee ON %s (employee_id, status)`, s.Table("leave_requests")),
		}
	}},
	{name: "payroll_periods", ddl: func(s Schema) []string {
		return []string{fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id              UUID PRIMARY KEY,
			period_name     TEXT NOT NULL,
			start_date      DATE NOT NULL,
			end_date        DATE NOT NULL,
			salary_due_date DATE,
			status          TEXT NOT NULL DEFAULT 'draft'
			                CHECK (status IN ('draft', 'processing', 'processed')),
			total_employees INT NOT NULL DEFAULT 0,
			total_salary    NUMERIC(15, 2) NOT NULL DEFAULT 0,
			created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (start_date, end_date),
			CHECK (end_date >= start_date)
		)`, s.Table("payroll_periods"))}
	}},
	{name: "salary_slips", ddl: func(s Schema) []string {
		return []string{fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id                UUID PRIMARY KEY,
			employee_id       UUID NOT NULL REFERENCES %s (id) ON DELETE CASCADE,
			payroll_period_id UUID NOT NULL REFERENCES %s (id) ON DELETE CASCADE,
			base_salary       NUMERIC(15, 2) NOT NULL,
			allowances        NUMERIC(15, 2) NOT NULL DEFAULT 0,
			deductions        NUMERIC(15, 2) NOT NULL DEFAULT 0,
			net_salary        NUMERIC(15, 2) NOT NULL,
			paid_status       TEXT NOT NULL DEFAULT 'pending' CHECK (paid_status IN ('pending', 'paid')),
			paid_at           TIMESTAMPTZ,
			payment_reference TEXT,
			created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (employee_id, payroll_period_id)
		)`, s.Table("salary_slips"), s.Table("employees"), s.Table("payroll_periods"))}
	}},
	{name: "audit_log", ddl: func(s Schema) []string {
		return []string{
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
				id            UUID PRIMARY KEY,
				action        TEXT NOT NULL,
				resource_type TEXT NOT NULL,
				resource_id   UUID,
				resource_name TEXT,
				old_values    JSONB,
				new_values    JSONB,
				performed_by  UUID,
				ip_address    TEXT,
				created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`, s.Table("audit_log")),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_audit_log_created ON %s (created_at DESC)`, s.Table("audit_log")),
		}
	}},
}

// NamespaceTables returns the table names every provisioned namespace holds,
// in creation order.
func NamespaceTables() []string {
	names := make([]string, len(namespaceTables))
	for i, t := range namespaceTables {
		names[i] = t.name
	}
	return names
}
