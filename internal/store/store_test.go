package store_test

import (
	"context"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kiranshivaraju/hrms/internal/store"
	"github.com/kiranshivaraju/hrms/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// migrationsDir returns the absolute path to the migrations directory.
func migrationsDir() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "..", "..", "migrations")
}

// setupTestDB spins up a Postgres container, runs migrations, and returns a pool.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("hrms_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, pgContainer.Terminate(ctx))
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	err = store.RunMigrations(connStr, migrationsDir())
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	return pool
}

// newTenant provisions a namespace and registers a tenant row for it.
func newTenant(t *testing.T, pool *pgxpool.Pool, slug string) (*models.Tenant, store.Schema) {
	t.Helper()
	ctx := context.Background()
	id := uuid.New()
	schema, err := store.NamespaceName(slug, id)
	require.NoError(t, err)
	require.NoError(t, store.NewProvisioner(pool, 10*time.Second, nil).Provision(ctx, schema))

	now := time.Now().UTC().Truncate(time.Microsecond)
	tenant := &models.Tenant{
		ID: id, Name: slug + " Inc", Slug: slug, SchemaName: schema.String(),
		Status: models.TenantStatusActive, AdminEmail: "admin@" + slug + ".test",
		CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, store.NewPostgresStore(pool).CreateTenant(ctx, tenant))
	return tenant, schema
}

// --- Provisioning ---

func TestProvision_CreatesFullTableSet(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	p := store.NewProvisioner(pool, 10*time.Second, nil)
	ctx := context.Background()
	schema := testSchema(t)

	require.NoError(t, p.Provision(ctx, schema))

	tables, err := p.Tables(ctx, schema)
	require.NoError(t, err)
	assert.ElementsMatch(t, store.NamespaceTables(), tables)
}

func TestProvision_Idempotent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	p := store.NewProvisioner(pool, 10*time.Second, nil)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	schema := testSchema(t)

	require.NoError(t, p.Provision(ctx, schema))

	now := time.Now().UTC()
	dept := &models.Department{ID: uuid.New(), Name: "Engineering", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.CreateDepartment(ctx, schema, dept))

	require.NoError(t, p.Provision(ctx, schema))

	tables, err := p.Tables(ctx, schema)
	require.NoError(t, err)
	assert.Len(t, tables, len(store.NamespaceTables()))

	depts, err := s.ListDepartments(ctx, schema)
	require.NoError(t, err)
	require.Len(t, depts, 1, "re-provisioning must not destroy data")
}

func TestProvision_CompensationThenCleanReprovision(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	p := store.NewProvisioner(pool, 10*time.Second, nil)
	ctx := context.Background()
	schema := testSchema(t)

	// Fail the seventh table creation from inside the database.
	_, err := pool.Exec(ctx, `CREATE FUNCTION fail_salary_slips() RETURNS event_trigger LANGUAGE plpgsql AS $$
		DECLARE obj record;
		BEGIN
			FOR obj IN SELECT * FROM pg_event_trigger_ddl_commands() LOOP
				IF obj.object_identity LIKE '%.salary_slips' THEN
					RAISE EXCEPTION 'injected failure';
				END IF;
			END LOOP;
		END $$`)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `CREATE EVENT TRIGGER fail_salary_slips ON ddl_command_end
		WHEN TAG IN ('CREATE TABLE') EXECUTE FUNCTION fail_salary_slips()`)
	require.NoError(t, err)

	err = p.Provision(ctx, schema)
	require.ErrorIs(t, err, store.ErrProvisioningFailed)
	assert.Contains(t, err.Error(), "salary_slips")

	exists, err := p.Exists(ctx, schema)
	require.NoError(t, err)
	assert.False(t, exists, "partially built namespace must be dropped")

	_, err = pool.Exec(ctx, `DROP EVENT TRIGGER fail_salary_slips`)
	require.NoError(t, err)

	require.NoError(t, p.Provision(ctx, schema))
	tables, err := p.Tables(ctx, schema)
	require.NoError(t, err)
	assert.ElementsMatch(t, store.NamespaceTables(), tables)
}

func TestProvision_FailureKeepsPreExistingNamespace(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	p := store.NewProvisioner(pool, 10*time.Second, nil)
	ctx := context.Background()
	schema := testSchema(t)

	_, err := pool.Exec(ctx, `CREATE SCHEMA `+schema.Ident())
	require.NoError(t, err)
	// A sequence squatting on a table name makes the index step fail.
	_, err = pool.Exec(ctx, `CREATE SEQUENCE `+schema.Table("employees"))
	require.NoError(t, err)

	err = p.Provision(ctx, schema)
	require.ErrorIs(t, err, store.ErrProvisioningFailed)

	exists, err := p.Exists(ctx, schema)
	require.NoError(t, err)
	assert.True(t, exists, "namespace that predates the call must survive")
}

func TestDrop_RemovesNamespace(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	p := store.NewProvisioner(pool, 10*time.Second, nil)
	ctx := context.Background()
	schema := testSchema(t)

	require.NoError(t, p.Provision(ctx, schema))
	require.NoError(t, p.Drop(ctx, schema))

	exists, err := p.Exists(ctx, schema)
	require.NoError(t, err)
	assert.False(t, exists)
}

// --- Directory ---

func TestTenant_CreateAndGet(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	tenant, schema := newTenant(t, pool, "acme")

	got, err := s.GetTenant(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, "acme", got.Slug)
	assert.Equal(t, schema.String(), got.SchemaName)
	assert.True(t, got.IsActive())

	bySlug, err := s.GetTenantBySlug(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, tenant.ID, bySlug.ID)

	_, err = s.GetTenant(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetTenantBySlug(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestTenant_DuplicateSlug(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	tenant, _ := newTenant(t, pool, "acme")

	dup := *tenant
	dup.ID = uuid.New()
	dup.Name = "Other"
	dup.SchemaName = "tenant_acme_00000000"
	err := s.CreateTenant(ctx, &dup)
	assert.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestTenant_ListByStatusAndSoftDelete(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	a, _ := newTenant(t, pool, "alpha")
	b, _ := newTenant(t, pool, "bravo")

	require.NoError(t, s.SetTenantStatus(ctx, a.ID, models.TenantStatusSuspended))
	require.NoError(t, s.SoftDeleteTenant(ctx, b.ID))

	suspended, err := s.ListTenants(ctx, models.TenantStatusSuspended)
	require.NoError(t, err)
	require.Len(t, suspended, 1)
	assert.Equal(t, a.ID, suspended[0].ID)

	all, err := s.ListTenants(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	deleted, err := s.GetTenant(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TenantStatusInactive, deleted.Status)
	assert.NotNil(t, deleted.DeletedAt)
	assert.False(t, deleted.IsActive())

	assert.ErrorIs(t, s.SoftDeleteTenant(ctx, uuid.New()), store.ErrNotFound)
}

func TestFeature_LastWriteWins(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	tenant, _ := newTenant(t, pool, "acme")

	enabled, err := s.IsFeatureEnabled(ctx, tenant.ID, "audit_log")
	require.NoError(t, err)
	assert.False(t, enabled, "unknown flags default to off")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.SetFeature(ctx, tenant.ID, "audit_log", i%2 == 0, map[string]any{"n": i})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	_, err = s.SetFeature(ctx, tenant.ID, "audit_log", true, map[string]any{"retention_days": 90})
	require.NoError(t, err)

	flags, err := s.ListFeatures(ctx, tenant.ID)
	require.NoError(t, err)
	require.Len(t, flags, 1, "one row per (tenant, feature)")

	f, err := s.GetFeature(ctx, tenant.ID, "audit_log")
	require.NoError(t, err)
	assert.True(t, f.Enabled)
	assert.Equal(t, float64(90), f.Config["retention_days"])
}

func TestLogTenantAction(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	tenant, _ := newTenant(t, pool, "acme")

	by := "operator"
	err := s.LogTenantAction(ctx, &models.TenantAuditEntry{
		TenantID: tenant.ID, Action: "suspended",
		Changes: map[string]any{"status": "suspended"}, ChangedBy: &by,
	})
	require.NoError(t, err)

	var count int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM tenant_audit WHERE tenant_id = $1`, tenant.ID).Scan(&count))
	assert.Equal(t, 1, count)
}

// --- Namespace isolation ---

func TestNamespaces_AreIsolated(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	_, schemaA := newTenant(t, pool, "alpha")
	_, schemaB := newTenant(t, pool, "bravo")

	now := time.Now().UTC()
	emp := &models.Employee{
		ID: uuid.New(), EmployeeCode: "E-001", FirstName: "Ada", LastName: "Lovelace",
		EmailCompany: "ada@alpha.test", EmploymentType: "full_time",
		EmploymentStatus: models.EmploymentStatusActive, StartDate: now, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, s.CreateEmployee(ctx, schemaA, emp))

	_, err := s.GetEmployee(ctx, schemaB, emp.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	list, total, err := s.ListEmployees(ctx, schemaB, store.EmployeeFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Zero(t, total)

	// Same employee code is allowed in another tenant.
	emp2 := *emp
	emp2.ID = uuid.New()
	emp2.EmailCompany = "ada@bravo.test"
	require.NoError(t, s.CreateEmployee(ctx, schemaB, &emp2))
}

// --- Entities ---

func TestEmployees_FilterUpdateSoftDelete(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	_, schema := newTenant(t, pool, "acme")

	now := time.Now().UTC()
	dept := &models.Department{ID: uuid.New(), Name: "Engineering", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.CreateDepartment(ctx, schema, dept))

	mk := func(code, first, email string, deptID *uuid.UUID) *models.Employee {
		e := &models.Employee{
			ID: uuid.New(), EmployeeCode: code, FirstName: first, LastName: "Smith",
			EmailCompany: email, DepartmentID: deptID, EmploymentType: "full_time",
			EmploymentStatus: models.EmploymentStatusActive, StartDate: now, CreatedAt: now, UpdatedAt: now,
		}
		require.NoError(t, s.CreateEmployee(ctx, schema, e))
		return e
	}
	a := mk("E-1", "Alice", "alice@acme.test", &dept.ID)
	mk("E-2", "Bob", "bob@acme.test", nil)
	mk("E-3", "Carol_x", "carol@acme.test", &dept.ID)

	list, total, err := s.ListEmployees(ctx, schema, store.EmployeeFilter{DepartmentID: &dept.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, list, 2)

	list, total, err = s.ListEmployees(ctx, schema, store.EmployeeFilter{Search: "ali"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, a.ID, list[0].ID)

	// LIKE metacharacters in the search term match literally.
	_, total, err = s.ListEmployees(ctx, schema, store.EmployeeFilter{Search: "_x"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	list, total, err = s.ListEmployees(ctx, schema, store.EmployeeFilter{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, list, 1)

	title := "Staff Engineer"
	updated, err := s.UpdateEmployee(ctx, schema, a.ID, store.EmployeePatch{JobTitle: &title})
	require.NoError(t, err)
	require.NotNil(t, updated.JobTitle)
	assert.Equal(t, title, *updated.JobTitle)
	assert.Equal(t, "Alice", updated.FirstName)

	_, err = s.UpdateEmployee(ctx, schema, a.ID, store.EmployeePatch{})
	assert.ErrorIs(t, err, store.ErrNoChanges)

	require.NoError(t, s.SoftDeleteEmployee(ctx, schema, a.ID, nil))
	_, err = s.GetEmployee(ctx, schema, a.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.SoftDeleteEmployee(ctx, schema, a.ID, nil), store.ErrNotFound)
}

func TestLeave_DecideAndBalance(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	_, schema := newTenant(t, pool, "acme")

	now := time.Now().UTC()
	emp := &models.Employee{
		ID: uuid.New(), EmployeeCode: "E-1", FirstName: "Ada", LastName: "L",
		EmailCompany: "ada@acme.test", EmploymentType: "full_time",
		EmploymentStatus: models.EmploymentStatusActive, StartDate: now, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, s.CreateEmployee(ctx, schema, emp))
	lt := &models.LeaveType{ID: uuid.New(), Name: "Annual", AnnualEntitlement: 20, Paid: true, RequiresApproval: true, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.CreateLeaveType(ctx, schema, lt))

	start := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	lr := &models.LeaveRequest{
		ID: uuid.New(), EmployeeID: emp.ID, LeaveTypeID: lt.ID, StartDate: start,
		EndDate: start.AddDate(0, 0, 4), DurationDays: 5, Status: models.LeaveStatusSubmitted,
		CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, s.CreateLeaveRequest(ctx, schema, lr))

	approver := uuid.New()
	decided, err := s.DecideLeaveRequest(ctx, schema, lr.ID, store.LeaveDecision{
		Status: models.LeaveStatusApproved, ApprovedBy: approver, At: now,
	})
	require.NoError(t, err)
	assert.Equal(t, models.LeaveStatusApproved, decided.Status)

	_, err = s.DecideLeaveRequest(ctx, schema, lr.ID, store.LeaveDecision{
		Status: models.LeaveStatusRejected, ApprovedBy: approver, At: now,
	})
	assert.ErrorIs(t, err, store.ErrInvalidTransition)

	_, err = s.DecideLeaveRequest(ctx, schema, uuid.New(), store.LeaveDecision{
		Status: models.LeaveStatusApproved, ApprovedBy: approver, At: now,
	})
	assert.ErrorIs(t, err, store.ErrNotFound)

	balances, err := s.LeaveBalances(ctx, schema, emp.ID, 2025)
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.Equal(t, 5, balances[0].UsedDays)
	assert.Equal(t, 15, balances[0].RemainingDays)
}

func TestPayroll_TransitionsAndTotals(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	_, schema := newTenant(t, pool, "acme")

	now := time.Now().UTC()
	emp := &models.Employee{
		ID: uuid.New(), EmployeeCode: "E-1", FirstName: "Ada", LastName: "L",
		EmailCompany: "ada@acme.test", EmploymentType: "full_time",
		EmploymentStatus: models.EmploymentStatusActive, StartDate: now, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, s.CreateEmployee(ctx, schema, emp))

	period := &models.PayrollPeriod{
		ID: uuid.New(), PeriodName: "March 2025",
		StartDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
		Status:    models.PayrollStatusDraft, TotalSalary: decimal.Zero, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, s.CreatePayrollPeriod(ctx, schema, period))

	dup := *period
	dup.ID = uuid.New()
	assert.ErrorIs(t, s.CreatePayrollPeriod(ctx, schema, &dup), store.ErrAlreadyExists)

	slip := &models.SalarySlip{
		ID: uuid.New(), EmployeeID: emp.ID, PayrollPeriodID: period.ID,
		BaseSalary: decimal.RequireFromString("5000.00"), Allowances: decimal.RequireFromString("250.50"),
		Deductions: decimal.RequireFromString("100.25"), NetSalary: decimal.RequireFromString("5150.25"),
		PaidStatus: models.SlipStatusPending, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, s.CreateSalarySlip(ctx, schema, slip))

	_, err := s.TransitionPayrollPeriod(ctx, schema, period.ID, models.PayrollStatusProcessing, models.PayrollStatusProcessed)
	assert.ErrorIs(t, err, store.ErrInvalidTransition)

	_, err = s.TransitionPayrollPeriod(ctx, schema, period.ID, models.PayrollStatusDraft, models.PayrollStatusProcessing)
	require.NoError(t, err)
	done, err := s.TransitionPayrollPeriod(ctx, schema, period.ID, models.PayrollStatusProcessing, models.PayrollStatusProcessed)
	require.NoError(t, err)
	assert.Equal(t, 1, done.TotalEmployees)
	assert.True(t, decimal.RequireFromString("5150.25").Equal(done.TotalSalary))

	slips, err := s.ListSalarySlips(ctx, schema, period.ID)
	require.NoError(t, err)
	require.Len(t, slips, 1)
	assert.True(t, slip.NetSalary.Equal(slips[0].NetSalary), "amounts are stored exactly")
}

func TestDashboardMetrics(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	_, schema := newTenant(t, pool, "acme")

	now := time.Now().UTC()
	dept := &models.Department{ID: uuid.New(), Name: "Sales", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.CreateDepartment(ctx, schema, dept))
	for i, status := range []string{models.EmploymentStatusActive, models.EmploymentStatusOnLeave} {
		e := &models.Employee{
			ID: uuid.New(), EmployeeCode: uuid.NewString(), FirstName: "E", LastName: "X",
			EmailCompany: uuid.NewString() + "@acme.test", EmploymentType: "full_time",
			EmploymentStatus: status, StartDate: now, CreatedAt: now, UpdatedAt: now,
		}
		if i == 0 {
			e.DepartmentID = &dept.ID
		}
		require.NoError(t, s.CreateEmployee(ctx, schema, e))
	}

	m, err := s.DashboardMetrics(ctx, schema, now)
	require.NoError(t, err)
	assert.Equal(t, 2, m.TotalEmployees)
	assert.Equal(t, 1, m.ActiveEmployees)
	assert.Equal(t, 1, m.OnLeaveCount)
	assert.Equal(t, 2, m.NewJoinersThisMonth)
	assert.Equal(t, map[string]int{"Sales": 1, "Unassigned": 1}, m.DepartmentDistribution)
}

func TestAudit_AppendAndList(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	_, schema := newTenant(t, pool, "acme")

	for _, rt := range []string{"employee", "employee", "department"} {
		require.NoError(t, s.AppendAudit(ctx, schema, &models.AuditEntry{
			Action: "create", ResourceType: rt, NewValues: map[string]any{"k": "v"}, CreatedAt: time.Now().UTC(),
		}))
	}

	entries, total, err := s.ListAudit(ctx, schema, store.AuditFilter{ResourceType: "employee"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, entries, 2)
}

func TestUsers_CreateAndLookupCaseInsensitive(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	_, schema := newTenant(t, pool, "acme")

	now := time.Now().UTC()
	u := &models.User{
		ID: uuid.New(), Email: "Admin@Acme.test", PasswordHash: "hash", FullName: "Admin",
		Role: models.RoleAdmin, IsActive: true, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, s.CreateUser(ctx, schema, u))
	assert.ErrorIs(t, s.CreateUser(ctx, schema, u), store.ErrAlreadyExists)

	shouted := *u
	shouted.ID = uuid.New()
	shouted.Email = "ADMIN@acme.TEST"
	assert.ErrorIs(t, s.CreateUser(ctx, schema, &shouted), store.ErrAlreadyExists)

	got, err := s.GetUserByEmail(ctx, schema, "admin@acme.test")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	require.NoError(t, s.TouchUserLogin(ctx, schema, u.ID, now))
	got, err = s.GetUser(ctx, schema, u.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.LastLoginAt)
}
