package store_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/kiranshivaraju/hrms/internal/metrics"
	"github.com/kiranshivaraju/hrms/internal/store"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- scripted DB ---

type scriptedDB struct {
	mu         sync.Mutex
	exists     bool
	failOnStep int // 1-based index of the CREATE statement to fail; 0 never fails
	failDrop   bool
	steps      int
	statements []string
	ctxErrs    []error
}

func (d *scriptedDB) Exec(ctx context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.statements = append(d.statements, sql)
	d.ctxErrs = append(d.ctxErrs, ctx.Err())

	if strings.HasPrefix(sql, "DROP SCHEMA") {
		if d.failDrop {
			return pgconn.CommandTag{}, errors.New("connection reset")
		}
		return pgconn.NewCommandTag("DROP SCHEMA"), nil
	}
	d.steps++
	if d.failOnStep > 0 && d.steps == d.failOnStep {
		return pgconn.CommandTag{}, errors.New("disk full")
	}
	return pgconn.NewCommandTag("CREATE"), nil
}

func (d *scriptedDB) Query(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
	return nil, errors.New("not supported")
}

func (d *scriptedDB) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row {
	return boolRow(d.exists)
}

func (d *scriptedDB) dropped() bool {
	for _, s := range d.statements {
		if strings.HasPrefix(s, "DROP SCHEMA") {
			return true
		}
	}
	return false
}

type boolRow bool

func (r boolRow) Scan(dest ...any) error {
	*(dest[0].(*bool)) = bool(r)
	return nil
}

var _ store.DB = (*scriptedDB)(nil)

func testSchema(t *testing.T) store.Schema {
	t.Helper()
	s, err := store.NamespaceName("acme", uuid.New())
	require.NoError(t, err)
	return s
}

func TestProvision_Success(t *testing.T) {
	db := &scriptedDB{}
	p := store.NewProvisioner(db, time.Second, nil)

	err := p.Provision(context.Background(), testSchema(t))
	require.NoError(t, err)
	assert.False(t, db.dropped())
	assert.True(t, strings.HasPrefix(db.statements[0], "CREATE SCHEMA IF NOT EXISTS"))
	for _, stmt := range db.statements[1:] {
		assert.Contains(t, stmt, "IF NOT EXISTS")
	}
}

func TestProvision_UserEmailUniqueIgnoringCase(t *testing.T) {
	statements := (&scriptedDB{}).run(t)

	var found bool
	for _, stmt := range statements {
		if strings.Contains(stmt, "CREATE UNIQUE INDEX") && strings.Contains(stmt, "(lower(email))") {
			assert.Contains(t, stmt, `"users"`)
			found = true
		}
	}
	assert.True(t, found, "users needs a unique index on lower(email)")
}

func TestProvision_CompensatesOnEveryStep(t *testing.T) {
	total := len((&scriptedDB{}).run(t))
	require.Greater(t, total, len(store.NamespaceTables()))

	for k := 1; k <= total; k++ {
		db := &scriptedDB{failOnStep: k}
		p := store.NewProvisioner(db, time.Second, nil)

		err := p.Provision(context.Background(), testSchema(t))
		require.Error(t, err, "step %d", k)
		assert.ErrorIs(t, err, store.ErrProvisioningFailed, "step %d", k)
		assert.True(t, db.dropped(), "step %d should drop the namespace", k)
	}
}

// run provisions successfully and returns the issued statements.
func (d *scriptedDB) run(t *testing.T) []string {
	t.Helper()
	require.NoError(t, store.NewProvisioner(d, time.Second, nil).Provision(context.Background(), testSchema(t)))
	return d.statements
}

func TestProvision_PreExistingNamespaceNeverDropped(t *testing.T) {
	db := &scriptedDB{exists: true, failOnStep: 3}
	p := store.NewProvisioner(db, time.Second, nil)

	err := p.Provision(context.Background(), testSchema(t))
	require.ErrorIs(t, err, store.ErrProvisioningFailed)
	assert.False(t, db.dropped())
}

func TestProvision_FailedCompensationCountsOrphan(t *testing.T) {
	m := metrics.New()
	db := &scriptedDB{failOnStep: 2, failDrop: true}
	p := store.NewProvisioner(db, time.Second, m)

	err := p.Provision(context.Background(), testSchema(t))
	require.ErrorIs(t, err, store.ErrProvisioningFailed)
	assert.Contains(t, err.Error(), "disk full")
	assert.NotContains(t, err.Error(), "connection reset")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.OrphanedNamespaces))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Provisions.WithLabelValues(metrics.LabelFailure)))
}

func TestProvision_DetachedFromCallerCancellation(t *testing.T) {
	db := &scriptedDB{}
	p := store.NewProvisioner(db, time.Second, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, p.Provision(ctx, testSchema(t)))
	for _, e := range db.ctxErrs {
		assert.NoError(t, e)
	}
}

func TestProvision_RejectsInvalidSchema(t *testing.T) {
	db := &scriptedDB{}
	p := store.NewProvisioner(db, time.Second, nil)

	err := p.Provision(context.Background(), store.Schema(`public"; DROP TABLE tenants; --`))
	assert.ErrorIs(t, err, store.ErrInvalidSchema)
	assert.Empty(t, db.statements)
}

func TestDrop_RejectsInvalidSchema(t *testing.T) {
	db := &scriptedDB{}
	p := store.NewProvisioner(db, time.Second, nil)

	err := p.Drop(context.Background(), store.Schema("public"))
	assert.ErrorIs(t, err, store.ErrInvalidSchema)
	assert.Empty(t, db.statements)
}
