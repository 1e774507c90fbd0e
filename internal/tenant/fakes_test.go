package tenant_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/hrms/internal/store"
	"github.com/kiranshivaraju/hrms/pkg/models"
)

// --- in-memory directory ---

type fakeDirectory struct {
	mu        sync.Mutex
	tenants   map[uuid.UUID]*models.Tenant
	features  map[string]*models.FeatureFlag
	audit     []*models.TenantAuditEntry
	createErr error
	getCalls  atomic.Int64
	// block, when set, makes GetTenant signal entered and wait for release.
	entered chan struct{}
	release chan struct{}
	// afterRead runs once GetTenant has copied the row, outside the lock.
	afterRead func()
	log       *[]string
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{tenants: map[uuid.UUID]*models.Tenant{}, features: map[string]*models.FeatureFlag{}}
}

func (d *fakeDirectory) add(t *models.Tenant) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tenants[t.ID] = t
}

func (d *fakeDirectory) CreateTenant(_ context.Context, t *models.Tenant) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.log != nil {
		*d.log = append(*d.log, "create_tenant")
	}
	if d.createErr != nil {
		return d.createErr
	}
	for _, existing := range d.tenants {
		if existing.Slug == t.Slug || existing.Name == t.Name {
			return store.ErrAlreadyExists
		}
	}
	cp := *t
	d.tenants[t.ID] = &cp
	return nil
}

func (d *fakeDirectory) GetTenant(_ context.Context, id uuid.UUID) (*models.Tenant, error) {
	d.getCalls.Add(1)
	if d.entered != nil {
		d.entered <- struct{}{}
		<-d.release
	}
	d.mu.Lock()
	t, ok := d.tenants[id]
	if !ok {
		d.mu.Unlock()
		return nil, store.ErrNotFound
	}
	cp := *t
	hook := d.afterRead
	d.mu.Unlock()
	if hook != nil {
		hook()
	}
	return &cp, nil
}

func (d *fakeDirectory) GetTenantBySlug(_ context.Context, slug string) (*models.Tenant, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, t := range d.tenants {
		if t.Slug == slug {
			cp := *t
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (d *fakeDirectory) ListTenants(_ context.Context, status string) ([]*models.Tenant, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []*models.Tenant
	for _, t := range d.tenants {
		if status == "" || t.Status == status {
			out = append(out, t)
		}
	}
	return out, nil
}

func (d *fakeDirectory) SetTenantStatus(_ context.Context, id uuid.UUID, status string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.tenants[id]
	if !ok {
		return store.ErrNotFound
	}
	t.Status = status
	return nil
}

func (d *fakeDirectory) SoftDeleteTenant(_ context.Context, id uuid.UUID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.tenants[id]
	if !ok {
		return store.ErrNotFound
	}
	now := time.Now()
	t.Status = models.TenantStatusInactive
	t.DeletedAt = &now
	return nil
}

func (d *fakeDirectory) SetFeature(_ context.Context, tenantID uuid.UUID, name string, enabled bool, config map[string]any) (*models.FeatureFlag, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	f := &models.FeatureFlag{ID: uuid.New(), TenantID: tenantID, FeatureName: name, Enabled: enabled, Config: config}
	d.features[tenantID.String()+"/"+name] = f
	return f, nil
}

func (d *fakeDirectory) GetFeature(_ context.Context, tenantID uuid.UUID, name string) (*models.FeatureFlag, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	f, ok := d.features[tenantID.String()+"/"+name]
	if !ok {
		return nil, store.ErrNotFound
	}
	return f, nil
}

func (d *fakeDirectory) IsFeatureEnabled(ctx context.Context, tenantID uuid.UUID, name string) (bool, error) {
	f, err := d.GetFeature(ctx, tenantID, name)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return f.Enabled, nil
}

func (d *fakeDirectory) ListFeatures(_ context.Context, tenantID uuid.UUID) ([]*models.FeatureFlag, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []*models.FeatureFlag
	for _, f := range d.features {
		if f.TenantID == tenantID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (d *fakeDirectory) LogTenantAction(_ context.Context, e *models.TenantAuditEntry) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.audit = append(d.audit, e)
	return nil
}

var _ store.Directory = (*fakeDirectory)(nil)

// --- namespaces ---

type fakeNamespaces struct {
	mu           sync.Mutex
	provisioned  map[store.Schema]bool
	provisionErr error
	dropErr      error
	drops        []store.Schema
	log          *[]string
}

func newFakeNamespaces() *fakeNamespaces {
	return &fakeNamespaces{provisioned: map[store.Schema]bool{}}
}

func (n *fakeNamespaces) Provision(_ context.Context, schema store.Schema) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.log != nil {
		*n.log = append(*n.log, "provision")
	}
	if n.provisionErr != nil {
		return n.provisionErr
	}
	n.provisioned[schema] = true
	return nil
}

func (n *fakeNamespaces) Drop(_ context.Context, schema store.Schema) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.drops = append(n.drops, schema)
	if n.dropErr != nil {
		return n.dropErr
	}
	delete(n.provisioned, schema)
	return nil
}

func (n *fakeNamespaces) live() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.provisioned)
}

// --- users ---

type fakeUsers struct {
	mu        sync.Mutex
	users     map[store.Schema][]*models.User
	createErr error
	log       *[]string
}

func newFakeUsers() *fakeUsers { return &fakeUsers{users: map[store.Schema][]*models.User{}} }

func (u *fakeUsers) CreateUser(_ context.Context, s store.Schema, user *models.User) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.log != nil {
		*u.log = append(*u.log, "create_user")
	}
	if u.createErr != nil {
		return u.createErr
	}
	u.users[s] = append(u.users[s], user)
	return nil
}

func (u *fakeUsers) GetUser(_ context.Context, s store.Schema, id uuid.UUID) (*models.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, user := range u.users[s] {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, store.ErrNotFound
}

func (u *fakeUsers) GetUserByEmail(_ context.Context, s store.Schema, email string) (*models.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, user := range u.users[s] {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, store.ErrNotFound
}

func (u *fakeUsers) TouchUserLogin(_ context.Context, _ store.Schema, _ uuid.UUID, _ time.Time) error {
	return nil
}

var _ store.UserStore = (*fakeUsers)(nil)

type recordingForgetter struct {
	mu  sync.Mutex
	ids []uuid.UUID
}

func (f *recordingForgetter) Forget(id uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append(f.ids, id)
}
