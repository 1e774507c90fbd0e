// Package tenant owns tenant lifecycle and request-time tenant resolution.
package tenant

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/google/uuid"
	"github.com/kiranshivaraju/hrms/internal/metrics"
	"github.com/kiranshivaraju/hrms/internal/store"
	"github.com/kiranshivaraju/hrms/pkg/models"
	"golang.org/x/sync/singleflight"
)

var (
	ErrMissingTenant  = errors.New("tenant identity missing")
	ErrUnknownTenant  = errors.New("tenant not found")
	ErrInactiveTenant = errors.New("tenant is not active")
)

// Resolved is a tenant that may be served, together with its validated
// namespace.
type Resolved struct {
	Tenant *models.Tenant
	Schema store.Schema
}

// lookupTimeout bounds a shared directory read. It is detached from any one
// caller, so it needs its own deadline.
const lookupTimeout = 5 * time.Second

// Resolver maps a verified tenant id to its directory row. Rows are kept in a
// short-lived in-process cache and concurrent lookups for the same tenant
// share one directory query.
type Resolver struct {
	dir     store.Directory
	l1      *ristretto.Cache[string, *models.Tenant]
	group   singleflight.Group
	ttl     time.Duration
	timeout time.Duration
	metrics *metrics.Metrics

	// gens counts Forget calls per tenant. A read only populates the cache
	// if no Forget happened while it was in flight.
	mu   sync.Mutex
	gens map[string]uint64
}

// NewResolver creates a Resolver caching up to maxEntries rows for ttl each.
// m may be nil.
func NewResolver(dir store.Directory, ttl time.Duration, maxEntries int, m *metrics.Metrics) (*Resolver, error) {
	l1, err := ristretto.NewCache(&ristretto.Config[string, *models.Tenant]{
		NumCounters: int64(maxEntries) * 10,
		MaxCost:     int64(maxEntries),
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create tenant cache: %w", err)
	}
	return &Resolver{
		dir:     dir,
		l1:      l1,
		ttl:     ttl,
		timeout: lookupTimeout,
		metrics: m,
		gens:    make(map[string]uint64),
	}, nil
}

// Resolve returns the tenant for id if it exists and is active. It fails
// closed: any error means the request must not reach tenant data.
func (r *Resolver) Resolve(ctx context.Context, id uuid.UUID) (*Resolved, error) {
	if id == uuid.Nil {
		r.observe("missing")
		return nil, ErrMissingTenant
	}

	t, err := r.lookup(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			r.observe("unknown")
			return nil, ErrUnknownTenant
		}
		r.observe("error")
		return nil, fmt.Errorf("resolve tenant: %w", err)
	}
	return r.admit(t)
}

// ResolveBySlug is Resolve keyed by slug. It always reads the directory.
func (r *Resolver) ResolveBySlug(ctx context.Context, slug string) (*Resolved, error) {
	if slug == "" {
		return nil, ErrMissingTenant
	}
	t, err := r.dir.GetTenantBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUnknownTenant
		}
		return nil, fmt.Errorf("resolve tenant by slug: %w", err)
	}
	return r.admit(t)
}

// Forget drops any cached row for id so the next request reads the directory.
// Reads already in flight finish for their own callers but are not cached,
// and later callers do not join them.
func (r *Resolver) Forget(id uuid.UUID) {
	key := id.String()
	r.mu.Lock()
	r.gens[key]++
	r.mu.Unlock()
	r.group.Forget(key)
	r.l1.Del(key)
}

func (r *Resolver) Close() {
	r.l1.Close()
}

func (r *Resolver) lookup(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	key := id.String()
	if t, ok := r.l1.Get(key); ok {
		return t, nil
	}

	// The shared read must not inherit the first caller's cancellation, or
	// every request waiting on it would fail with that caller.
	ch := r.group.DoChan(key, func() (interface{}, error) {
		r.mu.Lock()
		gen := r.gens[key]
		r.mu.Unlock()

		readCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()
		t, err := r.dir.GetTenant(readCtx, id)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		if r.gens[key] == gen {
			r.l1.SetWithTTL(key, t, 1, r.ttl)
		}
		r.mu.Unlock()
		r.l1.Wait()
		return t, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*models.Tenant), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (r *Resolver) admit(t *models.Tenant) (*Resolved, error) {
	if !t.IsActive() {
		r.observe("inactive")
		return nil, ErrInactiveTenant
	}
	schema, err := store.ParseSchema(t.SchemaName)
	if err != nil {
		r.observe("error")
		return nil, fmt.Errorf("tenant %s: %w", t.ID, err)
	}
	r.observe(metrics.LabelSuccess)

	cp := *t
	return &Resolved{Tenant: &cp, Schema: schema}, nil
}

func (r *Resolver) observe(result string) {
	if r.metrics != nil {
		r.metrics.TenantResolutions.WithLabelValues(result).Inc()
	}
}
