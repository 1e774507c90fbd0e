package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/hrms/internal/metrics"
)

var (
	// ErrUnavailable wraps backend failures. Callers treat it as a miss and
	// fall back to storage.
	ErrUnavailable = errors.New("cache unavailable")
	ErrNoTenant    = errors.New("cache key requires a tenant")
)

// TenantCache namespaces every entry by tenant so no key can be read,
// written or invalidated across tenants.
type TenantCache struct {
	backend Cache
	metrics *metrics.Metrics
}

// NewTenantCache wraps backend. m may be nil.
func NewTenantCache(backend Cache, m *metrics.Metrics) *TenantCache {
	return &TenantCache{backend: backend, metrics: m}
}

func (c *TenantCache) Set(ctx context.Context, tenantID uuid.UUID, domain Domain, value []byte, ttl time.Duration, qualifiers ...string) error {
	if tenantID == uuid.Nil {
		return ErrNoTenant
	}
	if err := c.backend.Set(ctx, Key(domain, tenantID, qualifiers...), value, ttl); err != nil {
		return c.unavailable(domain, "set", err)
	}
	return nil
}

func (c *TenantCache) Get(ctx context.Context, tenantID uuid.UUID, domain Domain, qualifiers ...string) ([]byte, bool, error) {
	if tenantID == uuid.Nil {
		return nil, false, ErrNoTenant
	}
	val, found, err := c.backend.Get(ctx, Key(domain, tenantID, qualifiers...))
	if err != nil {
		return nil, false, c.unavailable(domain, "get", err)
	}
	return val, found, nil
}

// Invalidate deletes the exact key when qualifiers are given, and the whole
// domain for the tenant otherwise.
func (c *TenantCache) Invalidate(ctx context.Context, tenantID uuid.UUID, domain Domain, qualifiers ...string) error {
	if tenantID == uuid.Nil {
		return ErrNoTenant
	}
	if len(qualifiers) > 0 {
		if err := c.backend.Delete(ctx, Key(domain, tenantID, qualifiers...)); err != nil {
			return c.unavailable(domain, "invalidate", err)
		}
		return nil
	}
	return c.InvalidatePrefix(ctx, tenantID, domain)
}

// InvalidatePrefix deletes the key {domain}:{tenant}[:qualifiers] and every key
// below it.
func (c *TenantCache) InvalidatePrefix(ctx context.Context, tenantID uuid.UUID, domain Domain, qualifiers ...string) error {
	if tenantID == uuid.Nil {
		return ErrNoTenant
	}
	if err := c.backend.Delete(ctx, Key(domain, tenantID, qualifiers...)); err != nil {
		return c.unavailable(domain, "invalidate", err)
	}
	if _, err := c.backend.DeletePattern(ctx, Pattern(domain, tenantID, qualifiers...)); err != nil {
		return c.unavailable(domain, "invalidate", err)
	}
	return nil
}

// InvalidateTenant removes every tenant-qualified entry of tenantID.
func (c *TenantCache) InvalidateTenant(ctx context.Context, tenantID uuid.UUID) error {
	if tenantID == uuid.Nil {
		return ErrNoTenant
	}
	var errs []error
	for _, d := range TenantDomains {
		if err := c.InvalidatePrefix(ctx, tenantID, d); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// GetJSON decodes a cached value into dest. A value that no longer decodes is
// treated as a miss.
func (c *TenantCache) GetJSON(ctx context.Context, tenantID uuid.UUID, domain Domain, dest any, qualifiers ...string) (bool, error) {
	raw, found, err := c.Get(ctx, tenantID, domain, qualifiers...)
	if err != nil || !found {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		slog.Warn("discarding undecodable cache entry", "key", Key(domain, tenantID, qualifiers...), "error", err)
		return false, nil
	}
	return true, nil
}

func (c *TenantCache) SetJSON(ctx context.Context, tenantID uuid.UUID, domain Domain, value any, ttl time.Duration, qualifiers ...string) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache value: %w", err)
	}
	return c.Set(ctx, tenantID, domain, raw, ttl, qualifiers...)
}

func (c *TenantCache) unavailable(domain Domain, op string, err error) error {
	if c.metrics != nil {
		c.metrics.CacheDegraded.WithLabelValues(string(domain), op).Inc()
	}
	return fmt.Errorf("%w: %s %s: %w", ErrUnavailable, op, domain, err)
}
