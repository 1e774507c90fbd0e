package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/hrms/internal/auth"
	"github.com/kiranshivaraju/hrms/internal/tenant"
)

type contextKey string

const (
	claimsKey   contextKey = "claims"
	resolvedKey contextKey = "tenant"
)

func SetClaims(ctx context.Context, c *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

// GetClaims returns the verified token claims set by Auth.
func GetClaims(r *http.Request) (*auth.Claims, bool) {
	c, ok := r.Context().Value(claimsKey).(*auth.Claims)
	return c, ok && c != nil
}

func SetTenant(ctx context.Context, res *tenant.Resolved) context.Context {
	return context.WithValue(ctx, resolvedKey, res)
}

// GetTenant returns the tenant bound to the request by TenantContext.
func GetTenant(r *http.Request) (*tenant.Resolved, bool) {
	res, ok := r.Context().Value(resolvedKey).(*tenant.Resolved)
	return res, ok && res != nil
}

// GetTenantID returns the resolved tenant id, or the token's tenant claim when
// the tenant has not been resolved yet.
func GetTenantID(r *http.Request) (uuid.UUID, bool) {
	if res, ok := GetTenant(r); ok {
		return res.Tenant.ID, true
	}
	if c, ok := GetClaims(r); ok && c.TenantID != uuid.Nil {
		return c.TenantID, true
	}
	return uuid.Nil, false
}
