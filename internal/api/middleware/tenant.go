package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/hrms/internal/api/response"
	"github.com/kiranshivaraju/hrms/internal/tenant"
)

// TenantResolver maps a tenant id to a servable tenant.
type TenantResolver interface {
	Resolve(ctx context.Context, id uuid.UUID) (*tenant.Resolved, error)
}

// TenantContext binds the tenant named by the token claim to the request.
// Requests whose tenant cannot be served stop here.
type TenantContext struct {
	resolver TenantResolver
}

func NewTenantContext(r TenantResolver) *TenantContext {
	return &TenantContext{resolver: r}
}

func (tc *TenantContext) Bind(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id uuid.UUID
		if claims, ok := GetClaims(r); ok {
			id = claims.TenantID
		}

		res, err := tc.resolver.Resolve(r.Context(), id)
		if err != nil {
			switch {
			case errors.Is(err, tenant.ErrMissingTenant):
				response.Unauthorized(w,
					"MISSING_TENANT", "Token does not name a tenant")
			case errors.Is(err, tenant.ErrUnknownTenant):
				response.Error(w, http.StatusForbidden,
					"TENANT_NOT_FOUND", "Tenant not found", nil)
			case errors.Is(err, tenant.ErrInactiveTenant):
				response.Error(w, http.StatusForbidden,
					"TENANT_INACTIVE", "Tenant is not active", nil)
			default:
				slog.Error("tenant resolution failed", "tenant_id", id, "error", err)
				response.Error(w, http.StatusInternalServerError,
					"INTERNAL_ERROR", "Failed to resolve tenant", nil)
			}
			return
		}

		next.ServeHTTP(w, r.WithContext(SetTenant(r.Context(), res)))
	})
}
