package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	mw "github.com/kiranshivaraju/hrms/internal/api/middleware"
	"github.com/kiranshivaraju/hrms/internal/api/response"
	"github.com/kiranshivaraju/hrms/pkg/models"
)

// TenantAdmin is the self-service part of the tenant lifecycle.
type TenantAdmin interface {
	SoftDelete(ctx context.Context, id uuid.UUID, by string) error
	SetFeature(ctx context.Context, tenantID uuid.UUID, name string, enabled bool, config map[string]any, by string) (*models.FeatureFlag, error)
	GetFeature(ctx context.Context, tenantID uuid.UUID, name string) (*models.FeatureFlag, error)
	ListFeatures(ctx context.Context, tenantID uuid.UUID) ([]*models.FeatureFlag, error)
}

type Tenant struct {
	svc TenantAdmin
}

func NewTenant(svc TenantAdmin) *Tenant {
	return &Tenant{svc: svc}
}

func actorEmail(r *http.Request) string {
	if c, ok := mw.GetClaims(r); ok {
		return c.Email
	}
	return ""
}

// Get serves GET /api/v1/tenant from the request-bound directory row.
func (h *Tenant) Get(w http.ResponseWriter, r *http.Request) {
	res, ok := mw.GetTenant(r)
	if !ok {
		response.Unauthorized(w, "MISSING_TENANT", "Missing tenant")
		return
	}
	response.JSON(w, res.Tenant)
}

// Delete serves DELETE /api/v1/tenant. The namespace is kept until an
// operator drops it.
func (h *Tenant) Delete(w http.ResponseWriter, r *http.Request) {
	res, ok := mw.GetTenant(r)
	if !ok {
		response.Unauthorized(w, "MISSING_TENANT", "Missing tenant")
		return
	}
	if err := h.svc.SoftDelete(r.Context(), res.Tenant.ID, actorEmail(r)); err != nil {
		writeError(w, r, err)
		return
	}
	response.NoContent(w)
}

func (h *Tenant) ListFeatures(w http.ResponseWriter, r *http.Request) {
	id, ok := mw.GetTenantID(r)
	if !ok {
		response.Unauthorized(w, "MISSING_TENANT", "Missing tenant")
		return
	}
	flags, err := h.svc.ListFeatures(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if flags == nil {
		flags = []*models.FeatureFlag{}
	}
	response.JSON(w, flags)
}

func (h *Tenant) GetFeature(w http.ResponseWriter, r *http.Request) {
	id, ok := mw.GetTenantID(r)
	if !ok {
		response.Unauthorized(w, "MISSING_TENANT", "Missing tenant")
		return
	}
	flag, err := h.svc.GetFeature(r.Context(), id, chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, flag)
}

func (h *Tenant) SetFeature(w http.ResponseWriter, r *http.Request) {
	id, ok := mw.GetTenantID(r)
	if !ok {
		response.Unauthorized(w, "MISSING_TENANT", "Missing tenant")
		return
	}
	var req struct {
		Enabled *bool          `json:"enabled"`
		Config  map[string]any `json:"config"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Enabled == nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "enabled is required", nil)
		return
	}

	flag, err := h.svc.SetFeature(r.Context(), id, chi.URLParam(r, "name"), *req.Enabled, req.Config, actorEmail(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, flag)
}
