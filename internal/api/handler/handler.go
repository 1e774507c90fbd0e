// Package handler holds the HTTP handlers. Handlers decode requests, call a
// service and map its errors onto the response envelope.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	mw "github.com/kiranshivaraju/hrms/internal/api/middleware"
	"github.com/kiranshivaraju/hrms/internal/api/response"
	"github.com/kiranshivaraju/hrms/internal/auth"
	"github.com/kiranshivaraju/hrms/internal/hr"
	"github.com/kiranshivaraju/hrms/internal/store"
	"github.com/kiranshivaraju/hrms/internal/tenant"
)

const (
	defaultLimit = 20
	maxLimit     = 100
	maxBodyBytes = 1 << 20
	// maxPage keeps (page-1)*limit inside an int32 OFFSET.
	maxPage = math.MaxInt32 / maxLimit
)

// scope builds the HR scope of an authenticated, tenant-bound request.
func scope(r *http.Request) (hr.Scope, bool) {
	res, ok := mw.GetTenant(r)
	if !ok {
		return hr.Scope{}, false
	}
	sc := hr.Scope{TenantID: res.Tenant.ID, Schema: res.Schema, IP: clientIP(r)}
	if c, ok := mw.GetClaims(r); ok {
		sc.ActorID = c.UserID
	}
	return sc, true
}

// withScope rejects requests that did not pass through TenantContext.
func withScope(fn func(w http.ResponseWriter, r *http.Request, sc hr.Scope)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sc, ok := scope(r)
		if !ok {
			response.Unauthorized(w, "MISSING_TENANT", "Missing tenant")
			return
		}
		fn(w, r, sc)
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", param+" must be a valid UUID", nil)
		return uuid.Nil, false
	}
	return id, true
}

func queryID(w http.ResponseWriter, r *http.Request, name string) (*uuid.UUID, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, true
	}
	id, err := uuid.Parse(v)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", name+" must be a valid UUID", nil)
		return nil, false
	}
	return &id, true
}

func paging(r *http.Request) (page, limit int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if page < 1 {
		page = 1
	}
	if page > maxPage {
		page = maxPage
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}

// writeError maps service and store errors onto HTTP responses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, hr.ErrInvalidInput), errors.Is(err, tenant.ErrInvalidInput),
		errors.Is(err, store.ErrNoChanges):
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
	case errors.Is(err, store.ErrNotFound):
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "Resource not found", nil)
	case errors.Is(err, store.ErrAlreadyExists):
		response.Error(w, http.StatusConflict, "ALREADY_EXISTS", "Resource already exists", nil)
	case errors.Is(err, store.ErrInvalidTransition):
		response.Error(w, http.StatusConflict, "INVALID_TRANSITION", err.Error(), nil)
	case errors.Is(err, tenant.ErrTenantActive):
		response.Error(w, http.StatusConflict, "TENANT_ACTIVE", "Tenant must be deleted first", nil)
	case errors.Is(err, hr.ErrFeatureDisabled):
		response.Error(w, http.StatusForbidden, "FEATURE_DISABLED", "Feature is not enabled for this tenant", nil)
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, tenant.ErrUnknownTenant):
		response.Unauthorized(w, "INVALID_CREDENTIALS", "Invalid credentials")
	case errors.Is(err, tenant.ErrInactiveTenant):
		response.Error(w, http.StatusForbidden, "TENANT_INACTIVE", "Tenant is not active", nil)
	case errors.Is(err, store.ErrProvisioningFailed):
		slog.Error("provisioning failed", "path", r.URL.Path, "error", err)
		response.Error(w, http.StatusServiceUnavailable, "PROVISIONING_FAILED",
			"Tenant could not be created, please retry", nil)
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"An unexpected error occurred", nil)
	}
}
