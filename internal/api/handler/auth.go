package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/kiranshivaraju/hrms/internal/api/response"
	"github.com/kiranshivaraju/hrms/internal/tenant"
	"github.com/kiranshivaraju/hrms/pkg/models"
)

// Registrar creates tenants.
type Registrar interface {
	Register(ctx context.Context, in tenant.RegisterInput) (*models.Tenant, *models.User, error)
}

// SessionIssuer authenticates users and mints sessions.
type SessionIssuer interface {
	Login(ctx context.Context, slug, email, password string) (*tenant.Session, error)
	Issue(user *models.User, t *models.Tenant) (*tenant.Session, error)
}

type sessionResponse struct {
	AccessToken string         `json:"access_token"`
	TokenType   string         `json:"token_type"`
	ExpiresAt   time.Time      `json:"expires_at"`
	User        *models.User   `json:"user"`
	Tenant      *models.Tenant `json:"tenant"`
}

func newSessionResponse(s *tenant.Session) sessionResponse {
	return sessionResponse{
		AccessToken: s.Token,
		TokenType:   "Bearer",
		ExpiresAt:   s.ExpiresAt.UTC(),
		User:        s.User,
		Tenant:      s.Tenant,
	}
}

// NewRegisterHandler returns an http.HandlerFunc for POST /api/v1/auth/register.
func NewRegisterHandler(tenants Registrar, sessions SessionIssuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			CompanyName   string `json:"company_name"`
			Slug          string `json:"slug"`
			AdminEmail    string `json:"admin_email"`
			AdminPassword string `json:"admin_password"`
			AdminName     string `json:"admin_name"`
		}
		if !decode(w, r, &req) {
			return
		}

		t, admin, err := tenants.Register(r.Context(), tenant.RegisterInput{
			CompanyName:   req.CompanyName,
			Slug:          req.Slug,
			AdminEmail:    req.AdminEmail,
			AdminPassword: req.AdminPassword,
			AdminName:     req.AdminName,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}

		session, err := sessions.Issue(admin, t)
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.Created(w, newSessionResponse(session))
	}
}

// NewLoginHandler returns an http.HandlerFunc for POST /api/v1/auth/login.
func NewLoginHandler(sessions SessionIssuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			TenantSlug string `json:"tenant_slug"`
			Email      string `json:"email"`
			Password   string `json:"password"`
		}
		if !decode(w, r, &req) {
			return
		}
		if req.TenantSlug == "" || req.Email == "" || req.Password == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"tenant_slug, email and password are required", nil)
			return
		}

		session, err := sessions.Login(r.Context(), req.TenantSlug, req.Email, req.Password)
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.JSON(w, newSessionResponse(session))
	}
}
