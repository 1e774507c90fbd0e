package tenant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kiranshivaraju/hrms/internal/auth"
	"github.com/kiranshivaraju/hrms/internal/store"
	"github.com/kiranshivaraju/hrms/pkg/models"
)

// SlugResolver finds a servable tenant by slug.
type SlugResolver interface {
	ResolveBySlug(ctx context.Context, slug string) (*Resolved, error)
}

// Authenticator verifies user credentials inside a tenant namespace and issues
// access tokens bound to that tenant.
type Authenticator struct {
	tenants SlugResolver
	users   store.UserStore
	issuer  *auth.Issuer
	now     func() time.Time
}

func NewAuthenticator(tenants SlugResolver, users store.UserStore, issuer *auth.Issuer) *Authenticator {
	return &Authenticator{tenants: tenants, users: users, issuer: issuer, now: time.Now}
}

type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
	Tenant    *models.Tenant
}

// Login checks email and password against the tenant named by slug. Unknown
// users, wrong passwords and disabled accounts all return
// auth.ErrInvalidCredentials.
func (a *Authenticator) Login(ctx context.Context, slug, email, password string) (*Session, error) {
	res, err := a.tenants.ResolveBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		return nil, err
	}

	user, err := a.users.GetUserByEmail(ctx, res.Schema, strings.TrimSpace(email))
	if errors.Is(err, store.ErrNotFound) {
		return nil, auth.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !user.IsActive {
		return nil, auth.ErrInvalidCredentials
	}
	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		return nil, err
	}

	if err := a.users.TouchUserLogin(ctx, res.Schema, user.ID, a.now().UTC()); err != nil {
		slog.Warn("record login failed", "tenant_id", res.Tenant.ID, "user_id", user.ID, "error", err)
	}

	return a.Issue(user, res.Tenant)
}

// Issue mints a session for a user already known to belong to t.
func (a *Authenticator) Issue(user *models.User, t *models.Tenant) (*Session, error) {
	token, expires, err := a.issuer.Issue(user.ID, t.ID, user.Role, user.Email)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: expires, User: user, Tenant: t}, nil
}
