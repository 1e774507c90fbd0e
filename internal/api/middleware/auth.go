package middleware

import (
	"net/http"
	"strings"

	"github.com/kiranshivaraju/hrms/internal/api/response"
	"github.com/kiranshivaraju/hrms/internal/auth"
)

// Verifier validates access tokens.
type Verifier interface {
	Verify(token string) (*auth.Claims, error)
}

// Auth provides authentication and role-checking middleware.
type Auth struct {
	verifier Verifier
}

// NewAuth creates a new Auth middleware.
func NewAuth(v Verifier) *Auth {
	return &Auth{verifier: v}
}

// Authenticate validates the Bearer token and sets its claims in the request
// context.
func (a *Auth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := extractBearerToken(r)
		if raw == "" {
			response.Unauthorized(w,
				"INVALID_TOKEN", "Missing or invalid Authorization header")
			return
		}

		claims, err := a.verifier.Verify(raw)
		if err != nil {
			response.Unauthorized(w,
				"INVALID_TOKEN", "Invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(SetClaims(r.Context(), claims)))
	})
}

// RequireRole returns middleware that admits only users holding one of roles.
func (a *Auth) RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := GetClaims(r)
			if ok {
				for _, role := range roles {
					if claims.Role == role {
						next.ServeHTTP(w, r)
						return
					}
				}
			}
			response.Error(w, http.StatusForbidden,
				"FORBIDDEN", "Insufficient permissions", nil)
		})
	}
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
