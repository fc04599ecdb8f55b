package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/adiallo/debtbook/internal/auth"
	"github.com/adiallo/debtbook/internal/models"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// ActorIDKey is the context key for the authenticated user ID.
	ActorIDKey contextKey = "actor_id"
	// ActorNameKey is the context key for the authenticated display name.
	ActorNameKey contextKey = "actor_name"
	// RoleKey is the context key for the authenticated user's role.
	RoleKey contextKey = "role"
)

// GetActorID extracts the user ID from the context.
// Returns empty string if not found.
func GetActorID(ctx context.Context) string {
	id, _ := ctx.Value(ActorIDKey).(string)
	return id
}

// GetActorName extracts the display name from the context.
func GetActorName(ctx context.Context) string {
	name, _ := ctx.Value(ActorNameKey).(string)
	return name
}

// GetRole extracts the role from the context.
func GetRole(ctx context.Context) models.Role {
	role, _ := ctx.Value(RoleKey).(models.Role)
	return role
}

// WithActor returns a context carrying the given actor identity.
// Exposed for tests that bypass the HTTP layer.
func WithActor(ctx context.Context, id, name string, role models.Role) context.Context {
	ctx = context.WithValue(ctx, ActorIDKey, id)
	ctx = context.WithValue(ctx, ActorNameKey, name)
	return context.WithValue(ctx, RoleKey, role)
}

// RequireAuth returns middleware that validates the Bearer token and
// adds the actor identity to the request context.
func RequireAuth(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, auth.ErrMissingToken.Error(), http.StatusUnauthorized)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, auth.ErrInvalidToken.Error(), http.StatusUnauthorized)
				return
			}

			claims, err := jwtManager.Validate(parts[1])
			if err != nil {
				http.Error(w, auth.ErrInvalidToken.Error(), http.StatusUnauthorized)
				return
			}

			ctx := WithActor(r.Context(), claims.UserID, claims.DisplayName, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin gates a route to admin users. Must run after RequireAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetRole(r.Context()) != models.RoleAdmin {
			http.Error(w, "admin access required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
