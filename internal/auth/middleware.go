package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/moviehub/theater-api/internal/httputil"
	"github.com/moviehub/theater-api/internal/token"
	"github.com/moviehub/theater-api/internal/user"
)

// ContextKey is a type for context keys to avoid collisions
type ContextKey string

const UserContextKey ContextKey = "current_user"

// Middleware handles authentication and role gates for protected routes.
type Middleware struct {
	tokenManager token.Manager
	users        UserStore
}

func NewMiddleware(tokenManager token.Manager, users UserStore) *Middleware {
	return &Middleware{tokenManager: tokenManager, users: users}
}

// RequireAuth validates the bearer access token and loads the current
// user into the request context. The user is re-read from the database
// on every request so deactivation and role changes take effect without
// waiting for the token to expire.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			httputil.RespondError(w, "Authorization header required.", http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			httputil.RespondError(w, "Invalid authorization header format.", http.StatusUnauthorized)
			return
		}

		claims, err := m.tokenManager.DecodeAccessToken(parts[1])
		if err != nil {
			if errors.Is(err, token.ErrTokenExpired) {
				httputil.RespondError(w, "Access token has expired.", http.StatusUnauthorized)
				return
			}
			httputil.RespondError(w, "Invalid access token.", http.StatusUnauthorized)
			return
		}

		currentUser, err := m.users.GetByID(r.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				httputil.RespondError(w, "User not found.", http.StatusUnauthorized)
				return
			}
			httputil.RespondError(w, "Failed to authenticate request.", http.StatusInternalServerError)
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, currentUser)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireModerator allows moderators and admins through.
func (m *Middleware) RequireModerator(next http.Handler) http.Handler {
	return m.requireRole(next, user.RoleModerator)
}

// RequireAdmin allows admins only.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return m.requireRole(next, user.RoleAdmin)
}

// requireRole must run inside RequireAuth so the user is already in
// the context.
func (m *Middleware) requireRole(next http.Handler, required user.Role) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		currentUser, ok := GetUserFromContext(r.Context())
		if !ok {
			httputil.RespondError(w, "Authentication required.", http.StatusUnauthorized)
			return
		}

		if !user.RoleAtLeast(currentUser.Role, required) {
			httputil.RespondError(w, "Insufficient permissions.", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// GetUserFromContext extracts the authenticated user from the request context.
func GetUserFromContext(ctx context.Context) (*user.User, bool) {
	u, ok := ctx.Value(UserContextKey).(*user.User)
	return u, ok
}
