package transport

import (
	"context"
	"net/http"

	"resto-be/internal/utils"
)

// caller is the identity resolved by the auth middleware.
type caller struct {
	ID      uint
	IsAdmin bool
}

func callerFrom(ctx context.Context) (caller, bool) {
	id, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return caller{}, false
	}
	return caller{ID: id, IsAdmin: utils.IsAdmin(ctx)}, true
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := callerFrom(r.Context()); !ok {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects anonymous requests with 401 and customers with 403.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, ok := callerFrom(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
			return
		}
		if !c.IsAdmin {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
