package middleware

import (
	"net/http"

	"resto-be/internal/auth"
	"resto-be/internal/logger"
	"resto-be/internal/utils"

	"go.uber.org/zap"
)

// NewAuthMiddleware resolves the caller identity from the access token.
// Requests without a token continue anonymously; a token that fails
// verification is rejected so a stale session never degrades to anonymous.
func NewAuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := auth.ExtractAccessToken(r)
			if tokenStr == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := auth.ParseToken(tokenStr, secret)
			if err != nil {
				logger.FromCtx(r.Context()).Debug("rejected access token",
					zap.String("layer", "middleware"),
					zap.Error(err),
				)
				utils.WriteJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired token")
				return
			}

			role := claims.Role
			if role != utils.RoleAdmin {
				role = utils.RoleCustomer
			}

			ctx := utils.SetUserContext(r.Context(), claims.UserID, role)
			ctx = logger.WithCustomerID(ctx, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
