package middleware

import (
	"context"
	"net/http"

	"github.com/jobboard-api/internal/domain"
)

type userGetter interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

// RequireVerified returns middleware that re-reads the authenticated user and
// rejects the request unless the account's email has been verified. The token
// is not trusted for this: verification can happen after the token was issued.
func RequireVerified(users userGetter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			u, err := users.Get(r.Context(), claims.UserID)
			if err != nil || !u.Enable {
				writeJSONError(w, http.StatusUnauthorized, "account not found")
				return
			}
			if !u.EmailVerified {
				writeJSONError(w, http.StatusForbidden, "email verification required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
