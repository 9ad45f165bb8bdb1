package identity

import (
	"errors"
	"net/http"

	"github.com/noah-isme/backend-oja/internal/common"
)

type principalKey struct{}

// RequireAuth verifies the bearer token upstream and stores the principal on
// the request context. Requests without a valid token get a 401.
func (c *Client) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := common.BearerToken(r)
		if token == "" {
			common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token", nil)
			return
		}
		principal, err := c.VerifyToken(r.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, ErrUnauthorized):
				common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid token", nil)
			case errors.Is(err, ErrNotConfigured):
				common.JSONError(w, http.StatusInternalServerError, "AUTH_NOT_CONFIGURED", "identity provider not configured", nil)
			default:
				common.JSONError(w, http.StatusBadGateway, "AUTH_UNAVAILABLE", "identity provider unavailable", nil)
			}
			return
		}
		ctx := common.WithUserID(r.Context(), principal.UserID)
		ctx = withPrincipal(ctx, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
