package identity

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-oja/internal/common"
)

// Handler exposes the user sync endpoint. It runs behind RequireAuth, so the
// principal on the context is already verified.
type Handler struct {
	Users Store
	Log   zerolog.Logger
}

// Sync handles POST /api/users/sync: it mirrors the verified principal into
// the local users table and returns the stored row.
func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing principal", nil)
		return
	}
	u, err := h.Users.Upsert(r.Context(), principal.UserID, principal.Email)
	if err != nil {
		h.Log.Error().Err(err).Str("external_id", principal.UserID).Msg("user sync failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not sync user", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"success": true, "data": u})
}
