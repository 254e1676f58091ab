package handlers

import (
	"net/http"

	"investbook/internal/middleware"
	"investbook/internal/websocket"
)

// Events streams ledger change notifications for the signed in user.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
		return
	}
	websocket.ServeWS(w, r, h.upgrader, h.hub, userID)
}
