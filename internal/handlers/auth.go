package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"investbook/internal/apperr"
	"investbook/internal/auth"
	"investbook/internal/middleware"

	"github.com/jmoiron/sqlx"
)

var errInvalidCredentials = apperr.Auth("invalid_credentials", "invalid email or password")

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondErr(w, r, err)
		return
	}
	user, err := h.users.GetByEmail(r.Context(), req.Email)
	if errors.Is(err, sql.ErrNoRows) {
		respondErr(w, r, errInvalidCredentials)
		return
	}
	if err != nil {
		respondErr(w, r, err)
		return
	}
	var hash string
	if user.PasswordHash != nil {
		hash = *user.PasswordHash
	}
	if !auth.CheckPassword(hash, req.Password) {
		respondErr(w, r, errInvalidCredentials)
		return
	}
	if err := h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		data, _ := json.Marshal(map[string]string{
			"user_id":    user.ID,
			"ip":         r.RemoteAddr,
			"user_agent": r.UserAgent(),
		})
		return h.audit.Log(r.Context(), tx, user.ID, "login", "user", user.ID, string(data))
	}); err != nil {
		respondErr(w, r, err)
		return
	}
	token, err := auth.GenerateToken(h.cfg.JWTSecret, user.ID, h.cfg.TokenTTL)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"token": token,
	})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
		return
	}
	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		respondErr(w, r, notFound(err, "user", userID))
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func notFound(err error, resource, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound(resource, id)
	}
	return err
}
