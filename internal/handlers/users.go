package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"investbook/internal/apperr"
	"investbook/internal/auth"
	"investbook/internal/db"
	"investbook/internal/models"
	"investbook/internal/validator"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var errEmailTaken = apperr.Conflict("email_taken", "email already registered")

type createUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreateUser signs a user up. The password is optional; a user without one
// exists for bookkeeping but cannot log in.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		respondErr(w, r, err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validator.ValidateName(req.Name); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_name", err.Error())
		return
	}
	if err := validator.ValidateEmail(req.Email); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_email", err.Error())
		return
	}
	if err := validator.ValidatePassword(req.Password); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_password", err.Error())
		return
	}
	user := models.User{
		ID:    uuid.NewString(),
		Name:  req.Name,
		Email: req.Email,
	}
	if req.Password != "" {
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		user.PasswordHash = &hash
	}
	err := h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		if err := h.users.Create(r.Context(), tx, &user); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]string{
			"email":      user.Email,
			"ip":         r.RemoteAddr,
			"user_agent": r.UserAgent(),
		})
		return h.audit.Log(r.Context(), tx, user.ID, "create", "user", user.ID, string(data))
	})
	if db.IsUniqueViolation(err) {
		respondErr(w, r, errEmailTaken)
		return
	}
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, user)
}

// ListUsers returns every user, or the single user matching ?email=.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	if email := strings.TrimSpace(r.URL.Query().Get("email")); email != "" {
		user, err := h.users.GetByEmail(r.Context(), email)
		if err != nil {
			respondErr(w, r, notFound(err, "user", email))
			return
		}
		respondJSON(w, http.StatusOK, user)
		return
	}
	users, err := h.users.List(r.Context())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"users": nonNil(users)})
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		respondErr(w, r, notFound(err, "user", userID))
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
