package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"investbook/internal/apperr"
	"investbook/internal/middleware"
	"investbook/internal/models"
	"investbook/internal/validator"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var (
	errInvalidCurrency = apperr.Validation("invalid_currency", "currency must be BRL or USD")
	errForeignUser     = apperr.Validation("user_mismatch", "portfolios can only be listed or created for the signed in user")
)

type createPortfolioRequest struct {
	Name         string          `json:"name"`
	BaseCurrency models.Currency `json:"baseCurrency"`
	UserID       string          `json:"userId"`
}

func (h *Handler) ListPortfolios(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	if requested := r.URL.Query().Get("userId"); requested != "" && requested != userID {
		respondError(w, http.StatusForbidden, errForeignUser.Code, errForeignUser.Message)
		return
	}
	portfolios, err := h.portfolios.ListByUser(r.Context(), userID)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"portfolios": nonNil(portfolios)})
}

func (h *Handler) CreatePortfolio(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	var req createPortfolioRequest
	if err := decodeJSON(r, &req); err != nil {
		respondErr(w, r, err)
		return
	}
	if req.UserID != "" && req.UserID != userID {
		respondError(w, http.StatusForbidden, errForeignUser.Code, errForeignUser.Message)
		return
	}
	if err := validator.ValidateName(req.Name); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_name", err.Error())
		return
	}
	if !req.BaseCurrency.Valid() {
		respondErr(w, r, errInvalidCurrency)
		return
	}
	portfolio := models.Portfolio{
		ID:           uuid.NewString(),
		UserID:       userID,
		Name:         strings.TrimSpace(req.Name),
		BaseCurrency: req.BaseCurrency,
	}
	err := h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		if err := h.portfolios.Create(r.Context(), tx, &portfolio); err != nil {
			return err
		}
		data, _ := json.Marshal(portfolio)
		return h.audit.Log(r.Context(), tx, userID, "create", "portfolio", portfolio.ID, string(data))
	})
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, portfolio)
}

func (h *Handler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	portfolio, _ := middleware.PortfolioFromContext(r.Context())
	respondJSON(w, http.StatusOK, portfolio)
}
