package handlers

import (
	"net/http"

	"investbook/internal/middleware"
	"investbook/internal/models"
	"investbook/internal/services"
)

type createTransactionRequest struct {
	BucketID    string                 `json:"bucketId"`
	Date        string                 `json:"date"`
	Type        models.TransactionType `json:"type"`
	Amount      int64                  `json:"amount"`
	Currency    models.Currency        `json:"currency"`
	FxRateID    *string                `json:"fxRateId"`
	Direction   *models.Direction      `json:"direction"`
	Description *string                `json:"description"`
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	portfolio, _ := middleware.PortfolioFromContext(r.Context())
	txs, err := h.ledger.ListTransactions(r.Context(), portfolio.ID)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"transactions": nonNil(txs)})
}

// CreateTransaction picks the request variant from the portfolio base
// currency: foreign currency entries must name the quote they are pinned to.
func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	portfolio, _ := middleware.PortfolioFromContext(r.Context())
	userID, _ := middleware.UserIDFromContext(r.Context())
	var body createTransactionRequest
	if err := decodeJSON(r, &body); err != nil {
		respondErr(w, r, err)
		return
	}
	date, err := models.ParseDate(body.Date)
	if err != nil {
		respondErr(w, r, services.ErrInvalidDate)
		return
	}
	req, err := services.NewTransactionRequest(services.EntryFields{
		ActorID:     userID,
		PortfolioID: portfolio.ID,
		BucketID:    body.BucketID,
		Date:        date,
		Type:        body.Type,
		Amount:      body.Amount,
		Currency:    body.Currency,
		Direction:   body.Direction,
		Description: body.Description,
	}, portfolio.BaseCurrency, body.FxRateID)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	record, err := h.ledger.RecordTransaction(r.Context(), req)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, record)
}
