package handlers

import (
	"net/http"

	"investbook/internal/middleware"
	"investbook/internal/models"
	"investbook/internal/services"

	"github.com/go-chi/chi/v5"
)

type createSnapshotRequest struct {
	Date       string          `json:"date"`
	TotalValue int64           `json:"totalValue"`
	Currency   models.Currency `json:"currency"`
}

func optionalDate(raw string) (*models.Date, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := models.ParseDate(raw)
	if err != nil {
		return nil, services.ErrInvalidDate
	}
	return &d, nil
}

func (h *Handler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	portfolio, _ := middleware.PortfolioFromContext(r.Context())
	from, err := optionalDate(r.URL.Query().Get("from"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	to, err := optionalDate(r.URL.Query().Get("to"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	snaps, err := h.ledger.ListSnapshots(r.Context(), portfolio.ID, chi.URLParam(r, "bid"), from, to)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"snapshots": nonNil(snaps)})
}

func (h *Handler) CreateSnapshot(w http.ResponseWriter, r *http.Request) {
	portfolio, _ := middleware.PortfolioFromContext(r.Context())
	userID, _ := middleware.UserIDFromContext(r.Context())
	var body createSnapshotRequest
	if err := decodeJSON(r, &body); err != nil {
		respondErr(w, r, err)
		return
	}
	date, err := models.ParseDate(body.Date)
	if err != nil {
		respondErr(w, r, services.ErrInvalidDate)
		return
	}
	snap, err := h.ledger.RecordSnapshot(r.Context(), services.SnapshotRequest{
		ActorID:     userID,
		PortfolioID: portfolio.ID,
		BucketID:    chi.URLParam(r, "bid"),
		Date:        date,
		TotalValue:  body.TotalValue,
		Currency:    body.Currency,
	})
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, snap)
}
