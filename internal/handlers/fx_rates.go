package handlers

import (
	"net/http"

	"investbook/internal/middleware"
	"investbook/internal/models"
	"investbook/internal/services"
	"investbook/internal/store"

	"github.com/shopspring/decimal"
)

type createFxRateRequest struct {
	Date   string          `json:"date"`
	From   models.Currency `json:"from"`
	To     models.Currency `json:"to"`
	Rate   decimal.Decimal `json:"rate"`
	Source models.FxSource `json:"source"`
}

func optionalCurrency(raw string) (*models.Currency, error) {
	if raw == "" {
		return nil, nil
	}
	c := models.Currency(raw)
	if !c.Valid() {
		return nil, errInvalidCurrency
	}
	return &c, nil
}

// ListFxRates filters by any of date, from and to. With all three it runs
// the pair lookup, which falls back to the whole pair history when the day
// has no quote.
func (h *Handler) ListFxRates(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	date, err := optionalDate(query.Get("date"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	from, err := optionalCurrency(query.Get("from"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	to, err := optionalCurrency(query.Get("to"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	var rates []models.FxRate
	if date != nil && from != nil && to != nil {
		rates, err = h.fx.LookupRates(r.Context(), *from, *to, *date)
	} else {
		rates, err = h.fx.FindRates(r.Context(), store.FxRateFilter{Date: date, From: from, To: to})
	}
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"fxRates": nonNil(rates)})
}

func (h *Handler) CreateFxRate(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	var body createFxRateRequest
	if err := decodeJSON(r, &body); err != nil {
		respondErr(w, r, err)
		return
	}
	date, err := models.ParseDate(body.Date)
	if err != nil {
		respondErr(w, r, services.ErrInvalidDate)
		return
	}
	rate, err := h.fx.AddRate(r.Context(), services.AddRateRequest{
		ActorID: userID,
		Date:    date,
		From:    body.From,
		To:      body.To,
		Rate:    body.Rate,
		Source:  body.Source,
	})
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, rate)
}
