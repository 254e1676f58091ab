package handlers

import (
	"net/http"
	"strconv"

	"investbook/internal/apperr"
	"investbook/internal/middleware"
	"investbook/internal/models"
	"investbook/internal/services"
)

var (
	errInvalidMonth = apperr.Validation("invalid_month", "month must be YYYY-MM")
	errInvalidYear  = apperr.Validation("invalid_year", "year must be YYYY")
)

// GetSummaries serves ?month=YYYY-MM, ?year=YYYY or, with neither, every
// month since the first ledger activity.
func (h *Handler) GetSummaries(w http.ResponseWriter, r *http.Request) {
	portfolio, _ := middleware.PortfolioFromContext(r.Context())
	query := r.URL.Query()
	rawMonth, rawYear := query.Get("month"), query.Get("year")
	switch {
	case rawMonth != "" && rawYear != "":
		respondErr(w, r, services.ErrInvalidSummaryQuery)
	case rawMonth != "":
		month, err := models.ParseMonth(rawMonth)
		if err != nil {
			respondErr(w, r, errInvalidMonth)
			return
		}
		summary, err := h.summaries.MonthSummary(r.Context(), portfolio.ID, month)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, summary)
	case rawYear != "":
		year, err := strconv.Atoi(rawYear)
		if err != nil || len(rawYear) != 4 {
			respondErr(w, r, errInvalidYear)
			return
		}
		summary, err := h.summaries.YearSummary(r.Context(), portfolio.ID, year)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, summary)
	default:
		summaries, err := h.summaries.ListSummaries(r.Context(), portfolio.ID)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"summaries": nonNil(summaries)})
	}
}
