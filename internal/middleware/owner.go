package middleware

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"

	"investbook/internal/models"

	"github.com/go-chi/chi/v5"
)

type PortfolioReader interface {
	GetByID(ctx context.Context, portfolioID string) (models.Portfolio, error)
}

func PortfolioFromContext(ctx context.Context) (models.Portfolio, bool) {
	portfolio, ok := ctx.Value(portfolioKey).(models.Portfolio)
	return portfolio, ok
}

func WithPortfolio(ctx context.Context, portfolio models.Portfolio) context.Context {
	return context.WithValue(ctx, portfolioKey, portfolio)
}

// RequirePortfolioOwner loads the {pid} portfolio and only lets its owner
// through. The loaded portfolio is stored on the request context.
func RequirePortfolioOwner(portfolios PortfolioReader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := UserIDFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
				return
			}
			portfolioID := chi.URLParam(r, "pid")
			portfolio, err := portfolios.GetByID(r.Context(), portfolioID)
			if errors.Is(err, sql.ErrNoRows) {
				writeError(w, http.StatusNotFound, "portfolio_not_found", "portfolio not found: "+portfolioID)
				return
			}
			if err != nil {
				log.Printf("owner: load portfolio %s: %v", portfolioID, err)
				writeError(w, http.StatusInternalServerError, "internal", "unable to load portfolio")
				return
			}
			if portfolio.UserID != userID {
				writeError(w, http.StatusForbidden, "forbidden", "portfolio belongs to another user")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPortfolio(r.Context(), portfolio)))
		})
	}
}
