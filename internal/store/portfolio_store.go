package store

import (
	"context"

	"investbook/internal/models"
)

type PortfolioStore struct {
	db DB
}

func NewPortfolioStore(db DB) *PortfolioStore {
	return &PortfolioStore{db: db}
}

const portfolioColumns = `id, user_id, name, base_currency, created_at`

func (s *PortfolioStore) Create(ctx context.Context, tx Getter, portfolio *models.Portfolio) error {
	return tx.GetContext(ctx, &portfolio.CreatedAt, `
		INSERT INTO portfolios (id, user_id, name, base_currency)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, portfolio.ID, portfolio.UserID, portfolio.Name, portfolio.BaseCurrency)
}

func (s *PortfolioStore) GetByID(ctx context.Context, portfolioID string) (models.Portfolio, error) {
	var portfolio models.Portfolio
	err := s.db.GetContext(ctx, &portfolio, `SELECT `+portfolioColumns+` FROM portfolios WHERE id = $1`, portfolioID)
	return portfolio, err
}

func (s *PortfolioStore) ListByUser(ctx context.Context, userID string) ([]models.Portfolio, error) {
	portfolios := []models.Portfolio{}
	err := s.db.SelectContext(ctx, &portfolios, `
		SELECT `+portfolioColumns+`
		FROM portfolios
		WHERE user_id = $1
		ORDER BY created_at ASC
	`, userID)
	return portfolios, err
}
