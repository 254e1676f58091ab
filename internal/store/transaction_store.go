package store

import (
	"context"

	"investbook/internal/models"
)

type TransactionStore struct {
	db DB
}

func NewTransactionStore(db DB) *TransactionStore {
	return &TransactionStore{db: db}
}

const transactionColumns = `id, portfolio_id, bucket_id, date, type, amount, currency, fx_rate_id, direction, description, created_at`

func (s *TransactionStore) Create(ctx context.Context, tx Getter, t *models.Transaction) error {
	return tx.GetContext(ctx, &t.CreatedAt, `
		INSERT INTO transactions (id, portfolio_id, bucket_id, date, type, amount, currency, fx_rate_id, direction, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`, t.ID, t.PortfolioID, t.BucketID, t.Date, t.Type, t.Amount, t.Currency, t.FxRateID, t.Direction, t.Description)
}

func (s *TransactionStore) ListByPortfolio(ctx context.Context, portfolioID string) ([]models.Transaction, error) {
	txs := []models.Transaction{}
	err := s.db.SelectContext(ctx, &txs, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE portfolio_id = $1
		ORDER BY date ASC, created_at ASC
	`, portfolioID)
	return txs, err
}

func (s *TransactionStore) ListByBucket(ctx context.Context, bucketID string) ([]models.Transaction, error) {
	txs := []models.Transaction{}
	err := s.db.SelectContext(ctx, &txs, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE bucket_id = $1
		ORDER BY date ASC, created_at ASC
	`, bucketID)
	return txs, err
}
