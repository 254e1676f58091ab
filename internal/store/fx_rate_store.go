package store

import (
	"context"

	"investbook/internal/models"
)

type FxRateStore struct {
	db DB
}

func NewFxRateStore(db DB) *FxRateStore {
	return &FxRateStore{db: db}
}

const fxRateColumns = `id, date, from_currency, to_currency, rate, source, created_at`

// FxRateFilter fields are combined with AND; nil means any.
type FxRateFilter struct {
	Date *models.Date
	From *models.Currency
	To   *models.Currency
}

func (s *FxRateStore) Create(ctx context.Context, tx Getter, rate *models.FxRate) error {
	return tx.GetContext(ctx, &rate.CreatedAt, `
		INSERT INTO fx_rates (id, date, from_currency, to_currency, rate, source)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, rate.ID, rate.Date, rate.FromCurrency, rate.ToCurrency, rate.Rate, rate.Source)
}

func (s *FxRateStore) GetByID(ctx context.Context, tx Getter, rateID string) (models.FxRate, error) {
	var rate models.FxRate
	err := tx.GetContext(ctx, &rate, `SELECT `+fxRateColumns+` FROM fx_rates WHERE id = $1`, rateID)
	return rate, err
}

func (s *FxRateStore) Find(ctx context.Context, filter FxRateFilter) ([]models.FxRate, error) {
	query := `SELECT ` + fxRateColumns + ` FROM fx_rates WHERE TRUE`
	var args []any
	if filter.Date != nil {
		args = append(args, *filter.Date)
		query += " AND date = $" + itoa(len(args))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		query += " AND from_currency = $" + itoa(len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		query += " AND to_currency = $" + itoa(len(args))
	}
	query += " ORDER BY date ASC, created_at ASC"
	rates := []models.FxRate{}
	err := s.db.SelectContext(ctx, &rates, query, args...)
	return rates, err
}
