package services

import (
	"context"
	"encoding/json"
	"errors"

	"investbook/internal/cache"
	"investbook/internal/db"
	"investbook/internal/ledger"
	"investbook/internal/models"
	"investbook/internal/store"
	"investbook/internal/validator"
	"investbook/internal/websocket"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type AddRateRequest struct {
	ActorID string
	Date    models.Date
	From    models.Currency
	To      models.Currency
	Rate    decimal.Decimal
	Source  models.FxSource
}

type FxService struct {
	txRunner db.TxRunner
	rates    FxRateStore
	audit    AuditStore
	cache    cache.Cache
	notifier Notifier
}

func NewFxService(txRunner db.TxRunner, rates FxRateStore, audit AuditStore, c cache.Cache, notifier Notifier) *FxService {
	return &FxService{txRunner: txRunner, rates: rates, audit: audit, cache: c, notifier: notifier}
}

func (s *FxService) AddRate(ctx context.Context, req AddRateRequest) (models.FxRate, error) {
	if !req.From.Valid() || !req.To.Valid() {
		return models.FxRate{}, ErrInvalidCurrency
	}
	if req.From == req.To {
		return models.FxRate{}, ErrSameCurrencyPair
	}
	if err := validator.ValidateRate(req.Rate); err != nil {
		return models.FxRate{}, ErrInvalidRate
	}
	if req.Date.IsZero() {
		return models.FxRate{}, ErrInvalidDate
	}
	if req.Source == "" {
		req.Source = models.FxManual
	}
	if !req.Source.Valid() {
		return models.FxRate{}, ErrInvalidSource
	}
	rate := models.FxRate{
		ID:           uuid.NewString(),
		Date:         req.Date,
		FromCurrency: req.From,
		ToCurrency:   req.To,
		Rate:         req.Rate,
		Source:       req.Source,
	}
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.rates.Create(ctx, tx, &rate); err != nil {
			return err
		}
		data, _ := json.Marshal(rate)
		return s.audit.Log(ctx, tx, req.ActorID, "create", "fx_rate", rate.ID, string(data))
	})
	if err != nil {
		return models.FxRate{}, err
	}
	// Pinned transactions never change, but snapshot valuation reads the table.
	bump(ctx, s.cache, []string{cache.FxScope}, nil, cache.AllSummaries)
	s.notifier.BroadcastAll(websocket.LedgerEvent{
		Type:       websocket.EventFxRateAdded,
		Invalidate: []string{websocket.FxRatesPath, "/portfolios"},
	})
	return rate, nil
}

func (s *FxService) FindRates(ctx context.Context, filter store.FxRateFilter) ([]models.FxRate, error) {
	return s.rates.Find(ctx, filter)
}

// LookupRates returns the quotes for the exact day, or the whole history of
// the pair when that day has none. Callers pick from the history themselves.
func (s *FxService) LookupRates(ctx context.Context, from, to models.Currency, on models.Date) ([]models.FxRate, error) {
	exact, err := s.rates.Find(ctx, store.FxRateFilter{Date: &on, From: &from, To: &to})
	if err != nil {
		return nil, err
	}
	if len(exact) > 0 {
		return exact, nil
	}
	return s.rates.Find(ctx, store.FxRateFilter{From: &from, To: &to})
}

// ResolveRate picks a single quote for valuation on a given day.
func (s *FxService) ResolveRate(ctx context.Context, from, to models.Currency, on models.Date) (decimal.Decimal, error) {
	if from == to {
		return decimal.NewFromInt(1), nil
	}
	history, err := s.rates.Find(ctx, store.FxRateFilter{From: &from, To: &to})
	if err != nil {
		return decimal.Zero, err
	}
	rate, err := ledger.NewRateBook(history).Resolve(from, to, on)
	if errors.Is(err, ledger.ErrRateUnavailable) {
		return decimal.Zero, ErrFxRateUnavailable
	}
	return rate, err
}
