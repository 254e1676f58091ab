package ledger

import (
	"errors"
	"sort"

	"investbook/internal/models"

	"github.com/shopspring/decimal"
)

var (
	ErrRateUnavailable = errors.New("no fx rate available for pair")
	ErrPinnedRate      = errors.New("pinned fx rate missing")
)

// RateBook is an in-memory view of the FX table used while valuing
// balances at a point in time. Transactions never go through it: they carry
// their own pinned quote.
type RateBook struct {
	byID  map[string]models.FxRate
	pairs map[pair][]models.FxRate
}

type pair struct {
	from models.Currency
	to   models.Currency
}

func NewRateBook(rates []models.FxRate) *RateBook {
	book := &RateBook{
		byID:  make(map[string]models.FxRate, len(rates)),
		pairs: make(map[pair][]models.FxRate),
	}
	for _, rate := range rates {
		book.byID[rate.ID] = rate
		key := pair{rate.FromCurrency, rate.ToCurrency}
		book.pairs[key] = append(book.pairs[key], rate)
	}
	for key := range book.pairs {
		sortRates(book.pairs[key])
	}
	return book
}

// sortRates orders by date, then creation time, then id.
func sortRates(rates []models.FxRate) {
	sort.SliceStable(rates, func(i, j int) bool {
		if c := rates[i].Date.Compare(rates[j].Date); c != 0 {
			return c < 0
		}
		if !rates[i].CreatedAt.Equal(rates[j].CreatedAt) {
			return rates[i].CreatedAt.Before(rates[j].CreatedAt)
		}
		return rates[i].ID < rates[j].ID
	})
}

func (b *RateBook) Pinned(id string) (models.FxRate, bool) {
	rate, ok := b.byID[id]
	return rate, ok
}

// Resolve picks one quote for valuing an amount on a given day: the last
// quote recorded for that exact day, else the latest one before it, else the
// earliest one after it.
func (b *RateBook) Resolve(from, to models.Currency, on models.Date) (decimal.Decimal, error) {
	if from == to {
		return decimal.NewFromInt(1), nil
	}
	rates := b.pairs[pair{from, to}]
	if len(rates) == 0 {
		return decimal.Zero, ErrRateUnavailable
	}
	idx := sort.Search(len(rates), func(i int) bool {
		return rates[i].Date.After(on)
	})
	if idx > 0 {
		return rates[idx-1].Rate, nil
	}
	return rates[0].Rate, nil
}
