package services

import (
	"context"
	"testing"

	"investbook/internal/cache"
	"investbook/internal/models"
	"investbook/internal/store"
	"investbook/internal/websocket"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func usdQuote(id, date, rate string) models.FxRate {
	return models.FxRate{
		ID:           id,
		Date:         models.MustDate(date),
		FromCurrency: models.USD,
		ToCurrency:   models.BRL,
		Rate:         decimal.RequireFromString(rate),
		Source:       models.FxManual,
		CreatedAt:    created,
	}
}

func newFxFixture(rates ...models.FxRate) (*FxService, *stubRates, *memoryCache, *stubNotifier, *stubAudit) {
	rateStore := &stubRates{rates: rates}
	c := newMemoryCache()
	notifier := &stubNotifier{}
	audit := &stubAudit{}
	return NewFxService(fakeTxRunner{}, rateStore, audit, c, notifier), rateStore, c, notifier, audit
}

func TestAddRate(t *testing.T) {
	svc, rates, c, notifier, audit := newFxFixture()

	rate, err := svc.AddRate(context.Background(), AddRateRequest{
		ActorID: "u1",
		Date:    models.MustDate("2024-01-15"),
		From:    models.USD,
		To:      models.BRL,
		Rate:    decimal.RequireFromString("4.950000"),
	})
	require.NoError(t, err)

	assert.Equal(t, models.FxManual, rate.Source)
	require.Len(t, rates.created, 1)
	assert.Equal(t, rate.ID, rates.created[0].ID)
	assert.Equal(t, auditEntry{"u1", "create", "fx_rate", rate.ID}, audit.entries[0])
	assert.Equal(t, []string{cache.AllSummaries}, c.prefixes)
	assert.Equal(t, []string{cache.FxScope}, c.bumped)
	require.Len(t, notifier.broadcast, 1)
	assert.Equal(t, websocket.EventFxRateAdded, notifier.broadcast[0].Type)
}

func TestAddRateRejects(t *testing.T) {
	valid := AddRateRequest{
		Date: models.MustDate("2024-01-15"),
		From: models.USD,
		To:   models.BRL,
		Rate: decimal.RequireFromString("5"),
	}
	cases := map[string]struct {
		mutate func(*AddRateRequest)
		want   error
	}{
		"same pair":      {func(r *AddRateRequest) { r.To = models.USD }, ErrSameCurrencyPair},
		"unknown from":   {func(r *AddRateRequest) { r.From = "EUR" }, ErrInvalidCurrency},
		"zero rate":      {func(r *AddRateRequest) { r.Rate = decimal.Zero }, ErrInvalidRate},
		"negative rate":  {func(r *AddRateRequest) { r.Rate = decimal.NewFromInt(-1) }, ErrInvalidRate},
		"seven decimals": {func(r *AddRateRequest) { r.Rate = decimal.RequireFromString("5.1234567") }, ErrInvalidRate},
		"missing date":   {func(r *AddRateRequest) { r.Date = models.Date{} }, ErrInvalidDate},
		"unknown source": {func(r *AddRateRequest) { r.Source = "SCRAPER" }, ErrInvalidSource},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			svc, rates, _, notifier, _ := newFxFixture()
			req := valid
			tc.mutate(&req)
			_, err := svc.AddRate(context.Background(), req)
			assert.ErrorIs(t, err, tc.want)
			assert.Empty(t, rates.created)
			assert.Empty(t, notifier.broadcast)
		})
	}
}

func TestLookupRatesExactDay(t *testing.T) {
	svc, _, _, _, _ := newFxFixture(
		usdQuote("a", "2024-01-10", "5.10"),
		usdQuote("b", "2024-01-15", "5.15"),
		usdQuote("c", "2024-01-20", "5.20"),
	)
	rates, err := svc.LookupRates(context.Background(), models.USD, models.BRL, models.MustDate("2024-01-15"))
	require.NoError(t, err)
	require.Len(t, rates, 1)
	assert.Equal(t, "b", rates[0].ID)
}

func TestLookupRatesFallsBackToPairHistory(t *testing.T) {
	svc, rateStore, _, _, _ := newFxFixture(
		usdQuote("a", "2024-01-10", "5.10"),
		usdQuote("c", "2024-01-20", "5.20"),
	)
	rates, err := svc.LookupRates(context.Background(), models.USD, models.BRL, models.MustDate("2024-01-15"))
	require.NoError(t, err)

	require.Len(t, rates, 2)
	assert.Equal(t, "a", rates[0].ID)
	assert.Equal(t, "c", rates[1].ID)
	assert.Equal(t, 2, rateStore.finds)
}

func TestLookupRatesUnknownPair(t *testing.T) {
	svc, _, _, _, _ := newFxFixture(usdQuote("a", "2024-01-10", "5.10"))
	rates, err := svc.LookupRates(context.Background(), models.BRL, models.USD, models.MustDate("2024-01-15"))
	require.NoError(t, err)
	assert.Empty(t, rates)
}

func TestFindRates(t *testing.T) {
	svc, _, _, _, _ := newFxFixture(
		usdQuote("a", "2024-01-10", "5.10"),
		usdQuote("c", "2024-01-20", "5.20"),
	)
	day := models.MustDate("2024-01-20")
	rates, err := svc.FindRates(context.Background(), store.FxRateFilter{Date: &day})
	require.NoError(t, err)
	require.Len(t, rates, 1)
	assert.Equal(t, "c", rates[0].ID)
}

func TestResolveRate(t *testing.T) {
	svc, _, _, _, _ := newFxFixture(
		usdQuote("a", "2024-01-10", "5.10"),
		usdQuote("c", "2024-01-20", "5.20"),
	)
	ctx := context.Background()

	rate, err := svc.ResolveRate(ctx, models.USD, models.BRL, models.MustDate("2024-01-15"))
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.RequireFromString("5.10")))

	rate, err = svc.ResolveRate(ctx, models.USD, models.BRL, models.MustDate("2024-01-01"))
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.RequireFromString("5.10")))

	rate, err = svc.ResolveRate(ctx, models.BRL, models.BRL, models.MustDate("2024-01-01"))
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.NewFromInt(1)))

	_, err = svc.ResolveRate(ctx, models.BRL, models.USD, models.MustDate("2024-01-01"))
	assert.ErrorIs(t, err, ErrFxRateUnavailable)
}
