package ledger

import (
	"fmt"
	"time"

	"investbook/internal/models"
	"investbook/internal/money"
)

// Book is everything needed to value a portfolio over time.
type Book struct {
	Portfolio models.Portfolio
	Buckets   []BucketLedger
	Rates     *RateBook
	Policy    SignPolicy
}

func NewBook(portfolio models.Portfolio, buckets []models.Bucket, txs []models.Transaction, snaps []models.Snapshot, rates []models.FxRate, policy SignPolicy) Book {
	index := make(map[string]int, len(buckets))
	ledgers := make([]BucketLedger, len(buckets))
	for i, bucket := range buckets {
		index[bucket.ID] = i
		ledgers[i].Bucket = bucket
	}
	for _, tx := range txs {
		if i, ok := index[tx.BucketID]; ok {
			ledgers[i].Transactions = append(ledgers[i].Transactions, tx)
		}
	}
	for _, snap := range snaps {
		if i, ok := index[snap.BucketID]; ok {
			ledgers[i].Snapshots = append(ledgers[i].Snapshots, snap)
		}
	}
	return Book{
		Portfolio: portfolio,
		Buckets:   ledgers,
		Rates:     NewRateBook(rates),
		Policy:    policy,
	}
}

// ValueAt sums every bucket at the end of the given day in the base currency.
// Non-zero balances in a foreign currency are valued with the FX table.
func (b Book) ValueAt(on models.Date) (int64, error) {
	base := b.Portfolio.BaseCurrency
	var total int64
	for _, l := range b.Buckets {
		value := l.ValueAt(on, b.Policy)
		if value == 0 {
			continue
		}
		rate, err := b.Rates.Resolve(l.Bucket.ReferenceCurrency, base, on)
		if err != nil {
			return 0, fmt.Errorf("value bucket %s on %s: %w", l.Bucket.ID, on, err)
		}
		total += money.Convert(value, rate)
	}
	return total, nil
}

func (b Book) netContribution(month models.Month) (int64, error) {
	var net int64
	for _, l := range b.Buckets {
		for _, tx := range l.Transactions {
			if !month.Contains(tx.Date) {
				continue
			}
			delta, err := investedDelta(tx, b.Portfolio.BaseCurrency, b.Rates)
			if err != nil {
				return 0, err
			}
			net += delta
		}
	}
	return net, nil
}

// FirstActivity is the month of the oldest transaction or snapshot.
func (b Book) FirstActivity() (models.Month, bool) {
	var (
		first models.Date
		found bool
	)
	consider := func(d models.Date) {
		if !found || d.Before(first) {
			first = d
			found = true
		}
	}
	for _, l := range b.Buckets {
		for _, tx := range l.Transactions {
			consider(tx.Date)
		}
		for _, snap := range l.Snapshots {
			consider(snap.Date)
		}
	}
	if !found {
		return models.Month{}, false
	}
	return first.Month(), true
}

func (b Book) MonthSummary(month models.Month) (models.MonthlySummary, error) {
	start, err := b.ValueAt(month.Prev().Last())
	if err != nil {
		return models.MonthlySummary{}, err
	}
	end, err := b.ValueAt(month.Last())
	if err != nil {
		return models.MonthlySummary{}, err
	}
	net, err := b.netContribution(month)
	if err != nil {
		return models.MonthlySummary{}, err
	}
	pnl := end - start - net
	return models.MonthlySummary{
		PortfolioID:     b.Portfolio.ID,
		Month:           month,
		Currency:        b.Portfolio.BaseCurrency,
		StartValue:      start,
		EndValue:        end,
		NetContribution: net,
		PnL:             pnl,
		ValuesReal: models.SummaryValues{
			StartValue:      money.Real(start),
			EndValue:        money.Real(end),
			NetContribution: money.Real(net),
			PnL:             money.Real(pnl),
		},
	}, nil
}

// YearSummary lists the months of a year that have data, up to the month
// of now. Months before the first activity are left out and add nothing.
func (b Book) YearSummary(year int, now models.Date) (models.YearlySummary, error) {
	summary := models.YearlySummary{
		PortfolioID: b.Portfolio.ID,
		Year:        year,
		Currency:    b.Portfolio.BaseCurrency,
		Months:      []models.MonthlySummary{},
	}
	first, ok := b.FirstActivity()
	if !ok || year > now.Year() {
		return summary, nil
	}
	last := models.NewMonth(year, time.December)
	if year == now.Year() {
		last = now.Month()
	}
	for m := models.NewMonth(year, time.January); !m.After(last); m = m.Next() {
		if m.Before(first) {
			continue
		}
		ms, err := b.MonthSummary(m)
		if err != nil {
			return models.YearlySummary{}, err
		}
		summary.Months = append(summary.Months, ms)
		summary.PnLAccumulated += ms.PnL
	}
	summary.PnLAccumulatedReal = money.Real(summary.PnLAccumulated)
	return summary, nil
}

// ListSummaries covers every month from the first activity through now.
func (b Book) ListSummaries(now models.Date) ([]models.MonthlySummary, error) {
	out := []models.MonthlySummary{}
	first, ok := b.FirstActivity()
	if !ok {
		return out, nil
	}
	for m := first; !m.After(now.Month()); m = m.Next() {
		ms, err := b.MonthSummary(m)
		if err != nil {
			return nil, err
		}
		out = append(out, ms)
	}
	return out, nil
}
