package services

import (
	"context"
	"errors"
	"time"

	"investbook/internal/cache"
	"investbook/internal/ledger"
	"investbook/internal/models"
	"investbook/internal/store"
)

type SummaryService struct {
	portfolios   PortfolioReader
	buckets      BucketStore
	transactions TransactionStore
	snapshots    SnapshotStore
	rates        FxRateStore
	cache        cache.Cache
	policy       ledger.SignPolicy
	now          func() time.Time
}

func NewSummaryService(portfolios PortfolioReader, buckets BucketStore, transactions TransactionStore, snapshots SnapshotStore, rates FxRateStore, c cache.Cache, policy ledger.SignPolicy) *SummaryService {
	return &SummaryService{
		portfolios:   portfolios,
		buckets:      buckets,
		transactions: transactions,
		snapshots:    snapshots,
		rates:        rates,
		cache:        c,
		policy:       policy,
		now:          time.Now,
	}
}

// WithClock replaces the clock that decides the current month.
func (s *SummaryService) WithClock(now func() time.Time) *SummaryService {
	s.now = now
	return s
}

func (s *SummaryService) today() models.Date {
	return models.DateOf(s.now().UTC())
}

func (s *SummaryService) loadBook(ctx context.Context, portfolioID string) (ledger.Book, error) {
	portfolio, err := s.portfolios.GetByID(ctx, portfolioID)
	if err != nil {
		return ledger.Book{}, notFound(err, "portfolio", portfolioID)
	}
	buckets, err := s.buckets.ListByPortfolio(ctx, portfolioID)
	if err != nil {
		return ledger.Book{}, err
	}
	txs, err := s.transactions.ListByPortfolio(ctx, portfolioID)
	if err != nil {
		return ledger.Book{}, err
	}
	snaps, err := s.snapshots.ListByPortfolio(ctx, portfolioID)
	if err != nil {
		return ledger.Book{}, err
	}
	to := portfolio.BaseCurrency
	rates, err := s.rates.Find(ctx, store.FxRateFilter{To: &to})
	if err != nil {
		return ledger.Book{}, err
	}
	return ledger.NewBook(portfolio, buckets, txs, snaps, rates, s.policy), nil
}

func valuationError(err error) error {
	if errors.Is(err, ledger.ErrRateUnavailable) {
		return ErrFxRateUnavailable
	}
	return err
}

// Summaries value snapshots with the FX table, so FX writes outdate them too.
func (s *SummaryService) scope(portfolioID string) cacheScope {
	return cacheScope{policy: s.policy, scopes: []string{portfolioID, cache.FxScope}}
}

func (s *SummaryService) MonthSummary(ctx context.Context, portfolioID string, month models.Month) (models.MonthlySummary, error) {
	return cached(ctx, s.cache, cache.MonthSummaryKey(portfolioID, month.String()), s.scope(portfolioID), func() (models.MonthlySummary, error) {
		book, err := s.loadBook(ctx, portfolioID)
		if err != nil {
			return models.MonthlySummary{}, err
		}
		summary, err := book.MonthSummary(month)
		return summary, valuationError(err)
	})
}

// YearSummary is not cached for the current year: the month window moves
// with the clock.
func (s *SummaryService) YearSummary(ctx context.Context, portfolioID string, year int) (models.YearlySummary, error) {
	today := s.today()
	load := func() (models.YearlySummary, error) {
		book, err := s.loadBook(ctx, portfolioID)
		if err != nil {
			return models.YearlySummary{}, err
		}
		summary, err := book.YearSummary(year, today)
		return summary, valuationError(err)
	}
	if year >= today.Year() {
		return load()
	}
	return cached(ctx, s.cache, cache.YearSummaryKey(portfolioID, year), s.scope(portfolioID), load)
}

func (s *SummaryService) ListSummaries(ctx context.Context, portfolioID string) ([]models.MonthlySummary, error) {
	today := s.today()
	return cached(ctx, s.cache, cache.SummaryListKey(portfolioID, today.Month().String()), s.scope(portfolioID), func() ([]models.MonthlySummary, error) {
		book, err := s.loadBook(ctx, portfolioID)
		if err != nil {
			return nil, err
		}
		summaries, err := book.ListSummaries(today)
		if err != nil {
			return nil, valuationError(err)
		}
		return summaries, nil
	})
}
