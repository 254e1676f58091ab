package services

import (
	"context"
	"fmt"

	"investbook/internal/cache"
	"investbook/internal/ledger"
	"investbook/internal/models"
	"investbook/internal/store"
)

type PositionService struct {
	portfolios   PortfolioReader
	buckets      BucketStore
	transactions TransactionStore
	snapshots    SnapshotStore
	rates        FxRateStore
	cache        cache.Cache
	policy       ledger.SignPolicy
}

func NewPositionService(portfolios PortfolioReader, buckets BucketStore, transactions TransactionStore, snapshots SnapshotStore, rates FxRateStore, c cache.Cache, policy ledger.SignPolicy) *PositionService {
	return &PositionService{
		portfolios:   portfolios,
		buckets:      buckets,
		transactions: transactions,
		snapshots:    snapshots,
		rates:        rates,
		cache:        c,
		policy:       policy,
	}
}

func (s *PositionService) ComputePosition(ctx context.Context, portfolioID, bucketID string) (models.Position, error) {
	bucket, err := loadBucket(ctx, s.buckets, portfolioID, bucketID)
	if err != nil {
		return models.Position{}, err
	}
	scope := cacheScope{policy: s.policy, scopes: []string{portfolioID}}
	return cached(ctx, s.cache, cache.PositionKey(bucketID), scope, func() (models.Position, error) {
		return s.compute(ctx, bucket)
	})
}

func (s *PositionService) compute(ctx context.Context, bucket models.Bucket) (models.Position, error) {
	portfolio, err := s.portfolios.GetByID(ctx, bucket.PortfolioID)
	if err != nil {
		return models.Position{}, notFound(err, "portfolio", bucket.PortfolioID)
	}
	txs, err := s.transactions.ListByBucket(ctx, bucket.ID)
	if err != nil {
		return models.Position{}, err
	}
	snaps, err := s.snapshots.ListByBucket(ctx, bucket.ID, nil, nil)
	if err != nil {
		return models.Position{}, err
	}
	var rates []models.FxRate
	if bucket.ReferenceCurrency != portfolio.BaseCurrency {
		from, to := bucket.ReferenceCurrency, portfolio.BaseCurrency
		rates, err = s.rates.Find(ctx, store.FxRateFilter{From: &from, To: &to})
		if err != nil {
			return models.Position{}, err
		}
	}
	l := ledger.BucketLedger{Bucket: bucket, Transactions: txs, Snapshots: snaps}
	pos, err := ledger.ComputePosition(l, portfolio.BaseCurrency, ledger.NewRateBook(rates), s.policy)
	if err != nil {
		return models.Position{}, fmt.Errorf("position of bucket %s: %w", bucket.ID, err)
	}
	return pos, nil
}
