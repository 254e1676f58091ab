package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"sync"

	"investbook/internal/models"
	"investbook/internal/store"
	"investbook/internal/websocket"

	"github.com/jmoiron/sqlx"
)

type fakeTxRunner struct {
	err error
}

func (f fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	if f.err != nil {
		return f.err
	}
	return fn(nil)
}

type stubPortfolios struct {
	getByIDFn func(ctx context.Context, portfolioID string) (models.Portfolio, error)
}

func (s stubPortfolios) GetByID(ctx context.Context, portfolioID string) (models.Portfolio, error) {
	if s.getByIDFn == nil {
		return models.Portfolio{}, sql.ErrNoRows
	}
	return s.getByIDFn(ctx, portfolioID)
}

func portfolioOf(p models.Portfolio) stubPortfolios {
	return stubPortfolios{getByIDFn: func(_ context.Context, id string) (models.Portfolio, error) {
		if id != p.ID {
			return models.Portfolio{}, sql.ErrNoRows
		}
		return p, nil
	}}
}

type stubBuckets struct {
	buckets map[string]models.Bucket
	locked  []string
}

func (s *stubBuckets) GetByID(_ context.Context, bucketID string) (models.Bucket, error) {
	bucket, ok := s.buckets[bucketID]
	if !ok {
		return models.Bucket{}, sql.ErrNoRows
	}
	return bucket, nil
}

func (s *stubBuckets) GetForUpdate(ctx context.Context, _ store.Getter, bucketID string) (models.Bucket, error) {
	s.locked = append(s.locked, bucketID)
	return s.GetByID(ctx, bucketID)
}

func (s *stubBuckets) ListByPortfolio(_ context.Context, portfolioID string) ([]models.Bucket, error) {
	var out []models.Bucket
	for _, bucket := range s.buckets {
		if bucket.PortfolioID == portfolioID {
			out = append(out, bucket)
		}
	}
	return out, nil
}

type stubTransactions struct {
	created []models.Transaction
	list    []models.Transaction
	listErr error
	// afterList runs once the bucket listing is taken, then clears itself.
	afterList func()
}

func (s *stubTransactions) Create(_ context.Context, _ store.Getter, t *models.Transaction) error {
	s.created = append(s.created, *t)
	return nil
}

func (s *stubTransactions) ListByPortfolio(_ context.Context, portfolioID string) ([]models.Transaction, error) {
	var out []models.Transaction
	for _, t := range s.list {
		if t.PortfolioID == portfolioID {
			out = append(out, t)
		}
	}
	return out, s.listErr
}

func (s *stubTransactions) ListByBucket(_ context.Context, bucketID string) ([]models.Transaction, error) {
	var out []models.Transaction
	for _, t := range s.list {
		if t.BucketID == bucketID {
			out = append(out, t)
		}
	}
	if hook := s.afterList; hook != nil {
		s.afterList = nil
		hook()
	}
	return out, s.listErr
}

type stubSnapshots struct {
	created   []models.Snapshot
	list      []models.Snapshot
	latest    map[string]models.Snapshot
	rangeFrom *models.Date
	rangeTo   *models.Date
}

func (s *stubSnapshots) Create(_ context.Context, _ store.Getter, snap *models.Snapshot) error {
	s.created = append(s.created, *snap)
	return nil
}

func (s *stubSnapshots) Latest(_ context.Context, _ store.Getter, bucketID string) (models.Snapshot, error) {
	snap, ok := s.latest[bucketID]
	if !ok {
		return models.Snapshot{}, sql.ErrNoRows
	}
	return snap, nil
}

func (s *stubSnapshots) ListByBucket(_ context.Context, bucketID string, from, to *models.Date) ([]models.Snapshot, error) {
	s.rangeFrom, s.rangeTo = from, to
	var out []models.Snapshot
	for _, snap := range s.list {
		if snap.BucketID == bucketID {
			out = append(out, snap)
		}
	}
	return out, nil
}

func (s *stubSnapshots) ListByPortfolio(_ context.Context, _ string) ([]models.Snapshot, error) {
	return s.list, nil
}

// stubRates filters like the SQL store does.
type stubRates struct {
	rates   []models.FxRate
	created []models.FxRate
	finds   int
}

func (s *stubRates) Create(_ context.Context, _ store.Getter, rate *models.FxRate) error {
	s.created = append(s.created, *rate)
	return nil
}

func (s *stubRates) GetByID(_ context.Context, _ store.Getter, rateID string) (models.FxRate, error) {
	for _, rate := range s.rates {
		if rate.ID == rateID {
			return rate, nil
		}
	}
	return models.FxRate{}, sql.ErrNoRows
}

func (s *stubRates) Find(_ context.Context, filter store.FxRateFilter) ([]models.FxRate, error) {
	s.finds++
	out := []models.FxRate{}
	for _, rate := range s.rates {
		if filter.Date != nil && rate.Date != *filter.Date {
			continue
		}
		if filter.From != nil && rate.FromCurrency != *filter.From {
			continue
		}
		if filter.To != nil && rate.ToCurrency != *filter.To {
			continue
		}
		out = append(out, rate)
	}
	return out, nil
}

type auditEntry struct {
	actorID, action, entityType, entityID string
}

type stubAudit struct {
	entries []auditEntry
}

func (s *stubAudit) Log(_ context.Context, _ store.Execer, actorID, action, entityType, entityID, _ string) error {
	s.entries = append(s.entries, auditEntry{actorID, action, entityType, entityID})
	return nil
}

type notification struct {
	userID string
	event  websocket.LedgerEvent
}

type stubNotifier struct {
	notified  []notification
	broadcast []websocket.LedgerEvent
}

func (s *stubNotifier) Notify(userID string, event websocket.LedgerEvent) {
	s.notified = append(s.notified, notification{userID, event})
}

func (s *stubNotifier) BroadcastAll(event websocket.LedgerEvent) {
	s.broadcast = append(s.broadcast, event)
}

// memoryCache round-trips values through JSON like the Redis cache and
// records invalidations.
type memoryCache struct {
	mu          sync.Mutex
	values      map[string][]byte
	generations map[string]int64
	invalidated []string
	prefixes    []string
	bumped      []string
	gets        int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: make(map[string][]byte), generations: make(map[string]int64)}
}

func (c *memoryCache) Get(_ context.Context, key string, dest any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	payload, ok := c.values[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(payload, dest)
}

func (c *memoryCache) Set(_ context.Context, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = payload
	return nil
}

func (c *memoryCache) Generation(_ context.Context, scope string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[scope], nil
}

func (c *memoryCache) Bump(_ context.Context, scopes ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, scope := range scopes {
		c.generations[scope]++
		c.bumped = append(c.bumped, scope)
	}
	return nil
}

func (c *memoryCache) Invalidate(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.values, key)
		c.invalidated = append(c.invalidated, key)
	}
	return nil
}

func (c *memoryCache) InvalidatePrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.values {
		if strings.HasPrefix(key, prefix) {
			delete(c.values, key)
		}
	}
	c.prefixes = append(c.prefixes, prefix)
	return nil
}
