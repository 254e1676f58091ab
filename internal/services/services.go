package services

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"strconv"
	"strings"

	"investbook/internal/apperr"
	"investbook/internal/cache"
	"investbook/internal/ledger"
	"investbook/internal/models"
	"investbook/internal/store"
	"investbook/internal/websocket"
)

var (
	ErrInvalidAmount       = apperr.Validation("invalid_amount", "amount must be greater than zero")
	ErrInvalidType         = apperr.Validation("invalid_type", "unknown transaction type")
	ErrInvalidCurrency     = apperr.Validation("invalid_currency", "currency must be BRL or USD")
	ErrInvalidDate         = apperr.Validation("invalid_date", "date is required")
	ErrInvalidDirection    = apperr.Validation("invalid_direction", "direction must be CREDIT or DEBIT and is only allowed on ADJUSTMENT")
	ErrCurrencyMismatch    = apperr.Validation("currency_mismatch", "currency must match the bucket reference currency")
	ErrFxRateRequired      = apperr.Validation("fx_rate_required", "transactions outside the portfolio base currency need fxRateId")
	ErrFxRateNotAllowed    = apperr.Validation("fx_rate_not_allowed", "transactions in the portfolio base currency take no fxRateId")
	ErrFxRateNotFound      = apperr.Validation("fx_rate_not_found", "referenced fx rate does not exist")
	ErrFxRatePairMismatch  = apperr.Validation("fx_rate_pair_mismatch", "fx rate must convert the transaction currency into the portfolio base currency")
	ErrFxRateUnavailable   = apperr.Validation("fx_rate_unavailable", "no fx rate available to value the portfolio")
	ErrNegativeValue       = apperr.Validation("invalid_total_value", "total value must not be negative")
	ErrSnapshotUnderflow   = apperr.Validation("snapshot_underflow", "withdrawal exceeds the latest snapshot value")
	ErrSameCurrencyPair    = apperr.Validation("same_currency_pair", "from and to currencies must differ")
	ErrInvalidRate         = apperr.Validation("invalid_rate", "rate must be positive with at most 6 decimal places")
	ErrInvalidSource       = apperr.Validation("invalid_source", "source must be MANUAL or API")
	ErrInvalidDateRange    = apperr.Validation("invalid_date_range", "from must not be after to")
	ErrInvalidSummaryQuery = apperr.Validation("invalid_summary_query", "use either month or year")
)

type PortfolioReader interface {
	GetByID(ctx context.Context, portfolioID string) (models.Portfolio, error)
}

type BucketStore interface {
	GetByID(ctx context.Context, bucketID string) (models.Bucket, error)
	GetForUpdate(ctx context.Context, tx store.Getter, bucketID string) (models.Bucket, error)
	ListByPortfolio(ctx context.Context, portfolioID string) ([]models.Bucket, error)
}

type TransactionStore interface {
	Create(ctx context.Context, tx store.Getter, t *models.Transaction) error
	ListByPortfolio(ctx context.Context, portfolioID string) ([]models.Transaction, error)
	ListByBucket(ctx context.Context, bucketID string) ([]models.Transaction, error)
}

type SnapshotStore interface {
	Create(ctx context.Context, tx store.Getter, snap *models.Snapshot) error
	Latest(ctx context.Context, tx store.Getter, bucketID string) (models.Snapshot, error)
	ListByBucket(ctx context.Context, bucketID string, from, to *models.Date) ([]models.Snapshot, error)
	ListByPortfolio(ctx context.Context, portfolioID string) ([]models.Snapshot, error)
}

type FxRateStore interface {
	Create(ctx context.Context, tx store.Getter, rate *models.FxRate) error
	GetByID(ctx context.Context, tx store.Getter, rateID string) (models.FxRate, error)
	Find(ctx context.Context, filter store.FxRateFilter) ([]models.FxRate, error)
}

type AuditStore interface {
	Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
}

type Notifier interface {
	Notify(userID string, event websocket.LedgerEvent)
	BroadcastAll(event websocket.LedgerEvent)
}

func notFound(err error, resource, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound(resource, id)
	}
	return err
}

// loadBucket returns NotFound when the bucket belongs to another portfolio.
func loadBucket(ctx context.Context, buckets BucketStore, portfolioID, bucketID string) (models.Bucket, error) {
	bucket, err := buckets.GetByID(ctx, bucketID)
	if err != nil {
		return models.Bucket{}, notFound(err, "bucket", bucketID)
	}
	if bucket.PortfolioID != portfolioID {
		return models.Bucket{}, apperr.NotFound("bucket", bucketID)
	}
	return bucket, nil
}

func invalidate(ctx context.Context, c cache.Cache, keys []string, prefixes ...string) {
	if err := c.Invalidate(ctx, keys...); err != nil {
		log.Printf("cache: invalidate %v: %v", keys, err)
	}
	for _, prefix := range prefixes {
		if err := c.InvalidatePrefix(ctx, prefix); err != nil {
			log.Printf("cache: invalidate prefix %s: %v", prefix, err)
		}
	}
}

// cacheScope names what a cached value depends on besides its key: the
// sign policy and the write counters of the scopes it reads.
type cacheScope struct {
	policy ledger.SignPolicy
	scopes []string
}

// stamp must be taken before loading. A write that commits during the load
// bumps a counter, so the value stored afterwards carries an outdated stamp
// and the next read recomputes.
func (s cacheScope) stamp(ctx context.Context, c cache.Cache) (string, error) {
	parts := []string{string(s.policy.DefaultAdjustment)}
	for _, scope := range s.scopes {
		gen, err := c.Generation(ctx, scope)
		if err != nil {
			return "", err
		}
		parts = append(parts, scope+"="+strconv.FormatInt(gen, 10))
	}
	return strings.Join(parts, ";"), nil
}

type cacheEntry[T any] struct {
	Stamp string `json:"stamp"`
	Value T      `json:"value"`
}

// cached returns the value stored under key when its stamp is current,
// computing and storing it otherwise. Cache errors only cost a
// recomputation.
func cached[T any](ctx context.Context, c cache.Cache, key string, scope cacheScope, load func() (T, error)) (T, error) {
	stamp, err := scope.stamp(ctx, c)
	if err != nil {
		log.Printf("cache: generation for %s: %v", key, err)
		return load()
	}
	var hit cacheEntry[T]
	found, err := c.Get(ctx, key, &hit)
	if err != nil {
		log.Printf("cache: get %s: %v", key, err)
	}
	if found && err == nil && hit.Stamp == stamp {
		return hit.Value, nil
	}
	value, err := load()
	if err != nil {
		return value, err
	}
	if err := c.Set(ctx, key, cacheEntry[T]{Stamp: stamp, Value: value}); err != nil {
		log.Printf("cache: set %s: %v", key, err)
	}
	return value, nil
}

// bump marks every value read under the scopes as outdated, then drops the
// keys eagerly.
func bump(ctx context.Context, c cache.Cache, scopes []string, keys []string, prefixes ...string) {
	if err := c.Bump(ctx, scopes...); err != nil {
		log.Printf("cache: bump %v: %v", scopes, err)
	}
	invalidate(ctx, c, keys, prefixes...)
}
