package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"investbook/internal/apperr"
	"investbook/internal/cache"
	"investbook/internal/db"
	"investbook/internal/models"
	"investbook/internal/money"
	"investbook/internal/websocket"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// EntryFields is shared by both transaction request variants.
type EntryFields struct {
	ActorID     string
	PortfolioID string
	BucketID    string
	Date        models.Date
	Type        models.TransactionType
	Amount      int64
	Currency    models.Currency
	Direction   *models.Direction
	Description *string
}

// BaseCurrencyEntry is denominated in the portfolio base currency and
// carries no FX reference.
type BaseCurrencyEntry struct {
	EntryFields
}

// ForeignCurrencyEntry is pinned to the quote that converts it into the
// portfolio base currency.
type ForeignCurrencyEntry struct {
	EntryFields
	FxRateID string
}

type TransactionRequest interface {
	entry() EntryFields
	pinnedRate() *string
}

func (e BaseCurrencyEntry) entry() EntryFields  { return e.EntryFields }
func (e BaseCurrencyEntry) pinnedRate() *string { return nil }

func (e ForeignCurrencyEntry) entry() EntryFields  { return e.EntryFields }
func (e ForeignCurrencyEntry) pinnedRate() *string { return &e.FxRateID }

// NewTransactionRequest picks the variant for the portfolio base currency.
func NewTransactionRequest(fields EntryFields, base models.Currency, fxRateID *string) (TransactionRequest, error) {
	if fields.Currency == base {
		if fxRateID != nil && *fxRateID != "" {
			return nil, ErrFxRateNotAllowed
		}
		return BaseCurrencyEntry{EntryFields: fields}, nil
	}
	if fxRateID == nil || *fxRateID == "" {
		return nil, ErrFxRateRequired
	}
	return ForeignCurrencyEntry{EntryFields: fields, FxRateID: *fxRateID}, nil
}

type SnapshotRequest struct {
	ActorID     string
	PortfolioID string
	BucketID    string
	Date        models.Date
	TotalValue  int64
	Currency    models.Currency
}

type LedgerService struct {
	txRunner     db.TxRunner
	portfolios   PortfolioReader
	buckets      BucketStore
	transactions TransactionStore
	snapshots    SnapshotStore
	rates        FxRateStore
	audit        AuditStore
	cache        cache.Cache
	notifier     Notifier
}

func NewLedgerService(txRunner db.TxRunner, portfolios PortfolioReader, buckets BucketStore, transactions TransactionStore, snapshots SnapshotStore, rates FxRateStore, audit AuditStore, c cache.Cache, notifier Notifier) *LedgerService {
	return &LedgerService{
		txRunner:     txRunner,
		portfolios:   portfolios,
		buckets:      buckets,
		transactions: transactions,
		snapshots:    snapshots,
		rates:        rates,
		audit:        audit,
		cache:        c,
		notifier:     notifier,
	}
}

func validateEntry(f EntryFields) error {
	if f.Amount <= 0 {
		return ErrInvalidAmount
	}
	if !f.Type.Valid() {
		return ErrInvalidType
	}
	if !f.Currency.Valid() {
		return ErrInvalidCurrency
	}
	if f.Date.IsZero() {
		return ErrInvalidDate
	}
	if f.Direction != nil && (f.Type != models.TxAdjustment || !f.Direction.Valid()) {
		return ErrInvalidDirection
	}
	return nil
}

func (s *LedgerService) RecordTransaction(ctx context.Context, req TransactionRequest) (models.Transaction, error) {
	fields := req.entry()
	if err := validateEntry(fields); err != nil {
		return models.Transaction{}, err
	}
	portfolio, err := s.portfolios.GetByID(ctx, fields.PortfolioID)
	if err != nil {
		return models.Transaction{}, notFound(err, "portfolio", fields.PortfolioID)
	}

	record := models.Transaction{
		ID:          uuid.NewString(),
		PortfolioID: fields.PortfolioID,
		BucketID:    fields.BucketID,
		Date:        fields.Date,
		Type:        fields.Type,
		Amount:      fields.Amount,
		Currency:    fields.Currency,
		FxRateID:    req.pinnedRate(),
		Direction:   fields.Direction,
		Description: fields.Description,
	}
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		bucket, err := s.lockBucket(ctx, tx, fields.PortfolioID, fields.BucketID)
		if err != nil {
			return err
		}
		if fields.Currency != bucket.ReferenceCurrency {
			return ErrCurrencyMismatch
		}
		if err := s.checkPinnedRate(ctx, tx, req, portfolio.BaseCurrency); err != nil {
			return err
		}
		if err := s.transactions.Create(ctx, tx, &record); err != nil {
			return err
		}
		if _, err := s.followSnapshot(ctx, tx, record); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]any{
			"bucket_id": record.BucketID,
			"type":      record.Type,
			"amount":    money.FormatMinor(record.Amount),
			"currency":  record.Currency,
		})
		return s.audit.Log(ctx, tx, fields.ActorID, "create", "transaction", record.ID, string(data))
	})
	if err != nil {
		return models.Transaction{}, err
	}
	s.afterWrite(ctx, portfolio, record.BucketID, websocket.EventTransactionRecorded)
	return record, nil
}

func (s *LedgerService) lockBucket(ctx context.Context, tx *sqlx.Tx, portfolioID, bucketID string) (models.Bucket, error) {
	bucket, err := s.buckets.GetForUpdate(ctx, tx, bucketID)
	if err != nil {
		return models.Bucket{}, notFound(err, "bucket", bucketID)
	}
	if bucket.PortfolioID != portfolioID {
		return models.Bucket{}, apperr.NotFound("bucket", bucketID)
	}
	return bucket, nil
}

// checkPinnedRate re-reads the referenced quote inside the write
// transaction; the client view of the FX table may be stale.
func (s *LedgerService) checkPinnedRate(ctx context.Context, tx *sqlx.Tx, req TransactionRequest, base models.Currency) error {
	fields := req.entry()
	rateID := req.pinnedRate()
	if rateID == nil {
		if fields.Currency != base {
			return ErrFxRateRequired
		}
		return nil
	}
	if fields.Currency == base {
		return ErrFxRateNotAllowed
	}
	rate, err := s.rates.GetByID(ctx, tx, *rateID)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.Wrap(ErrFxRateNotFound, err)
	}
	if err != nil {
		return err
	}
	if rate.FromCurrency != fields.Currency || rate.ToCurrency != base {
		return ErrFxRatePairMismatch
	}
	return nil
}

// followSnapshot keeps mark-to-market buckets consistent: a contribution or
// withdrawal on or after the latest snapshot moves that value by the amount.
func (s *LedgerService) followSnapshot(ctx context.Context, tx *sqlx.Tx, record models.Transaction) (*models.Snapshot, error) {
	var kind models.SnapshotType
	var delta int64
	switch record.Type {
	case models.TxContribution:
		kind, delta = models.SnapshotContribution, record.Amount
	case models.TxWithdrawal:
		kind, delta = models.SnapshotWithdrawal, -record.Amount
	default:
		return nil, nil
	}
	latest, err := s.snapshots.Latest(ctx, tx, record.BucketID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if record.Date.Before(latest.Date) {
		return nil, nil
	}
	value := latest.TotalValue + delta
	if value < 0 {
		return nil, ErrSnapshotUnderflow
	}
	snap := &models.Snapshot{
		ID:         uuid.NewString(),
		BucketID:   record.BucketID,
		Date:       record.Date,
		Type:       kind,
		TotalValue: value,
		Currency:   record.Currency,
	}
	if err := s.snapshots.Create(ctx, tx, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *LedgerService) RecordSnapshot(ctx context.Context, req SnapshotRequest) (models.Snapshot, error) {
	if req.TotalValue < 0 {
		return models.Snapshot{}, ErrNegativeValue
	}
	if !req.Currency.Valid() {
		return models.Snapshot{}, ErrInvalidCurrency
	}
	if req.Date.IsZero() {
		return models.Snapshot{}, ErrInvalidDate
	}
	portfolio, err := s.portfolios.GetByID(ctx, req.PortfolioID)
	if err != nil {
		return models.Snapshot{}, notFound(err, "portfolio", req.PortfolioID)
	}
	snap := models.Snapshot{
		ID:         uuid.NewString(),
		BucketID:   req.BucketID,
		Date:       req.Date,
		Type:       models.SnapshotManual,
		TotalValue: req.TotalValue,
		Currency:   req.Currency,
	}
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		bucket, err := s.lockBucket(ctx, tx, req.PortfolioID, req.BucketID)
		if err != nil {
			return err
		}
		if req.Currency != bucket.ReferenceCurrency {
			return ErrCurrencyMismatch
		}
		if err := s.snapshots.Create(ctx, tx, &snap); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]any{
			"bucket_id":   snap.BucketID,
			"total_value": money.FormatMinor(snap.TotalValue),
			"date":        snap.Date,
		})
		return s.audit.Log(ctx, tx, req.ActorID, "create", "snapshot", snap.ID, string(data))
	})
	if err != nil {
		return models.Snapshot{}, err
	}
	s.afterWrite(ctx, portfolio, snap.BucketID, websocket.EventSnapshotRecorded)
	return snap, nil
}

func (s *LedgerService) ListTransactions(ctx context.Context, portfolioID string) ([]models.Transaction, error) {
	return s.transactions.ListByPortfolio(ctx, portfolioID)
}

func (s *LedgerService) ListSnapshots(ctx context.Context, portfolioID, bucketID string, from, to *models.Date) ([]models.Snapshot, error) {
	if from != nil && to != nil && from.After(*to) {
		return nil, ErrInvalidDateRange
	}
	if _, err := loadBucket(ctx, s.buckets, portfolioID, bucketID); err != nil {
		return nil, err
	}
	return s.snapshots.ListByBucket(ctx, bucketID, from, to)
}

// afterWrite outdates every derived value the write can change and tells
// the owner's open connections which resources went stale.
func (s *LedgerService) afterWrite(ctx context.Context, portfolio models.Portfolio, bucketID string, kind websocket.EventType) {
	bump(ctx, s.cache, []string{portfolio.ID}, []string{cache.PositionKey(bucketID)}, cache.SummaryPrefix(portfolio.ID))
	s.notifier.Notify(portfolio.UserID, websocket.LedgerEvent{
		Type:        kind,
		PortfolioID: portfolio.ID,
		BucketID:    bucketID,
		Invalidate: []string{
			websocket.BucketPath(portfolio.ID, bucketID) + "/position",
			websocket.BucketPath(portfolio.ID, bucketID) + "/snapshots",
			websocket.PortfolioPath(portfolio.ID) + "/transactions",
			websocket.PortfolioPath(portfolio.ID) + "/summaries",
		},
	})
}
