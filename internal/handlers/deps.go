package handlers

import (
	"context"

	"investbook/internal/models"
	"investbook/internal/services"
	"investbook/internal/store"
)

type UserStore interface {
	Create(ctx context.Context, tx store.Getter, user *models.User) error
	GetByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, userID string) (models.User, error)
	List(ctx context.Context) ([]models.User, error)
}

type PortfolioStore interface {
	Create(ctx context.Context, tx store.Getter, portfolio *models.Portfolio) error
	GetByID(ctx context.Context, portfolioID string) (models.Portfolio, error)
	ListByUser(ctx context.Context, userID string) ([]models.Portfolio, error)
}

type BucketStore interface {
	Create(ctx context.Context, tx store.Getter, bucket *models.Bucket) error
	GetByID(ctx context.Context, bucketID string) (models.Bucket, error)
	GetForUpdate(ctx context.Context, tx store.Getter, bucketID string) (models.Bucket, error)
	ListByPortfolio(ctx context.Context, portfolioID string) ([]models.Bucket, error)
	Update(ctx context.Context, tx store.Execer, bucket models.Bucket) error
	HasLedgerRecords(ctx context.Context, tx store.Getter, bucketID string) (bool, error)
}

type AuditStore interface {
	Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
	ListByEntity(ctx context.Context, entityType, entityID string) ([]models.AuditLog, error)
}

type LedgerService interface {
	RecordTransaction(ctx context.Context, req services.TransactionRequest) (models.Transaction, error)
	RecordSnapshot(ctx context.Context, req services.SnapshotRequest) (models.Snapshot, error)
	ListTransactions(ctx context.Context, portfolioID string) ([]models.Transaction, error)
	ListSnapshots(ctx context.Context, portfolioID, bucketID string, from, to *models.Date) ([]models.Snapshot, error)
}

type FxService interface {
	AddRate(ctx context.Context, req services.AddRateRequest) (models.FxRate, error)
	FindRates(ctx context.Context, filter store.FxRateFilter) ([]models.FxRate, error)
	LookupRates(ctx context.Context, from, to models.Currency, on models.Date) ([]models.FxRate, error)
}

type PositionService interface {
	ComputePosition(ctx context.Context, portfolioID, bucketID string) (models.Position, error)
}

type SummaryService interface {
	MonthSummary(ctx context.Context, portfolioID string, month models.Month) (models.MonthlySummary, error)
	YearSummary(ctx context.Context, portfolioID string, year int) (models.YearlySummary, error)
	ListSummaries(ctx context.Context, portfolioID string) ([]models.MonthlySummary, error)
}
