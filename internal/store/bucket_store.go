package store

import (
	"context"

	"investbook/internal/models"
)

type BucketStore struct {
	db DB
}

func NewBucketStore(db DB) *BucketStore {
	return &BucketStore{db: db}
}

const bucketColumns = `id, portfolio_id, type, name, reference_currency, active, created_at`

func (s *BucketStore) Create(ctx context.Context, tx Getter, bucket *models.Bucket) error {
	return tx.GetContext(ctx, &bucket.CreatedAt, `
		INSERT INTO buckets (id, portfolio_id, type, name, reference_currency, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, bucket.ID, bucket.PortfolioID, bucket.Type, bucket.Name, bucket.ReferenceCurrency, bucket.Active)
}

func (s *BucketStore) GetByID(ctx context.Context, bucketID string) (models.Bucket, error) {
	var bucket models.Bucket
	err := s.db.GetContext(ctx, &bucket, `SELECT `+bucketColumns+` FROM buckets WHERE id = $1`, bucketID)
	return bucket, err
}

// GetForUpdate reads a bucket inside a write transaction.
func (s *BucketStore) GetForUpdate(ctx context.Context, tx Getter, bucketID string) (models.Bucket, error) {
	var bucket models.Bucket
	err := tx.GetContext(ctx, &bucket, `SELECT `+bucketColumns+` FROM buckets WHERE id = $1 FOR UPDATE`, bucketID)
	return bucket, err
}

func (s *BucketStore) ListByPortfolio(ctx context.Context, portfolioID string) ([]models.Bucket, error) {
	buckets := []models.Bucket{}
	err := s.db.SelectContext(ctx, &buckets, `
		SELECT `+bucketColumns+`
		FROM buckets
		WHERE portfolio_id = $1
		ORDER BY created_at ASC
	`, portfolioID)
	return buckets, err
}

func (s *BucketStore) Update(ctx context.Context, tx Execer, bucket models.Bucket) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE buckets
		SET name = $1, reference_currency = $2, active = $3
		WHERE id = $4
	`, bucket.Name, bucket.ReferenceCurrency, bucket.Active, bucket.ID)
	return err
}

func (s *BucketStore) HasLedgerRecords(ctx context.Context, tx Getter, bucketID string) (bool, error) {
	var exists bool
	err := tx.GetContext(ctx, &exists, `
		SELECT EXISTS (SELECT 1 FROM transactions WHERE bucket_id = $1)
		    OR EXISTS (SELECT 1 FROM snapshots WHERE bucket_id = $1)
	`, bucketID)
	return exists, err
}
