package store

import (
	"context"

	"investbook/internal/models"
)

type SnapshotStore struct {
	db DB
}

func NewSnapshotStore(db DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

const snapshotColumns = `id, bucket_id, date, type, total_value, currency, created_at`

func (s *SnapshotStore) Create(ctx context.Context, tx Getter, snap *models.Snapshot) error {
	return tx.GetContext(ctx, &snap.CreatedAt, `
		INSERT INTO snapshots (id, bucket_id, date, type, total_value, currency)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, snap.ID, snap.BucketID, snap.Date, snap.Type, snap.TotalValue, snap.Currency)
}

// Latest returns sql.ErrNoRows when the bucket has no snapshot.
func (s *SnapshotStore) Latest(ctx context.Context, tx Getter, bucketID string) (models.Snapshot, error) {
	var snap models.Snapshot
	err := tx.GetContext(ctx, &snap, `
		SELECT `+snapshotColumns+`
		FROM snapshots
		WHERE bucket_id = $1
		ORDER BY date DESC, created_at DESC
		LIMIT 1
	`, bucketID)
	return snap, err
}

// ListByBucket applies inclusive date bounds when given.
func (s *SnapshotStore) ListByBucket(ctx context.Context, bucketID string, from, to *models.Date) ([]models.Snapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM snapshots WHERE bucket_id = $1`
	args := []any{bucketID}
	if from != nil {
		args = append(args, *from)
		query += " AND date >= $" + itoa(len(args))
	}
	if to != nil {
		args = append(args, *to)
		query += " AND date <= $" + itoa(len(args))
	}
	query += " ORDER BY date ASC, created_at ASC"
	snaps := []models.Snapshot{}
	err := s.db.SelectContext(ctx, &snaps, query, args...)
	return snaps, err
}

func (s *SnapshotStore) ListByPortfolio(ctx context.Context, portfolioID string) ([]models.Snapshot, error) {
	snaps := []models.Snapshot{}
	err := s.db.SelectContext(ctx, &snaps, `
		SELECT s.id, s.bucket_id, s.date, s.type, s.total_value, s.currency, s.created_at
		FROM snapshots s
		JOIN buckets b ON b.id = s.bucket_id
		WHERE b.portfolio_id = $1
		ORDER BY s.date ASC, s.created_at ASC
	`, portfolioID)
	return snaps, err
}
