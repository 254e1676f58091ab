package ledger

import (
	"fmt"
	"time"

	"investbook/internal/models"
	"investbook/internal/money"
)

// BucketLedger groups a bucket with its own records.
type BucketLedger struct {
	Bucket       models.Bucket
	Transactions []models.Transaction
	Snapshots    []models.Snapshot
}

// LatestSnapshot returns the newest snapshot dated on or before the given day.
// Ties on the same day go to the one created last.
func (l BucketLedger) LatestSnapshot(on models.Date) (models.Snapshot, bool) {
	var (
		latest models.Snapshot
		found  bool
	)
	for _, snap := range l.Snapshots {
		if snap.Date.After(on) {
			continue
		}
		if !found || snapshotNewer(snap, latest) {
			latest = snap
			found = true
		}
	}
	return latest, found
}

func (l BucketLedger) latestSnapshot() (models.Snapshot, bool) {
	var (
		latest models.Snapshot
		found  bool
	)
	for _, snap := range l.Snapshots {
		if !found || snapshotNewer(snap, latest) {
			latest = snap
			found = true
		}
	}
	return latest, found
}

func snapshotNewer(a, b models.Snapshot) bool {
	if c := a.Date.Compare(b.Date); c != 0 {
		return c > 0
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

// ValueAt is the bucket value in its reference currency at the end of the
// given day.
func (l BucketLedger) ValueAt(on models.Date, policy SignPolicy) int64 {
	if snap, ok := l.LatestSnapshot(on); ok {
		return snap.TotalValue
	}
	var total int64
	for _, tx := range l.Transactions {
		if tx.Date.After(on) {
			continue
		}
		total += policy.Signed(tx)
	}
	return total
}

// ConvertPinned expresses a transaction amount in the base currency using
// the quote it was recorded against.
func ConvertPinned(tx models.Transaction, base models.Currency, rates *RateBook) (int64, error) {
	if tx.Currency == base {
		return tx.Amount, nil
	}
	if tx.FxRateID == nil {
		return 0, fmt.Errorf("transaction %s: %w", tx.ID, ErrPinnedRate)
	}
	rate, ok := rates.Pinned(*tx.FxRateID)
	if !ok {
		return 0, fmt.Errorf("transaction %s rate %s: %w", tx.ID, *tx.FxRateID, ErrPinnedRate)
	}
	return money.Convert(tx.Amount, rate.Rate), nil
}

// investedDelta is the signed base-currency cash flow of a transaction.
// Only contributions and withdrawals move invested capital.
func investedDelta(tx models.Transaction, base models.Currency, rates *RateBook) (int64, error) {
	switch tx.Type {
	case models.TxContribution, models.TxWithdrawal:
	default:
		return 0, nil
	}
	converted, err := ConvertPinned(tx, base, rates)
	if err != nil {
		return 0, err
	}
	if tx.Type == models.TxWithdrawal {
		return -converted, nil
	}
	return converted, nil
}

func ComputePosition(l BucketLedger, base models.Currency, rates *RateBook, policy SignPolicy) (models.Position, error) {
	pos := models.Position{
		BucketID:     l.Bucket.ID,
		Currency:     l.Bucket.ReferenceCurrency,
		BaseCurrency: base,
	}

	var updated time.Time
	for _, tx := range l.Transactions {
		delta, err := investedDelta(tx, base, rates)
		if err != nil {
			return models.Position{}, err
		}
		pos.InvestedValue += delta
		if tx.CreatedAt.After(updated) {
			updated = tx.CreatedAt
		}
	}
	for _, snap := range l.Snapshots {
		if snap.CreatedAt.After(updated) {
			updated = snap.CreatedAt
		}
	}
	if !updated.IsZero() {
		pos.UpdatedAt = &updated
	}

	if snap, ok := l.latestSnapshot(); ok {
		pos.CurrentValue = snap.TotalValue
		return pos, nil
	}
	for _, tx := range l.Transactions {
		pos.CurrentValue += policy.Signed(tx)
	}
	return pos, nil
}
