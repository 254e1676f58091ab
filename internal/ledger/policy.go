// Package ledger derives positions and profit-and-loss summaries from the
// append-only transaction and snapshot records of a portfolio.
//
// Every function here is pure: callers load the records, the package only
// reduces them. Amounts stay in integer minor units throughout.
package ledger

import (
	"fmt"

	"investbook/internal/models"
)

// SignPolicy decides the direction of each transaction type.
// ADJUSTMENT has no natural direction, so a record may carry its own and
// DefaultAdjustment covers the rest.
type SignPolicy struct {
	DefaultAdjustment models.Direction
}

func DefaultSignPolicy() SignPolicy {
	return SignPolicy{DefaultAdjustment: models.Credit}
}

func ParseSignPolicy(direction string) (SignPolicy, error) {
	d := models.Direction(direction)
	if !d.Valid() {
		return SignPolicy{}, fmt.Errorf("invalid adjustment direction %q", direction)
	}
	return SignPolicy{DefaultAdjustment: d}, nil
}

func (p SignPolicy) Direction(tx models.Transaction) models.Direction {
	switch tx.Type {
	case models.TxContribution, models.TxIncome:
		return models.Credit
	case models.TxWithdrawal, models.TxFee, models.TxTax:
		return models.Debit
	}
	if tx.Direction != nil && tx.Direction.Valid() {
		return *tx.Direction
	}
	if p.DefaultAdjustment == models.Debit {
		return models.Debit
	}
	return models.Credit
}

// Signed returns the amount as it moves the bucket value.
func (p SignPolicy) Signed(tx models.Transaction) int64 {
	if p.Direction(tx) == models.Debit {
		return -tx.Amount
	}
	return tx.Amount
}
