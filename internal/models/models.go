package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Currency string

const (
	BRL Currency = "BRL"
	USD Currency = "USD"
)

func (c Currency) Valid() bool {
	return c == BRL || c == USD
}

type BucketType string

const (
	BucketFixedIncome BucketType = "FIXED_INCOME"
	BucketUSStocks    BucketType = "US_STOCKS"
	BucketBitcoin     BucketType = "BITCOIN"
	BucketOther       BucketType = "OTHER"
)

func (t BucketType) Valid() bool {
	switch t {
	case BucketFixedIncome, BucketUSStocks, BucketBitcoin, BucketOther:
		return true
	}
	return false
}

type TransactionType string

const (
	TxContribution TransactionType = "CONTRIBUTION"
	TxWithdrawal   TransactionType = "WITHDRAWAL"
	TxIncome       TransactionType = "INCOME"
	TxFee          TransactionType = "FEE"
	TxTax          TransactionType = "TAX"
	TxAdjustment   TransactionType = "ADJUSTMENT"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TxContribution, TxWithdrawal, TxIncome, TxFee, TxTax, TxAdjustment:
		return true
	}
	return false
}

// Direction tells whether an ADJUSTMENT adds to or subtracts from a bucket.
type Direction string

const (
	Credit Direction = "CREDIT"
	Debit  Direction = "DEBIT"
)

func (d Direction) Valid() bool {
	return d == Credit || d == Debit
}

type SnapshotType string

const (
	SnapshotManual       SnapshotType = "MANUAL"
	SnapshotContribution SnapshotType = "CONTRIBUTION"
	SnapshotWithdrawal   SnapshotType = "WITHDRAWAL"
)

type FxSource string

const (
	FxManual FxSource = "MANUAL"
	FxAPI    FxSource = "API"
)

func (s FxSource) Valid() bool {
	return s == FxManual || s == FxAPI
}

type User struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash *string   `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type Portfolio struct {
	ID           string    `db:"id" json:"id"`
	UserID       string    `db:"user_id" json:"user_id"`
	Name         string    `db:"name" json:"name"`
	BaseCurrency Currency  `db:"base_currency" json:"base_currency"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type Bucket struct {
	ID                string     `db:"id" json:"id"`
	PortfolioID       string     `db:"portfolio_id" json:"portfolio_id"`
	Type              BucketType `db:"type" json:"type"`
	Name              string     `db:"name" json:"name"`
	ReferenceCurrency Currency   `db:"reference_currency" json:"reference_currency"`
	Active            bool       `db:"active" json:"active"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
}

type Transaction struct {
	ID          string          `db:"id" json:"id"`
	PortfolioID string          `db:"portfolio_id" json:"portfolio_id"`
	BucketID    string          `db:"bucket_id" json:"bucket_id"`
	Date        Date            `db:"date" json:"date"`
	Type        TransactionType `db:"type" json:"type"`
	Amount      int64           `db:"amount" json:"amount"`
	Currency    Currency        `db:"currency" json:"currency"`
	FxRateID    *string         `db:"fx_rate_id" json:"fx_rate_id"`
	Direction   *Direction      `db:"direction" json:"direction,omitempty"`
	Description *string         `db:"description" json:"description"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

type Snapshot struct {
	ID         string       `db:"id" json:"id"`
	BucketID   string       `db:"bucket_id" json:"bucket_id"`
	Date       Date         `db:"date" json:"date"`
	Type       SnapshotType `db:"type" json:"type"`
	TotalValue int64        `db:"total_value" json:"total_value"`
	Currency   Currency     `db:"currency" json:"currency"`
	CreatedAt  time.Time    `db:"created_at" json:"created_at"`
}

// FxRate quotes Rate units of ToCurrency per one unit of FromCurrency.
type FxRate struct {
	ID           string          `db:"id" json:"id"`
	Date         Date            `db:"date" json:"date"`
	FromCurrency Currency        `db:"from_currency" json:"from_currency"`
	ToCurrency   Currency        `db:"to_currency" json:"to_currency"`
	Rate         decimal.Decimal `db:"rate" json:"rate"`
	Source       FxSource        `db:"source" json:"source"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}

type AuditLog struct {
	ID          string    `db:"id" json:"id"`
	ActorUserID *string   `db:"actor_user_id" json:"actor_user_id"`
	Action      string    `db:"action" json:"action"`
	EntityType  string    `db:"entity_type" json:"entity_type"`
	EntityID    string    `db:"entity_id" json:"entity_id"`
	Data        string    `db:"data" json:"data"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type Position struct {
	BucketID      string     `json:"bucket_id"`
	Currency      Currency   `json:"currency"`
	CurrentValue  int64      `json:"current_value"`
	BaseCurrency  Currency   `json:"base_currency"`
	InvestedValue int64      `json:"invested_value"`
	UpdatedAt     *time.Time `json:"updated_at"`
}

type SummaryValues struct {
	StartValue      float64 `json:"start_value"`
	EndValue        float64 `json:"end_value"`
	NetContribution float64 `json:"net_contribution"`
	PnL             float64 `json:"pnl"`
}

type MonthlySummary struct {
	PortfolioID     string        `json:"portfolio_id"`
	Month           Month         `json:"month"`
	Currency        Currency      `json:"currency"`
	StartValue      int64         `json:"start_value"`
	EndValue        int64         `json:"end_value"`
	NetContribution int64         `json:"net_contribution"`
	PnL             int64         `json:"pnl"`
	ValuesReal      SummaryValues `json:"values_real"`
}

type YearlySummary struct {
	PortfolioID        string           `json:"portfolio_id"`
	Year               int              `json:"year"`
	Currency           Currency         `json:"currency"`
	Months             []MonthlySummary `json:"months"`
	PnLAccumulated     int64            `json:"pnl_accumulated"`
	PnLAccumulatedReal float64          `json:"pnl_accumulated_real"`
}
