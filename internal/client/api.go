package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"investbook/internal/models"

	"github.com/shopspring/decimal"
)

// Position is a bucket position as served, with formatted amounts.
type Position struct {
	models.Position
	Display         string `json:"display"`
	InvestedDisplay string `json:"invested_display"`
}

type TransactionInput struct {
	BucketID    string                 `json:"bucketId"`
	Date        models.Date            `json:"date"`
	Type        models.TransactionType `json:"type"`
	Amount      int64                  `json:"amount"`
	Currency    models.Currency        `json:"currency"`
	FxRateID    *string                `json:"fxRateId,omitempty"`
	Direction   *models.Direction      `json:"direction,omitempty"`
	Description *string                `json:"description,omitempty"`
}

type SnapshotInput struct {
	Date       models.Date     `json:"date"`
	TotalValue int64           `json:"totalValue"`
	Currency   models.Currency `json:"currency"`
}

type FxRateInput struct {
	Date   models.Date     `json:"date"`
	From   models.Currency `json:"from"`
	To     models.Currency `json:"to"`
	Rate   decimal.Decimal `json:"rate"`
	Source models.FxSource `json:"source,omitempty"`
}

// FxQuery filters the FX table. With all three fields set the server falls
// back to the nearest quotes when the exact day has none.
type FxQuery struct {
	From *models.Currency
	To   *models.Currency
	Date *models.Date
}

func portfolioPath(portfolioID string) string {
	return "/portfolios/" + url.PathEscape(portfolioID)
}

func bucketPath(portfolioID, bucketID string) string {
	return portfolioPath(portfolioID) + "/buckets/" + url.PathEscape(bucketID)
}

// Login trades credentials for a token and keeps it in the session.
func (c *Client) Login(ctx context.Context, email, password string) error {
	var out struct {
		Token string `json:"token"`
	}
	body, err := c.do(ctx, http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, false)
	if err != nil {
		return err
	}
	if err := decode(body, &out); err != nil {
		return err
	}
	return c.session.Login(out.Token)
}

// Logout ends the session and forgets every cached response.
func (c *Client) Logout() error {
	c.cache.Invalidate("")
	return c.session.Logout()
}

func (c *Client) Me(ctx context.Context) (models.User, error) {
	var user models.User
	err := c.get(ctx, "/auth/me", &user)
	return user, err
}

func (c *Client) Portfolios(ctx context.Context) ([]models.Portfolio, error) {
	var out struct {
		Portfolios []models.Portfolio `json:"portfolios"`
	}
	err := c.get(ctx, "/portfolios", &out)
	return out.Portfolios, err
}

func (c *Client) CreatePortfolio(ctx context.Context, name string, base models.Currency) (models.Portfolio, error) {
	var portfolio models.Portfolio
	err := c.send(ctx, http.MethodPost, "/portfolios", map[string]any{
		"name":         name,
		"baseCurrency": base,
	}, &portfolio, "/portfolios")
	return portfolio, err
}

func (c *Client) Buckets(ctx context.Context, portfolioID string) ([]models.Bucket, error) {
	var out struct {
		Buckets []models.Bucket `json:"buckets"`
	}
	err := c.get(ctx, portfolioPath(portfolioID)+"/buckets", &out)
	return out.Buckets, err
}

func (c *Client) CreateBucket(ctx context.Context, portfolioID string, kind models.BucketType, name string, currency models.Currency) (models.Bucket, error) {
	var bucket models.Bucket
	err := c.send(ctx, http.MethodPost, portfolioPath(portfolioID)+"/buckets", map[string]any{
		"type":              kind,
		"name":              name,
		"referenceCurrency": currency,
	}, &bucket, portfolioPath(portfolioID)+"/buckets")
	return bucket, err
}

func (c *Client) Position(ctx context.Context, portfolioID, bucketID string) (Position, error) {
	var pos Position
	err := c.get(ctx, bucketPath(portfolioID, bucketID)+"/position", &pos)
	return pos, err
}

func (c *Client) Transactions(ctx context.Context, portfolioID string) ([]models.Transaction, error) {
	var out struct {
		Transactions []models.Transaction `json:"transactions"`
	}
	err := c.get(ctx, portfolioPath(portfolioID)+"/transactions", &out)
	return out.Transactions, err
}

// RecordTransaction posts a ledger entry. The bucket position, the
// transaction list and the summaries of the portfolio go stale.
func (c *Client) RecordTransaction(ctx context.Context, portfolioID string, in TransactionInput) (models.Transaction, error) {
	var record models.Transaction
	err := c.send(ctx, http.MethodPost, portfolioPath(portfolioID)+"/transactions", in, &record,
		portfolioPath(portfolioID)+"/transactions",
		bucketPath(portfolioID, in.BucketID)+"/position",
		bucketPath(portfolioID, in.BucketID)+"/snapshots",
		portfolioPath(portfolioID)+"/summaries",
	)
	return record, err
}

func (c *Client) Snapshots(ctx context.Context, portfolioID, bucketID string) ([]models.Snapshot, error) {
	var out struct {
		Snapshots []models.Snapshot `json:"snapshots"`
	}
	err := c.get(ctx, bucketPath(portfolioID, bucketID)+"/snapshots", &out)
	return out.Snapshots, err
}

func (c *Client) RecordSnapshot(ctx context.Context, portfolioID, bucketID string, in SnapshotInput) (models.Snapshot, error) {
	var snap models.Snapshot
	err := c.send(ctx, http.MethodPost, bucketPath(portfolioID, bucketID)+"/snapshots", in, &snap,
		bucketPath(portfolioID, bucketID)+"/snapshots",
		bucketPath(portfolioID, bucketID)+"/position",
		portfolioPath(portfolioID)+"/summaries",
	)
	return snap, err
}

func (c *Client) MonthSummary(ctx context.Context, portfolioID string, month models.Month) (models.MonthlySummary, error) {
	var summary models.MonthlySummary
	err := c.get(ctx, portfolioPath(portfolioID)+"/summaries?month="+month.String(), &summary)
	return summary, err
}

func (c *Client) YearSummary(ctx context.Context, portfolioID string, year int) (models.YearlySummary, error) {
	var summary models.YearlySummary
	err := c.get(ctx, portfolioPath(portfolioID)+"/summaries?year="+strconv.Itoa(year), &summary)
	return summary, err
}

func (c *Client) Summaries(ctx context.Context, portfolioID string) ([]models.MonthlySummary, error) {
	var out struct {
		Summaries []models.MonthlySummary `json:"summaries"`
	}
	err := c.get(ctx, portfolioPath(portfolioID)+"/summaries", &out)
	return out.Summaries, err
}

func (c *Client) FxRates(ctx context.Context, query FxQuery) ([]models.FxRate, error) {
	params := url.Values{}
	if query.From != nil {
		params.Set("from", string(*query.From))
	}
	if query.To != nil {
		params.Set("to", string(*query.To))
	}
	if query.Date != nil {
		params.Set("date", query.Date.String())
	}
	path := "/fx-rates"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}
	var out struct {
		FxRates []models.FxRate `json:"fxRates"`
	}
	err := c.get(ctx, path, &out)
	return out.FxRates, err
}

// AddFxRate records a quote. Every summary may move with it, so all
// portfolio data is dropped along with the FX listings.
func (c *Client) AddFxRate(ctx context.Context, in FxRateInput) (models.FxRate, error) {
	var rate models.FxRate
	err := c.send(ctx, http.MethodPost, "/fx-rates", in, &rate, "/fx-rates", "/portfolios")
	return rate, err
}
