package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"investbook/internal/client"
	"investbook/internal/models"
	"investbook/internal/money"

	"github.com/google/subcommands"
)

type addTxCmd struct {
	app         *app
	portfolioID string
	bucketID    string
	date        string
	kind        string
	amount      string
	currency    string
	fxRateID    string
	direction   string
	description string
}

func (*addTxCmd) Name() string     { return "add-tx" }
func (*addTxCmd) Synopsis() string { return "record a ledger transaction" }
func (*addTxCmd) Usage() string {
	return `pfctl add-tx -p <portfolio> -b <bucket> -d YYYY-MM-DD -type CONTRIBUTION -amount 1000.00 -currency BRL [-fx <rate id>] [-direction CREDIT|DEBIT] [-desc <text>]

  Amounts are in major units. Foreign-currency transactions need the id of
  the FX quote they were booked at.
`
}

func (c *addTxCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.portfolioID, "p", "", "Portfolio id")
	f.StringVar(&c.bucketID, "b", "", "Bucket id")
	f.StringVar(&c.date, "d", "", "Transaction date (YYYY-MM-DD)")
	f.StringVar(&c.kind, "type", string(models.TxContribution), "CONTRIBUTION, WITHDRAWAL, INCOME, FEE, TAX or ADJUSTMENT")
	f.StringVar(&c.amount, "amount", "", "Amount, e.g. 1500.25")
	f.StringVar(&c.currency, "currency", "", "Currency of the amount")
	f.StringVar(&c.fxRateID, "fx", "", "FX quote id for foreign-currency amounts")
	f.StringVar(&c.direction, "direction", "", "Direction of an ADJUSTMENT")
	f.StringVar(&c.description, "desc", "", "Free-form description")
}

func (c *addTxCmd) input() (client.TransactionInput, error) {
	in := client.TransactionInput{
		BucketID: c.bucketID,
		Type:     models.TransactionType(strings.ToUpper(c.kind)),
	}
	if c.portfolioID == "" || c.bucketID == "" {
		return in, fmt.Errorf("-p and -b are required")
	}
	date, err := models.ParseDate(c.date)
	if err != nil {
		return in, fmt.Errorf("invalid date %q", c.date)
	}
	in.Date = date
	if !in.Type.Valid() {
		return in, fmt.Errorf("invalid type %q", c.kind)
	}
	if in.Amount, err = money.ParseMinor(c.amount); err != nil || in.Amount <= 0 {
		return in, fmt.Errorf("invalid amount %q", c.amount)
	}
	currency, err := parseCurrency(c.currency)
	if err != nil || currency == nil {
		return in, fmt.Errorf("-currency must be BRL or USD")
	}
	in.Currency = *currency
	if c.fxRateID != "" {
		in.FxRateID = &c.fxRateID
	}
	if c.direction != "" {
		d := models.Direction(strings.ToUpper(c.direction))
		in.Direction = &d
	}
	if c.description != "" {
		in.Description = &c.description
	}
	return in, nil
}

func (c *addTxCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	in, err := c.input()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v.\n", err)
		return subcommands.ExitUsageError
	}
	cl, err := c.app.connect()
	if err != nil {
		return fail(err)
	}
	record, err := cl.RecordTransaction(ctx, c.portfolioID, in)
	if err != nil {
		return fail(err)
	}
	fmt.Printf("recorded %s %s on %s (%s)\n", record.Type, money.Display(record.Amount, string(record.Currency)), record.Date, record.ID)
	return subcommands.ExitSuccess
}
