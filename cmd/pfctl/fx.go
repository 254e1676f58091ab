package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"investbook/internal/client"
	"investbook/internal/models"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

func parseCurrency(raw string) (*models.Currency, error) {
	if raw == "" {
		return nil, nil
	}
	c := models.Currency(strings.ToUpper(raw))
	if !c.Valid() {
		return nil, fmt.Errorf("unsupported currency %q", raw)
	}
	return &c, nil
}

type fxRatesCmd struct {
	app  *app
	from string
	to   string
	date string
}

func (*fxRatesCmd) Name() string     { return "fx-rates" }
func (*fxRatesCmd) Synopsis() string { return "list recorded FX quotes" }
func (*fxRatesCmd) Usage() string {
	return `pfctl fx-rates [-from USD] [-to BRL] [-d YYYY-MM-DD]

  Lists FX quotes matching every given filter. With all three set, quotes
  from other days of the pair are shown when the day has none.
`
}

func (c *fxRatesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.from, "from", "", "Source currency")
	f.StringVar(&c.to, "to", "", "Target currency")
	f.StringVar(&c.date, "d", "", "Quote date (YYYY-MM-DD)")
}

func (c *fxRatesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var (
		query client.FxQuery
		err   error
	)
	if query.From, err = parseCurrency(c.from); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	if query.To, err = parseCurrency(c.to); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	if c.date != "" {
		d, err := models.ParseDate(c.date)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid date %q.\n", c.date)
			return subcommands.ExitUsageError
		}
		query.Date = &d
	}
	cl, err := c.app.connect()
	if err != nil {
		return fail(err)
	}
	rates, err := cl.FxRates(ctx, query)
	if err != nil {
		return fail(err)
	}
	writeRates(os.Stdout, rates)
	return subcommands.ExitSuccess
}

func writeRates(out io.Writer, rates []models.FxRate) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tPAIR\tRATE\tSOURCE")
	for _, r := range rates {
		fmt.Fprintf(w, "%s\t%s\t%s/%s\t%s\t%s\n", r.ID, r.Date, r.FromCurrency, r.ToCurrency, r.Rate.StringFixed(6), r.Source)
	}
	w.Flush()
}

type addFxRateCmd struct {
	app    *app
	from   string
	to     string
	date   string
	rate   string
	source string
}

func (*addFxRateCmd) Name() string     { return "add-fx-rate" }
func (*addFxRateCmd) Synopsis() string { return "record an FX quote" }
func (*addFxRateCmd) Usage() string {
	return `pfctl add-fx-rate -from USD -to BRL -d YYYY-MM-DD -rate 5.10 [-source MANUAL]
`
}

func (c *addFxRateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.from, "from", "", "Source currency")
	f.StringVar(&c.to, "to", "", "Target currency")
	f.StringVar(&c.date, "d", "", "Quote date (YYYY-MM-DD)")
	f.StringVar(&c.rate, "rate", "", "Units of the target currency per source unit")
	f.StringVar(&c.source, "source", string(models.FxManual), "MANUAL or API")
}

func (c *addFxRateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	from, err := parseCurrency(c.from)
	if err != nil || from == nil {
		fmt.Fprintln(os.Stderr, "Error: -from must be BRL or USD.")
		return subcommands.ExitUsageError
	}
	to, err := parseCurrency(c.to)
	if err != nil || to == nil {
		fmt.Fprintln(os.Stderr, "Error: -to must be BRL or USD.")
		return subcommands.ExitUsageError
	}
	date, err := models.ParseDate(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid date %q.\n", c.date)
		return subcommands.ExitUsageError
	}
	rate, err := decimal.NewFromString(c.rate)
	if err != nil || !rate.IsPositive() {
		fmt.Fprintf(os.Stderr, "Error: invalid rate %q.\n", c.rate)
		return subcommands.ExitUsageError
	}
	cl, err := c.app.connect()
	if err != nil {
		return fail(err)
	}
	created, err := cl.AddFxRate(ctx, client.FxRateInput{
		Date:   date,
		From:   *from,
		To:     *to,
		Rate:   rate,
		Source: models.FxSource(strings.ToUpper(c.source)),
	})
	if err != nil {
		return fail(err)
	}
	fmt.Printf("recorded %s/%s %s on %s (%s)\n", created.FromCurrency, created.ToCurrency, created.Rate.StringFixed(6), created.Date, created.ID)
	return subcommands.ExitSuccess
}
