package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"investbook/internal/client"
	"investbook/internal/models"
	"investbook/internal/money"

	"github.com/google/subcommands"
)

type positionCmd struct {
	app         *app
	portfolioID string
	bucketID    string
}

func (*positionCmd) Name() string     { return "position" }
func (*positionCmd) Synopsis() string { return "show current and invested value per bucket" }
func (*positionCmd) Usage() string {
	return `pfctl position -p <portfolio> [-b <bucket>]

  Shows the position of one bucket, or of every bucket of the portfolio.
`
}

func (c *positionCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.portfolioID, "p", "", "Portfolio id")
	f.StringVar(&c.bucketID, "b", "", "Bucket id (defaults to every bucket)")
}

func (c *positionCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.portfolioID == "" {
		fmt.Fprintln(os.Stderr, "Error: -p is required.")
		return subcommands.ExitUsageError
	}
	cl, err := c.app.connect()
	if err != nil {
		return fail(err)
	}

	buckets := []models.Bucket{{ID: c.bucketID, Name: c.bucketID}}
	if c.bucketID == "" {
		if buckets, err = cl.Buckets(ctx, c.portfolioID); err != nil {
			return fail(err)
		}
	}
	positions := make([]client.Position, 0, len(buckets))
	for _, bucket := range buckets {
		pos, err := cl.Position(ctx, c.portfolioID, bucket.ID)
		if err != nil {
			return fail(err)
		}
		positions = append(positions, pos)
	}
	writePositions(os.Stdout, buckets, positions)
	return subcommands.ExitSuccess
}

func writePositions(out io.Writer, buckets []models.Bucket, positions []client.Position) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BUCKET\tCURRENT\tINVESTED\tUPDATED")
	for i, pos := range positions {
		updated := "-"
		if pos.UpdatedAt != nil {
			updated = pos.UpdatedAt.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			buckets[i].Name,
			money.Display(pos.CurrentValue, string(pos.Currency)),
			money.Display(pos.InvestedValue, string(pos.BaseCurrency)),
			updated,
		)
	}
	w.Flush()
}

type summaryCmd struct {
	app         *app
	portfolioID string
	month       string
	year        int
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "show monthly profit and loss" }
func (*summaryCmd) Usage() string {
	return `pfctl summary -p <portfolio> [-m YYYY-MM | -y YYYY]

  Shows one month, one year, or every month since the first activity.
`
}

func (c *summaryCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.portfolioID, "p", "", "Portfolio id")
	f.StringVar(&c.month, "m", "", "Month (YYYY-MM)")
	f.IntVar(&c.year, "y", 0, "Year")
}

func (c *summaryCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.portfolioID == "" {
		fmt.Fprintln(os.Stderr, "Error: -p is required.")
		return subcommands.ExitUsageError
	}
	if c.month != "" && c.year != 0 {
		fmt.Fprintln(os.Stderr, "Error: use either -m or -y.")
		return subcommands.ExitUsageError
	}
	cl, err := c.app.connect()
	if err != nil {
		return fail(err)
	}

	switch {
	case c.month != "":
		month, err := models.ParseMonth(c.month)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid month %q.\n", c.month)
			return subcommands.ExitUsageError
		}
		summary, err := cl.MonthSummary(ctx, c.portfolioID, month)
		if err != nil {
			return fail(err)
		}
		writeSummaries(os.Stdout, []models.MonthlySummary{summary})
	case c.year != 0:
		summary, err := cl.YearSummary(ctx, c.portfolioID, c.year)
		if err != nil {
			return fail(err)
		}
		writeSummaries(os.Stdout, summary.Months)
		fmt.Printf("\n%d accumulated: %s\n", summary.Year, money.Display(summary.PnLAccumulated, string(summary.Currency)))
	default:
		summaries, err := cl.Summaries(ctx, c.portfolioID)
		if err != nil {
			return fail(err)
		}
		writeSummaries(os.Stdout, summaries)
	}
	return subcommands.ExitSuccess
}

func writeSummaries(out io.Writer, summaries []models.MonthlySummary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "MONTH\tSTART\tEND\tNET CONTRIBUTION\tPNL\t")
	for _, s := range summaries {
		currency := string(s.Currency)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t\n",
			s.Month,
			money.Display(s.StartValue, currency),
			money.Display(s.EndValue, currency),
			money.Display(s.NetContribution, currency),
			money.Display(s.PnL, currency),
		)
	}
	w.Flush()
}
