package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path"

	"investbook/internal/client"
	"investbook/internal/config"

	"github.com/google/subcommands"
)

// app is shared by every subcommand. The client is built once flags are
// parsed so -api and -session apply.
type app struct {
	apiURL      string
	sessionFile string
	client      *client.Client
}

func (a *app) connect() (*client.Client, error) {
	if a.client != nil {
		return a.client, nil
	}
	session := client.NewSession(a.sessionFile)
	if err := session.Restore(); err != nil {
		return nil, err
	}
	a.client = client.New(a.apiURL, session, client.NewMemoryCache(), nil)
	return a.client, nil
}

func fail(err error) subcommands.ExitStatus {
	if client.IsUnauthorized(err) {
		fmt.Fprintln(os.Stderr, "Error: session expired, run 'pfctl login' again.")
		return subcommands.ExitFailure
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return subcommands.ExitFailure
}

func main() {
	cfg := config.Load()
	a := &app{}
	flag.StringVar(&a.apiURL, "api", cfg.APIURL, "Base URL of the investbook API")
	flag.StringVar(&a.sessionFile, "session", cfg.SessionFile, "File holding the login token")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(&loginCmd{app: a}, "session")
	commander.Register(&logoutCmd{app: a}, "session")
	commander.Register(&positionCmd{app: a}, "reports")
	commander.Register(&summaryCmd{app: a}, "reports")
	commander.Register(&fxRatesCmd{app: a}, "fx")
	commander.Register(&addFxRateCmd{app: a}, "fx")
	commander.Register(&addTxCmd{app: a}, "ledger")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
