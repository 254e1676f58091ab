package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

type loginCmd struct {
	app      *app
	email    string
	password string
}

func (*loginCmd) Name() string     { return "login" }
func (*loginCmd) Synopsis() string { return "log in and keep the session token" }
func (*loginCmd) Usage() string {
	return `pfctl login -email <email> [-password <password>]

  Logs in and stores the token for later commands. The password falls back
  to $INVESTBOOK_PASSWORD.
`
}

func (c *loginCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.email, "email", "", "Account email")
	f.StringVar(&c.password, "password", os.Getenv("INVESTBOOK_PASSWORD"), "Account password")
}

func (c *loginCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.email == "" || c.password == "" {
		fmt.Fprintln(os.Stderr, "Error: -email and -password are required.")
		return subcommands.ExitUsageError
	}
	cl, err := c.app.connect()
	if err != nil {
		return fail(err)
	}
	if err := cl.Login(ctx, c.email, c.password); err != nil {
		return fail(err)
	}
	me, err := cl.Me(ctx)
	if err != nil {
		return fail(err)
	}
	fmt.Printf("logged in as %s <%s>\n", me.Name, me.Email)
	return subcommands.ExitSuccess
}

type logoutCmd struct {
	app *app
}

func (*logoutCmd) Name() string             { return "logout" }
func (*logoutCmd) Synopsis() string         { return "forget the stored session token" }
func (*logoutCmd) Usage() string            { return "pfctl logout\n" }
func (*logoutCmd) SetFlags(_ *flag.FlagSet) {}

func (c *logoutCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cl, err := c.app.connect()
	if err != nil {
		return fail(err)
	}
	if err := cl.Logout(); err != nil {
		return fail(err)
	}
	fmt.Println("logged out")
	return subcommands.ExitSuccess
}
