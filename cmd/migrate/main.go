package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path"

	"investbook/internal/config"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/subcommands"
)

func open(cfg config.Config) (*migrate.Migrate, error) {
	m, err := migrate.New("file://"+cfg.MigrationsPath, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}

func closeMigrate(m *migrate.Migrate) {
	if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
		log.Printf("close migrate: source=%v database=%v", srcErr, dbErr)
	}
}

type upCmd struct {
	cfg config.Config
}

func (*upCmd) Name() string             { return "up" }
func (*upCmd) Synopsis() string         { return "apply every pending migration" }
func (*upCmd) Usage() string            { return "migrate up\n" }
func (*upCmd) SetFlags(_ *flag.FlagSet) {}

func (c *upCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	m, err := open(c.cfg)
	if err != nil {
		log.Print(err)
		return subcommands.ExitFailure
	}
	defer closeMigrate(m)
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Printf("failed to run migrations: %v", err)
		return subcommands.ExitFailure
	}
	fmt.Println("migrations applied")
	return subcommands.ExitSuccess
}

type downCmd struct {
	cfg   config.Config
	steps int
}

func (*downCmd) Name() string     { return "down" }
func (*downCmd) Synopsis() string { return "roll back applied migrations" }
func (*downCmd) Usage() string {
	return `migrate down [-steps <n>]

  Rolls back the last n migrations (default 1).
`
}

func (c *downCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.steps, "steps", 1, "Number of migrations to roll back.")
}

func (c *downCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.steps <= 0 {
		fmt.Fprintln(os.Stderr, "Error: -steps must be positive.")
		return subcommands.ExitUsageError
	}
	m, err := open(c.cfg)
	if err != nil {
		log.Print(err)
		return subcommands.ExitFailure
	}
	defer closeMigrate(m)
	if err := m.Steps(-c.steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Printf("failed to roll back: %v", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("rolled back %d migration(s)\n", c.steps)
	return subcommands.ExitSuccess
}

type versionCmd struct {
	cfg config.Config
}

func (*versionCmd) Name() string             { return "version" }
func (*versionCmd) Synopsis() string         { return "print the current schema version" }
func (*versionCmd) Usage() string            { return "migrate version\n" }
func (*versionCmd) SetFlags(_ *flag.FlagSet) {}

func (c *versionCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	m, err := open(c.cfg)
	if err != nil {
		log.Print(err)
		return subcommands.ExitFailure
	}
	defer closeMigrate(m)
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		fmt.Println("no migrations applied")
		return subcommands.ExitSuccess
	}
	if err != nil {
		log.Printf("failed to read version: %v", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("version %d (dirty=%v)\n", version, dirty)
	return subcommands.ExitSuccess
}

func main() {
	cfg := config.Load()
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(&upCmd{cfg: cfg}, "")
	commander.Register(&downCmd{cfg: cfg}, "")
	commander.Register(&versionCmd{cfg: cfg}, "")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
