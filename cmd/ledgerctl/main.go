// Command ledgerctl runs maintenance tasks against the ledger database.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path"

	"github.com/google/subcommands"
	"github.com/joho/godotenv"

	"github.com/chdeimos/moneyo/internal/config"
	"github.com/chdeimos/moneyo/internal/database"
)

func main() {
	_ = godotenv.Load()

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(&migrateCmd{}, "database")
	commander.Register(&checkCmd{}, "recurrence")
	commander.Register(&planCmd{}, "recurrence")
	commander.Register(&auditCmd{}, "ledger")

	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(int(subcommands.ExitFailure))
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel()})))

	os.Exit(int(commander.Execute(context.Background(), cfg)))
}

// configFrom extracts the configuration passed to commander.Execute.
func configFrom(args []interface{}) *config.Config {
	return args[0].(*config.Config)
}

func openDB(cfg *config.Config) (*sql.DB, error) {
	return database.New(cfg.ConnectionString(), database.Options{
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
	})
}
