package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/subcommands"
	"github.com/google/uuid"

	"github.com/chdeimos/moneyo/internal/database"
	"github.com/chdeimos/moneyo/internal/ledger"
	ledgerStore "github.com/chdeimos/moneyo/internal/ledger/store"
)

// --- migrateCmd ---

type migrateCmd struct{}

func (*migrateCmd) Name() string             { return "migrate" }
func (*migrateCmd) Synopsis() string         { return "applies pending database migrations" }
func (*migrateCmd) Usage() string            { return "ledgerctl migrate\n" }
func (*migrateCmd) SetFlags(_ *flag.FlagSet) {}

func (*migrateCmd) Execute(_ context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	db, err := openDB(configFrom(args))
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	defer db.Close()

	version, err := database.Migrate(db)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}

	fmt.Printf("schema at version %d\n", version)

	return subcommands.ExitSuccess
}

// --- checkCmd ---

type checkCmd struct{}

func (*checkCmd) Name() string     { return "check" }
func (*checkCmd) Synopsis() string { return "executes every due recurring transaction now" }
func (*checkCmd) Usage() string {
	return `ledgerctl check

Runs one recurrence pass, the same one the API scheduler runs at midnight.
`
}
func (*checkCmd) SetFlags(_ *flag.FlagSet) {}

func (*checkCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	cfg := configFrom(args)

	loc, err := cfg.Location()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}

	db, err := openDB(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	defer db.Close()

	processor := ledger.NewProcessor(ledgerStore.New(db),
		ledger.WithLocation(loc),
		ledger.WithMaxCatchUp(cfg.Scheduler.MaxCatchUp),
	)

	res, err := processor.Check(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}

	fmt.Printf("created %d transactions across %d subscriptions (%d failed)\n", res.Created, res.Subscriptions, res.Failed)

	if res.Failed > 0 {
		return subcommands.ExitFailure
	}

	return subcommands.ExitSuccess
}

// --- planCmd ---

type planCmd struct {
	id string
}

func (*planCmd) Name() string     { return "plan" }
func (*planCmd) Synopsis() string { return "shows the occurrences a check would execute for a subscription" }
func (*planCmd) Usage() string {
	return `ledgerctl plan -id <subscription_id>

Prints the due occurrences of one subscription without writing anything.
`
}
func (c *planCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "The subscription to plan.")
}

func (c *planCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	id, err := uuid.Parse(c.id)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error: -id must be a subscription id.")
		return subcommands.ExitUsageError
	}

	cfg := configFrom(args)

	loc, err := cfg.Location()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}

	db, err := openDB(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	defer db.Close()

	sub, err := ledgerStore.New(db).GetSubscription(ctx, id)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}

	now := time.Now()
	limit := cfg.Scheduler.MaxCatchUp
	if limit <= 0 {
		limit = ledger.DefaultMaxCatchUp
	}

	dates, after := ledger.Plan(*sub, ledger.EndOfDay(now, loc), now, limit)
	printPlan(os.Stdout, sub, dates, after)

	return subcommands.ExitSuccess
}

func printPlan(w io.Writer, sub *ledger.Subscription, dates []time.Time, after ledger.Subscription) {
	fmt.Fprintf(w, "%s (%s %s)\n", sub.Description, sub.Type, sub.Amount)

	if len(dates) == 0 {
		fmt.Fprintln(w, "nothing due")
	}

	for _, d := range dates {
		fmt.Fprintf(w, "  %s\n", d.Format(time.DateOnly))
	}

	fmt.Fprintf(w, "next execution: %s\n", after.NextExecutionDate.Format(time.DateOnly))

	if after.RecurrenceInterval != nil {
		fmt.Fprintf(w, "remaining runs: %d\n", *after.RecurrenceInterval)
	}

	if after.IsPaused {
		fmt.Fprintln(w, "paused")
	}
}

// --- auditCmd ---

type auditCmd struct{}

func (*auditCmd) Name() string     { return "audit" }
func (*auditCmd) Synopsis() string { return "compares cached balances with transaction history" }
func (*auditCmd) Usage() string {
	return `ledgerctl audit

Exits non-zero when any account balance drifted.
`
}
func (*auditCmd) SetFlags(_ *flag.FlagSet) {}

func (*auditCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	db, err := openDB(configFrom(args))
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	defer db.Close()

	drifts, err := ledger.Audit(ctx, ledgerStore.New(db))
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}

	if len(drifts) == 0 {
		fmt.Println("all balances consistent")
		return subcommands.ExitSuccess
	}

	printDrifts(os.Stdout, drifts)

	return subcommands.ExitFailure
}

func printDrifts(w io.Writer, drifts []ledger.Drift) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ACCOUNT\tCACHED\tEXPECTED\tDIFFERENCE")

	for _, d := range drifts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.Name, d.Cached.StringFixed(2), d.Expected.StringFixed(2), d.Difference().StringFixed(2))
	}

	tw.Flush()
}
