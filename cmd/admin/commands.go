package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"

	"arena/internal/domain/account"
	"arena/internal/domain/csvimport"
	"arena/internal/domain/holding"
	"arena/internal/domain/ingestion"
	"arena/internal/infrastructure/crypto"
	"arena/internal/infrastructure/plaid"
	"arena/internal/infrastructure/postgres"
	"arena/internal/shared/clock"
	"arena/internal/shared/date"
)

// --- resyncCmd ---

type resyncCmd struct {
	timeout time.Duration
}

func (*resyncCmd) Name() string     { return "resync" }
func (*resyncCmd) Synopsis() string { return "refresh accounts and holdings for every linked item" }
func (*resyncCmd) Usage() string {
	return `resync [-timeout 10m]

  Runs one refresh of every stored credential and prints the summary as JSON.
  A failing item is reported and does not stop the others.
`
}

func (c *resyncCmd) SetFlags(f *flag.FlagSet) {
	f.DurationVar(&c.timeout, "timeout", 10*time.Minute, "Maximum time for the whole run")
}

func (c *resyncCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	cfg, flush, err := loadConfig()
	if err != nil {
		return fail("loading config: %v", err)
	}
	defer flush()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	db, err := openDB(cfg)
	if err != nil {
		return fail("connecting to database: %v", err)
	}
	defer db.Close()

	encryptor, err := crypto.NewEncryptor(cfg.Encryption.Key)
	if err != nil {
		return fail("%v", err)
	}
	client, err := plaid.NewClient(plaid.Config{
		ClientID:   cfg.Plaid.ClientID,
		Secret:     cfg.Plaid.Secret,
		Env:        cfg.Plaid.Env,
		ClientName: cfg.Plaid.ClientName,
		Timeout:    cfg.Plaid.Timeout,
	})
	if err != nil {
		return fail("%v", err)
	}

	service := ingestion.NewService(
		client,
		postgres.NewCredentialRepository(db, encryptor),
		account.NewService(postgres.NewAccountRepository(db)),
		holding.NewService(postgres.NewHoldingRepository(db)),
		clock.New(),
		ingestion.Config{ResyncConcurrency: cfg.Ingestion.ResyncConcurrency},
	)

	result, err := service.ResyncAll(ctx)
	if err != nil {
		return fail("resync: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fail("%v", err)
	}
	if len(result.Failures) > 0 {
		fmt.Fprintf(os.Stderr, "%d of %d items failed to refresh\n", len(result.Failures), result.Credentials)
	}
	return subcommands.ExitSuccess
}

// --- importCSVCmd ---

type importCSVCmd struct {
	user  string
	file  string
	today string
}

func (*importCSVCmd) Name() string     { return "import-csv" }
func (*importCSVCmd) Synopsis() string { return "import a holdings CSV file for a user" }
func (*importCSVCmd) Usage() string {
	return `import-csv -user <id> -file <path> [-today YYYY-MM-DD]

  Reads a CSV with the columns ticker,name,quantity,value and the optional
  account_id, iso_currency_code and as_of_date. Rows without an as_of_date
  are stamped with -today, which defaults to the current UTC date.
`
}

func (c *importCSVCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "user", "", "User id that owns the holdings (required)")
	f.StringVar(&c.file, "file", "", "Path to the CSV file (required)")
	f.StringVar(&c.today, "today", "", "Date for rows without as_of_date")
}

func (c *importCSVCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if c.user == "" || c.file == "" {
		fmt.Fprintln(os.Stderr, "Error: -user and -file flags are required.")
		return subcommands.ExitUsageError
	}

	clk := clock.New()
	if c.today != "" {
		d, err := date.Parse(c.today)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid -today %q: %v\n", c.today, err)
			return subcommands.ExitUsageError
		}
		clk = clock.Fixed(d.Time())
	}

	f, err := os.Open(c.file)
	if err != nil {
		return fail("%v", err)
	}
	defer f.Close()

	cfg, flush, err := loadConfig()
	if err != nil {
		return fail("loading config: %v", err)
	}
	defer flush()

	db, err := openDB(cfg)
	if err != nil {
		return fail("connecting to database: %v", err)
	}
	defer db.Close()

	service := csvimport.NewService(holding.NewService(postgres.NewHoldingRepository(db)), clk)
	inserted, err := service.Import(ctx, c.user, f)
	if err != nil {
		return fail("import: %v", err)
	}

	fmt.Printf("Inserted %d holdings for %s\n", inserted, c.user)
	return subcommands.ExitSuccess
}

// --- migrateCmd ---

type migrateCmd struct {
	down bool
}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "apply or roll back database migrations" }
func (*migrateCmd) Usage() string {
	return `migrate [-down]

  Applies every pending migration, or with -down rolls all of them back.
`
}

func (c *migrateCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.down, "down", false, "Roll back all migrations")
}

func (c *migrateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	cfg, flush, err := loadConfig()
	if err != nil {
		return fail("loading config: %v", err)
	}
	defer flush()

	db, err := openDB(cfg)
	if err != nil {
		return fail("connecting to database: %v", err)
	}
	defer db.Close()

	if c.down {
		err = postgres.MigrateDown(ctx, db)
	} else {
		err = postgres.MigrateUp(ctx, db)
	}
	if err != nil {
		return fail("migrate: %v", err)
	}
	fmt.Println("Migrations complete")
	return subcommands.ExitSuccess
}
