// Package main is the entrypoint for intentd, the intent dispatch daemon.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/morezero/intent-dispatch/internal/config"
	"github.com/morezero/intent-dispatch/internal/server"
	"github.com/morezero/intent-dispatch/pkg/db"
)

const usage = `Usage: intentd [command]
       intentd serve                 Start the daemon (NATS intake, orchestrator, HTTP health).
       intentd migrate up            Apply notification journal migrations.
       intentd migrate down          Roll back (not supported; migrations are forward-only).
       intentd migrate status        Show migration status.
       intentd clear                 Truncate the notification journal; schema is preserved.
       intentd journal [type] [n]    Print the latest n (default 20) journaled notifications.

Commands:
  serve           (default) Start intentd.
  migrate up      Run journal migrations only.
  migrate down    No-op; migrations are forward-only.
  migrate status  Show current migration status.
  clear           Truncate the journal.
  journal         Inspect the journal, optionally filtered by notification type.

Environment: DISPATCH_BASE_URL (required for serve), COMMS_URL, DATABASE_URL (journal and
DB commands), MIGRATION_PATH (default: embedded), DISPATCH_LISTEN_FILE, LOG_LEVEL.
`

func main() {
	args := os.Args[1:]
	cmd := ""
	if len(args) > 0 && args[0] != "" {
		cmd = args[0]
	}

	switch cmd {
	case "migrate":
		if len(args) < 2 {
			log.Fatalf("intentd migrate: require subcommand (up, down, status)")
		}
		sub := args[1]
		var err error
		switch sub {
		case "up":
			err = withPool(func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error {
				migrationSQL, err := db.LoadMigrations(cfg.MigrationPath)
				if err != nil {
					return fmt.Errorf("load migrations: %w", err)
				}
				return db.RunMigrations(ctx, pool, migrationSQL)
			})
		case "status":
			err = withPool(func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error {
				return db.MigrationStatus(ctx, pool, cfg.MigrationPath)
			})
		case "down":
			err = withPool(func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error {
				return db.MigrationDown(ctx, pool, cfg.MigrationPath)
			})
		default:
			log.Fatalf("intentd migrate: unknown subcommand %q (use up, down, status)", sub)
		}
		if err != nil {
			log.Fatalf("intentd migrate %s: %v", sub, err)
		}
		return
	case "clear":
		err := withPool(func(ctx context.Context, _ *config.Config, pool *pgxpool.Pool) error {
			return db.ClearJournal(ctx, pool)
		})
		if err != nil {
			log.Fatalf("intentd clear: %v", err)
		}
		return
	case "journal":
		params, err := parseJournalArgs(args[1:])
		if err != nil {
			log.Fatalf("intentd journal: %v", err)
		}
		err = withPool(func(ctx context.Context, _ *config.Config, pool *pgxpool.Pool) error {
			return printJournal(ctx, db.NewRepository(pool), params)
		})
		if err != nil {
			log.Fatalf("intentd journal: %v", err)
		}
		return
	case "help", "-h", "--help":
		fmt.Print(usage)
		return
	case "serve", "":
		// serve (explicit or default)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q.\n%s", cmd, usage)
		os.Exit(1)
	}

	if err := server.Run(); err != nil {
		log.Fatalf("intentd: %v", err)
	}
}

// withPool loads config, opens the journal database and runs fn.
func withPool(fn func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForDB(); err != nil {
		return err
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	return fn(ctx, cfg, pool)
}

// parseJournalArgs reads "[type] [n]". A lone numeric argument is the limit.
func parseJournalArgs(args []string) (db.ListNotificationsParams, error) {
	params := db.ListNotificationsParams{Limit: 20}
	switch len(args) {
	case 0:
	case 1:
		if n, err := strconv.Atoi(args[0]); err == nil {
			params.Limit = n
		} else {
			params.Type = args[0]
		}
	case 2:
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return params, fmt.Errorf("limit %q is not a number", args[1])
		}
		params.Type = args[0]
		params.Limit = n
	default:
		return params, fmt.Errorf("too many arguments")
	}
	if params.Limit <= 0 {
		return params, fmt.Errorf("limit must be positive")
	}
	return params, nil
}

func printJournal(ctx context.Context, repo *db.Repository, params db.ListNotificationsParams) error {
	rows, err := repo.ListNotifications(ctx, params)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	for _, n := range rows {
		if err := enc.Encode(n); err != nil {
			return err
		}
	}
	return nil
}
