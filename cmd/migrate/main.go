// Package main applies the embedded PostgreSQL and ClickHouse migrations.
// Each database is migrated only when its DSN is configured.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"
	"go.uber.org/zap"

	"solana-buy-ranking/internal/config"
	"solana-buy-ranking/internal/storage/migrations"
	pgstore "solana-buy-ranking/internal/storage/postgres"
)

func main() {
	var opts struct {
		SkipPostgres   bool `long:"skip-postgres" description:"do not migrate PostgreSQL"`
		SkipClickHouse bool `long:"skip-clickhouse" description:"do not migrate ClickHouse"`
	}

	cfg, _, err := config.Load(os.Args[1:], &opts)
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			fmt.Println(err)
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic("can't initialize zap logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ran := false
	if cfg.PostgresDSN != "" && !opts.SkipPostgres {
		ran = true
		if err := migratePostgres(ctx, cfg.PostgresDSN, logger); err != nil {
			logger.Fatal("PostgreSQL migration failed", zap.Error(err))
		}
	}
	if cfg.ClickHouseDSN != "" && !opts.SkipClickHouse {
		ran = true
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickHouseDSN, logger)
		if err != nil {
			logger.Fatal("ClickHouse migration failed", zap.Error(err))
		}
		_ = conn.Close()
	}

	if !ran {
		logger.Warn("Nothing to migrate: set POSTGRES_DSN and/or CLICKHOUSE_DSN")
		return
	}
	logger.Info("Migrations complete")
}

func migratePostgres(ctx context.Context, dsn string, logger *zap.Logger) error {
	pool, err := pgstore.NewPool(ctx, dsn)
	if err != nil {
		return err
	}
	defer pool.Close()

	applied, err := migrations.RunPostgresMigrations(ctx, pool, logger)
	if err != nil {
		return err
	}
	logger.Info("PostgreSQL migrated", zap.Strings("files", applied))
	return nil
}
