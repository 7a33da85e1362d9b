// Package main runs the Telegram buy-ranking bot: it serves the webhook that
// receives chat commands, plus health and Prometheus metrics endpoints.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"go.uber.org/zap"

	"solana-buy-ranking/internal/bot"
	"solana-buy-ranking/internal/competition"
	"solana-buy-ranking/internal/config"
	"solana-buy-ranking/internal/ingestion"
	"solana-buy-ranking/internal/observability"
	"solana-buy-ranking/internal/ranking"
	"solana-buy-ranking/internal/solana"
	"solana-buy-ranking/internal/storage"
	chstore "solana-buy-ranking/internal/storage/clickhouse"
	"solana-buy-ranking/internal/storage/kv"
	"solana-buy-ranking/internal/storage/memory"
	"solana-buy-ranking/internal/storage/migrations"
	pgstore "solana-buy-ranking/internal/storage/postgres"
	"solana-buy-ranking/internal/storage/sqlite"
)

func main() {
	var opts struct {
		WebhookPath string `long:"webhook-path" env:"WEBHOOK_PATH" description:"path Telegram posts updates to" default:"/webhook"`
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

	logger, err := newLogger(cfg.LogDev)
	if err != nil {
		panic("can't initialize zap logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync()
	}()

	if err := cfg.ValidateBot(); err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kvStore, archive, cleanup, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open storage", zap.Error(err))
	}
	defer cleanup()

	source, closeSource := newSource(cfg)
	defer closeSource()

	programs, err := cfg.Programs()
	if err != nil {
		logger.Fatal("Invalid DEX program list", zap.Error(err))
	}
	registry := competition.NewRegistry(
		kv.NewCompetitionStore(kvStore),
		kv.NewWalletStore(kvStore),
		competition.WithLogger(logger.Named("competition")),
	)
	service := ranking.New(ranking.Options{
		Competitions: registry,
		Fetcher: ingestion.NewFetcher(ingestion.FetcherOptions{
			Source:        source,
			PageSize:      cfg.SignatureLimit,
			MaxSignatures: cfg.MaxSignatures,
			Concurrency:   cfg.FetchConcurrency,
			RateLimit:     cfg.RPCRateLimit,
			Timeout:       cfg.QueryTimeout,
			Logger:        logger.Named("ingestion"),
		}),
		Archive:          archive,
		RequiredPrograms: programs,
		Limit:            cfg.RankingLimit,
		Logger:           logger.Named("ranking"),
	})
	handler := bot.NewHandler(bot.HandlerOptions{
		Competitions: registry,
		Rankings:     service,
		Notifier:     bot.NewTelegramNotifier(cfg.TelegramToken, bot.WithAPIURL(cfg.TelegramAPIURL)),
		BotUsername:  cfg.TelegramBotUsername,
		Logger:       logger.Named("bot"),
	})

	// Handling an update includes one full ranking query.
	updateTimeout := cfg.QueryTimeout + 30*time.Second

	mux := http.NewServeMux()
	mux.Handle(opts.WebhookPath, bot.NewWebhookHandler(handler, cfg.TelegramWebhookSecret, updateTimeout, logger.Named("webhook")))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", observability.Handler())

	s := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      updateTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    http.DefaultMaxHeaderBytes,
	}
	go func() {
		<-ctx.Done()
		logger.Info("Shutting down the http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			logger.Error("Failed to shutdown http server", zap.Error(err))
		}
	}()

	logger.Info("Starting HTTP server",
		zap.String("addr", cfg.HTTPAddr),
		zap.String("webhook", opts.WebhookPath),
		zap.String("storage", cfg.StorageBackend),
		zap.String("rpc_client", cfg.RPCClient),
		zap.Bool("archive", archive != nil),
		zap.Strings("dex_programs", programs),
	)
	if err := s.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Failed to listen and serve", zap.Error(err))
	}
}

func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// newSource builds the ledger source for the configured client flavour.
func newSource(cfg *config.Config) (ingestion.Source, func()) {
	if cfg.RPCClient == config.RPCClientSDK {
		client := solana.NewSDKClient(cfg.RPCURL)
		return ingestion.NewSDKSource(client), func() { _ = client.Close() }
	}
	client := solana.NewHTTPClient(cfg.RPCURL)
	return ingestion.NewRPCSource(client), func() {}
}

// openStores opens the configured KV backend and, when a DSN is set, the
// ClickHouse archive. A nil archive disables archiving.
func openStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.KVStore, storage.BuyEventArchive, func(), error) {
	var (
		kvStore  storage.KVStore
		cleanups []func()
	)
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	switch cfg.StorageBackend {
	case config.StoragePostgres:
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		cleanups = append(cleanups, pool.Close)
		if _, err := migrations.RunPostgresMigrations(ctx, pool, logger.Named("migrations")); err != nil {
			cleanup()
			return nil, nil, nil, err
		}
		kvStore = pgstore.NewKVStore(pool)
	case config.StorageSQLite:
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, nil, err
		}
		cleanups = append(cleanups, func() { _ = store.Close() })
		kvStore = store
	default:
		logger.Warn("Using in-memory storage, competitions are lost on restart")
		kvStore = memory.NewKVStore()
	}

	if cfg.ClickHouseDSN == "" {
		return kvStore, nil, cleanup, nil
	}
	conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickHouseDSN, logger.Named("migrations"))
	if err != nil {
		cleanup()
		return nil, nil, nil, fmt.Errorf("prepare clickhouse archive: %w", err)
	}
	cleanups = append(cleanups, func() { _ = conn.Close() })
	return kvStore, chstore.NewBuyEventArchive(conn), cleanup, nil
}
