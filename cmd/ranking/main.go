// Package main prints a one-off buy ranking for a token over a time range,
// without a chat group or competition.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"go.uber.org/zap"

	"solana-buy-ranking/internal/config"
	"solana-buy-ranking/internal/domain"
	"solana-buy-ranking/internal/ingestion"
	"solana-buy-ranking/internal/ranking"
	"solana-buy-ranking/internal/reporting"
	"solana-buy-ranking/internal/solana"
)

type options struct {
	Token string `long:"token" description:"target token mint" required:"true"`
	Since string `long:"since" description:"window start, RFC3339 or a duration before --until" default:"24h"`
	Until string `long:"until" description:"window end, RFC3339; empty means now"`
	Limit int    `long:"limit" description:"entries to print, 0 uses --ranking-limit"`
}

func main() {
	var opts options
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

	logger := zap.NewNop()
	if cfg.LogDev {
		if logger, err = zap.NewDevelopment(); err != nil {
			panic("can't initialize zap logger: " + err.Error())
		}
	}
	defer func() {
		_ = logger.Sync()
	}()

	if err := solana.ValidateAddress(opts.Token); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	window, err := parseWindow(opts.Since, opts.Until, time.Now())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var source ingestion.Source
	if cfg.RPCClient == config.RPCClientSDK {
		client := solana.NewSDKClient(cfg.RPCURL)
		defer func() {
			_ = client.Close()
		}()
		source = ingestion.NewSDKSource(client)
	} else {
		source = ingestion.NewRPCSource(solana.NewHTTPClient(cfg.RPCURL))
	}

	programs, err := cfg.Programs()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	service := ranking.New(ranking.Options{
		Fetcher: ingestion.NewFetcher(ingestion.FetcherOptions{
			Source:        source,
			PageSize:      cfg.SignatureLimit,
			MaxSignatures: cfg.MaxSignatures,
			Concurrency:   cfg.FetchConcurrency,
			RateLimit:     cfg.RPCRateLimit,
			Timeout:       cfg.QueryTimeout,
			Logger:        logger,
		}),
		RequiredPrograms: programs,
		Limit:            cfg.RankingLimit,
		Logger:           logger,
	})

	res, err := service.TokenRanking(ctx, opts.Token, window, opts.Limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ranking failed: %v\n", err)
		os.Exit(1)
	}

	out := reporting.RenderResult(res, opts.Token)
	fmt.Print(out)
	if !strings.HasSuffix(out, "\n") {
		fmt.Println()
	}
	fmt.Fprintf(os.Stderr, "scanned %d signatures, %d transactions, %d buys, %d malformed\n",
		res.Fetch.Listed, res.Stats.Records, res.Stats.Buys, res.Fetch.Malformed)
	if res.Truncated {
		fmt.Fprintf(os.Stderr, "signature cap reached before the window start; raise --max-signatures to scan further back\n")
	}
}

// parseWindow resolves --since/--until relative to now.
func parseWindow(since, until string, now time.Time) (domain.Window, error) {
	end := now
	if until != "" {
		t, err := time.Parse(time.RFC3339, until)
		if err != nil {
			return domain.Window{}, fmt.Errorf("parse --until: %w", err)
		}
		end = t
	}

	var start time.Time
	if d, err := time.ParseDuration(since); err == nil {
		start = end.Add(-d)
	} else {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			return domain.Window{}, fmt.Errorf("parse --since: %q is neither a duration nor RFC3339", since)
		}
		start = t
	}

	w := domain.NewWindow(start, end)
	if !w.IsValid() {
		return domain.Window{}, fmt.Errorf("--since %s is after --until %s", start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return w, nil
}
