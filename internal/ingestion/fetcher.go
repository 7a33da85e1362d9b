package ingestion

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/ratelimit"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"solana-buy-ranking/internal/domain"
	"solana-buy-ranking/internal/normalization"
	"solana-buy-ranking/internal/observability"
	"solana-buy-ranking/internal/solana"
)

// ErrUpstreamUnavailable is returned when the ledger fails or the batch
// times out. No partial result accompanies it.
var ErrUpstreamUnavailable = errors.New("upstream ledger unavailable")

// Defaults for FetcherOptions.
const (
	DefaultPageSize      = 50
	DefaultMaxSignatures = 200
	DefaultConcurrency   = 4
	DefaultTimeout       = 60 * time.Second
)

// FetcherOptions configures a Fetcher.
type FetcherOptions struct {
	Source        Source
	PageSize      int           // signatures per getSignaturesForAddress call
	MaxSignatures int           // upper bound on signatures listed per batch
	Concurrency   int           // parallel getTransaction calls
	RateLimit     int           // requests per second, 0 disables pacing
	Timeout       time.Duration // bound on the whole batch
	Logger        *zap.Logger
}

// FetchResult is one complete batch.
type FetchResult struct {
	// Records are in listing order, newest first. Unknown and malformed
	// transactions are left out.
	Records []*domain.TransactionRecord

	Listed    int // signatures listed
	Fetched   int // details requested after pre-filtering
	NotFound  int
	Malformed int

	// Truncated is set when MaxSignatures ended the listing before it
	// reached window.Start. Older transactions in the window were not seen.
	Truncated bool
	// OldestBlockTime is the oldest known block time among the listed
	// signatures, 0 when none was known.
	OldestBlockTime int64
}

// Fetcher lists signatures for an address and fetches the transactions
// inside a window.
type Fetcher struct {
	source        Source
	pageSize      int
	maxSignatures int
	concurrency   int
	timeout       time.Duration
	limiter       ratelimit.Limiter
	logger        *zap.Logger
}

// NewFetcher creates a Fetcher, filling in defaults.
func NewFetcher(opts FetcherOptions) *Fetcher {
	f := &Fetcher{
		source:        opts.Source,
		pageSize:      opts.PageSize,
		maxSignatures: opts.MaxSignatures,
		concurrency:   opts.Concurrency,
		timeout:       opts.Timeout,
		logger:        opts.Logger,
	}
	if f.pageSize <= 0 {
		f.pageSize = DefaultPageSize
	}
	if f.maxSignatures <= 0 {
		f.maxSignatures = DefaultMaxSignatures
	}
	if f.concurrency <= 0 {
		f.concurrency = DefaultConcurrency
	}
	if f.timeout <= 0 {
		f.timeout = DefaultTimeout
	}
	if opts.RateLimit > 0 {
		f.limiter = ratelimit.New(opts.RateLimit)
	}
	if f.logger == nil {
		f.logger = zap.NewNop()
	}
	return f
}

// FetchWindow returns the transactions of address whose block time may
// fall inside window. Signatures with a known block time outside the window
// or a ledger error are dropped before any detail call.
func (f *Fetcher) FetchWindow(ctx context.Context, address string, window domain.Window) (*FetchResult, error) {
	defer observability.RecordFetchBatch(time.Now())

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	sigs, truncated, err := f.listSignatures(ctx, address, window)
	if err != nil {
		return nil, f.upstream("list signatures", err)
	}

	res := &FetchResult{Listed: len(sigs), Truncated: truncated}
	candidates := make([]solana.SignatureInfo, 0, len(sigs))
	for _, s := range sigs {
		if s.BlockTime != nil && (res.OldestBlockTime == 0 || *s.BlockTime < res.OldestBlockTime) {
			res.OldestBlockTime = *s.BlockTime
		}
		if s.Failed() {
			continue
		}
		if s.BlockTime != nil && !window.Contains(*s.BlockTime) {
			continue
		}
		candidates = append(candidates, s)
	}

	res.Fetched = len(candidates)
	records, notFound, malformed, err := f.fetchAll(ctx, candidates)
	if err != nil {
		return nil, f.upstream("fetch transactions", err)
	}
	res.Records = records
	res.NotFound = notFound
	res.Malformed = malformed

	f.logger.Debug("window fetched",
		zap.String("address", address),
		zap.Int("listed", res.Listed),
		zap.Int("fetched", res.Fetched),
		zap.Int("records", len(res.Records)),
		zap.Int("malformed", res.Malformed),
		zap.Int("not_found", res.NotFound),
		zap.Bool("truncated", res.Truncated),
	)
	if res.Truncated {
		f.logger.Warn("signature cap reached before window start",
			zap.String("address", address),
			zap.Int("max_signatures", f.maxSignatures),
			zap.Int64("window_start", window.Start),
			zap.Int64("oldest_block_time", res.OldestBlockTime),
		)
	}
	return res, nil
}

// listSignatures pages backwards with the before cursor until MaxSignatures
// is reached, the ledger runs out, or a page reaches past window.Start.
// truncated reports that only the cap stopped it.
func (f *Fetcher) listSignatures(ctx context.Context, address string, window domain.Window) (sigs []solana.SignatureInfo, truncated bool, err error) {
	before := ""

	for len(sigs) < f.maxSignatures {
		limit := f.pageSize
		if remaining := f.maxSignatures - len(sigs); remaining < limit {
			limit = remaining
		}

		f.take()
		page, err := f.source.ListSignatures(ctx, address, &solana.SignaturesOpts{
			Before: before,
			Limit:  limit,
		})
		if err != nil {
			return nil, false, err
		}
		observability.RecordSignaturesListed(len(page))
		if len(page) == 0 {
			return sigs, false, nil
		}

		sigs = append(sigs, page...)
		oldest := page[len(page)-1]
		before = oldest.Signature

		if oldest.BlockTime != nil && *oldest.BlockTime < window.Start {
			return sigs, false, nil
		}
		if len(page) < limit {
			return sigs, false, nil
		}
	}

	return sigs, true, nil
}

// fetchAll fetches details in parallel. Each result is written to the slot
// of its signature, so the output order does not depend on completion order.
func (f *Fetcher) fetchAll(ctx context.Context, sigs []solana.SignatureInfo) ([]*domain.TransactionRecord, int, int, error) {
	slots := make([]*domain.TransactionRecord, len(sigs))
	var notFound, malformed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)

	for i, sig := range sigs {
		g.Go(func() error {
			f.take()
			if err := gctx.Err(); err != nil {
				return err
			}

			rec, err := f.source.FetchRecord(gctx, sig.Signature)
			if errors.Is(err, normalization.ErrMalformed) {
				observability.RecordTransactionFetched(true)
				malformed.Add(1)
				f.logger.Debug("malformed transaction skipped",
					zap.String("signature", sig.Signature),
					zap.Error(err),
				)
				return nil
			}
			if err != nil {
				return err
			}
			observability.RecordTransactionFetched(false)
			if rec == nil {
				notFound.Add(1)
				return nil
			}
			slots[i] = rec
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, 0, 0, err
	}

	records := make([]*domain.TransactionRecord, 0, len(slots))
	for _, rec := range slots {
		if rec != nil {
			records = append(records, rec)
		}
	}
	return records, int(notFound.Load()), int(malformed.Load()), nil
}

func (f *Fetcher) take() {
	if f.limiter != nil {
		f.limiter.Take()
	}
}

func (f *Fetcher) upstream(op string, err error) error {
	kind := "rpc"
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = "timeout"
	case errors.Is(err, context.Canceled):
		kind = "canceled"
	}
	observability.RecordFetchError(kind)
	f.logger.Warn("upstream failure",
		zap.String("op", op),
		zap.String("kind", kind),
		zap.Error(err),
	)
	return fmt.Errorf("%w: %s: %w", ErrUpstreamUnavailable, op, err)
}
