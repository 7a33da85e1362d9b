// Package metrics folds buy events into per-wallet totals over a time
// window and produces the ranking.
package metrics

import (
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"solana-buy-ranking/internal/discovery"
	"solana-buy-ranking/internal/domain"
)

// Extractor classifies one record. discovery.BuyExtractor implements it.
type Extractor interface {
	Extract(rec *domain.TransactionRecord) (*domain.BuyEvent, error)
}

// Stats counts how the records of one aggregation were classified.
type Stats struct {
	Records          int
	MissingBlockTime int
	OutOfWindow      int
	OutOfScope       int // buys by wallets outside the registered set
	Buys             int
	Skipped          map[string]int // skip reason -> count
}

// Aggregation is the per-wallet fold of buy events.
type Aggregation struct {
	Totals   map[string]decimal.Decimal
	BuyCount map[string]int
	Order    []string // wallets in first-seen order
	Events   []*domain.BuyEvent
	Stats    Stats
}

// NewAggregation returns an empty aggregation.
func NewAggregation() *Aggregation {
	return &Aggregation{
		Totals:   make(map[string]decimal.Decimal),
		BuyCount: make(map[string]int),
		Stats:    Stats{Skipped: make(map[string]int)},
	}
}

// Add folds ev into the totals.
func (a *Aggregation) Add(ev *domain.BuyEvent) {
	total, seen := a.Totals[ev.Wallet]
	if !seen {
		a.Order = append(a.Order, ev.Wallet)
	}
	a.Totals[ev.Wallet] = total.Add(ev.NativeSpent)
	a.BuyCount[ev.Wallet]++
	a.Events = append(a.Events, ev)
	a.Stats.Buys++
}

// Total returns the wallet's summed native spend, zero when absent.
func (a *Aggregation) Total(wallet string) decimal.Decimal {
	return a.Totals[wallet]
}

// WindowAggregator runs the extractor over records inside a window.
type WindowAggregator struct {
	extractor Extractor
	wallets   map[string]bool
	logger    *zap.Logger
}

// AggregatorOption configures a WindowAggregator.
type AggregatorOption func(*WindowAggregator)

// WithWallets restricts folding to the given wallets. An empty list keeps
// every wallet in scope.
func WithWallets(wallets []string) AggregatorOption {
	return func(w *WindowAggregator) {
		if len(wallets) == 0 {
			w.wallets = nil
			return
		}
		w.wallets = make(map[string]bool, len(wallets))
		for _, addr := range wallets {
			w.wallets[addr] = true
		}
	}
}

// WithLogger sets the logger used for per-record skip messages.
func WithLogger(logger *zap.Logger) AggregatorOption {
	return func(w *WindowAggregator) {
		w.logger = logger
	}
}

// NewWindowAggregator creates an aggregator.
func NewWindowAggregator(extractor Extractor, opts ...AggregatorOption) *WindowAggregator {
	w := &WindowAggregator{
		extractor: extractor,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Aggregate classifies each record whose block time lies in window and sums
// native spend per wallet. The slice index is the first-seen anchor, so
// records must be passed in their original listing order. Nil records and
// records without block time are counted and skipped.
func (w *WindowAggregator) Aggregate(records []*domain.TransactionRecord, window domain.Window) *Aggregation {
	events := make([]*domain.BuyEvent, 0, len(records))
	agg := NewAggregation()

	for i, rec := range records {
		agg.Stats.Records++
		if rec == nil || !rec.HasBlockTime() {
			agg.Stats.MissingBlockTime++
			continue
		}
		if !window.Contains(*rec.BlockTime) {
			agg.Stats.OutOfWindow++
			continue
		}

		ev, err := w.extractor.Extract(rec)
		if err != nil {
			reason := discovery.SkipReason(err)
			agg.Stats.Skipped[reason]++
			w.logger.Debug("transaction skipped",
				zap.String("signature", rec.Signature),
				zap.String("reason", reason),
				zap.Error(err),
			)
			continue
		}
		if w.wallets != nil && !w.wallets[ev.Wallet] {
			agg.Stats.OutOfScope++
			continue
		}
		ev.Position = i
		events = append(events, ev)
	}

	fold(agg, events)
	return agg
}

// FoldEvents sums events per wallet. Events are ordered by Position first,
// so the result does not depend on the order they were collected in.
func FoldEvents(events []*domain.BuyEvent) *Aggregation {
	agg := NewAggregation()
	agg.Stats.Records = len(events)
	fold(agg, events)
	return agg
}

func fold(agg *Aggregation, events []*domain.BuyEvent) {
	sorted := make([]*domain.BuyEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Position < sorted[j].Position
	})
	for _, ev := range sorted {
		agg.Add(ev)
	}
}
