// Package ranking answers ranking queries: it resolves the group's
// competition, fetches the token's transactions for the competition window,
// classifies and folds them, and ranks wallets by native spend.
package ranking

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"solana-buy-ranking/internal/discovery"
	"solana-buy-ranking/internal/domain"
	"solana-buy-ranking/internal/ingestion"
	"solana-buy-ranking/internal/metrics"
	"solana-buy-ranking/internal/observability"
	"solana-buy-ranking/internal/storage"
)

// DefaultLimit is the number of entries shown when none is configured.
const DefaultLimit = 10

// Status tells callers which kind of answer a query produced. Each status
// other than StatusOK carries no ranking and must be shown as its own message.
type Status string

const (
	StatusOK            Status = "ok"
	StatusNoCompetition Status = "no_competition"
	StatusEnded         Status = "ended"
	StatusNoBuys        Status = "no_buys"
	// StatusNoBuysPartial means no buys were found in the scanned part of
	// the window, and the signature cap kept older transactions unscanned.
	StatusNoBuysPartial Status = "no_buys_partial"
)

// String returns the string representation of Status.
func (s Status) String() string {
	return string(s)
}

// Competitions is the read side of competition.Registry.
type Competitions interface {
	Get(ctx context.Context, groupID string) (*domain.Competition, domain.CompetitionStatus, error)
	Wallets(ctx context.Context, groupID string) ([]string, error)
}

// WindowFetcher loads the transactions of an address for a window.
// ingestion.Fetcher implements it.
type WindowFetcher interface {
	FetchWindow(ctx context.Context, address string, window domain.Window) (*ingestion.FetchResult, error)
}

// Options for creating a Service.
type Options struct {
	Competitions Competitions  // required for GroupRanking
	Fetcher      WindowFetcher // required

	// Archive receives every classified buy of a group ranking. Optional.
	Archive storage.BuyEventArchive

	// RequiredPrograms narrows buys to transactions that touch one of these
	// program IDs. Empty keeps the plain balance-delta heuristic.
	RequiredPrograms []string

	Limit  int // entries per ranking, DefaultLimit when <= 0
	Logger *zap.Logger
	Clock  func() time.Time
}

// Service runs ranking queries.
type Service struct {
	competitions Competitions
	fetcher      WindowFetcher
	archive      storage.BuyEventArchive
	programs     []string
	limit        int
	logger       *zap.Logger
	clock        func() time.Time
}

// New creates a new Service.
func New(opts Options) *Service {
	s := &Service{
		competitions: opts.Competitions,
		fetcher:      opts.Fetcher,
		archive:      opts.Archive,
		programs:     opts.RequiredPrograms,
		limit:        opts.Limit,
		logger:       opts.Logger,
		clock:        opts.Clock,
	}
	if s.limit <= 0 {
		s.limit = DefaultLimit
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	return s
}

// Result is the outcome of a ranking query.
type Result struct {
	Status      Status
	Competition *domain.Competition // nil for token rankings and StatusNoCompetition
	Window      domain.Window
	Ranking     *domain.Ranking // nil unless StatusOK
	Events      []*domain.BuyEvent
	Stats       metrics.Stats
	Fetch       *ingestion.FetchResult

	// Truncated is set when only the newest part of Window was scanned.
	// Scanned is the part that was, and Scanned.Start is 0 when the oldest
	// listed block time is unknown.
	Truncated bool
	Scanned   domain.Window
}

// GroupRanking ranks the buyers of the group's competition token over
// [start, min(now, end)]. When wallets are registered in the group only they
// are ranked. Ledger failures surface as ingestion.ErrUpstreamUnavailable
// and no partial ranking is returned.
func (s *Service) GroupRanking(ctx context.Context, groupID string) (res *Result, err error) {
	started := time.Now()
	defer func() {
		status := "error"
		if err == nil {
			status = res.Status.String()
		}
		observability.RecordRanking(status, started)
	}()

	c, status, err := s.competitions.Get(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("load competition: %w", err)
	}
	switch status {
	case domain.StatusNoCompetition:
		return &Result{Status: StatusNoCompetition}, nil
	case domain.StatusExpired:
		return &Result{Status: StatusEnded, Competition: c, Window: domain.NewWindow(c.StartTime, c.EndTime())}, nil
	}

	wallets, err := s.competitions.Wallets(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("load wallets: %w", err)
	}

	window := c.Window(s.clock())
	res, err = s.run(ctx, c.TargetToken, window, s.limit, wallets)
	if err != nil {
		s.logger.Warn("group ranking failed",
			zap.String("group", groupID),
			zap.String("token", c.TargetToken),
			zap.Error(err),
		)
		return nil, err
	}
	res.Competition = c

	if s.archive != nil && res.Ranking != nil {
		s.archiveEvents(ctx, groupID, c.TargetToken, res)
	}
	return res, nil
}

// TokenRanking ranks the buyers of token over window without a competition.
// limit <= 0 uses the service limit.
func (s *Service) TokenRanking(ctx context.Context, token string, window domain.Window, limit int) (res *Result, err error) {
	started := time.Now()
	defer func() {
		status := "error"
		if err == nil {
			status = res.Status.String()
		}
		observability.RecordRanking(status, started)
	}()

	if !window.IsValid() {
		return nil, fmt.Errorf("invalid window [%d, %d]", window.Start, window.End)
	}
	if limit <= 0 {
		limit = s.limit
	}
	return s.run(ctx, token, window, limit, nil)
}

func (s *Service) run(ctx context.Context, token string, window domain.Window, limit int, wallets []string) (*Result, error) {
	fetched, err := s.fetcher.FetchWindow(ctx, token, window)
	if err != nil {
		return nil, err
	}

	extractor := discovery.NewBuyExtractor(token, discovery.WithRequiredPrograms(s.programs))
	aggregator := metrics.NewWindowAggregator(extractor,
		metrics.WithWallets(wallets),
		metrics.WithLogger(s.logger),
	)
	agg := aggregator.Aggregate(fetched.Records, window)
	recordStats(agg.Stats, fetched.Malformed)

	res := &Result{
		Window:    window,
		Events:    agg.Events,
		Stats:     agg.Stats,
		Fetch:     fetched,
		Truncated: fetched.Truncated,
		Scanned:   scanned(window, fetched),
	}
	if len(agg.Totals) == 0 {
		res.Status = StatusNoBuys
		if res.Truncated {
			res.Status = StatusNoBuysPartial
		}
		return res, nil
	}
	res.Status = StatusOK
	res.Ranking = metrics.Rank(agg, limit)

	s.logger.Info("ranking computed",
		zap.String("token", token),
		zap.Int64("window_start", window.Start),
		zap.Int64("window_end", window.End),
		zap.Int("records", agg.Stats.Records),
		zap.Int("buys", agg.Stats.Buys),
		zap.Int("wallets", res.Ranking.TotalWallets),
		zap.Bool("truncated", res.Truncated),
	)
	return res, nil
}

// scanned returns the part of window the fetch covered.
func scanned(window domain.Window, fetched *ingestion.FetchResult) domain.Window {
	if !fetched.Truncated {
		return window
	}
	w := domain.Window{End: window.End}
	if fetched.OldestBlockTime > 0 {
		w.Start = max(window.Start, fetched.OldestBlockTime)
	}
	return w
}

func (s *Service) archiveEvents(ctx context.Context, groupID, token string, res *Result) {
	if len(res.Events) == 0 {
		return
	}
	if err := s.archive.InsertBuyEvents(ctx, groupID, token, res.Events); err != nil {
		s.logger.Warn("archive buy events failed",
			zap.String("group", groupID),
			zap.Int("events", len(res.Events)),
			zap.Error(err),
		)
	}
}

func recordStats(st metrics.Stats, malformed int) {
	observability.RecordClassified("buy", st.Buys)
	observability.RecordClassified("missing_block_time", st.MissingBlockTime)
	observability.RecordClassified("out_of_window", st.OutOfWindow)
	observability.RecordClassified("out_of_scope", st.OutOfScope)
	observability.RecordClassified("malformed", malformed)
	for reason, n := range st.Skipped {
		observability.RecordClassified(reason, n)
	}
}
