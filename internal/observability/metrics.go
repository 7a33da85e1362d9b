// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ledger access
	SignaturesListed      prometheus.Counter
	TransactionsFetched   prometheus.Counter
	TransactionsMalformed prometheus.Counter
	FetchErrors           *prometheus.CounterVec
	RPCCallLatency        *prometheus.HistogramVec
	FetchBatchDuration    prometheus.Histogram

	// Classification
	TransactionsClassified *prometheus.CounterVec

	// Ranking
	RankingRequests *prometheus.CounterVec
	RankingDuration prometheus.Histogram

	// Competition registry
	CompetitionsStarted prometheus.Counter
	WalletsRegistered   prometheus.Counter

	// Command surface
	CommandsTotal     *prometheus.CounterVec
	NotificationsSent *prometheus.CounterVec

	// Database
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health
	LastSuccessfulRanking prometheus.Gauge
}

// NewMetrics creates a new Metrics instance registered on reg.
// A nil reg uses the default registerer.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "buy_ranking"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		SignaturesListed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "signatures_listed_total",
			Help:      "Total number of signatures returned by getSignaturesForAddress",
		}),
		TransactionsFetched: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "transactions_fetched_total",
			Help:      "Total number of transaction details fetched",
		}),
		TransactionsMalformed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "transactions_malformed_total",
			Help:      "Total number of transaction payloads that could not be normalized",
		}),
		FetchErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "fetch_errors_total",
			Help:      "Total number of upstream failures by kind",
		}, []string{"kind"}),
		RPCCallLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		FetchBatchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "fetch_batch_duration_seconds",
			Help:      "Duration of one windowed fetch batch in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}),

		TransactionsClassified: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "classification",
			Name:      "transactions_total",
			Help:      "Total number of transactions classified by outcome",
		}, []string{"outcome"}),

		RankingRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ranking",
			Name:      "requests_total",
			Help:      "Total number of ranking requests by status",
		}, []string{"status"}),
		RankingDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ranking",
			Name:      "duration_seconds",
			Help:      "Ranking request duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}),

		CompetitionsStarted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "competition",
			Name:      "started_total",
			Help:      "Total number of competitions started",
		}),
		WalletsRegistered: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "competition",
			Name:      "wallets_registered_total",
			Help:      "Total number of wallet registrations",
		}),

		CommandsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bot",
			Name:      "commands_total",
			Help:      "Total number of chat commands handled by command",
		}, []string{"command"}),
		NotificationsSent: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bot",
			Name:      "notifications_total",
			Help:      "Total number of outbound messages by status",
		}, []string{"status"}),

		DBQueryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		LastSuccessfulRanking: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_ranking_timestamp",
			Help:      "Unix timestamp of last successful ranking",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("", nil)

// RecordRPCLatency records RPC call latency.
func RecordRPCLatency(method string, started time.Time) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(time.Since(started).Seconds())
}

// RecordSignaturesListed adds n listed signatures.
func RecordSignaturesListed(n int) {
	DefaultMetrics.SignaturesListed.Add(float64(n))
}

// RecordTransactionFetched counts one fetched transaction, malformed or not.
func RecordTransactionFetched(malformed bool) {
	DefaultMetrics.TransactionsFetched.Inc()
	if malformed {
		DefaultMetrics.TransactionsMalformed.Inc()
	}
}

// RecordFetchError records an upstream failure.
func RecordFetchError(kind string) {
	DefaultMetrics.FetchErrors.WithLabelValues(kind).Inc()
}

// RecordFetchBatch records the duration of one windowed fetch.
func RecordFetchBatch(started time.Time) {
	DefaultMetrics.FetchBatchDuration.Observe(time.Since(started).Seconds())
}

// RecordClassified adds n transactions classified with outcome.
func RecordClassified(outcome string, n int) {
	if n <= 0 {
		return
	}
	DefaultMetrics.TransactionsClassified.WithLabelValues(outcome).Add(float64(n))
}

// RecordRanking records a ranking request.
func RecordRanking(status string, started time.Time) {
	DefaultMetrics.RankingRequests.WithLabelValues(status).Inc()
	DefaultMetrics.RankingDuration.Observe(time.Since(started).Seconds())
	if status == "ok" || status == "no_buys" {
		DefaultMetrics.LastSuccessfulRanking.SetToCurrentTime()
	}
}

// RecordCompetitionStarted increments the competitions started counter.
func RecordCompetitionStarted() {
	DefaultMetrics.CompetitionsStarted.Inc()
}

// RecordWalletRegistered increments the wallet registrations counter.
func RecordWalletRegistered() {
	DefaultMetrics.WalletsRegistered.Inc()
}

// RecordCommand counts a handled chat command.
func RecordCommand(command string) {
	DefaultMetrics.CommandsTotal.WithLabelValues(command).Inc()
}

// RecordNotification counts an outbound message.
func RecordNotification(err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	DefaultMetrics.NotificationsSent.WithLabelValues(status).Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, started time.Time, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(time.Since(started).Seconds())
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
