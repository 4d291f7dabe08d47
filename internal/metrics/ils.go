package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ILS transaction Prometheus metrics.
var (
	TransactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mecard",
			Name:      "transactions_total",
			Help:      "Total number of customer transactions by query type and response code",
		},
		[]string{"query", "code"},
	)

	CommandDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mecard",
			Name:      "command_duration_seconds",
			Help:      "ILS command duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"backend", "query"},
	)
)

// ObserveTransaction records one answered request.
func ObserveTransaction(backend, query, code string, took time.Duration) {
	TransactionsTotal.WithLabelValues(query, code).Inc()
	CommandDuration.WithLabelValues(backend, query).Observe(took.Seconds())
}
