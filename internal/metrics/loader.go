package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/metro-mecard/mecard/internal/loader"
)

// Batch loader Prometheus metrics.
var (
	LoaderRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mecard",
			Name:      "loader_runs_total",
			Help:      "Total number of batch load runs by result",
		},
		[]string{"result"}, // success, failed, empty, deferred, not_uploaded, aborted
	)

	LoaderFailedCustomersTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "mecard",
			Name:      "loader_failed_customers_total",
			Help:      "Customers the batch tool rejected after their request was acknowledged",
		},
	)

	LoaderStagedRecords = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "mecard",
			Name:      "loader_staged_records",
			Help:      "Records picked up by the most recent batch load run",
		},
	)

	LoaderLockAge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "mecard",
			Name:      "loader_lock_age_seconds",
			Help:      "Age of the lock that deferred the most recent run, 0 when not deferred",
		},
	)
)

var registered bool

// Register registers the ILS and loader metrics. Must be called once from main.
func Register() {
	if registered {
		return
	}
	prometheus.MustRegister(TransactionsTotal)
	prometheus.MustRegister(CommandDuration)
	prometheus.MustRegister(LoaderRunsTotal)
	prometheus.MustRegister(LoaderFailedCustomersTotal)
	prometheus.MustRegister(LoaderStagedRecords)
	prometheus.MustRegister(LoaderLockAge)
	prometheus.MustRegister(adminRequestDuration)
	prometheus.MustRegister(adminRequestsTotal)
	registered = true
}

// LoaderObserver feeds loader reports into the metrics above.
type LoaderObserver struct{}

// ObserveRun implements loader.Observer.
func (LoaderObserver) ObserveRun(r loader.Report) {
	LoaderRunsTotal.WithLabelValues(string(r.Result)).Inc()
	LoaderFailedCustomersTotal.Add(float64(len(r.Failed)))
	if r.Result == loader.ResultDeferred {
		LoaderLockAge.Set(r.LockAge.Seconds())
		return
	}
	LoaderLockAge.Set(0)
	LoaderStagedRecords.Set(float64(r.Staged))
}

var _ loader.Observer = LoaderObserver{}
