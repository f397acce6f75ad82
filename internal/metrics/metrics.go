package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/genixhq/genix/internal/payout"
)

// Metrics holds every collector the API exposes on /metrics.
type Metrics struct {
	HTTPRequestsTotal     *prometheus.CounterVec
	ResponseTimeHistogram *prometheus.HistogramVec

	payoutGroups  *prometheus.CounterVec
	payoutEntries *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		ResponseTimeHistogram: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_response_time_seconds",
				Help:    "Histogram of response times",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		payoutGroups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payout_groups_total",
				Help: "Developer payout groups dispatched, by resulting status",
			},
			[]string{"status"},
		),
		payoutEntries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payout_transfer_records_total",
				Help: "Transfer records written, by status",
			},
			[]string{"status"},
		),
		runDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "payout_run_duration_seconds",
				Help:    "Duration of payout runs",
				Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
			},
			[]string{"dry_run"},
		),
	}
}

func (m *Metrics) ObserveGroup(status payout.Status, entries int) {
	m.payoutGroups.WithLabelValues(string(status)).Inc()
	m.payoutEntries.WithLabelValues(string(status)).Add(float64(entries))
}

func (m *Metrics) ObserveRun(dryRun bool, elapsed time.Duration) {
	m.runDuration.WithLabelValues(strconv.FormatBool(dryRun)).Observe(elapsed.Seconds())
}
