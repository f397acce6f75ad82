package metrics_test

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genixhq/genix/internal/metrics"
	"github.com/genixhq/genix/internal/payout"
)

var _ payout.Recorder = (*metrics.Metrics)(nil)

func TestMetrics_ObserveGroup(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.ObserveGroup(payout.StatusPaid, 2)
	m.ObserveGroup(payout.StatusPaid, 3)
	m.ObserveGroup(payout.StatusManualRequired, 1)

	expected := `
		# HELP payout_groups_total Developer payout groups dispatched, by resulting status
		# TYPE payout_groups_total counter
		payout_groups_total{status="manual_required"} 1
		payout_groups_total{status="paid"} 2
		# HELP payout_transfer_records_total Transfer records written, by status
		# TYPE payout_transfer_records_total counter
		payout_transfer_records_total{status="manual_required"} 1
		payout_transfer_records_total{status="paid"} 5
	`

	err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "payout_groups_total", "payout_transfer_records_total")
	require.NoError(t, err)
}

func TestMetrics_ObserveRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.ObserveRun(true, 2*time.Second)
	m.ObserveRun(false, time.Second)

	count, err := testutil.GatherAndCount(reg, "payout_run_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
