package payout_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/genixhq/genix/internal/payout"
)

func TestStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from, to payout.Status
		want     bool
	}{
		{payout.StatusQueued, payout.StatusProcessing, true},
		{payout.StatusQueued, payout.StatusManualRequired, true},
		{payout.StatusProcessing, payout.StatusPaid, true},
		{payout.StatusProcessing, payout.StatusFailed, true},
		{payout.StatusQueued, payout.StatusPaid, false},
		{payout.StatusQueued, payout.StatusFailed, false},
		{payout.StatusProcessing, payout.StatusManualRequired, false},
		{payout.StatusPaid, payout.StatusFailed, false},
		{payout.StatusFailed, payout.StatusProcessing, false},
		{payout.StatusManualRequired, payout.StatusQueued, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}
}

func TestStatus_Terminal(t *testing.T) {
	assert.False(t, payout.StatusQueued.Terminal())
	assert.False(t, payout.StatusProcessing.Terminal())
	assert.True(t, payout.StatusPaid.Terminal())
	assert.True(t, payout.StatusFailed.Terminal())
	assert.True(t, payout.StatusManualRequired.Terminal())
	assert.False(t, payout.Status("settled").Terminal())
}

func TestStatus_Excludes(t *testing.T) {
	for _, s := range payout.ExcludingStatuses() {
		assert.True(t, s.Excludes(), s)
	}

	assert.False(t, payout.StatusFailed.Excludes())
	assert.False(t, payout.StatusManualRequired.Excludes())
}

func TestStatus_Valid(t *testing.T) {
	assert.True(t, payout.StatusPaid.Valid())
	assert.False(t, payout.Status("").Valid())
	assert.False(t, payout.Status("PAID").Valid())
}
