package payout

import "time"

// Recorder receives run metrics.
type Recorder interface {
	ObserveGroup(status Status, entries int)
	ObserveRun(dryRun bool, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveGroup(Status, int)       {}
func (nopRecorder) ObserveRun(bool, time.Duration) {}
