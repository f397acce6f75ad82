package payout

import "fmt"

// Status represents the lifecycle state of a payout transfer record.
type Status string

const (
	StatusQueued         Status = "queued"
	StatusProcessing     Status = "processing"
	StatusPaid           Status = "paid"
	StatusManualRequired Status = "manual_required"
	StatusFailed         Status = "failed"
)

var transitions = map[Status][]Status{
	StatusQueued:     {StatusProcessing, StatusManualRequired},
	StatusProcessing: {StatusPaid, StatusFailed},
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusQueued, StatusProcessing, StatusPaid, StatusManualRequired, StatusFailed:
		return true
	}

	return false
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}

// Excludes reports whether a record in this status blocks its earning item from being selected again.
func (s Status) Excludes() bool {
	return s == StatusQueued || s == StatusProcessing || s == StatusPaid
}

// CanTransition reports whether moving from s to next is allowed.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}

	return false
}

// ExcludingStatuses lists the statuses that keep an item out of later runs.
func ExcludingStatuses() []Status {
	return []Status{StatusQueued, StatusProcessing, StatusPaid}
}

// transferState tracks a dispatch through the transition table, starting at queued.
type transferState struct {
	current Status
}

func newTransferState() *transferState {
	return &transferState{current: StatusQueued}
}

func (t *transferState) to(next Status) error {
	if !t.current.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.current, next)
	}

	t.current = next

	return nil
}
