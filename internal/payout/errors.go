package payout

import "errors"

var (
	ErrRunInProgress     = errors.New("payout run already in progress")
	ErrInvalidTransition = errors.New("invalid payout status transition")
	ErrDuplicatePayout   = errors.New("earning item already has an active payout record")
	ErrSchemaMissing     = errors.New("payout schema missing")
	ErrLockLost          = errors.New("payout run lock lost")
)
