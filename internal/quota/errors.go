package quota

import "errors"

// Sentinel errors surfaced by the subscription manager. Quota exhaustion is
// not an error; it is reported as a non-admitted Status so callers can tell
// "out of quota" apart from "try again later".
var (
	// ErrAccountNotFound indicates the account does not exist.
	ErrAccountNotFound = errors.New("quota: account not found")
	// ErrInvalidPlan indicates a plan name outside the enumerated tier set.
	ErrInvalidPlan = errors.New("quota: invalid plan")
	// ErrStoreUnavailable indicates a transient backing-store failure; the
	// admission check fails closed and the caller may retry.
	ErrStoreUnavailable = errors.New("quota: store unavailable")
)
