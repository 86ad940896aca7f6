package dosing

import "errors"

var (
	// ErrInvalidAction rejects any action outside taken, snooze, skip.
	ErrInvalidAction = errors.New("invalid action")

	// ErrInvalidToken covers unknown, spent, and mismatched tokens.
	// It deliberately does not say which, so the caller cannot probe.
	ErrInvalidToken = errors.New("invalid or expired action token")

	// ErrTokenExpired is returned when the token exists and is unused
	// but its expiry has passed.
	ErrTokenExpired = errors.New("action token has expired")

	// ErrDosePlanNotFound is returned when the token's target dose
	// plan no longer exists.
	ErrDosePlanNotFound = errors.New("dose plan not found")

	// ErrIntakeWriteFailed aborts the request; without the intake row
	// there is nothing to confirm.
	ErrIntakeWriteFailed = errors.New("failed to record intake")

	// ErrTokenNotClaimable is the repository-level miss for token
	// claim and lookup.
	ErrTokenNotClaimable = errors.New("no claimable token")
)
