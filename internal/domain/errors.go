package domain

import "errors"

// Authentication errors.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
	ErrAuthFailed      = errors.New("authentication failed")
	ErrSessionInactive = errors.New("session is not active")
	ErrMissingIdentity = errors.New("missing identity in session")
)

// Sign-out errors.
var (
	ErrSignOutPending = errors.New("sign-out already in progress")
)

// KPI query errors.
var (
	ErrInvalidDateRange     = errors.New("invalid date range")
	ErrAnalyticsUnavailable = errors.New("analytics service unavailable")
)

// External service errors.
var (
	ErrKratosUnavailable = errors.New("identity provider unavailable")
)

// Token errors.
var (
	ErrTokenGeneration = errors.New("token generation failed")
)

// Rate limiting errors.
var (
	ErrRateLimited = errors.New("rate limit exceeded")
)

// ReportedError is a failure the identity provider reported with a
// human-readable message that is safe to show to the user verbatim.
// Anything else that goes wrong during sign-out is treated as unexpected
// and never surfaced to the user.
type ReportedError struct {
	Msg string
}

func (e *ReportedError) Error() string { return e.Msg }
