package domain

import "context"

// SessionValidator validates a session cookie against the identity provider.
type SessionValidator interface {
	ValidateSession(ctx context.Context, cookie string) (*Identity, error)
}

// SessionTerminator ends the session behind a session cookie. The cookie
// argument is a full Cookie header (name=value), same as SessionValidator.
// Failures the provider reports with a user-safe message come back as
// *ReportedError; anything else counts as unexpected.
type SessionTerminator interface {
	TerminateSession(ctx context.Context, cookie string) error
}

// SessionCache provides read/write access to cached session data.
type SessionCache interface {
	Get(sessionID string) (*CachedSession, bool)
	Set(sessionID string, session CachedSession)
	Delete(sessionID string)
}

// IdentityAccessor exposes the current caller's identity, if any. Passed
// into the KPI query explicitly so tests can substitute a fake provider.
type IdentityAccessor interface {
	CurrentIdentity(ctx context.Context) (*Identity, bool)
}

// KPIFetcher retrieves aggregated financial KPIs for one identity and range.
type KPIFetcher interface {
	FetchFinancialKPIs(ctx context.Context, identity Identity, r DateRange) (*FinancialKPIs, error)
}

// TokenIssuer generates signed backend JWT tokens for upstream calls.
type TokenIssuer interface {
	IssueBackendToken(identity *Identity, sessionID string) (string, error)
}
