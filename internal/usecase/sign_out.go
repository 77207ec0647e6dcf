package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"insight-hub/internal/domain"
)

// SignOut terminates the caller's session against the identity provider and
// produces the feedback directives the client executes afterwards: a
// notification on every outcome, a redirect to the login view plus a view
// refresh on success only.
type SignOut struct {
	terminator domain.SessionTerminator
	cache      domain.SessionCache
	loginPath  string
	logger     *slog.Logger

	mu      sync.Mutex
	pending map[string]struct{}
}

// NewSignOut creates a new SignOut usecase.
func NewSignOut(t domain.SessionTerminator, c domain.SessionCache, loginPath string, l *slog.Logger) *SignOut {
	return &SignOut{
		terminator: t,
		cache:      c,
		loginPath:  loginPath,
		logger:     l,
		pending:    make(map[string]struct{}),
	}
}

// Pending reports whether a sign-out for sessionID is currently in flight.
func (uc *SignOut) Pending(sessionID string) bool {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	_, ok := uc.pending[sessionID]
	return ok
}

// Execute runs the sign-out for the session behind cookieValue. A second
// call for the same session while one is in flight fails with
// domain.ErrSignOutPending; the pending mark clears on every other exit
// path, panics from the terminator included, so the caller can always
// re-trigger afterwards.
func (uc *SignOut) Execute(ctx context.Context, cookieValue string) (*domain.SignOutResult, error) {
	if !uc.begin(cookieValue) {
		return nil, domain.ErrSignOutPending
	}
	defer uc.end(cookieValue)

	outcome := uc.terminate(ctx, cookieValue)

	switch outcome.Status {
	case domain.SignOutOK:
		// Drop the cached session so stale authenticated state cannot be
		// served after the provider has terminated it.
		uc.cache.Delete(cookieValue)
		return &domain.SignOutResult{
			Outcome: outcome,
			Notification: domain.Notification{
				Severity:    domain.SeverityNormal,
				Title:       "Signed out",
				Description: "Your session has ended.",
			},
			Redirect: &domain.Redirect{Path: uc.loginPath, RefreshView: true},
		}, nil

	case domain.SignOutReportedError:
		return &domain.SignOutResult{
			Outcome: outcome,
			Notification: domain.Notification{
				Severity:    domain.SeverityDestructive,
				Title:       "Sign out failed",
				Description: outcome.Message,
			},
		}, nil

	default:
		return &domain.SignOutResult{
			Outcome: outcome,
			Notification: domain.Notification{
				Severity:    domain.SeverityDestructive,
				Title:       "Sign out failed",
				Description: "Something went wrong. Please try again later.",
			},
		}, nil
	}
}

// terminate invokes the provider and tags the outcome. Only messages the
// provider reported as user-safe are carried into the outcome; everything
// else, panics included, becomes an unexpected failure with no detail.
func (uc *SignOut) terminate(ctx context.Context, cookieValue string) (outcome domain.SignOutOutcome) {
	defer func() {
		if r := recover(); r != nil {
			uc.logger.ErrorContext(ctx, "sign-out panicked", "panic", fmt.Sprint(r))
			outcome = domain.SignOutOutcome{Status: domain.SignOutUnexpectedError}
		}
	}()

	// The gateway takes a full Cookie header, same as the validate path.
	fullCookie := ""
	if cookieValue != "" {
		fullCookie = fmt.Sprintf("ory_kratos_session=%s", cookieValue)
	}

	err := uc.terminator.TerminateSession(ctx, fullCookie)
	if err == nil {
		return domain.SignOutOutcome{Status: domain.SignOutOK}
	}

	var reported *domain.ReportedError
	if errors.As(err, &reported) {
		return domain.SignOutOutcome{
			Status:  domain.SignOutReportedError,
			Message: reported.Msg,
		}
	}

	uc.logger.ErrorContext(ctx, "sign-out failed unexpectedly", "error", err)
	return domain.SignOutOutcome{Status: domain.SignOutUnexpectedError}
}

func (uc *SignOut) begin(sessionID string) bool {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if _, ok := uc.pending[sessionID]; ok {
		return false
	}
	uc.pending[sessionID] = struct{}{}
	return true
}

func (uc *SignOut) end(sessionID string) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	delete(uc.pending, sessionID)
}
