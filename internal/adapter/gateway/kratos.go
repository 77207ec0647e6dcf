package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"insight-hub/internal/domain"

	kratos "github.com/ory/kratos-client-go"
)

// KratosGateway implements domain.SessionValidator and domain.SessionTerminator.
type KratosGateway struct {
	client *kratos.APIClient
}

// NewKratosGateway creates a new Kratos gateway with tuned HTTP transport.
func NewKratosGateway(baseURL string, timeout time.Duration) *KratosGateway {
	configuration := kratos.NewConfiguration()
	configuration.Servers = []kratos.ServerConfiguration{
		{URL: baseURL},
	}

	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
	}

	configuration.HTTPClient = &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}

	return &KratosGateway{
		client: kratos.NewAPIClient(configuration),
	}
}

// ValidateSession validates a session cookie and returns the identity.
func (g *KratosGateway) ValidateSession(ctx context.Context, cookie string) (*domain.Identity, error) {
	if cookie == "" {
		return nil, domain.ErrSessionNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	session, resp, err := g.client.FrontendAPI.ToSession(ctx).Cookie(cookie).Execute()
	if err != nil {
		if resp != nil {
			if resp.StatusCode == http.StatusUnauthorized {
				return nil, domain.ErrAuthFailed
			}
			return nil, fmt.Errorf("%w: kratos returned status %d", domain.ErrKratosUnavailable, resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrKratosUnavailable, err)
	}

	if session.Active != nil && !*session.Active {
		return nil, domain.ErrSessionInactive
	}

	if session.Identity == nil {
		return nil, domain.ErrMissingIdentity
	}

	email := ""
	if traits, ok := session.Identity.Traits.(map[string]interface{}); ok {
		if emailVal, ok := traits["email"]; ok {
			if emailStr, ok := emailVal.(string); ok {
				email = emailStr
			}
		}
	}

	var createdAt time.Time
	if session.Identity.CreatedAt != nil {
		createdAt = *session.Identity.CreatedAt
	}

	return &domain.Identity{
		UserID:    session.Identity.Id,
		Email:     email,
		SessionID: session.Id,
		CreatedAt: createdAt,
	}, nil
}

// TerminateSession ends the session behind the cookie via the browser
// logout flow: create the flow, then submit its logout token. Failures the
// provider attributes to the session come back as *domain.ReportedError
// carrying the provider's message; transport and server-side failures are
// wrapped in domain.ErrKratosUnavailable.
func (g *KratosGateway) TerminateSession(ctx context.Context, cookie string) error {
	if cookie == "" {
		return &domain.ReportedError{Msg: "no active session to sign out of"}
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	flow, resp, err := g.client.FrontendAPI.CreateBrowserLogoutFlow(ctx).Cookie(cookie).Execute()
	if err != nil {
		return g.terminateError(resp, err)
	}

	resp, err = g.client.FrontendAPI.UpdateLogoutFlow(ctx).Token(flow.LogoutToken).Cookie(cookie).Execute()
	if err != nil {
		return g.terminateError(resp, err)
	}

	return nil
}

// terminateError classifies a logout failure: 401/403/410 mean the provider
// rejected the request for this session and its message is user-safe.
func (g *KratosGateway) terminateError(resp *http.Response, err error) error {
	if resp != nil {
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusGone:
			return &domain.ReportedError{
				Msg: providerMessage(err, "session is no longer active"),
			}
		}
		return fmt.Errorf("%w: kratos returned status %d", domain.ErrKratosUnavailable, resp.StatusCode)
	}
	return fmt.Errorf("%w: %w", domain.ErrKratosUnavailable, err)
}

// providerMessage extracts the human-readable message from a Kratos error
// body, falling back when none is present.
func providerMessage(err error, fallback string) string {
	var apiErr *kratos.GenericOpenAPIError
	if !errors.As(err, &apiErr) {
		return fallback
	}

	var body struct {
		Error struct {
			Reason  string `json:"reason"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if jsonErr := json.Unmarshal(apiErr.Body(), &body); jsonErr != nil {
		return fallback
	}

	if body.Error.Reason != "" {
		return body.Error.Reason
	}
	if body.Error.Message != "" {
		return body.Error.Message
	}
	return fallback
}
