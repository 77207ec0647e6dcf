package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"insight-hub/internal/domain"
	"insight-hub/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKratosGateway_ValidateSession_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sessions/whoami", r.URL.Path)
		assert.Contains(t, r.Header.Get("Cookie"), "ory_kratos_session=valid-session")

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "session-123",
			"active": true,
			"identity": map[string]any{
				"id":         "user-456",
				"schema_id":  "default",
				"schema_url": "http://kratos/schemas/default.json",
				"traits": map[string]any{
					"email": "user@example.com",
				},
			},
		})
	}))
	defer server.Close()

	gw := NewKratosGateway(server.URL, 5*time.Second)
	identity, err := gw.ValidateSession(context.Background(), "ory_kratos_session=valid-session")

	require.NoError(t, err)
	assert.Equal(t, "user-456", identity.UserID)
	assert.Equal(t, "user@example.com", identity.Email)
	assert.Equal(t, "session-123", identity.SessionID)
}

func TestKratosGateway_ValidateSession_EmptyCookie(t *testing.T) {
	gw := NewKratosGateway("http://unused", 5*time.Second)
	identity, err := gw.ValidateSession(context.Background(), "")

	assert.Nil(t, identity)
	assert.True(t, errors.Is(err, domain.ErrSessionNotFound))
}

func TestKratosGateway_ValidateSession_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
	}))
	defer server.Close()

	gw := NewKratosGateway(server.URL, 5*time.Second)
	identity, err := gw.ValidateSession(context.Background(), "ory_kratos_session=bad")

	assert.Nil(t, identity)
	assert.True(t, errors.Is(err, domain.ErrAuthFailed))
}

func TestKratosGateway_ValidateSession_InactiveSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "session-123",
			"active": false,
		})
	}))
	defer server.Close()

	gw := NewKratosGateway(server.URL, 5*time.Second)
	identity, err := gw.ValidateSession(context.Background(), "ory_kratos_session=stale")

	assert.Nil(t, identity)
	assert.True(t, errors.Is(err, domain.ErrSessionInactive))
}

func TestKratosGateway_TerminateSession_Success(t *testing.T) {
	var sawCreate, sawUpdate bool

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/self-service/logout/browser":
			sawCreate = true
			cookie, err := r.Cookie("ory_kratos_session")
			require.NoError(t, err, "session cookie must reach kratos by name")
			assert.Equal(t, "valid-session", cookie.Value)
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{
				"logout_token": "token-789",
				"logout_url":   "http://kratos/self-service/logout?token=token-789",
			})
		case "/self-service/logout":
			sawUpdate = true
			assert.Equal(t, "token-789", r.URL.Query().Get("token"))
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	gw := NewKratosGateway(server.URL, 5*time.Second)
	err := gw.TerminateSession(context.Background(), "ory_kratos_session=valid-session")

	assert.NoError(t, err)
	assert.True(t, sawCreate)
	assert.True(t, sawUpdate)
}

// signOutCache is the minimal domain.SessionCache needed to run the
// sign-out usecase against the real gateway.
type signOutCache struct {
	deleted []string
}

func (c *signOutCache) Get(string) (*domain.CachedSession, bool) { return nil, false }
func (c *signOutCache) Set(string, domain.CachedSession)         {}
func (c *signOutCache) Delete(sessionID string)                  { c.deleted = append(c.deleted, sessionID) }

// Drives the sign-out usecase with a bare cookie value, the input the HTTP
// handler extracts, against a fake Kratos that resolves the session cookie
// by name. Pins the cookie contract across the usecase/gateway boundary.
func TestSignOut_BareCookieValueReachesKratos(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("ory_kratos_session")
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"reason": "No valid session was found in this request"},
			})
			return
		}
		assert.Equal(t, "valid-session-value", cookie.Value)

		switch r.URL.Path {
		case "/self-service/logout/browser":
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{
				"logout_token": "token-123",
				"logout_url":   "http://kratos/self-service/logout?token=token-123",
			})
		case "/self-service/logout":
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	gw := NewKratosGateway(server.URL, 5*time.Second)
	cache := &signOutCache{}
	uc := usecase.NewSignOut(gw, cache, "/auth/login", slog.Default())

	result, err := uc.Execute(context.Background(), "valid-session-value")

	require.NoError(t, err)
	assert.Equal(t, domain.SignOutOK, result.Outcome.Status)
	require.NotNil(t, result.Redirect)
	assert.Equal(t, "/auth/login", result.Redirect.Path)
	assert.True(t, result.Redirect.RefreshView)
	assert.Contains(t, cache.deleted, "valid-session-value")
}

func TestKratosGateway_TerminateSession_EmptyCookie(t *testing.T) {
	gw := NewKratosGateway("http://unused", 5*time.Second)
	err := gw.TerminateSession(context.Background(), "")

	var reported *domain.ReportedError
	assert.True(t, errors.As(err, &reported))
}

func TestKratosGateway_TerminateSession_RejectedWithProviderMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{
				"code":    401,
				"message": "The request could not be authorized",
				"reason":  "No valid session was found in this request",
			},
		})
	}))
	defer server.Close()

	gw := NewKratosGateway(server.URL, 5*time.Second)
	err := gw.TerminateSession(context.Background(), "ory_kratos_session=expired")

	var reported *domain.ReportedError
	assert.True(t, errors.As(err, &reported))
	assert.Equal(t, "No valid session was found in this request", reported.Msg)
}

func TestKratosGateway_TerminateSession_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	gw := NewKratosGateway(server.URL, 5*time.Second)
	err := gw.TerminateSession(context.Background(), "ory_kratos_session=any")

	assert.True(t, errors.Is(err, domain.ErrKratosUnavailable))

	var reported *domain.ReportedError
	assert.False(t, errors.As(err, &reported))
}
