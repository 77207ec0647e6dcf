package handler

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

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubIdentityAccessor implements domain.IdentityAccessor for testing.
type stubIdentityAccessor struct {
	identity *domain.Identity
}

func (s *stubIdentityAccessor) CurrentIdentity(_ context.Context) (*domain.Identity, bool) {
	if s.identity == nil {
		return nil, false
	}
	return s.identity, true
}

// stubFetcher implements domain.KPIFetcher for testing.
type stubFetcher struct {
	kpis  *domain.FinancialKPIs
	err   error
	calls int
}

func (s *stubFetcher) FetchFinancialKPIs(_ context.Context, _ domain.Identity, _ domain.DateRange) (*domain.FinancialKPIs, error) {
	s.calls++
	return s.kpis, s.err
}

func newKPIHandler(accessor domain.IdentityAccessor, fetcher domain.KPIFetcher) *KPIHandler {
	uc := usecase.NewFinancialKPIQuery(accessor, fetcher, 5*time.Minute, slog.Default())
	return NewKPIHandler(uc)
}

func kpiRequest(t *testing.T, h *KPIHandler, target string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.Handle(c)
	if err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestKPIHandler_Success(t *testing.T) {
	fetcher := &stubFetcher{kpis: &domain.FinancialKPIs{
		Revenue:   125000.50,
		Expenses:  98000.25,
		NetIncome: 27000.25,
		Currency:  "USD",
	}}
	h := newKPIHandler(&stubIdentityAccessor{identity: &domain.Identity{UserID: "u1"}}, fetcher)

	rec := kpiRequest(t, h, "/kpis/financial?from=2024-01-01&to=2024-01-31")

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	data := resp["data"].(map[string]any)
	assert.InDelta(t, 125000.50, data["revenue"].(float64), 0.001)
	assert.Equal(t, "USD", data["currency"])
	assert.Equal(t, false, resp["isLoading"])
	assert.NotEmpty(t, resp["fetchedAt"])
	_, hasError := resp["error"]
	assert.False(t, hasError)
}

func TestKPIHandler_SecondRequestServedFromCache(t *testing.T) {
	fetcher := &stubFetcher{kpis: &domain.FinancialKPIs{Revenue: 1}}
	h := newKPIHandler(&stubIdentityAccessor{identity: &domain.Identity{UserID: "u1"}}, fetcher)

	kpiRequest(t, h, "/kpis/financial?from=2024-01-01&to=2024-01-31")
	kpiRequest(t, h, "/kpis/financial?from=2024-01-01&to=2024-01-31")

	assert.Equal(t, 1, fetcher.calls)
}

func TestKPIHandler_RefetchParamForcesFetch(t *testing.T) {
	fetcher := &stubFetcher{kpis: &domain.FinancialKPIs{Revenue: 1}}
	h := newKPIHandler(&stubIdentityAccessor{identity: &domain.Identity{UserID: "u1"}}, fetcher)

	kpiRequest(t, h, "/kpis/financial?from=2024-01-01&to=2024-01-31")
	kpiRequest(t, h, "/kpis/financial?from=2024-01-01&to=2024-01-31&refetch=true")

	assert.Equal(t, 2, fetcher.calls)
}

func TestKPIHandler_AnonymousCallerGetsIdleState(t *testing.T) {
	fetcher := &stubFetcher{kpis: &domain.FinancialKPIs{Revenue: 1}}
	h := newKPIHandler(&stubIdentityAccessor{}, fetcher)

	rec := kpiRequest(t, h, "/kpis/financial?from=2024-01-01&to=2024-01-31")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, fetcher.calls)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Nil(t, resp["data"])
	assert.Equal(t, true, resp["idle"])
	_, hasError := resp["error"]
	assert.False(t, hasError)
}

func TestKPIHandler_FetchErrorInBody(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("analytics returned status 500")}
	h := newKPIHandler(&stubIdentityAccessor{identity: &domain.Identity{UserID: "u1"}}, fetcher)

	rec := kpiRequest(t, h, "/kpis/financial?from=2024-01-01&to=2024-01-31")

	assert.Equal(t, http.StatusOK, rec.Code, "fetch failures stay in the query state")

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Nil(t, resp["data"])
	assert.Contains(t, resp["error"], "analytics returned status 500")
}

func TestKPIHandler_BadRange(t *testing.T) {
	fetcher := &stubFetcher{}
	h := newKPIHandler(&stubIdentityAccessor{identity: &domain.Identity{UserID: "u1"}}, fetcher)

	tests := []struct {
		name   string
		target string
	}{
		{"missing params", "/kpis/financial"},
		{"malformed from", "/kpis/financial?from=January&to=2024-01-31"},
		{"to before from", "/kpis/financial?from=2024-01-31&to=2024-01-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := kpiRequest(t, h, tt.target)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}

	assert.Equal(t, 0, fetcher.calls)
}
