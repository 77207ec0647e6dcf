package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"insight-hub/internal/domain"
)

const rangeDateLayout = "2006-01-02"

// AnalyticsGateway fetches aggregated financial KPI figures from the
// analytics service. Implements domain.KPIFetcher.
type AnalyticsGateway struct {
	baseURL    string
	httpClient *http.Client
	tokens     domain.TokenIssuer
}

// NewAnalyticsGateway creates a new analytics gateway with tuned HTTP transport.
func NewAnalyticsGateway(baseURL string, timeout time.Duration, tokens domain.TokenIssuer) *AnalyticsGateway {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
	}

	return &AnalyticsGateway{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		tokens: tokens,
	}
}

// FetchFinancialKPIs requests the KPI aggregate for one identity and range.
// Upstream failures are wrapped in domain.ErrAnalyticsUnavailable and left
// for the query state to carry; nothing is reinterpreted here.
func (g *AnalyticsGateway) FetchFinancialKPIs(ctx context.Context, identity domain.Identity, r domain.DateRange) (*domain.FinancialKPIs, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	params := url.Values{}
	params.Set("from", r.From.Format(rangeDateLayout))
	params.Set("to", r.To.Format(rangeDateLayout))
	reqURL := fmt.Sprintf("%s/v1/kpis/financial?%s", g.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrAnalyticsUnavailable, err)
	}

	backendToken, err := g.tokens.IssueBackendToken(&identity, identity.SessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrTokenGeneration, err)
	}
	req.Header.Set("Authorization", "Bearer "+backendToken)
	req.Header.Set("X-Insight-User-Id", identity.UserID)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrAnalyticsUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: analytics returned status %d", domain.ErrAnalyticsUnavailable, resp.StatusCode)
	}

	var kpis domain.FinancialKPIs
	if err := json.NewDecoder(resp.Body).Decode(&kpis); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrAnalyticsUnavailable, err)
	}

	return &kpis, nil
}
