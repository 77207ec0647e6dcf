package handler

import (
	"fmt"
	"net/http"
	"time"

	"insight-hub/internal/domain"
	"insight-hub/internal/usecase"

	"github.com/labstack/echo/v4"
)

const rangeDateLayout = "2006-01-02"

// KPIHandler handles /kpis/financial returning the query state as JSON.
type KPIHandler struct {
	uc *usecase.FinancialKPIQuery
}

// NewKPIHandler creates a new KPI handler.
func NewKPIHandler(uc *usecase.FinancialKPIQuery) *KPIHandler {
	return &KPIHandler{uc: uc}
}

// kpiResponse mirrors the query-state contract: data (or null), a loading
// flag, an error string the consuming view renders, and the idle marker for
// anonymous callers. Fetch failures stay inside this body; they are not
// HTTP errors. The query settles before the response is written, so
// isLoading is always false here; the field keeps the contract the
// consuming view binds to.
type kpiResponse struct {
	Data      *domain.FinancialKPIs `json:"data"`
	Loading   bool                  `json:"isLoading"`
	Error     string                `json:"error,omitempty"`
	Idle      bool                  `json:"idle,omitempty"`
	FetchedAt *time.Time            `json:"fetchedAt,omitempty"`
}

// Handle processes the /kpis/financial endpoint. `refetch=true` bypasses
// the staleness window.
func (h *KPIHandler) Handle(c echo.Context) error {
	r, err := parseDateRange(c.QueryParam("from"), c.QueryParam("to"))
	if err != nil {
		return mapDomainError(err)
	}

	ctx := c.Request().Context()

	var state domain.KPIQueryState
	if c.QueryParam("refetch") == "true" {
		state, err = h.uc.Refetch(ctx, r)
	} else {
		state, err = h.uc.Execute(ctx, r)
	}
	if err != nil {
		return mapDomainError(err)
	}

	resp := kpiResponse{
		Data:    state.Data,
		Loading: state.Loading,
		Idle:    state.Idle,
	}
	if state.Err != nil {
		resp.Error = state.Err.Error()
	}
	if !state.FetchedAt.IsZero() {
		fetchedAt := state.FetchedAt
		resp.FetchedAt = &fetchedAt
	}

	return c.JSON(http.StatusOK, resp)
}

// parseDateRange parses the from/to query parameters into a DateRange.
// Full validation happens in the usecase; this only rejects what cannot be
// parsed at all.
func parseDateRange(from, to string) (domain.DateRange, error) {
	if from == "" || to == "" {
		return domain.DateRange{}, fmt.Errorf("%w: from and to are required", domain.ErrInvalidDateRange)
	}

	f, err := time.Parse(rangeDateLayout, from)
	if err != nil {
		return domain.DateRange{}, fmt.Errorf("%w: from must be YYYY-MM-DD", domain.ErrInvalidDateRange)
	}
	t, err := time.Parse(rangeDateLayout, to)
	if err != nil {
		return domain.DateRange{}, fmt.Errorf("%w: to must be YYYY-MM-DD", domain.ErrInvalidDateRange)
	}

	return domain.DateRange{From: f, To: t}, nil
}
