package domain

import "time"

// DateRange is an inclusive reporting window. Immutable once constructed;
// passed by value into the KPI query.
type DateRange struct {
	From time.Time `validate:"required"`
	To   time.Time `validate:"required,gtefield=From"`
}

// FinancialKPIs is the aggregate computed by the analytics service for one
// identity and reporting window. This service requests and caches it; it
// never interprets or recomputes the figures.
type FinancialKPIs struct {
	Revenue   float64   `json:"revenue"`
	Expenses  float64   `json:"expenses"`
	NetIncome float64   `json:"net_income"`
	MarginPct float64   `json:"margin_pct"`
	Currency  string    `json:"currency"`
	From      time.Time `json:"from"`
	To        time.Time `json:"to"`
}

// KPIQueryState is the query-state contract handed to callers: the data (or
// nil), a loading flag, an error (or nil) and the completion time of the
// fetch that produced the data. Idle marks a query that never ran because
// no caller identity was available. Queries resolve synchronously, so a
// settled state always reports Loading false; the field exists so the
// serialized contract carries the flag consuming views bind to.
type KPIQueryState struct {
	Data      *FinancialKPIs
	Loading   bool
	Err       error
	FetchedAt time.Time
	Idle      bool
}
