package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"insight-hub/internal/domain"
	"insight-hub/internal/infrastructure/query"

	"github.com/go-playground/validator/v10"
)

const (
	financialKPIsOp = "financial-kpis"
	keyDateLayout   = "2006-01-02"
)

// FinancialKPIQuery serves cached, identity- and range-scoped reads of
// financial KPI figures. Results are keyed by (operation, user, from, to)
// and held for the configured staleness window; concurrent reads with one
// key share a single upstream fetch. Callers with no identity get an idle
// state and never reach the fetcher.
type FinancialKPIQuery struct {
	identity domain.IdentityAccessor
	fetcher  domain.KPIFetcher
	store    *query.Store[*domain.FinancialKPIs]
	validate *validator.Validate
	logger   *slog.Logger
}

// NewFinancialKPIQuery creates a new FinancialKPIQuery usecase. staleTime
// bounds how long a fetched aggregate is served without refetching;
// refetch-on-focus stays disabled.
func NewFinancialKPIQuery(ia domain.IdentityAccessor, f domain.KPIFetcher, staleTime time.Duration, l *slog.Logger) *FinancialKPIQuery {
	return &FinancialKPIQuery{
		identity: ia,
		fetcher:  f,
		store: query.NewStore[*domain.FinancialKPIs](query.Options{
			StaleTime:      staleTime,
			RefetchOnFocus: false,
		}),
		validate: validator.New(),
		logger:   l,
	}
}

// Execute returns the query state for the caller and range. Validation
// failures are returned as errors; fetch failures travel inside the state.
func (uc *FinancialKPIQuery) Execute(ctx context.Context, r domain.DateRange) (domain.KPIQueryState, error) {
	return uc.run(ctx, r, false)
}

// Refetch bypasses the staleness window and loads a fresh aggregate.
func (uc *FinancialKPIQuery) Refetch(ctx context.Context, r domain.DateRange) (domain.KPIQueryState, error) {
	return uc.run(ctx, r, true)
}

// OnFocus forwards the application-focus signal to the query store.
// Returns the number of refetches it triggered.
func (uc *FinancialKPIQuery) OnFocus(ctx context.Context) int {
	return uc.store.OnFocus(ctx)
}

func (uc *FinancialKPIQuery) run(ctx context.Context, r domain.DateRange, force bool) (domain.KPIQueryState, error) {
	if err := uc.validate.Struct(r); err != nil {
		return domain.KPIQueryState{}, fmt.Errorf("%w: %s", domain.ErrInvalidDateRange, rangeViolation(err))
	}

	id, ok := uc.identity.CurrentIdentity(ctx)
	enabled := ok && id != nil && id.UserID != ""

	var key query.Key
	var fetch query.FetchFunc[*domain.FinancialKPIs]
	if enabled {
		key = queryKey(id.UserID, r)
		identity := *id
		fetch = func(ctx context.Context) (*domain.FinancialKPIs, error) {
			return uc.fetcher.FetchFinancialKPIs(ctx, identity, r)
		}
	}

	var res query.Result[*domain.FinancialKPIs]
	if force {
		if !enabled {
			return domain.KPIQueryState{Idle: true}, nil
		}
		res = uc.store.Refetch(ctx, key, fetch)
	} else {
		res = uc.store.Get(ctx, key, enabled, fetch)
	}

	if res.Err != nil {
		uc.logger.WarnContext(ctx, "financial KPI fetch failed", "error", res.Err)
	}

	return domain.KPIQueryState{
		Data:      res.Data,
		Err:       res.Err,
		FetchedAt: res.FetchedAt,
		Idle:      res.Idle,
	}, nil
}

// queryKey derives the deterministic cache key for one user and range.
func queryKey(userID string, r domain.DateRange) query.Key {
	return query.Key{
		Op:       financialKPIsOp,
		Identity: userID,
		From:     r.From.Format(keyDateLayout),
		To:       r.To.Format(keyDateLayout),
	}
}

// rangeViolation condenses a validator error into the failing constraint.
func rangeViolation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "malformed range"
	}
	v := verrs[0]
	switch v.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", v.Field())
	case "gtefield":
		return "to must not be before from"
	default:
		return fmt.Sprintf("%s is invalid", v.Field())
	}
}
