package middleware

import (
	"context"

	"insight-hub/internal/domain"
	"insight-hub/internal/usecase"

	"github.com/labstack/echo/v4"
)

type identityKey struct{}

// WithIdentity returns a context carrying the validated identity.
func WithIdentity(ctx context.Context, id *domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity stored by SessionAuth, if any.
func IdentityFromContext(ctx context.Context) (*domain.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(*domain.Identity)
	return id, ok && id != nil
}

// ContextIdentityAccessor reads the caller identity from the request
// context. Implements domain.IdentityAccessor.
type ContextIdentityAccessor struct{}

// CurrentIdentity returns the identity stored by SessionAuth, if any.
func (ContextIdentityAccessor) CurrentIdentity(ctx context.Context) (*domain.Identity, bool) {
	return IdentityFromContext(ctx)
}

// SessionAuth validates the session cookie and stores the resulting
// identity in the request context. Validation failures do not abort the
// request: the caller simply stays anonymous and handlers decide what an
// anonymous caller gets.
func SessionAuth(uc *usecase.ValidateSession) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie("ory_kratos_session")
			if err != nil || cookie.Value == "" {
				return next(c)
			}

			identity, err := uc.Execute(c.Request().Context(), cookie.Value)
			if err != nil {
				return next(c)
			}

			req := c.Request()
			c.SetRequest(req.WithContext(WithIdentity(req.Context(), identity)))
			return next(c)
		}
	}
}
