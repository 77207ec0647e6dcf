package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HTTPErrorHandler is installed as the echo error handler so middleware can
// return domain sentinel errors directly and still get a mapped response.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		httpErr = mapDomainError(err)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(httpErr.Code)
		return
	}
	_ = c.JSON(httpErr.Code, map[string]any{"message": httpErr.Message})
}
