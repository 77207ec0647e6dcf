package handler

import (
	"net/http"

	"insight-hub/internal/domain"
	"insight-hub/internal/usecase"

	"github.com/labstack/echo/v4"
)

// SignOutHandler handles POST /logout.
type SignOutHandler struct {
	uc *usecase.SignOut
}

// NewSignOutHandler creates a new sign-out handler.
func NewSignOutHandler(uc *usecase.SignOut) *SignOutHandler {
	return &SignOutHandler{uc: uc}
}

// signOutResponse is the JSON the client executes: render the notification,
// then follow the redirect when present.
type signOutResponse struct {
	OK           bool                `json:"ok"`
	Notification domain.Notification `json:"notification"`
	Redirect     *domain.Redirect    `json:"redirect,omitempty"`
}

// Handle processes the /logout endpoint. Every settled outcome returns 200
// with the feedback directives; only a concurrent sign-out for the same
// session is rejected outright.
func (h *SignOutHandler) Handle(c echo.Context) error {
	var cookieValue string
	if cookie, err := c.Cookie("ory_kratos_session"); err == nil {
		cookieValue = cookie.Value
	}

	result, err := h.uc.Execute(c.Request().Context(), cookieValue)
	if err != nil {
		return mapDomainError(err)
	}

	if result.Outcome.Status == domain.SignOutOK {
		// Expire the session cookie so the browser stops presenting it.
		c.SetCookie(&http.Cookie{
			Name:     "ory_kratos_session",
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
		})
	}

	return c.JSON(http.StatusOK, signOutResponse{
		OK:           result.Outcome.Status == domain.SignOutOK,
		Notification: result.Notification,
		Redirect:     result.Redirect,
	})
}
