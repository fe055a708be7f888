package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mvolkov/tasktracker/internal/events"
	"github.com/mvolkov/tasktracker/internal/logging"
	"github.com/mvolkov/tasktracker/internal/middleware"
	"github.com/mvolkov/tasktracker/internal/service"
)

type AuthHTTP struct {
	Svc    *service.AuthService
	Events *events.Producer
}

type credentials struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req credentials
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.Register(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		return httpError(err)
	}

	publish(c, h.Events, req.Username, map[string]any{
		"type":     "user_registered",
		"user_id":  res.User.ID,
		"username": res.User.Username,
	})

	return c.JSON(http.StatusCreated, echo.Map{
		"token":      res.Token,
		"expires_at": res.ExpiresAt,
		"user":       res.User,
	})
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req credentials
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.Login(ctx, req.Username, req.Password)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"token":      res.Token,
		"expires_at": res.ExpiresAt,
		"user":       res.User,
	})
}

func (h *AuthHTTP) Me(c echo.Context) error {
	user, err := h.Svc.Repo.GetUserByID(c.Request().Context(), middleware.CurrentUserID(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, user)
}
