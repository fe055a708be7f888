package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mvolkov/tasktracker/internal/events"
	"github.com/mvolkov/tasktracker/internal/logging"
	"github.com/mvolkov/tasktracker/internal/repo"
)

// httpError translates core sentinel errors into transport status codes.
// Token failures never reach here; the auth middleware collapses them to 401.
func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, repo.ErrValidation),
		errors.Is(err, repo.ErrDuplicateUsername),
		errors.Is(err, repo.ErrDuplicateEmail):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, repo.ErrInvalidCredentials):
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid username or password")
	case errors.Is(err, repo.ErrSelfDelete), errors.Is(err, repo.ErrLastAdmin):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, repo.ErrUserNotFound), errors.Is(err, repo.ErrTaskNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}

func publish(c echo.Context, p *events.Producer, key string, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := p.Publish(ctx, key, event); err != nil {
		logging.FromContext(c.Request().Context()).Error("event_publish_failed", "error", err)
	}
}
