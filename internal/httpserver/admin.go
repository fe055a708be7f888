package httpserver

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/mvolkov/tasktracker/internal/events"
	"github.com/mvolkov/tasktracker/internal/logging"
	"github.com/mvolkov/tasktracker/internal/middleware"
	"github.com/mvolkov/tasktracker/internal/repo"
)

type AdminHTTP struct {
	Repo   *repo.Repo
	Events *events.Producer
}

func (h *AdminHTTP) ListUsers(c echo.Context) error {
	users, err := h.Repo.ListUsers(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"count": len(users),
		"data":  users,
	})
}

func (h *AdminHTTP) DeleteUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin_delete_user")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}

	adminID := middleware.CurrentUserID(c)
	if err := h.Repo.DeleteUser(ctx, uint(id), adminID); err != nil {
		return httpError(err)
	}

	l.Info("user_deleted", "user_id", id, "deleted_by", adminID)
	publish(c, h.Events, fmt.Sprint(id), map[string]any{
		"type":       "user_deleted",
		"user_id":    id,
		"deleted_by": adminID,
	})

	return c.NoContent(http.StatusNoContent)
}

// UserStats reports one user's record plus their task aggregation; an
// unknown user is a 404.
func (h *AdminHTTP) UserStats(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}

	user, err := h.Repo.GetUserByID(ctx, uint(id))
	if err != nil {
		return httpError(err)
	}

	stats, err := h.Repo.TaskStatsForUser(ctx, user.ID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"user":  user,
		"tasks": stats,
	})
}

func (h *AdminHTTP) Stats(c echo.Context) error {
	ctx := c.Request().Context()

	tasks, err := h.Repo.GlobalTaskStats(ctx)
	if err != nil {
		return httpError(err)
	}
	users, err := h.Repo.CountUsers(ctx)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"users": users,
		"tasks": tasks,
	})
}
