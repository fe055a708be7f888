package httpserver

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/mvolkov/tasktracker/internal/events"
	"github.com/mvolkov/tasktracker/internal/middleware"
	"github.com/mvolkov/tasktracker/internal/models"
	"github.com/mvolkov/tasktracker/internal/repo"
)

type TaskHTTP struct {
	Repo   *repo.Repo
	Events *events.Producer
}

func taskID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid task id")
	}
	return uint(id), nil
}

func (h *TaskHTTP) Create(c echo.Context) error {
	var in repo.TaskInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	ownerID := middleware.CurrentUserID(c)
	task, err := h.Repo.CreateTask(c.Request().Context(), ownerID, in)
	if err != nil {
		return httpError(err)
	}

	publish(c, h.Events, fmt.Sprint(ownerID), map[string]any{
		"type":    "task_created",
		"task_id": task.ID,
		"user_id": ownerID,
	})

	return c.JSON(http.StatusCreated, task)
}

func (h *TaskHTTP) Get(c echo.Context) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}

	task, err := h.Repo.GetTask(c.Request().Context(), id, middleware.CurrentUserID(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, task)
}

func (h *TaskHTTP) List(c echo.Context) error {
	filter := repo.TaskFilter{
		Status:   c.QueryParam("status"),
		Priority: c.QueryParam("priority"),
	}
	if filter.Status != "" && !models.ValidStatus(filter.Status) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid status filter")
	}
	if filter.Priority != "" && !models.ValidPriority(filter.Priority) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid priority filter")
	}

	tasks, err := h.Repo.ListTasks(c.Request().Context(), middleware.CurrentUserID(c), filter)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"count": len(tasks),
		"data":  tasks,
	})
}

func (h *TaskHTTP) Update(c echo.Context) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}

	var patch repo.TaskPatch
	if err := c.Bind(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	task, err := h.Repo.UpdateTask(c.Request().Context(), id, middleware.CurrentUserID(c), patch)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, task)
}

func (h *TaskHTTP) Delete(c echo.Context) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}

	ownerID := middleware.CurrentUserID(c)
	if err := h.Repo.DeleteTask(c.Request().Context(), id, ownerID); err != nil {
		return httpError(err)
	}

	publish(c, h.Events, fmt.Sprint(ownerID), map[string]any{
		"type":    "task_deleted",
		"task_id": id,
		"user_id": ownerID,
	})

	return c.NoContent(http.StatusNoContent)
}

func (h *TaskHTTP) Stats(c echo.Context) error {
	stats, err := h.Repo.TaskStatsForUser(c.Request().Context(), middleware.CurrentUserID(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, stats)
}
