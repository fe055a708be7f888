package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mvolkov/tasktracker/internal/middleware"
)

type Deps struct {
	Auth  *AuthHTTP
	Tasks *TaskHTTP
	Admin *AdminHTTP
	Guard *middleware.Auth
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	e.POST("/register", d.Auth.Register)
	e.POST("/login", d.Auth.Login)

	private := e.Group("")
	private.Use(d.Guard.RequireAuth)

	private.GET("/me", d.Auth.Me)

	private.GET("/tasks", d.Tasks.List)
	private.POST("/tasks", d.Tasks.Create)
	private.GET("/tasks/stats", d.Tasks.Stats)
	private.GET("/tasks/:id", d.Tasks.Get)
	private.PATCH("/tasks/:id", d.Tasks.Update)
	private.DELETE("/tasks/:id", d.Tasks.Delete)

	admin := e.Group("/admin")
	admin.Use(d.Guard.RequireAdmin)

	admin.GET("/users", d.Admin.ListUsers)
	admin.DELETE("/users/:id", d.Admin.DeleteUser)
	admin.GET("/users/:id/stats", d.Admin.UserStats)
	admin.GET("/stats", d.Admin.Stats)
}
