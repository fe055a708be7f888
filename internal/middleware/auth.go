package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mvolkov/tasktracker/internal/models"
	"github.com/mvolkov/tasktracker/internal/repo"
	"github.com/mvolkov/tasktracker/internal/tokens"
)

type Auth struct {
	Tokens *tokens.Service
	Repo   *repo.Repo
}

func NewAuth(tokens *tokens.Service, repo *repo.Repo) *Auth {
	return &Auth{Tokens: tokens, Repo: repo}
}

func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// RequireAuth validates the bearer token and attaches the verified identity
// to the echo context. All token failures collapse to a single 401 so the
// response does not reveal which check failed. The claimed user must still
// exist: a deleted user's outstanding tokens are dead immediately.
func (m *Auth) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := bearerToken(c)
		if raw == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
		}

		claims, err := m.Tokens.Validate(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}

		if _, err := m.Repo.GetUserByID(c.Request().Context(), claims.UserID); err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}

		c.Set("userID", claims.UserID)
		c.Set("username", claims.Username)
		c.Set("role", claims.Role)

		return next(c)
	}
}

// RequireAdmin gates a route on the admin role. The role comes from the
// verified claims set by RequireAuth, never from request input.
func (m *Auth) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return m.RequireAuth(func(c echo.Context) error {
		if CurrentRole(c) != models.RoleAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}
		return next(c)
	})
}

func CurrentUserID(c echo.Context) uint {
	id, _ := c.Get("userID").(uint)
	return id
}

func CurrentUsername(c echo.Context) string {
	name, _ := c.Get("username").(string)
	return name
}

func CurrentRole(c echo.Context) string {
	role, _ := c.Get("role").(string)
	return role
}
