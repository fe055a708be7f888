package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mvolkov/tasktracker/internal/events"
	"github.com/mvolkov/tasktracker/internal/middleware"
	"github.com/mvolkov/tasktracker/internal/models"
	"github.com/mvolkov/tasktracker/internal/repo"
	"github.com/mvolkov/tasktracker/internal/service"
	"github.com/mvolkov/tasktracker/internal/tokens"
)

type testEnv struct {
	T    *testing.T
	E    *echo.Echo
	Repo *repo.Repo
}

func newTestEnv(t *testing.T) *testEnv {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Task{}); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}

	store := repo.New(db)
	tokenSvc := tokens.NewService([]byte("test-secret"), time.Hour)
	producer := events.NewProducer(nil, "")

	e := echo.New()
	Register(e, &Deps{
		Auth: &AuthHTTP{
			Svc:    &service.AuthService{Repo: store, Tokens: tokenSvc},
			Events: producer,
		},
		Tasks: &TaskHTTP{Repo: store, Events: producer},
		Admin: &AdminHTTP{Repo: store, Events: producer},
		Guard: middleware.NewAuth(tokenSvc, store),
	})

	return &testEnv{T: t, E: e, Repo: store}
}

func (env *testEnv) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	env.T.Helper()

	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(env.T, err)
		rd = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, rd)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

// register creates an account over HTTP and returns its bearer token.
func (env *testEnv) register(username string) string {
	env.T.Helper()

	rec := env.do(http.MethodPost, "/register", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "password",
	}, "")
	require.Equal(env.T, http.StatusCreated, rec.Code)

	body := decode(env.T, rec)
	token, _ := body["token"].(string)
	require.NotEmpty(env.T, token)
	return token
}

// loginAdmin seeds an admin (when absent) and logs it in.
func (env *testEnv) loginAdmin() string {
	env.T.Helper()

	require.NoError(env.T, env.Repo.EnsureAdmin(context.Background(), "root", "root@example.com", "rootpass"))

	rec := env.do(http.MethodPost, "/login", map[string]string{
		"username": "root",
		"password": "rootpass",
	}, "")
	require.Equal(env.T, http.StatusOK, rec.Code)

	body := decode(env.T, rec)
	token, _ := body["token"].(string)
	require.NotEmpty(env.T, token)
	return token
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	require.Equal(t, http.StatusOK, env.do(http.MethodGet, "/health/live", nil, "").Code)
	require.Equal(t, http.StatusOK, env.do(http.MethodGet, "/health/ready", nil, "").Code)
}
