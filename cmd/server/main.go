package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/mvolkov/tasktracker/internal/config"
	"github.com/mvolkov/tasktracker/internal/events"
	"github.com/mvolkov/tasktracker/internal/httpserver"
	"github.com/mvolkov/tasktracker/internal/logging"
	"github.com/mvolkov/tasktracker/internal/middleware"
	"github.com/mvolkov/tasktracker/internal/repo"
	"github.com/mvolkov/tasktracker/internal/service"
	"github.com/mvolkov/tasktracker/internal/tokens"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.CORS())
	e.Use(middleware.RequestLogger(logger))

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := config.InitDB(initCtx, cfg)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	store := repo.New(db)

	if cfg.AdminUsername != "" {
		if err := store.EnsureAdmin(context.Background(), cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			log.Fatalf("admin seed error: %v", err)
		}
	}

	tokenSvc := tokens.NewService(cfg.JWTSecret, cfg.TokenTTL)
	producer := events.NewProducer(cfg.KafkaBrokers, cfg.EventsTopic)
	defer producer.Close()

	httpserver.Register(e, &httpserver.Deps{
		Auth: &httpserver.AuthHTTP{
			Svc:    &service.AuthService{Repo: store, Tokens: tokenSvc},
			Events: producer,
		},
		Tasks: &httpserver.TaskHTTP{Repo: store, Events: producer},
		Admin: &httpserver.AdminHTTP{Repo: store, Events: producer},
		Guard: middleware.NewAuth(tokenSvc, store),
	})

	go func() {
		if err := e.Start(cfg.ServerAddr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("echo start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("echo shutdown: %v", err)
	}
}
