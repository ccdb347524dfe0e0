package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/swelljoe/citywx/internal/config"
	"github.com/swelljoe/citywx/internal/handlers"
	"github.com/swelljoe/citywx/internal/metrics"
	"github.com/swelljoe/citywx/internal/weather"
	"github.com/swelljoe/citywx/internal/widget"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{}))
	slog.SetDefault(logger)

	cfg := config.Load()

	client := weather.NewClient(cfg.GeocodeURL, cfg.ForecastURL, cfg.UserAgent, cfg.RequestTimeout)
	client.Observe = metrics.ObserveUpstream
	service := weather.NewService(client, cfg.SuggestLimit)

	sessions := widget.NewRegistry(service, metrics.Sessions{}, cfg.SessionIdleTTL)
	sessions.OnChange = metrics.SetSessions

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go sessions.Run(ctx, time.Minute)

	h := handlers.New(service, sessions, widget.NewMapConfig(cfg))

	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      newRouter(cfg, h, "static"),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15*time.Second + 2*cfg.RequestTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", "http://localhost"+httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	slog.Info("shutting down")
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}

func newRouter(cfg config.Config, h *handlers.Handlers, staticDir string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "HX-Request", "HX-Trigger", "HX-Target", "HX-Current-URL"},
		MaxAge:         300,
	}))

	fs := http.FileServer(http.Dir(staticDir))
	r.Handle("/static/*", http.StripPrefix("/static/", fs))
	r.Handle("/metrics", metrics.Handler())

	h.RegisterRoutes(r)
	return r
}
