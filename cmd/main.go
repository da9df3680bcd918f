package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"malti-dashboard/internal/auth"
	"malti-dashboard/internal/config"
	"malti-dashboard/internal/controller"
	httpserver "malti-dashboard/internal/http"
	"malti-dashboard/internal/instrumentation"
	"malti-dashboard/internal/logger"
	"malti-dashboard/internal/repository"
	"malti-dashboard/internal/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	level, err := logger.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		log.Fatalf("parse log level: %v", err)
	}
	zlog, err := logger.New(logger.WithLevel(level))
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	thresholds, err := cfg.Thresholds()
	if err != nil {
		zlog.Fatal("load thresholds", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := instrumentation.New(registry)

	session := auth.NewSession(auth.Config{
		BaseURL:    cfg.APIBaseURL,
		Client:     &http.Client{Timeout: cfg.APITimeout},
		Store:      auth.NewFileKeyStore(cfg.APIKeyFile),
		Thresholds: thresholds,
		Logger:     zlog.Named("session"),
		Metrics:    metrics,
	})
	if err := session.Restore(ctx); err != nil {
		zlog.Warn("could not restore cached API key", zap.Error(err))
	}

	repo := repository.NewMetricsRepository(cfg.APIBaseURL, session, zlog.Named("repository"))
	dashboardService := service.NewDashboardService(repo, session, metrics, zlog.Named("dashboard"))
	dashboardController := controller.NewDashboardController(dashboardService)
	sessionController := controller.NewSessionController(session)

	server := httpserver.NewServer(cfg, dashboardController, sessionController, registry, zlog.Named("http"))

	go func() {
		<-ctx.Done()
		zlog.Info("shutting down")
		if err := server.Shutdown(shutdownTimeout); err != nil {
			zlog.Error("shutdown", zap.Error(err))
		}
	}()

	zlog.Info("starting server",
		zap.String("addr", cfg.HTTPPort),
		zap.String("mode", cfg.AppMode),
		zap.String("api", cfg.APIBaseURL),
	)
	if err := server.Listen(cfg.HTTPPort); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}
