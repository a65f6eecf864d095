package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"timedquiz/internal/app"
	"timedquiz/internal/config"
	"timedquiz/internal/logger"
	"timedquiz/internal/scheduler"
	"timedquiz/internal/service"
	"timedquiz/internal/transport/rest"
	"timedquiz/internal/transport/ws"
)

const janitorInterval = time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.IsProduction())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx := context.Background()

	backends, err := app.Connect(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to connect backends", zap.Error(err))
	}
	defer backends.Close(context.Background())

	tests, err := backends.Catalog(ctx)
	if err != nil {
		log.Fatal("failed to load test catalog", zap.Error(err))
	}
	log.Info("test catalog loaded",
		zap.String("source", cfg.CatalogSource),
		zap.Int("tests", len(tests.All())),
	)

	sched := scheduler.New(log)
	sched.Start()

	// Initialize WebSocket hub
	wsHub := ws.NewHub(log)

	// Initialize services
	testSvc := service.NewTestService(tests, log)
	if err := backends.WireTestService(ctx, testSvc); err != nil {
		log.Fatal("failed to set up result storage", zap.Error(err))
	}

	tracker := service.NewTimeTracker(sched, cfg.TickInterval, log)
	tracker.SetBroadcaster(wsHub)
	backends.WireTimeTracker(tracker)

	if cfg.SessionRetention > 0 {
		err := sched.Every("janitor", janitorInterval, func() {
			testSvc.EvictCompleted(cfg.SessionRetention)
		})
		if err != nil {
			log.Fatal("failed to schedule session janitor", zap.Error(err))
		}
		log.Info("session janitor enabled", zap.Duration("retention", cfg.SessionRetention))
	}

	router := rest.NewRouter(&rest.Container{
		TestService:    testSvc,
		TimeTracker:    tracker,
		WSHub:          wsHub,
		Logger:         log,
		AllowedOrigins: cfg.AllowedOrigins(),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.Env),
			zap.Duration("tickInterval", cfg.TickInterval),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("ListenAndServe failed", zap.Error(err))
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	sched.Stop()
	wsHub.Stop()
	testSvc.Wait()
	tracker.Wait()

	log.Info("server exited")
}
