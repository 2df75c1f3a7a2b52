package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"moralsim/internal/api"
	"moralsim/internal/config"
	"moralsim/internal/container"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appContainer, err := container.New(appConfig)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	if err := appContainer.Init(ctx); err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer appContainer.Shutdown(context.Background())

	logger := appContainer.Logger

	// Warm the dataset; the engine still runs if it is missing
	if ds, err := appContainer.Dataset.Load(ctx); err != nil {
		logger.Warn("[Main] dataset unavailable, similarity matching disabled until reload: %v", err)
	} else {
		logger.Info("[Main] %d historical responses available", ds.Len())
	}

	go appContainer.Sessions.Run(ctx, 0)

	apiServer := &http.Server{
		Addr:              ":" + appConfig.Server.Port,
		Handler:           appContainer.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	opsServer := &http.Server{
		Addr: ":" + appConfig.Profiling.Port,
		Handler: api.NewOpsRouter(
			api.OpsConfig{Profiling: appConfig.Profiling.Enabled, Usage: appContainer.Usage},
			appContainer.Sessions, appContainer.Dataset, appContainer.SSEHub,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("[Main] ops listener on :%s (pprof=%v)", appConfig.Profiling.Port, appConfig.Profiling.Enabled)
		if err := opsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("[Main] ops listener failed: %v", err)
		}
	}()

	go func() {
		logger.Info("[Main] API listening on :%s with %d scenarios per session", appConfig.Server.Port, appConfig.Engine.TotalScenarios)
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("[Main] API server failed: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("[Main] shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// close event streams first so Shutdown is not held open by them
	appContainer.SSEHub.Close()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("[Main] API shutdown: %v", err)
	}
	if err := opsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("[Main] ops shutdown: %v", err)
	}
}
