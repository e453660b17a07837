// File: locumly/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"locumly/config"
	"locumly/cron"
	"locumly/database"
	markerRepoPkg "locumly/database/repository/marker"
	snapshotRepoPkg "locumly/database/repository/snapshot"
	"locumly/handlers"
	"locumly/middleware"
	"locumly/routes"
	"locumly/services/markers"
	"locumly/services/shifts"
	"locumly/upstream"
	"locumly/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	config.LoadConfig()
	utils.InitializeLogger()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitAuthCache()
	utils.InitMarkerCache()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	// repositories.
	markerRepo := markerRepoPkg.NewMongoMarkerRepo()
	snapshotRepo := snapshotRepoPkg.NewMongoSnapshotRepo()

	// Marketplace client. Requests authenticate with the caller's own
	// bearer, forwarded by the auth middleware.
	timeout := time.Duration(config.AppConfig.UpstreamTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	upstreamClient := upstream.NewHTTPClient(config.AppConfig.UpstreamBaseURL, nil, timeout)

	// services.
	markerService := &markers.DefaultMarkerService{
		Upstream: upstreamClient,
		Cache:    markers.NewRedisStore(utils.GetMarkerCacheClient()),
		Repo:     markerRepo,
	}
	sweepClient := cron.NewSweepClient()
	shiftService := shifts.NewDefaultShiftService(upstreamClient, markerService, snapshotRepo, sweepClient)
	cron.InitMarkerSweepWorker(markerService, snapshotRepo)

	posterHandler := handlers.NewPosterHandler(shiftService)
	workerHandler := handlers.NewWorkerHandler(upstreamClient, markerService, snapshotRepo, sweepClient)

	// Assemble the handler bundle.
	handlerBundle := &handlers.HandlerBundle{
		// Poster endpoints.
		ListPosterShiftsHandler: posterHandler.ListShiftsHandler,
		EscalateShiftHandler:    posterHandler.EscalateHandler,
		SelectLevelHandler:      posterHandler.SelectLevelHandler,
		GetCandidatesHandler:    posterHandler.CandidatesHandler,
		GetOffersHandler:        posterHandler.OffersHandler,
		RevealInterestHandler:   posterHandler.RevealHandler,
		AcceptHandler:           posterHandler.AcceptHandler,
		RejectOfferHandler:      posterHandler.RejectOfferHandler,
		DeleteShiftHandler:      posterHandler.DeleteHandler,
		ShareShiftHandler:       posterHandler.ShareHandler,

		// Worker endpoints.
		ListWorkerShiftsHandler: workerHandler.ListShiftsHandler,
		ApplyToShiftHandler:     workerHandler.ApplyHandler,
		DeclineShiftHandler:     workerHandler.DeclineHandler,
		SaveShiftHandler:        workerHandler.SaveHandler,
		UnsaveShiftHandler:      workerHandler.UnsaveHandler,
		GetMarkersHandler:       workerHandler.MarkersHandler,
	}

	// Register routes with the assembled handler bundle.
	routes.RegisterRoutes(router, handlerBundle)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
