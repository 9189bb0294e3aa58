package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/waitwise/backend/internal/adapters/events"
	"github.com/zatekoja/waitwise/backend/internal/api/handlers"
	"github.com/zatekoja/waitwise/backend/internal/api/middleware"
	"github.com/zatekoja/waitwise/backend/internal/domain/providers"
	"github.com/zatekoja/waitwise/backend/internal/infrastructure/clients/redis"
	"github.com/zatekoja/waitwise/backend/internal/infrastructure/observability"
	"github.com/zatekoja/waitwise/backend/internal/tracking"
	"github.com/zatekoja/waitwise/backend/pkg/client"
	"github.com/zatekoja/waitwise/backend/pkg/config"
)

// The stream server serves appointment tracking apart from the API. It
// reads appointments over HTTP and, with Redis enabled, wakes streams on
// queue events published by the API.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	observability.InitLogger("waitwise-sse", cfg.Log.Environment, cfg.Log.Level)
	logger := log.Logger

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics, err := observability.InitMetrics()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	checks := map[string]handlers.Pinger{}
	var eventBus providers.EventBus
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(ctx, &cfg.Redis, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("Redis unavailable, streams fall back to polling")
		} else {
			defer redisClient.Close()
			eventBus = events.NewRedisEventBus(redisClient, logger)
			defer eventBus.Close()
			checks["redis"] = redisClient
		}
	}

	source := &upstream{api: client.NewClient(cfg.Stream.APIURL)}
	tracker := tracking.New(source, tracking.Config{
		Interval:         cfg.Queue.PollInterval,
		GetReadyPosition: cfg.Queue.GetReadyThreshold,
	}, logger)
	sseHandler := handlers.NewSSEHandler(source, tracker, eventBus)
	healthHandler := handlers.NewHealthHandler(checks)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.HandleFunc("GET /api/stream/appointments/{id}", sseHandler.StreamAppointment)

	var handler http.Handler = mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(metrics)(handler)
	handler = middleware.CORSMiddleware(cfg.Server.AllowedOrigins)(handler)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Stream.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", serverAddr).Str("api", cfg.Stream.APIURL).Msg("Stream server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Stream server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Stream server shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Error during server shutdown")
	}

	logger.Info().Msg("Stream server stopped")
}
