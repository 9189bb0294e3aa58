package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/zatekoja/waitwise/backend/internal/adapters/cache"
	"github.com/zatekoja/waitwise/backend/internal/adapters/database"
	"github.com/zatekoja/waitwise/backend/internal/adapters/events"
	"github.com/zatekoja/waitwise/backend/internal/adapters/locking"
	"github.com/zatekoja/waitwise/backend/internal/adapters/memory"
	"github.com/zatekoja/waitwise/backend/internal/api/handlers"
	"github.com/zatekoja/waitwise/backend/internal/api/routes"
	"github.com/zatekoja/waitwise/backend/internal/application/services"
	"github.com/zatekoja/waitwise/backend/internal/domain/providers"
	"github.com/zatekoja/waitwise/backend/internal/domain/repositories"
	"github.com/zatekoja/waitwise/backend/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/waitwise/backend/internal/infrastructure/clients/redis"
	"github.com/zatekoja/waitwise/backend/internal/infrastructure/notifications"
	"github.com/zatekoja/waitwise/backend/internal/infrastructure/observability"
	"github.com/zatekoja/waitwise/backend/internal/tracking"
	"github.com/zatekoja/waitwise/backend/pkg/config"
)

// stores groups the repositories and the clients behind them
type stores struct {
	users        repositories.UserRepository
	clinics      repositories.ClinicRepository
	appointments repositories.AppointmentRepository
	checks       map[string]handlers.Pinger
	closers      []func() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Log.Environment, cfg.Log.Level)
	logger := log.Logger

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			logger.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	queueMetrics := observability.NewQueueMetrics(registry)

	// Redis backs the clinic cache, the event bus and the distributed lock
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = redis.NewClient(ctx, &cfg.Redis, logger)
		if err != nil {
			if cfg.Queue.LockMode == config.LockModeRedis {
				logger.Fatal().Err(err).Msg("Redis is required for QUEUE_LOCK_MODE=redis")
			}
			logger.Warn().Err(err).Msg("Redis unavailable, continuing with in-process cache and events")
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	st, err := buildStores(ctx, cfg, redisClient, metrics, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize storage")
	}
	defer func() {
		for _, closeFn := range st.closers {
			if err := closeFn(); err != nil {
				logger.Error().Err(err).Msg("Error closing store")
			}
		}
	}()

	var eventBus providers.EventBus
	if redisClient != nil {
		eventBus = events.NewRedisEventBus(redisClient, logger)
		logger.Info().Msg("Using Redis event bus")
	} else {
		eventBus = events.NewMemoryEventBus()
		logger.Info().Msg("Using in-process event bus")
	}
	defer eventBus.Close()

	locker := buildLocker(cfg, redisClient, logger)

	var emailSender providers.EmailSender = notifications.NewLogEmailSender(logger)
	if cfg.Notifications.SendGridAPIKey != "" {
		sendGrid, err := notifications.NewSendGridEmailSender(notifications.SendGridConfig{
			APIKey:    cfg.Notifications.SendGridAPIKey,
			FromEmail: cfg.Notifications.FromEmail,
			FromName:  cfg.Notifications.FromName,
		}, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("SendGrid disabled, visit summaries will be logged")
		} else {
			emailSender = sendGrid
			logger.Info().Msg("SendGrid email sender initialized")
		}
	}
	notifier := services.NewNotificationService(notifications.NewLogSMSSender(logger), emailSender, queueMetrics, logger)

	userService := services.NewUserService(st.users, logger)
	triageService := services.NewTriageService(st.users, queueMetrics, logger)
	directoryService := services.NewClinicDirectoryService(st.clinics, logger)
	queueService := services.NewQueueService(services.QueueDependencies{
		Appointments: st.appointments,
		Clinics:      st.clinics,
		Users:        st.users,
		Locker:       locker,
		Events:       eventBus,
		Notifier:     notifier,
		Metrics:      queueMetrics,
	}, cfg.Queue.MinutesPerPatient, logger)
	reportService := services.NewReportService(st.appointments, st.users, st.clinics, notifier, logger)

	if cfg.Storage.SeedClinics {
		if _, err := directoryService.SeedDefaults(ctx); err != nil {
			logger.Fatal().Err(err).Msg("Failed to seed default clinics")
		}
	}

	tracker := tracking.New(queueService, tracking.Config{
		Interval:         cfg.Queue.PollInterval,
		GetReadyPosition: cfg.Queue.GetReadyThreshold,
	}, logger)

	router := routes.NewRouter(
		handlers.NewUserHandler(userService),
		handlers.NewClinicHandler(directoryService, queueService),
		handlers.NewTriageHandler(triageService),
		handlers.NewAppointmentHandler(queueService),
		handlers.NewReportHandler(reportService),
		handlers.NewSSEHandler(queueService, tracker, eventBus),
		handlers.NewHealthHandler(st.checks),
		promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		metrics,
		cfg.Server.AllowedOrigins,
	)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:        serverAddr,
		Handler:     router.SetupRoutes(),
		ReadTimeout: 15 * time.Second,
		// SSE streams stay open, so no write timeout
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info().
			Str("addr", serverAddr).
			Str("storage", cfg.Storage.Driver).
			Str("lock_mode", cfg.Queue.LockMode).
			Msg("WaitWise API listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Server shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Error during server shutdown")
	}

	logger.Info().Msg("Server stopped")
}

// buildStores selects PostgreSQL or in-memory repositories. With PostgreSQL
// the clinic repository is fronted by Redis when available and by an
// in-process cache otherwise.
func buildStores(ctx context.Context, cfg *config.Config, redisClient *redis.Client, metrics *observability.Metrics, logger zerolog.Logger) (*stores, error) {
	if cfg.Storage.Driver == config.StorageDriverMemory {
		logger.Warn().Msg("Using in-memory storage, data is lost on restart")
		clinics := memory.NewClinicRepository()
		return &stores{
			users:        memory.NewUserRepository(),
			clinics:      clinics,
			appointments: memory.NewAppointmentRepository(clinics),
			checks:       map[string]handlers.Pinger{},
		}, nil
	}

	pgClient, err := postgres.NewClient(ctx, &cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL client: %w", err)
	}

	var clinicCache providers.CacheProvider
	checks := map[string]handlers.Pinger{"postgres": pgClient}
	if redisClient != nil {
		clinicCache = cache.NewRedisAdapter(redisClient, "waitwise:")
		checks["redis"] = redisClient
	} else {
		clinicCache = cache.NewMemoryAdapter()
	}

	return &stores{
		users: database.NewUserAdapter(pgClient),
		clinics: database.NewCachedClinicAdapter(
			database.NewClinicAdapter(pgClient),
			clinicCache,
			cfg.Queue.ClinicCacheTTLSecond,
			metrics,
			logger,
		),
		appointments: database.NewAppointmentAdapter(pgClient, clinicCache, logger),
		checks:       checks,
		closers:      []func() error{pgClient.Close},
	}, nil
}

func buildLocker(cfg *config.Config, redisClient *redis.Client, logger zerolog.Logger) providers.ClinicLocker {
	switch cfg.Queue.LockMode {
	case config.LockModeRedis:
		logger.Info().Dur("ttl", cfg.Queue.LockTTL).Msg("Using Redis clinic locks")
		return locking.NewRedisLocker(redisClient, cfg.Queue.LockTTL, logger)
	case config.LockModeNone:
		logger.Warn().Msg("Queue locking disabled, concurrent bookings may collide")
		return locking.NoopLocker{}
	default:
		return locking.NewMemoryLocker()
	}
}
