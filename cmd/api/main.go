package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // timezone database for minimal images

	"naalli/internal/api"
	"naalli/internal/assistant"
	"naalli/internal/config"
	"naalli/internal/database"
	"naalli/internal/domain"
	"naalli/internal/events"
	"naalli/internal/google"
	"naalli/internal/logging"
	"naalli/internal/mail"
	"naalli/internal/metrics"
	"naalli/internal/repository"
	"naalli/internal/service"
	"naalli/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}

	loc := cfg.App.Location()

	db, err := database.NewDB(cfg.Database, logging.Component(&logger, "database"))
	if err != nil {
		logger.Error().Err(err).Str("driver", cfg.Database.Driver).Msg("init database")
		return err
	}
	defer db.Close()
	db.SetLocation(loc)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient := initRedis(ctx, cfg, &logger)
	if redisClient != nil {
		defer func() { _ = repository.Close(redisClient) }()
	}
	sessions := initSessions(redisClient, &logger)

	bus := events.NewEventBus()
	metrics.Register()

	auth := service.NewAuthService(db, sessions, initMailer(cfg, &logger), bus, cfg.Auth, cfg.App, logging.Component(&logger, "auth"))
	if err := auth.EnsureDefaultAdmin(ctx); err != nil {
		return fmt.Errorf("create default admin: %w", err)
	}

	analyticsSvc := service.NewAnalyticsService(db, db, loc, logging.Component(&logger, "analytics"))
	services := api.Services{
		Auth:      auth,
		Bookings:  service.NewBookingService(db, bus, loc, logging.Component(&logger, "bookings")),
		Reviews:   service.NewReviewService(db, db, bus, loc, logging.Component(&logger, "reviews")),
		Analytics: analyticsSvc,
		Assistant: service.NewAssistantService(initAssistant(ctx, cfg, &logger), analyticsSvc, logging.Component(&logger, "assistant")),
		Ready:     db.PingContext,
	}

	if sheetsWorker := initSheetsWorker(ctx, cfg, db, bus, &logger); sheetsWorker != nil {
		services.Sheets = sheetsWorker
		go sheetsWorker.Start(ctx)
	}

	if len(cfg.Kafka.Brokers) > 0 {
		forwarder := events.NewKafkaForwarder(cfg.Kafka.Brokers, cfg.Kafka.Topic, logging.Component(&logger, "kafka"))
		forwarder.Attach(bus)
		go forwarder.Run(ctx)
		logger.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("kafka forwarding enabled")
	}

	backup := database.NewBackupService(db, cfg.Database.Path, cfg.Backup, logging.Component(&logger, "backup"))
	go backup.Start(ctx)

	startMetrics(ctx, cfg, &logger)

	httpServer := api.NewHTTPServer(cfg.HTTP, services, loc, logging.Component(&logger, "http"))
	return serve(ctx, httpServer, cfg, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

func initRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	client := repository.NewRedisClient(cfg.Redis)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := repository.Ping(pingCtx, client); err != nil {
		// the failover store keeps probing, so the client is kept
		logger.Warn().Err(err).Msg("redis unreachable at startup, sessions fall back to memory")
		return client
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return client
}

func initSessions(client *redis.Client, logger *zerolog.Logger) domain.SessionStore {
	memory := repository.NewMemorySessionStore()
	if client == nil {
		logger.Info().Msg("redis not configured, sessions kept in memory")
		return memory
	}
	return repository.NewFailoverSessionStore(repository.NewRedisSessionStore(client), memory, logging.Component(logger, "sessions"))
}

func initMailer(cfg *config.Config, logger *zerolog.Logger) domain.Mailer {
	mailer, err := mail.NewSMTPMailer(cfg.Mail)
	if err != nil {
		if cfg.App.IsProduction() {
			logger.Warn().Err(err).Msg("smtp not configured, password recovery disabled")
		} else {
			logger.Warn().Err(err).Msg("smtp not configured, password recovery runs in debug mode")
		}
		return nil
	}
	return mailer
}

func initAssistant(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) domain.Generator {
	client, err := assistant.NewClient(ctx, cfg.Assistant)
	if err != nil {
		logger.Warn().Err(err).Msg("assistant disabled")
		return nil
	}
	logger.Info().Str("model", cfg.Assistant.Model).Msg("assistant enabled")
	return client
}

func initSheetsWorker(ctx context.Context, cfg *config.Config, db *database.DB, bus *events.EventBus, logger *zerolog.Logger) *worker.SheetsWorker {
	if !cfg.Google.Enabled() {
		return nil
	}

	sheetsService, err := google.NewSheetsService(ctx, cfg.Google.CredentialsFile, cfg.Google.SpreadsheetID)
	if err != nil {
		logger.Warn().Err(err).Msg("google sheets init failed, continuing without sheets")
		return nil
	}
	if err := sheetsService.TestConnection(ctx); err != nil {
		email, _ := google.ServiceAccountEmail(cfg.Google.CredentialsFile)
		logger.Warn().Err(err).Str("share_with", email).Msg("google sheets not reachable, continuing without sheets")
		return nil
	}

	sheetsWorker := worker.NewSheetsWorker(db, sheetsService, worker.DefaultRetryPolicy(), cfg.Google.SyncDebounce, logging.Component(logger, "sheets"))
	sheetsWorker.Attach(bus)
	logger.Info().Msg("google sheets connected")
	return sheetsWorker
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}
	go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
}

func serve(ctx context.Context, httpServer *api.HTTPServer, cfg *config.Config, logger *zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start()
	}()

	logger.Info().Int("http_port", cfg.HTTP.Port).Str("env", cfg.App.Environment).Msg("API server started")

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
