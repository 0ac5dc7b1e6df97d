package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"brightnest/internal/api"
	"brightnest/internal/calendar"
	"brightnest/internal/catalog"
	"brightnest/internal/config"
	"brightnest/internal/database"
	"brightnest/internal/domain"
	"brightnest/internal/logging"
	"brightnest/internal/metrics"
	"brightnest/internal/notify"
	"brightnest/internal/payments"
	"brightnest/internal/reconciler"
	"brightnest/internal/repository"
	"brightnest/internal/service"
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
		defer (func() { _ = closer.Close() })()
	}

	cat, err := loadCatalog(cfg, &logger)
	if err != nil {
		return err
	}

	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	gateway := payments.NewStripeGateway(cfg.Stripe, cfg.Server.BaseURL, cat, logger)
	mirror := initCalendar(cfg, cat, &logger)
	notifier := initNotifiers(cfg, &logger)

	redisClient := initRedis(cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}
	sessions := initSessions(redisClient, &logger)

	checkout := service.NewCheckoutService(db, gateway, cat, &logger)
	rec := reconciler.New(db, gateway, mirror, notifier, cat, &logger)

	server := api.NewServer(*cfg, checkout, rec, db, gateway, sessions, notifier, cat, &logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startMetrics(ctx, cfg, &logger)

	go func() {
		if err := server.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	logger.Info().Int("port", cfg.Server.Port).Msg("server started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown error")
	}

	logger.Info().Msg("server stopped")
	return nil
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

func loadCatalog(cfg *config.Config, logger *zerolog.Logger) (*catalog.Catalog, error) {
	if cfg.Catalog.Path == "" {
		logger.Info().Msg("no catalog file configured, using built-in pricing")
		return catalog.Default(), nil
	}

	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		logger.Error().Err(err).Str("catalog_path", cfg.Catalog.Path).Msg("load catalog")
		return nil, err
	}
	return cat, nil
}

func initCalendar(cfg *config.Config, cat *catalog.Catalog, logger *zerolog.Logger) domain.CalendarMirror {
	if cfg.Google.CredentialsFile == "" || cfg.Google.CalendarID == "" {
		logger.Info().Msg("google calendar not configured, bookings will not be mirrored")
		return nil
	}

	mirror, err := calendar.NewService(cfg.Google.CredentialsFile, cfg.Google.CalendarID, cfg.Google.Timezone, cat, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("google calendar init failed, continuing without calendar")
		return nil
	}

	logger.Info().Str("calendar_id", cfg.Google.CalendarID).Msg("google calendar connected")
	return mirror
}

func initNotifiers(cfg *config.Config, logger *zerolog.Logger) domain.Notifier {
	notifiers := []domain.Notifier{notify.NewEmailNotifier(cfg.SMTP, logger)}

	if cfg.Telegram.Enabled {
		tg, err := notify.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ManagerChatID, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("telegram init failed, continuing without telegram")
		} else {
			notifiers = append(notifiers, tg)
		}
	}

	return notify.NewMulti(notifiers...)
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	client := repository.NewRedisClient(cfg.Redis)
	if _, err := client.Ping(context.Background()).Result(); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		_ = client.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return client
}

func initSessions(client *redis.Client, logger *zerolog.Logger) domain.SessionRepository {
	memory := repository.NewMemorySessionRepository()
	if client == nil {
		return memory
	}
	return repository.NewFailoverSessionRepository(repository.NewRedisSessionRepository(client), memory, logger)
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
