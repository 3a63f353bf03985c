// Smart Sleep API
//
// Live sleep tracking with stage estimation, a smart alarm and sleep analytics.
//
//	@title			Smart Sleep API
//	@version		1.0
//	@description	Track nights from movement and sound readings, wake up in light sleep, and review sleep history.
//
//	@BasePath	/v1
//
//	@tag.name			users
//	@tag.description	User management endpoints
//
//	@tag.name			sessions
//	@tag.description	Live tracking and session history endpoints
//
//	@tag.name			sleep-insights
//	@tag.description	Chronotype, trends and LLM insights
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blaisecz/smart-sleep/internal/api"
	"github.com/blaisecz/smart-sleep/internal/api/handler"
	"github.com/blaisecz/smart-sleep/internal/broker"
	"github.com/blaisecz/smart-sleep/internal/config"
	"github.com/blaisecz/smart-sleep/internal/llm"
	"github.com/blaisecz/smart-sleep/internal/logger"
	"github.com/blaisecz/smart-sleep/internal/mirror"
	"github.com/blaisecz/smart-sleep/internal/notify"
	"github.com/blaisecz/smart-sleep/internal/repository"
	"github.com/blaisecz/smart-sleep/internal/seed"
	"github.com/blaisecz/smart-sleep/internal/sensor"
	"github.com/blaisecz/smart-sleep/internal/service"
	"github.com/blaisecz/smart-sleep/internal/statebus"
	"github.com/blaisecz/smart-sleep/internal/telemetry"
	"github.com/blaisecz/smart-sleep/internal/tracking"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat, cfg.OTELService)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	shutdownTracer, err := telemetry.InitTracer(ctx, cfg, log.Named("otel"))
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(shutdownCtx); err != nil {
			log.Warn("tracer shutdown failed", zap.Error(err))
		}
	}()

	db, err := config.NewDatabase(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	if err := config.Migrate(db); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	log.Info("database migration completed")

	if cfg.Seed {
		log.Info("seeding database with sample data")
		if err := seed.Run(ctx, db, log); err != nil {
			return fmt.Errorf("seed database: %w", err)
		}
	}

	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)

	deps := tracking.Deps{Store: sessionRepo, Logger: log.Named("tracking")}

	var mqttClient *broker.Client
	if cfg.MQTT.URL != "" {
		mqttClient, err = broker.Connect(broker.Config{
			URL:      cfg.MQTT.URL,
			ClientID: cfg.MQTT.ClientID,
			Username: cfg.MQTT.Username,
			Password: cfg.MQTT.Password,
			Timeout:  cfg.MQTT.Timeout,
		}, log.Named("mqtt"))
		if err != nil {
			return err
		}
		defer mqttClient.Close()
		deps.Notifier = notify.NewMQTTNotifier(mqttClient, cfg.MQTT.TopicPrefix, log.Named("alarm"))
	} else {
		log.Warn("MQTT not configured, alarms are only logged and sensor readings accepted over HTTP only")
		deps.Notifier = notify.NewLogNotifier(log.Named("alarm"))
	}

	var snapshots service.SnapshotReader
	if cfg.Redis.URL != "" {
		rdb, err := statebus.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			return err
		}
		defer rdb.Close()
		bus := statebus.NewRedisBus(rdb, cfg.Redis.SnapshotTTL)
		deps.Publisher = bus
		snapshots = bus
	}

	var healthSink, cloudSink mirror.Sink
	if cfg.ClickHouse.Addr != "" {
		hs, err := mirror.OpenHealthStore(ctx, mirror.HealthConfig{
			Addr:     cfg.ClickHouse.Addr,
			Database: cfg.ClickHouse.Database,
			Username: cfg.ClickHouse.Username,
			Password: cfg.ClickHouse.Password,
		}, log.Named("health"))
		if err != nil {
			return err
		}
		defer hs.Close()
		healthSink = hs
	}
	if cfg.Cloud.BaseURL != "" {
		cloudSink = mirror.NewCloudSink(cfg.Cloud.BaseURL, cfg.Cloud.Token, cfg.Cloud.Timeout, log.Named("cloud"))
	}

	var syncer tracking.Mirror
	if healthSink != nil || cloudSink != nil {
		syncer = mirror.NewCoordinator(healthSink, cloudSink, mirror.RetryConfig{
			Attempts:  cfg.Sync.Attempts,
			BaseDelay: cfg.Sync.BaseDelay,
			MaxDelay:  cfg.Sync.MaxDelay,
		}, log.Named("mirror"))
		deps.Mirror = syncer
	} else {
		log.Warn("no health or cloud store configured, sessions will not be mirrored")
	}

	trackers := tracking.NewManager(tracking.Config{
		SampleInterval:     cfg.Tracking.SampleInterval,
		SaveInterval:       cfg.Tracking.SaveInterval,
		AlarmCheckInterval: cfg.Tracking.AlarmCheckInterval,
		IOTimeout:          cfg.Tracking.IOTimeout,
	}, deps)

	if mqttClient != nil {
		source := sensor.NewMQTTSource(mqttClient, trackers, cfg.MQTT.TopicPrefix, log.Named("sensor"))
		if err := source.Start(); err != nil {
			return err
		}
	}

	cache := service.NewReportCache(cfg.ReportCacheSize, cfg.ReportCacheTTL)
	userService := service.NewUserService(userRepo, log.Named("users"))
	sessionService := service.NewSessionService(sessionRepo, userRepo, trackers, syncer, snapshots, cache, log.Named("sessions"))
	chronotypeService := service.NewChronotypeService(sessionRepo, userRepo)
	trendsService := service.NewTrendsService(sessionRepo, userRepo)

	// May be nil if not configured
	openaiClient := llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAISleepInsightsModel)
	if openaiClient == nil {
		log.Warn("OpenAI API key not configured, insights endpoint will be unavailable")
	}
	insightsService := service.NewInsightsService(chronotypeService, trendsService, openaiClient, sessionRepo, userRepo)

	router := api.NewRouter(
		handler.NewUserHandler(userService),
		handler.NewSessionHandler(sessionService, log.Named("http")),
		handler.NewInsightsHandler(chronotypeService, trendsService, insightsService, log.Named("http")),
		log.Named("http"),
	)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if syncer != nil && cfg.Sync.ResyncInterval > 0 {
		g.Go(func() error {
			resyncLoop(gctx, sessionService, cfg.Sync.ResyncInterval, cfg.Sync.ResyncBatch, log)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		// Stop accepting requests before the trackers finalize their sessions.
		httpErr := srv.Shutdown(shutdownCtx)
		return errors.Join(httpErr, trackers.Shutdown(shutdownCtx))
	})

	return g.Wait()
}

func resyncLoop(ctx context.Context, sessions service.SessionService, interval time.Duration, batch int, log *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sessions.ResyncPending(ctx, batch)
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Warn("resync of pending sessions failed", zap.Error(err))
				continue
			}
			if n > 0 {
				log.Info("resynced pending sessions", zap.Int("count", n))
			}
		}
	}
}
