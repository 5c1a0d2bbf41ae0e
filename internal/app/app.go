package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ayo6706/payment-notification/internal/api"
	"github.com/ayo6706/payment-notification/internal/config"
	"github.com/ayo6706/payment-notification/internal/db"
	"github.com/ayo6706/payment-notification/internal/events"
	"github.com/ayo6706/payment-notification/internal/gateway"
	"github.com/ayo6706/payment-notification/internal/idempotency"
	"github.com/ayo6706/payment-notification/internal/observability"
	"github.com/ayo6706/payment-notification/internal/repository"
	"github.com/ayo6706/payment-notification/internal/service"
	"github.com/ayo6706/payment-notification/internal/worker"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const serviceName = "payment-notification"

// Version is stamped at build time with -ldflags.
var Version = "dev"

// Components is the wired object graph shared by the HTTP server and the CLI.
type Components struct {
	Config        *config.Config
	Logger        *zap.Logger
	Client        *gateway.Client
	Provisioner   gateway.Provisioner
	Reconciler    *service.Reconciler
	Notifications *service.NotificationService

	pool      *pgxpool.Pool
	redis     *redis.Client
	outcomes  *repository.OutcomeStore
	publisher *events.Publisher
	closers   []func()
}

// Build connects the optional backends named in cfg and wires the reconciliation
// pipeline. Callers must Close the result.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	c := &Components{Config: cfg, Logger: logger}

	c.Client = gateway.NewClient(gateway.ClientConfig{
		APIURL:         cfg.CTPHost,
		AuthURL:        cfg.CTPAuthURL,
		ProjectKey:     cfg.CTPProjectKey,
		ClientID:       cfg.CTPClientID,
		ClientSecret:   cfg.CTPClientSecret,
		Concurrency:    cfg.CTPConcurrency,
		RequestTimeout: cfg.CTPRequestTimeout,
		MaxRetries:     uint64(cfg.CTPTransportRetries),
		UserAgent:      serviceName + "/" + Version,
	})
	c.Provisioner = gateway.NewInteractionTypeProvisioner(c.Client, cfg.InteractionTypeKey)
	c.Reconciler = service.NewReconciler(c.Client, service.ReconcilerConfig{
		Concurrency:        cfg.CTPConcurrency,
		MaxConflictRetries: cfg.MaxConflictRetries,
		InteractionTypeKey: cfg.InteractionTypeKey,
	})
	c.Notifications = service.NewNotificationService(c.Reconciler, c.Provisioner)

	if cfg.RedisURL != "" {
		client, err := newRedisClient(cfg.RedisURL)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		c.redis = client
		c.closers = append(c.closers, func() { _ = client.Close() })
		c.Reconciler.WithLedger(idempotency.NewEventLedger(client, cfg.EventLedgerTTL))
		logger.Info("event ledger enabled", zap.Duration("ttl", cfg.EventLedgerTTL))
	}

	if cfg.DatabaseURL != "" {
		pool, err := db.Connect(ctx, cfg.DatabaseURL, db.Options{ApplicationName: serviceName})
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("connect database: %w", err)
		}
		c.pool = pool
		c.closers = append(c.closers, pool.Close)
		c.outcomes = repository.NewOutcomeStore(repository.NewStore(pool))
		if err := c.outcomes.EnsureSchema(ctx); err != nil {
			c.Close()
			return nil, err
		}
		c.Notifications.WithRecorder(c.outcomes)
		logger.Info("outcome log enabled")
	}

	if brokers := events.ParseBrokers(cfg.KafkaBrokers); len(brokers) > 0 {
		c.publisher = events.NewPublisher(events.NewKafkaWriter(brokers, cfg.KafkaOutcomeTopic))
		c.closers = append(c.closers, func() {
			if err := c.publisher.Close(); err != nil {
				logger.Warn("kafka writer close failed", zap.Error(err))
			}
		})
		c.Notifications.WithPublisher(c.publisher)
		logger.Info("outcome events enabled", zap.Strings("brokers", brokers), zap.String("topic", cfg.KafkaOutcomeTopic))
	}

	return c, nil
}

// Close releases backends in reverse order of acquisition.
func (c *Components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

func (c *Components) routerDependencies() api.Dependencies {
	deps := api.Dependencies{
		Config:        c.Config,
		Logger:        c.Logger,
		Notifications: c.Notifications,
		DB:            c.pool,
	}
	// Interfaces stay nil when a backend is disabled.
	if c.redis != nil {
		deps.Redis = c.redis
	}
	if c.outcomes != nil {
		deps.Outcomes = c.outcomes
	}
	return deps
}

// Setup loads configuration and installs the global logger and metrics.
func Setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	zap.ReplaceGlobals(logger)
	observability.Init()
	return cfg, logger, nil
}

// Run bootstraps the HTTP server and retention worker, blocking until shutdown.
func Run() error {
	cfg, logger, err := Setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := observability.InitTracing(ctx, serviceName, Version, cfg.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer flushCancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("tracing shutdown failed", zap.Error(err))
		}
	}()

	components, err := Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer components.Close()

	stopWorker := func() {}
	if components.outcomes != nil {
		retention := worker.NewRetentionWorker(components.outcomes, cfg.OutcomeRetention).WithInterval(cfg.RetentionInterval)
		stopWorker = retention.Run(ctx)
		logger.Info("retention worker started", zap.Duration("retention", cfg.OutcomeRetention), zap.Duration("interval", cfg.RetentionInterval))
	}

	router := api.NewRouter(components.routerDependencies())

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("port", cfg.HTTPPort), zap.String("version", Version))
		serverErr <- server.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	}

	// In-flight batches finish their writes before the backends close.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", zap.Error(err))
	}

	logger.Info("stopping retention worker")
	stopWorker()

	logger.Info("shutdown complete")
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	switch strings.ToLower(level) {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	cfg.InitialFields = map[string]any{"service": serviceName}
	return cfg.Build()
}

func newRedisClient(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}
