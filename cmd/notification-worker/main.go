// cmd/notification-worker/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	_ "net/http/pprof"
	"sync"

	"go.uber.org/zap"

	"bus-tracking-services/internal/bootstrap"
	"bus-tracking-services/internal/common/auth"
	"bus-tracking-services/internal/common/aws"
	"bus-tracking-services/internal/common/config"
	"bus-tracking-services/internal/common/database"
	"bus-tracking-services/internal/common/kafka"
	"bus-tracking-services/internal/common/logger"
	"bus-tracking-services/internal/common/observability"
	"bus-tracking-services/internal/common/push"
	"bus-tracking-services/internal/common/students"
	"bus-tracking-services/internal/handlers"
	"bus-tracking-services/internal/repository"
	"bus-tracking-services/internal/routes"
	dn "bus-tracking-services/internal/workers/notification/dispatch-notification"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "console").Fatal("config load failed", zap.Error(err))
	}

	zapLog, log := bootstrap.NewLogger(cfg, routes.WorkerService)
	defer zapLog.Sync()

	zapLog.Info("Starting notification worker...",
		zap.Strings("topics", cfg.Kafka.Topics()),
		zap.String("groupId", cfg.Kafka.GroupID),
	)

	if !config.IsWorkerEnabled(cfg, dn.TaskType) {
		zapLog.Warn("dispatch worker disabled by configuration, exiting")
		return
	}

	workerCfg := config.GetWorkerConfig(cfg, dn.TaskType)

	obs := observability.New(routes.WorkerService)
	defer obs.Shutdown()

	ctx, stop := bootstrap.SignalContext()
	defer stop()

	// --- Infrastructure ---
	pg, err := bootstrap.ConnectPostgres(ctx, cfg.Database.Postgres, workerCfg.MaxRetries, zapLog)
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Database.AutoMigrate {
		if err := database.MigrateUp(pg.DB, database.SchemaNotification); err != nil {
			zapLog.Fatal("notification migrations failed", zap.Error(err))
		}
	}

	rc, err := bootstrap.ConnectRedis(ctx, cfg.Database.Redis, workerCfg.MaxRetries, zapLog)
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rc.Close()

	es, err := bootstrap.ConnectElasticsearch(ctx, cfg.Database.Elasticsearch, workerCfg.MaxRetries, zapLog)
	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}

	// --- Stores ---
	var index repository.HistoryIndex
	if es != nil {
		index = repository.NewHistoryIndex(es, cfg.Database.Elasticsearch.HistoryIndex)
	}
	subscriptions := repository.NewCachedSubscriptions(
		repository.NewSubscriptionRepository(pg.DB),
		rc.Client,
		config.GetDuration(cfg.Dispatcher.SubscriptionCacheTTL),
		log,
	)
	audit := repository.NewAuditTrail(repository.NewHistoryRepository(pg.DB), index, log)

	// --- External Service Clients ---
	studentClient := students.NewClient(cfg.Services.Student.BaseURL, config.GetDuration(cfg.Services.Student.Timeout))
	authClient := auth.NewServiceClient(
		cfg.Services.Auth.BaseURL,
		cfg.Services.Auth.AdminEmail,
		cfg.Services.Auth.AdminPassword,
		config.GetDuration(cfg.Services.Auth.Timeout),
	)

	snsClient, err := aws.NewSNSClient(ctx, cfg.Push.Region)
	if err != nil {
		zapLog.Fatal("sns client init failed", zap.Error(err))
	}
	gateway := push.NewSNSGateway(snsClient, cfg.Push.PlatformApplicationARN, cfg.Push.Platform, log)

	zapLog.Info("All external service clients initialized")

	// --- Dispatcher ---
	dispatchCfg := dn.LoadConfig(cfg)
	handler := dn.NewHandler(dispatchCfg, dn.Dependencies{
		Types:         repository.NewNotificationTypeRepository(pg.DB),
		Students:      studentClient,
		Tokens:        authClient,
		Subscriptions: subscriptions,
		Push:          gateway,
		Audit:         audit,
		Dedup:         dn.NewRedisDeduplicator(rc.Client, dispatchCfg.DedupTTL),
		Observability: obs,
	}, log)

	reader, err := kafka.NewReader(cfg.Kafka)
	if err != nil {
		zapLog.Fatal("kafka reader init failed", zap.Error(err))
	}
	consumer := kafka.NewConsumer(dn.TaskType, reader, handler, log, nil)

	// --- Health and metrics ---
	health := handlers.NewHealthHandler(routes.WorkerService, map[string]handlers.Pinger{
		"postgres": pg,
		"redis":    rc,
		"kafka":    brokerCheck(cfg.Kafka.Brokers),
	})
	metricsRouter := routes.NewWorkerRouter(health)
	metricsRouter.PathPrefix("/debug/pprof/").Handler(http.DefaultServeMux)
	srv := bootstrap.NewServer(cfg.HTTP.MetricsPort, metricsRouter)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := bootstrap.Serve(ctx, srv, zapLog); err != nil {
			zapLog.Error("metrics server failed", zap.Error(err))
			stop()
		}
	}()

	zapLog.Info("Worker started", zap.String("taskType", dn.TaskType), zap.Int("metricsPort", cfg.HTTP.MetricsPort))

	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		zapLog.Error("consumer stopped with error", zap.Error(err))
	}

	zapLog.Info("Shutdown signal received, stopping worker...")
	stop()
	wg.Wait()
	zapLog.Info("Worker stopped")
}

// brokerCheck reports readiness when any configured broker accepts a connection.
type brokerCheck []string

func (b brokerCheck) Ping(ctx context.Context) error {
	return kafka.HealthCheck(ctx, b)
}
