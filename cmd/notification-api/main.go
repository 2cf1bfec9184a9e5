// cmd/notification-api/main.go
package main

import (
	"go.uber.org/zap"

	"bus-tracking-services/internal/bootstrap"
	"bus-tracking-services/internal/common/config"
	"bus-tracking-services/internal/common/database"
	"bus-tracking-services/internal/common/logger"
	"bus-tracking-services/internal/handlers"
	"bus-tracking-services/internal/repository"
	"bus-tracking-services/internal/routes"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "console").Fatal("config load failed", zap.Error(err))
	}

	zapLog, log := bootstrap.NewLogger(cfg, routes.NotificationService)
	defer zapLog.Sync()

	zapLog.Info("Starting notification API...", zap.Int("port", cfg.HTTP.NotificationAPIPort))

	ctx, stop := bootstrap.SignalContext()
	defer stop()

	pg, err := bootstrap.ConnectPostgres(ctx, cfg.Database.Postgres, 0, zapLog)
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Database.AutoMigrate {
		if err := database.MigrateUp(pg.DB, database.SchemaNotification); err != nil {
			zapLog.Fatal("notification migrations failed", zap.Error(err))
		}
		zapLog.Info("Notification schema is up to date")
	}

	rc, err := bootstrap.ConnectRedis(ctx, cfg.Database.Redis, 0, zapLog)
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rc.Close()

	es, err := bootstrap.ConnectElasticsearch(ctx, cfg.Database.Elasticsearch, 0, zapLog)
	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}

	checks := map[string]handlers.Pinger{"postgres": pg, "redis": rc}

	history := repository.NewHistoryRepository(pg.DB)
	subscriptions := repository.NewSubscriptionRepository(pg.DB)

	var index repository.HistoryIndex
	if es != nil {
		index = repository.NewHistoryIndex(es, cfg.Database.Elasticsearch.HistoryIndex)
		checks["elasticsearch"] = es
	}

	notifications := handlers.NewNotificationHandler(handlers.NotificationDeps{
		History:       history,
		Index:         index,
		Types:         repository.NewNotificationTypeRepository(pg.DB),
		Subscriptions: subscriptions,
		Preferences: repository.NewCachedSubscriptions(
			subscriptions,
			rc.Client,
			config.GetDuration(cfg.Dispatcher.SubscriptionCacheTTL),
			log,
		),
		Recorder: repository.NewAuditTrail(history, index, log),
	}, log)

	router := routes.NewNotificationRouter(handlers.NewHealthHandler(routes.NotificationService, checks), notifications)
	srv := bootstrap.NewServer(cfg.HTTP.NotificationAPIPort, routes.Wrap(router, log, cfg.HTTP.AllowedOrigins))

	if err := bootstrap.Serve(ctx, srv, zapLog); err != nil {
		zapLog.Error("notification API stopped with error", zap.Error(err))
		return
	}
	zapLog.Info("Notification API stopped")
}
