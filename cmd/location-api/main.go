// cmd/location-api/main.go
package main

import (
	"go.uber.org/zap"

	"bus-tracking-services/internal/bootstrap"
	"bus-tracking-services/internal/common/auth"
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

	zapLog, log := bootstrap.NewLogger(cfg, routes.LocationService)
	defer zapLog.Sync()

	zapLog.Info("Starting location API...",
		zap.Int("port", cfg.HTTP.LocationAPIPort),
		zap.Bool("verifyEntities", cfg.Location.VerifyEntities),
	)

	ctx, stop := bootstrap.SignalContext()
	defer stop()

	pg, err := bootstrap.ConnectPostgres(ctx, cfg.Database.Postgres, 0, zapLog)
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Database.AutoMigrate {
		if err := database.MigrateUp(pg.DB, database.SchemaLocation); err != nil {
			zapLog.Fatal("location migrations failed", zap.Error(err))
		}
		zapLog.Info("Location schema is up to date")
	}

	var verifier handlers.EntityVerifier
	if cfg.Location.VerifyEntities {
		verifier = auth.NewServiceClient(
			cfg.Services.Auth.BaseURL,
			cfg.Services.Auth.AdminEmail,
			cfg.Services.Auth.AdminPassword,
			config.GetDuration(cfg.Services.Auth.Timeout),
		)
	}

	locations := handlers.NewLocationHandler(repository.NewLocationRepository(pg.DB), verifier, log)
	health := handlers.NewHealthHandler(routes.LocationService, map[string]handlers.Pinger{"postgres": pg})

	router := routes.NewLocationRouter(health, locations)
	srv := bootstrap.NewServer(cfg.HTTP.LocationAPIPort, routes.Wrap(router, log, cfg.HTTP.AllowedOrigins))

	if err := bootstrap.Serve(ctx, srv, zapLog); err != nil {
		zapLog.Error("location API stopped with error", zap.Error(err))
		return
	}
	zapLog.Info("Location API stopped")
}
