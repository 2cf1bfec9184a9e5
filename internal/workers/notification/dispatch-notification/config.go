// internal/workers/notification/dispatch-notification/config.go
package dispatchnotification

import (
	"time"

	"bus-tracking-services/internal/common/config"
)

type Config struct {
	DefaultType    string
	FallbackTypeID int64
	DedupEnabled   bool
	DedupTTL       time.Duration
	Timeout        time.Duration
	AuditTimeout   time.Duration
}

func LoadConfig(cfg *config.Config) *Config {
	worker := config.GetWorkerConfig(cfg, TaskType)

	c := &Config{
		DefaultType:    cfg.Dispatcher.DefaultType,
		FallbackTypeID: cfg.Dispatcher.FallbackTypeID,
		DedupEnabled:   cfg.Dispatcher.Dedup.Enabled,
		DedupTTL:       config.GetDuration(cfg.Dispatcher.Dedup.TTL),
		Timeout:        config.GetDuration(worker.Timeout),
		AuditTimeout:   5 * time.Second,
	}
	if c.DefaultType == "" {
		c.DefaultType = TypeETAUpdate
	}
	if c.FallbackTypeID <= 0 {
		c.FallbackTypeID = 1
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.DedupTTL <= 0 {
		c.DedupTTL = 24 * time.Hour
	}
	return c
}
