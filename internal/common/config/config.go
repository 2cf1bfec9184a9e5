// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct shared by every binary.
type Config struct {
	App        AppConfig               `mapstructure:"app"`
	Kafka      KafkaConfig             `mapstructure:"kafka"`
	Database   DatabaseConfig          `mapstructure:"database"`
	Services   ServicesConfig          `mapstructure:"services"`
	Dispatcher DispatcherConfig        `mapstructure:"dispatcher"`
	Push       PushConfig              `mapstructure:"push"`
	HTTP       HTTPConfig              `mapstructure:"http"`
	Location   LocationConfig          `mapstructure:"location"`
	Workers    map[string]WorkerConfig `mapstructure:"workers"`
	Logging    LoggingConfig           `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// KafkaConfig describes the notification event stream.
type KafkaConfig struct {
	Brokers          []string `mapstructure:"brokers"`
	Topic            string   `mapstructure:"topic"`
	AdditionalTopics []string `mapstructure:"additional_topics"`
	GroupID          string   `mapstructure:"group_id"`
	MinBytes         int      `mapstructure:"min_bytes"`
	MaxBytes         int      `mapstructure:"max_bytes"`
	MaxWait          int      `mapstructure:"max_wait"`        // milliseconds
	CommitInterval   int      `mapstructure:"commit_interval"` // milliseconds, 0 = synchronous commits
}

// Topics returns the primary topic followed by any additional topics, skipping blanks and duplicates.
func (k KafkaConfig) Topics() []string {
	seen := make(map[string]bool)
	var topics []string
	for _, t := range append([]string{k.Topic}, k.AdditionalTopics...) {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		topics = append(topics, t)
	}
	return topics
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
	AutoMigrate   bool                `mapstructure:"auto_migrate"`
}

type PostgresConfig struct {
	URL            string `mapstructure:"url"`
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string. An explicit URL wins over the discrete fields.
func (p PostgresConfig) GetDSN() string {
	if p.URL != "" {
		return p.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses    []string `mapstructure:"addresses"`
	Username     string   `mapstructure:"username"`
	Password     string   `mapstructure:"password"`
	HistoryIndex string   `mapstructure:"history_index"`
}

// Enabled reports whether any Elasticsearch node is configured.
func (e ElasticsearchConfig) Enabled() bool {
	return len(e.Addresses) > 0
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// ServicesConfig holds the HTTP collaborators the dispatcher and location API call.
type ServicesConfig struct {
	Student StudentServiceConfig `mapstructure:"student"`
	Auth    AuthServiceConfig    `mapstructure:"auth"`
}

type StudentServiceConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

type AuthServiceConfig struct {
	BaseURL       string `mapstructure:"base_url"`
	Timeout       int    `mapstructure:"timeout"` // milliseconds
	AdminEmail    string `mapstructure:"admin_email"`
	AdminPassword string `mapstructure:"admin_password"`
}

// DispatcherConfig controls notification dispatch behaviour.
type DispatcherConfig struct {
	DefaultType          string      `mapstructure:"default_type"`
	FallbackTypeID       int64       `mapstructure:"fallback_type_id"`
	SubscriptionCacheTTL int         `mapstructure:"subscription_cache_ttl"` // milliseconds
	Dedup                DedupConfig `mapstructure:"dedup"`
}

type DedupConfig struct {
	Enabled bool `mapstructure:"enabled"`
	TTL     int  `mapstructure:"ttl"` // milliseconds
}

// PushConfig holds settings for the SNS backed push gateway.
type PushConfig struct {
	Region                 string `mapstructure:"region"`
	PlatformApplicationARN string `mapstructure:"platform_application_arn"`
	Platform               string `mapstructure:"platform"` // GCM or APNS
}

type HTTPConfig struct {
	NotificationAPIPort int      `mapstructure:"notification_api_port"`
	LocationAPIPort     int      `mapstructure:"location_api_port"`
	MetricsPort         int      `mapstructure:"metrics_port"`
	AllowedOrigins      []string `mapstructure:"allowed_origins"`
}

type LocationConfig struct {
	VerifyEntities bool `mapstructure:"verify_entities"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	Timeout    int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries int  `mapstructure:"max_retries"` // infrastructure connection attempts
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
