// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Default values shared by the loader and the binaries.
const (
	DefaultKafkaBroker       = "localhost:9092"
	DefaultNotificationTopic = "eta_notifications"
	DefaultConsumerGroup     = "notification-group"
	DefaultStudentServiceURL = "http://student-service:8000"
	DefaultAuthServiceURL    = "http://auth-service:8000"
	DefaultNotificationType  = "eta_update"
	DefaultFallbackTypeID    = 1
	DefaultHistoryIndex      = "notification-history"
)

func Load() (*Config, error) {
	loadEnvFile()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// KAFKA_TOPIC style overrides for any key present in the yaml
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	viper.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = viper.MergeInConfig() // environment overlay is optional

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	overrideEmptyConfig(&cfg)
	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	overrideEmptyConfig(&cfg)
	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env", // tests under test/e2e
		"../../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up from the working directory looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideEmptyConfig fills values still empty after unmarshal from the variables the
// services have always been deployed with.
func overrideEmptyConfig(cfg *Config) {
	if len(cfg.Kafka.Brokers) == 0 {
		if val := os.Getenv("KAFKA_BOOTSTRAP_SERVERS"); val != "" {
			cfg.Kafka.Brokers = splitList(val)
		}
	}
	if cfg.Kafka.Topic == "" {
		if val := os.Getenv("KAFKA_NOTIFICATIONS_TOPIC"); val != "" {
			cfg.Kafka.Topic = strings.TrimSpace(val)
		}
	}
	if len(cfg.Kafka.AdditionalTopics) == 0 {
		if val := os.Getenv("KAFKA_ADDITIONAL_TOPICS"); val != "" {
			cfg.Kafka.AdditionalTopics = splitList(val)
		}
	}

	if cfg.Services.Student.BaseURL == "" {
		if val := os.Getenv("STUDENT_SERVICE_URL"); val != "" {
			cfg.Services.Student.BaseURL = val
		}
	}
	if cfg.Services.Auth.BaseURL == "" {
		if val := os.Getenv("AUTH_SERVICE_URL"); val != "" {
			cfg.Services.Auth.BaseURL = val
		}
	}
	if cfg.Services.Auth.AdminEmail == "" {
		if val := os.Getenv("AUTH_ADMIN_EMAIL"); val != "" {
			cfg.Services.Auth.AdminEmail = val
		}
	}
	if cfg.Services.Auth.AdminPassword == "" {
		if val := os.Getenv("AUTH_ADMIN_PASSWORD"); val != "" {
			cfg.Services.Auth.AdminPassword = val
		}
	}

	if cfg.Database.Postgres.URL == "" {
		if val := os.Getenv("DATABASE_URL"); val != "" {
			cfg.Database.Postgres.URL = val
		}
	}
	if cfg.Database.Postgres.User == "" {
		if val := os.Getenv("DB_USER"); val != "" {
			cfg.Database.Postgres.User = val
		}
	}
	if cfg.Database.Postgres.Password == "" {
		if val := os.Getenv("DB_PASSWORD"); val != "" {
			cfg.Database.Postgres.Password = val
		}
	}

	if cfg.Push.Region == "" {
		if val := os.Getenv("AWS_REGION"); val != "" {
			cfg.Push.Region = val
		}
	}
	if cfg.Push.PlatformApplicationARN == "" {
		if val := os.Getenv("SNS_PLATFORM_APPLICATION_ARN"); val != "" {
			cfg.Push.PlatformApplicationARN = val
		}
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "bus-tracking-services"
	}

	// Kafka defaults
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = DefaultNotificationTopic
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultConsumerGroup
	}
	if cfg.Kafka.MinBytes == 0 {
		cfg.Kafka.MinBytes = 1
	}
	if cfg.Kafka.MaxBytes == 0 {
		cfg.Kafka.MaxBytes = 10e6
	}
	if cfg.Kafka.MaxWait == 0 {
		cfg.Kafka.MaxWait = 1000
	}

	// Database defaults
	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Elasticsearch.HistoryIndex == "" {
		cfg.Database.Elasticsearch.HistoryIndex = DefaultHistoryIndex
	}

	// Collaborator defaults
	if cfg.Services.Student.BaseURL == "" {
		cfg.Services.Student.BaseURL = DefaultStudentServiceURL
	}
	if cfg.Services.Student.Timeout == 0 {
		cfg.Services.Student.Timeout = 10000
	}
	if cfg.Services.Auth.BaseURL == "" {
		cfg.Services.Auth.BaseURL = DefaultAuthServiceURL
	}
	if cfg.Services.Auth.Timeout == 0 {
		cfg.Services.Auth.Timeout = 10000
	}

	// Dispatcher defaults
	if cfg.Dispatcher.DefaultType == "" {
		cfg.Dispatcher.DefaultType = DefaultNotificationType
	}
	if cfg.Dispatcher.FallbackTypeID == 0 {
		cfg.Dispatcher.FallbackTypeID = DefaultFallbackTypeID
	}
	if cfg.Dispatcher.SubscriptionCacheTTL == 0 {
		cfg.Dispatcher.SubscriptionCacheTTL = 300000
	}
	if cfg.Dispatcher.Dedup.TTL == 0 {
		cfg.Dispatcher.Dedup.TTL = 86400000
	}

	if cfg.Push.Region == "" {
		cfg.Push.Region = "us-east-1"
	}
	if cfg.Push.Platform == "" {
		cfg.Push.Platform = "GCM"
	}

	// HTTP defaults
	if cfg.HTTP.NotificationAPIPort == 0 {
		cfg.HTTP.NotificationAPIPort = 8001
	}
	if cfg.HTTP.LocationAPIPort == 0 {
		cfg.HTTP.LocationAPIPort = 8002
	}
	if cfg.HTTP.MetricsPort == 0 {
		cfg.HTTP.MetricsPort = 8080
	}
	if len(cfg.HTTP.AllowedOrigins) == 0 {
		cfg.HTTP.AllowedOrigins = []string{"*"}
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	for key, worker := range cfg.Workers {
		if worker.Timeout == 0 {
			worker.Timeout = 30000
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 10
		}
		cfg.Workers[key] = worker
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Database.Postgres.URL == "" {
		if cfg.Database.Postgres.Host == "" {
			return fmt.Errorf("database.postgres.host is required")
		}
		if cfg.Database.Postgres.Database == "" {
			return fmt.Errorf("database.postgres.database is required")
		}
		if cfg.Database.Postgres.User == "" {
			return fmt.Errorf("database.postgres.user is required")
		}
	}

	if cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required")
	}

	if len(cfg.Kafka.Topics()) == 0 {
		return fmt.Errorf("kafka.topic is required")
	}

	if cfg.Dispatcher.FallbackTypeID <= 0 {
		return fmt.Errorf("dispatcher.fallback_type_id must be positive")
	}

	return nil
}

func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}

	return WorkerConfig{
		Enabled:    true,
		Timeout:    30000,
		MaxRetries: 10,
	}
}

// IsWorkerEnabled checks if a specific worker is enabled
func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}
