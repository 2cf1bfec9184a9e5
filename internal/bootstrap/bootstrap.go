// internal/bootstrap/bootstrap.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"bus-tracking-services/internal/common/config"
	"bus-tracking-services/internal/common/database"
	"bus-tracking-services/internal/common/logger"
)

const (
	defaultConnectAttempts = 15
	initialRetryDelay      = 2 * time.Second
	shutdownTimeout        = 10 * time.Second
)

// sleep is swapped out in tests.
var sleep = time.Sleep

// RetryWithBackoff attempts to execute a function with exponential backoff
func RetryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// NewLogger builds the process logger from config, tagging every entry with service.
func NewLogger(cfg *config.Config, service string) (*zap.Logger, logger.Logger) {
	zapLog := logger.NewFromConfig(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, service)
	return zapLog, logger.NewZapAdapter(zapLog)
}

func attempts(n int) int {
	if n <= 0 {
		return defaultConnectAttempts
	}
	return n
}

func ConnectPostgres(ctx context.Context, cfg config.PostgresConfig, maxRetries int, log *zap.Logger) (*database.PostgresClient, error) {
	var pg *database.PostgresClient
	err := RetryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg)
		if err != nil {
			return err
		}
		if err := pg.Ping(ctx); err != nil {
			_ = pg.Close()
			return err
		}
		return nil
	}, attempts(maxRetries), initialRetryDelay, log, "PostgreSQL connection")
	if err != nil {
		return nil, err
	}
	log.Info("PostgreSQL connected successfully")
	return pg, nil
}

func ConnectRedis(ctx context.Context, cfg config.RedisConfig, maxRetries int, log *zap.Logger) (*database.RedisClient, error) {
	var rc *database.RedisClient
	err := RetryWithBackoff(func() error {
		var err error
		rc, err = database.NewRedis(cfg)
		if err != nil {
			return err
		}
		if err := rc.Ping(ctx); err != nil {
			_ = rc.Close()
			return err
		}
		return nil
	}, attempts(maxRetries), initialRetryDelay, log, "Redis connection")
	if err != nil {
		return nil, err
	}
	log.Info("Redis connected successfully")
	return rc, nil
}

// ConnectElasticsearch returns nil, nil when no nodes are configured.
func ConnectElasticsearch(ctx context.Context, cfg config.ElasticsearchConfig, maxRetries int, log *zap.Logger) (*database.ElasticsearchClient, error) {
	if !cfg.Enabled() {
		log.Info("Elasticsearch not configured, history search disabled")
		return nil, nil
	}
	var es *database.ElasticsearchClient
	err := RetryWithBackoff(func() error {
		var err error
		es, err = database.NewElasticsearch(cfg)
		if err != nil {
			return err
		}
		return es.Ping(ctx)
	}, attempts(maxRetries), initialRetryDelay, log, "Elasticsearch connection")
	if err != nil {
		return nil, err
	}
	log.Info("Elasticsearch connected successfully")
	return es, nil
}

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// Serve runs srv until ctx is cancelled, then drains in-flight requests.
func Serve(ctx context.Context, srv *http.Server, log *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down HTTP server", zap.String("addr", srv.Addr))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}

// NewServer applies the read and write timeouts every service uses.
func NewServer(port int, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
