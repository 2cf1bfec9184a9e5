// internal/common/kafka/client.go
package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"bus-tracking-services/internal/common/config"
)

type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

var DefaultRetryConfig = &RetryConfig{
	MaxRetries: 3,
	BaseDelay:  1 * time.Second,
	MaxDelay:   30 * time.Second,
}

// Backoff returns the delay before retry number attempt (0 based), doubling up to MaxDelay.
func (r *RetryConfig) Backoff(attempt int) time.Duration {
	if attempt > 30 {
		attempt = 30
	}
	delay := r.BaseDelay * time.Duration(1<<attempt)
	if delay <= 0 || delay > r.MaxDelay {
		delay = r.MaxDelay
	}
	return delay
}

// NewReader builds a consumer group reader over every configured topic. A group without a
// committed offset starts from the earliest message.
func NewReader(cfg config.KafkaConfig) (*kafka.Reader, error) {
	topics := cfg.Topics()
	if len(topics) == 0 {
		return nil, fmt.Errorf("no kafka topics configured")
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("no kafka brokers configured")
	}

	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupID:        cfg.GroupID,
		GroupTopics:    topics,
		StartOffset:    kafka.FirstOffset,
		MinBytes:       cfg.MinBytes,
		MaxBytes:       cfg.MaxBytes,
		MaxWait:        config.GetDuration(cfg.MaxWait),
		CommitInterval: config.GetDuration(cfg.CommitInterval),
	}), nil
}

// NewWriter builds a producer for topic.
func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
	}
}

// HealthCheck dials the first reachable broker.
func HealthCheck(ctx context.Context, brokers []string) error {
	var lastErr error
	for _, broker := range brokers {
		conn, err := kafka.DialContext(ctx, "tcp", broker)
		if err != nil {
			lastErr = err
			continue
		}
		_ = conn.Close()
		return nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no brokers configured")
	}
	return fmt.Errorf("kafka health check failed: %w", lastErr)
}
