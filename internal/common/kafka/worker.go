// internal/common/kafka/worker.go
package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"bus-tracking-services/internal/common/logger"
	"bus-tracking-services/internal/common/metrics"
)

// MessageReader is the part of *kafka.Reader the consumer loop needs.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// MessageHandler processes one message. Returned errors are logged; the offset is
// committed either way.
type MessageHandler interface {
	HandleMessage(ctx context.Context, msg kafka.Message) error
}

type HandlerFunc func(ctx context.Context, msg kafka.Message) error

func (f HandlerFunc) HandleMessage(ctx context.Context, msg kafka.Message) error {
	return f(ctx, msg)
}

// Consumer is a single threaded pull loop: fetch, handle, commit.
type Consumer struct {
	reader   MessageReader
	handler  MessageHandler
	logger   logger.Logger
	retry    *RetryConfig
	name     string
	sleep    func(ctx context.Context, d time.Duration) error
	commitTO time.Duration
}

func NewConsumer(name string, reader MessageReader, handler MessageHandler, log logger.Logger, retry *RetryConfig) *Consumer {
	if retry == nil {
		retry = DefaultRetryConfig
	}
	return &Consumer{
		reader:   reader,
		handler:  handler,
		logger:   log.WithFields(map[string]interface{}{"component": "consumer", "taskType": name}),
		retry:    retry,
		name:     name,
		sleep:    sleepContext,
		commitTO: 5 * time.Second,
	}
}

// Run blocks until ctx is cancelled, then closes the reader. A message already fetched
// is handled and committed before the loop exits.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("consumer started", nil)
	defer func() {
		if err := c.reader.Close(); err != nil {
			c.logger.Warn("failed to close reader", map[string]interface{}{"error": err.Error()})
		}
		c.logger.Info("consumer stopped", nil)
	}()

	failures := 0
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}

			delay := c.retry.Backoff(failures)
			failures++
			c.logger.Error("fetch failed", map[string]interface{}{
				"error":   err.Error(),
				"attempt": failures,
				"retryIn": delay.String(),
			})
			if err := c.sleep(ctx, delay); err != nil {
				return nil
			}
			continue
		}
		failures = 0

		c.process(ctx, msg)
	}
}

func (c *Consumer) process(ctx context.Context, msg kafka.Message) {
	fields := map[string]interface{}{
		"topic":     msg.Topic,
		"partition": msg.Partition,
		"offset":    msg.Offset,
	}

	// Shutdown is observed between messages; the handler bounds its own work.
	handleCtx := context.WithoutCancel(ctx)

	result := "handled"
	if err := c.safeHandle(handleCtx, msg); err != nil {
		result = "error"
		c.logger.Error("message handling failed", merge(fields, map[string]interface{}{"error": err.Error()}))
	}
	metrics.ConsumerMessages.WithLabelValues(msg.Topic, result).Inc()

	commitCtx, cancel := context.WithTimeout(handleCtx, c.commitTO)
	defer cancel()
	if err := c.reader.CommitMessages(commitCtx, msg); err != nil {
		c.logger.Error("commit failed", merge(fields, map[string]interface{}{"error": err.Error()}))
	}
}

func (c *Consumer) safeHandle(ctx context.Context, msg kafka.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return c.handler.HandleMessage(ctx, msg)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func merge(a, b map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}
