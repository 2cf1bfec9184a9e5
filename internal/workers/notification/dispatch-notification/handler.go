// internal/workers/notification/dispatch-notification/handler.go
package dispatchnotification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/attribute"

	commonerrors "bus-tracking-services/internal/common/errors"
	"bus-tracking-services/internal/common/logger"
	"bus-tracking-services/internal/common/metrics"
	"bus-tracking-services/internal/common/observability"
	"bus-tracking-services/internal/common/push"
	"bus-tracking-services/internal/common/validation"
	"bus-tracking-services/internal/models"
)

const (
	TaskType = "dispatch-notification"
)

var (
	ErrMalformedEvent   = errors.New("MALFORMED_EVENT")
	ErrAuditWriteFailed = errors.New("AUDIT_WRITE_FAILED")
)

type TypeStore interface {
	GetByName(ctx context.Context, name string) (*models.NotificationType, error)
}

type ParentResolver interface {
	ResolveParentID(ctx context.Context, studentID string) (string, error)
}

type DeviceTokenResolver interface {
	ResolveDeviceToken(ctx context.Context, userID string) (string, error)
}

type SubscriptionChecker interface {
	IsSubscribed(ctx context.Context, userID string, typeID int64) (bool, error)
}

type AuditWriter interface {
	Record(ctx context.Context, userID, message, status string) (*models.NotificationHistory, error)
}

// Dependencies are the collaborators a Handler dispatches through. Dedup and
// Observability are optional.
type Dependencies struct {
	Types         TypeStore
	Students      ParentResolver
	Tokens        DeviceTokenResolver
	Subscriptions SubscriptionChecker
	Push          push.Gateway
	Audit         AuditWriter
	Dedup         Deduplicator
	Observability *observability.Observability
}

type Handler struct {
	config        *Config
	types         TypeStore
	students      ParentResolver
	tokens        DeviceTokenResolver
	subscriptions SubscriptionChecker
	push          push.Gateway
	audit         AuditWriter
	dedup         Deduplicator
	obs           *observability.Observability
	logger        logger.Logger
}

func NewHandler(config *Config, deps Dependencies, log logger.Logger) *Handler {
	obs := deps.Observability
	if obs == nil {
		obs = observability.NewNoop()
	}
	h := &Handler{
		config:        config,
		types:         deps.Types,
		students:      deps.Students,
		tokens:        deps.Tokens,
		subscriptions: deps.Subscriptions,
		push:          deps.Push,
		audit:         deps.Audit,
		obs:           obs,
		logger:        log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
	if config.DedupEnabled {
		h.dedup = deps.Dedup
	}
	return h
}

// HandleMessage decodes one stream message and dispatches it. Undecodable and
// schema-invalid payloads are dropped; only an audit write failure is returned.
func (h *Handler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	if result := validation.InboundEvent.Validate(msg.Value); !result.Valid {
		metrics.DispatchFailures.WithLabelValues(string(commonerrors.ErrCodeMalformedEvent)).Inc()
		metrics.NotificationsDispatched.WithLabelValues(OutcomeDropped).Inc()
		h.logger.Warn("dropping malformed event", map[string]interface{}{
			"topic":  msg.Topic,
			"offset": msg.Offset,
			"errors": result.Error(),
		})
		return nil
	}

	var input Input
	if err := json.Unmarshal(msg.Value, &input); err != nil {
		metrics.NotificationsDispatched.WithLabelValues(OutcomeDropped).Inc()
		h.logger.Warn("dropping undecodable event", map[string]interface{}{
			"topic":  msg.Topic,
			"offset": msg.Offset,
			"error":  err,
		})
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		return err
	}

	h.logger.Info("dispatch complete", map[string]interface{}{
		"dispatchId":  output.DispatchID,
		"outcome":     output.Outcome,
		"recipientId": output.RecipientID,
		"typeId":      output.NotificationTypeID,
	})
	return nil
}

// dispatch tracks what is known about one event while it moves through the steps.
type dispatch struct {
	output   *Output
	hint     string
	audited  bool
	dedupKey string
}

// recipient is the best-known id for attributing an audit record.
func (d *dispatch) recipient() string {
	if d.output.RecipientID != "" {
		return d.output.RecipientID
	}
	return d.hint
}

func (h *Handler) execute(ctx context.Context, input *Input) (output *Output, err error) {
	start := time.Now()
	d := &dispatch{
		output: &Output{DispatchID: uuid.New().String()},
		hint:   input.RecipientHint(),
	}

	ctx, span := h.obs.StartSpan(ctx, TaskType, attribute.String("dispatch.id", d.output.DispatchID))
	metrics.DispatchInFlight.Inc()

	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("dispatch panicked", map[string]interface{}{
				"dispatchId": d.output.DispatchID,
				"panic":      fmt.Sprint(r),
			})
			if !d.audited {
				d.output.Outcome = OutcomeFailed
				err = h.finish(ctx, d, models.StatusFailed, errorMessage(r))
			}
			metrics.DispatchFailures.WithLabelValues(string(commonerrors.ErrCodeUnexpectedFailure)).Inc()
		}
		output = d.output

		elapsed := time.Since(start)
		metrics.DispatchInFlight.Dec()
		metrics.DispatchDuration.Observe(elapsed.Seconds())
		metrics.NotificationsDispatched.WithLabelValues(output.Outcome).Inc()
		h.obs.RecordDispatch(ctx, output.Outcome)
		h.obs.RecordDispatchDuration(ctx, elapsed, output.Outcome)
		span.SetAttributes(
			attribute.String("dispatch.recipient", output.RecipientID),
			attribute.String("dispatch.outcome", output.Outcome),
		)
		span.End()
	}()

	return h.run(ctx, input, d)
}

func (h *Handler) run(ctx context.Context, input *Input, d *dispatch) (*Output, error) {
	out := d.output
	fields := map[string]interface{}{"dispatchId": out.DispatchID}

	if d.hint == "" {
		out.Outcome = OutcomeDropped
		metrics.DispatchFailures.WithLabelValues(string(commonerrors.ErrCodeMalformedEvent)).Inc()
		h.logger.Warn("dropping event without recipient", map[string]interface{}{
			"dispatchId": out.DispatchID,
			"error":      fmt.Errorf("%w: no user_id, student_id or parent_id", ErrMalformedEvent).Error(),
		})
		return out, nil
	}
	fields["hint"] = d.hint

	typeName := input.NotificationType
	if typeName == "" {
		typeName = h.config.DefaultType
	}

	if h.dedup != nil {
		if h.isDuplicate(ctx, input, d, typeName) {
			out.Outcome = OutcomeDuplicate
			h.logger.Info("skipping redelivered event", fields)
			return out, nil
		}
	}

	typeRes := h.resolveType(ctx, typeName)
	if typeRes.kind == stepFallback {
		h.noteFallback("notification_type", typeRes.reason, copyFields(fields))
	}
	out.NotificationTypeID = typeRes.value.ID

	recipientRes := h.resolveRecipient(ctx, input, d.hint)
	if recipientRes.kind == stepFallback {
		h.noteFallback("parent", recipientRes.reason, copyFields(fields))
	}
	out.RecipientID = recipientRes.value
	fields["recipientId"] = out.RecipientID

	tokenRes := h.resolveToken(ctx, out.RecipientID)
	if tokenRes.kind == stepFatal {
		var tf *tokenFailure
		code := commonerrors.ErrCodeResolutionFailure
		msg := tokenErrMessage
		if errors.As(tokenRes.reason, &tf) {
			msg = tf.message
			if msg == noTokenMessage {
				code = commonerrors.ErrCodeNoDeviceToken
			}
		}
		metrics.DispatchFailures.WithLabelValues(string(code)).Inc()
		h.logger.Error("device token unavailable", merge(fields, map[string]interface{}{"error": tokenRes.reason.Error()}))
		out.Outcome = OutcomeFailed
		return out, h.finish(ctx, d, models.StatusFailed, msg)
	}

	subRes := h.checkSubscription(ctx, out.RecipientID, out.NotificationTypeID)
	if subRes.kind == stepFatal {
		metrics.DispatchFailures.WithLabelValues(string(commonerrors.ErrCodeSubscriptionFailed)).Inc()
		h.logger.Error("subscription check failed", merge(fields, map[string]interface{}{"error": subRes.reason.Error()}))
		out.Outcome = OutcomeFailed
		return out, h.finish(ctx, d, models.StatusFailed, errorMessage(subRes.reason))
	}
	if !subRes.value {
		h.logger.Info("recipient unsubscribed", merge(fields, map[string]interface{}{"type": typeName}))
		out.Outcome = OutcomeSkipped
		return out, h.finish(ctx, d, models.StatusSkipped,
			fmt.Sprintf("Notification not sent: user unsubscribed from %s", typeName))
	}

	title, body := format(typeName, input)

	status := models.StatusSent
	if !h.push.Send(ctx, tokenRes.value, title, body, input.DataStrings()) {
		status = models.StatusFailed
		metrics.DispatchFailures.WithLabelValues(string(commonerrors.ErrCodePushFailure)).Inc()
	}
	out.Outcome = status
	return out, h.finish(ctx, d, status, auditMessage(status, title, body))
}

// finish writes the single audit record for a dispatch. The write runs on a detached
// context so an expired dispatch deadline still leaves a trail.
func (h *Handler) finish(ctx context.Context, d *dispatch, status, message string) error {
	d.audited = true
	d.output.Message = message

	auditCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.config.AuditTimeout)
	defer cancel()

	if _, err := h.audit.Record(auditCtx, d.recipient(), message, status); err != nil {
		metrics.DispatchFailures.WithLabelValues(string(commonerrors.ErrCodeAuditWriteFailed)).Inc()
		h.logger.Error("failed to record notification history", map[string]interface{}{
			"dispatchId":  d.output.DispatchID,
			"recipientId": d.recipient(),
			"status":      status,
			"error":       err,
		})
		return fmt.Errorf("%w: %v", ErrAuditWriteFailed, err)
	}

	if h.dedup != nil && d.dedupKey != "" {
		if err := h.dedup.Mark(auditCtx, d.dedupKey); err != nil {
			h.logger.Warn("failed to mark event as dispatched", map[string]interface{}{
				"dispatchId": d.output.DispatchID,
				"error":      err,
			})
		}
	}
	return nil
}

func (h *Handler) isDuplicate(ctx context.Context, input *Input, d *dispatch, typeName string) bool {
	key, err := DedupKey(input, d.hint, typeName)
	if err != nil {
		h.logger.Warn("failed to compute dedup key", map[string]interface{}{"error": err})
		return false
	}
	d.dedupKey = key

	seen, err := h.dedup.Seen(ctx, key)
	if err != nil {
		h.logger.Warn("dedup lookup failed", map[string]interface{}{"error": err})
		return false
	}
	return seen
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func copyFields(fields map[string]interface{}) map[string]interface{} {
	return merge(fields, nil)
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
