package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestNoop_IsSafe(t *testing.T) {
	o := NewNoop()

	ctx, span := o.StartSpan(context.Background(), "dispatch-notification", attribute.String("dispatch.id", "x"))
	assert.NotNil(t, ctx)
	span.End()

	assert.NotPanics(t, func() {
		o.RecordDispatch(ctx, "sent")
		o.RecordDispatchDuration(ctx, time.Millisecond, "sent")
		o.Shutdown()
	})
}

func TestNew_StartsRecordingSpans(t *testing.T) {
	o := New("observability-test")
	defer o.Shutdown()

	_, span := o.StartSpan(context.Background(), "dispatch-notification")
	defer span.End()

	assert.True(t, span.SpanContext().IsValid())
	assert.True(t, span.IsRecording())

	o.RecordDispatch(context.Background(), "failed")
}
