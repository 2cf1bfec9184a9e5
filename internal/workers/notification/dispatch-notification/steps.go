// internal/workers/notification/dispatch-notification/steps.go
package dispatchnotification

import (
	"context"
	"errors"
	"fmt"

	commonerrors "bus-tracking-services/internal/common/errors"
	"bus-tracking-services/internal/common/metrics"
)

type stepKind int

const (
	stepOK stepKind = iota
	stepFallback
	stepFatal
)

// stepResult is the outcome of one resolution step. A fallback carries the value to
// continue with and the reason it was used; a fatal result ends the dispatch.
type stepResult[T any] struct {
	kind   stepKind
	value  T
	reason error
}

func ok[T any](v T) stepResult[T] {
	return stepResult[T]{kind: stepOK, value: v}
}

func fallback[T any](v T, reason error) stepResult[T] {
	return stepResult[T]{kind: stepFallback, value: v, reason: reason}
}

func fatal[T any](reason error) stepResult[T] {
	return stepResult[T]{kind: stepFatal, reason: reason}
}

type resolvedType struct {
	ID   int64
	Name string
}

func (h *Handler) resolveType(ctx context.Context, name string) stepResult[resolvedType] {
	fb := resolvedType{ID: h.config.FallbackTypeID, Name: name}

	t, err := h.types.GetByName(ctx, name)
	switch {
	case err != nil:
		return fallback(fb, fmt.Errorf("type lookup: %w", err))
	case t == nil:
		return fallback(fb, fmt.Errorf("notification type %q not found", name))
	case !t.IsActive:
		return fallback(fb, fmt.Errorf("notification type %q is inactive", name))
	}
	return ok(resolvedType{ID: t.ID, Name: name})
}

// resolveRecipient maps a student to their parent. Events without a student id are
// addressed to the hint directly.
func (h *Handler) resolveRecipient(ctx context.Context, input *Input, hint string) stepResult[string] {
	if input.StudentID == "" {
		return ok(hint)
	}
	parentID, err := h.students.ResolveParentID(ctx, input.StudentID.String())
	if err != nil {
		return fallback(hint, err)
	}
	if parentID == "" {
		return fallback(hint, errors.New("student has no parent_id"))
	}
	return ok(parentID)
}

type tokenFailure struct {
	message string
	err     error
}

func (f *tokenFailure) Error() string { return f.message + ": " + f.err.Error() }
func (f *tokenFailure) Unwrap() error { return f.err }

func (h *Handler) resolveToken(ctx context.Context, userID string) stepResult[string] {
	token, err := h.tokens.ResolveDeviceToken(ctx, userID)
	if err == nil && token != "" {
		return ok(token)
	}
	if err == nil {
		err = commonerrors.NewNoDeviceTokenError(userID)
	}
	msg := tokenErrMessage
	if errors.Is(err, &commonerrors.StandardError{Code: commonerrors.ErrCodeNoDeviceToken}) {
		msg = noTokenMessage
	}
	return fatal[string](&tokenFailure{message: msg, err: err})
}

func (h *Handler) checkSubscription(ctx context.Context, userID string, typeID int64) stepResult[bool] {
	subscribed, err := h.subscriptions.IsSubscribed(ctx, userID, typeID)
	if err != nil {
		return fatal[bool](err)
	}
	return ok(subscribed)
}

func (h *Handler) noteFallback(step string, reason error, fields map[string]interface{}) {
	metrics.ResolverFallbacks.WithLabelValues(step).Inc()
	fields["step"] = step
	fields["reason"] = reason.Error()
	h.logger.Warn("resolution fell back", fields)
}

// format applies the type template. ETA updates ignore the payload title and body.
func format(typeName string, input *Input) (string, string) {
	if typeName == TypeETAUpdate {
		eta := input.ETA.String()
		if eta == "" {
			eta = defaultETA
		}
		return etaTitle, fmt.Sprintf(etaBodyFormat, eta)
	}

	title, body := input.Title, input.Body
	if title == "" {
		title = defaultTitle
	}
	if body == "" {
		body = defaultBody
	}
	return title, body
}

func auditMessage(status, title, body string) string {
	return fmt.Sprintf("Notification %s: %s - %s", status, title, body)
}

func errorMessage(detail interface{}) string {
	return fmt.Sprintf("Error processing notification: %v", detail)
}
