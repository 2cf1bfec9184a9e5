package handlers

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"bus-tracking-services/internal/common/errors"
	"bus-tracking-services/internal/common/validation"
	"bus-tracking-services/internal/models"
)

func (h *NotificationHandler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.subscriptions.ListByUser(r.Context(), mux.Vars(r)["user_id"])
	if err != nil {
		h.errors.HandleHTTPError(w, r, errors.NewDatabaseQueryFailedError("subscriptions_by_user", err))
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

func (h *NotificationHandler) GetSubscription(w http.ResponseWriter, r *http.Request) {
	typeID, err := pathInt64(r, "notification_type_id")
	if err != nil {
		h.errors.HandleHTTPError(w, r, err)
		return
	}

	sub, err := h.subscriptions.Get(r.Context(), mux.Vars(r)["user_id"], typeID)
	if err != nil {
		h.errors.HandleHTTPError(w, r, errors.NewDatabaseQueryFailedError("subscription_by_type", err))
		return
	}
	if sub == nil {
		h.errors.HandleHTTPError(w, r, errors.NewResourceNotFoundError("Subscription not found", ""))
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (h *NotificationHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	h.setSubscribed(w, r, true)
}

func (h *NotificationHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	h.setSubscribed(w, r, false)
}

func (h *NotificationHandler) setSubscribed(w http.ResponseWriter, r *http.Request, subscribed bool) {
	var in models.SubscriptionRequest
	if err := decodeBody(r, validation.SubscriptionRequest, &in); err != nil {
		h.errors.HandleHTTPError(w, r, err)
		return
	}

	sub, err := h.preferences.SetSubscribed(r.Context(), in.UserID.String(), in.NotificationTypeID, subscribed)
	if err != nil {
		h.errors.HandleHTTPError(w, r, errors.NewDatabaseInsertFailedError(err))
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// Send records a pending history entry for every user who has not opted out of the type.
func (h *NotificationHandler) Send(w http.ResponseWriter, r *http.Request) {
	var in models.SendNotificationRequest
	if err := decodeBody(r, validation.SendNotification, &in); err != nil {
		h.errors.HandleHTTPError(w, r, err)
		return
	}

	ids := []int64{}
	message := fmt.Sprintf("%s: %s", in.Title, in.Body)
	for _, userID := range in.UserIDs {
		subscribed, err := h.preferences.IsSubscribed(r.Context(), userID.String(), in.NotificationTypeID)
		if err != nil {
			h.errors.HandleHTTPError(w, r, errors.NewSubscriptionCheckFailedError(err))
			return
		}
		if !subscribed {
			continue
		}

		record, err := h.recorder.Record(r.Context(), userID.String(), message, models.StatusPending)
		if err != nil {
			h.errors.HandleHTTPError(w, r, errors.NewDatabaseInsertFailedError(err))
			return
		}
		ids = append(ids, record.ID)
	}

	h.logger.Info("manual notification queued", map[string]interface{}{
		"typeId":     in.NotificationTypeID,
		"requested":  len(in.UserIDs),
		"recipients": len(ids),
	})
	writeJSON(w, http.StatusOK, models.SendNotificationResponse{
		Success:         true,
		Message:         fmt.Sprintf("Notification sent to %d users", len(ids)),
		NotificationIDs: ids,
	})
}
