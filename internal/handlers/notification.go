package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"bus-tracking-services/internal/common/errors"
	"bus-tracking-services/internal/common/logger"
	"bus-tracking-services/internal/models"
	"bus-tracking-services/internal/repository"
)

// HistoryRecorder appends audit records.
type HistoryRecorder interface {
	Record(ctx context.Context, userID, message, status string) (*models.NotificationHistory, error)
}

type NotificationDeps struct {
	History       repository.HistoryRepository
	Index         repository.HistoryIndex
	Types         repository.NotificationTypeRepository
	Subscriptions repository.SubscriptionRepository
	Preferences   repository.SubscriptionStore
	Recorder      HistoryRecorder
}

type NotificationHandler struct {
	history       repository.HistoryRepository
	index         repository.HistoryIndex
	types         repository.NotificationTypeRepository
	subscriptions repository.SubscriptionRepository
	preferences   repository.SubscriptionStore
	recorder      HistoryRecorder
	errors        *errors.ErrorHandler
	logger        logger.Logger
}

func NewNotificationHandler(deps NotificationDeps, log logger.Logger) *NotificationHandler {
	l := log.WithFields(map[string]interface{}{"handler": "notification"})
	return &NotificationHandler{
		history:       deps.History,
		index:         deps.Index,
		types:         deps.Types,
		subscriptions: deps.Subscriptions,
		preferences:   deps.Preferences,
		recorder:      deps.Recorder,
		errors:        errors.NewErrorHandler(l),
		logger:        l,
	}
}

// ==========================
// History
// ==========================

func (h *NotificationHandler) UserHistory(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]

	records, err := h.history.ListByUser(r.Context(), userID)
	if err != nil {
		h.errors.HandleHTTPError(w, r, errors.NewDatabaseQueryFailedError("history_by_user", err))
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *NotificationHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	skip, limit, err := pagination(r)
	if err != nil {
		h.errors.HandleHTTPError(w, r, err)
		return
	}

	records, err := h.history.List(r.Context(), models.HistoryFilter{
		Status: strings.TrimSpace(r.URL.Query().Get("status")),
		Skip:   skip,
		Limit:  limit,
	})
	if err != nil {
		h.errors.HandleHTTPError(w, r, errors.NewDatabaseQueryFailedError("history_list", err))
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *NotificationHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "notification_id")
	if err != nil {
		h.errors.HandleHTTPError(w, r, err)
		return
	}

	record, err := h.history.Get(r.Context(), id)
	if err != nil {
		h.errors.HandleHTTPError(w, r, errors.NewDatabaseQueryFailedError("history_by_id", err))
		return
	}
	if record == nil {
		h.errors.HandleHTTPError(w, r, errors.NewResourceNotFoundError("Notification not found", ""))
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// SearchHistory runs a text query over the mirrored history index.
func (h *NotificationHandler) SearchHistory(w http.ResponseWriter, r *http.Request) {
	if h.index == nil {
		h.errors.HandleHTTPError(w, r, errors.NewServiceUnavailableError("Search is not configured"))
		return
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		h.errors.HandleHTTPError(w, r, err)
		return
	}

	q := r.URL.Query()
	records, total, err := h.index.Search(r.Context(), models.HistorySearch{
		Query:  strings.TrimSpace(q.Get("q")),
		UserID: strings.TrimSpace(q.Get("user_id")),
		Status: strings.TrimSpace(q.Get("status")),
		Limit:  limit,
	})
	if err != nil {
		h.errors.HandleHTTPError(w, r, errors.NewSearchQueryFailedError("notification-history", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total":   total,
		"results": records,
	})
}
