package handlers

import (
	stderrors "errors"
	"net/http"

	"bus-tracking-services/internal/common/errors"
	"bus-tracking-services/internal/common/validation"
	"bus-tracking-services/internal/models"
)

const typeNotFound = "Notification type not found"

func (h *NotificationHandler) ListTypes(w http.ResponseWriter, r *http.Request) {
	skip, limit, err := pagination(r)
	if err != nil {
		h.errors.HandleHTTPError(w, r, err)
		return
	}
	isActive, err := queryBool(r, "is_active")
	if err != nil {
		h.errors.HandleHTTPError(w, r, err)
		return
	}

	types, err := h.types.List(r.Context(), skip, limit, isActive)
	if err != nil {
		h.errors.HandleHTTPError(w, r, errors.NewDatabaseQueryFailedError("types_list", err))
		return
	}
	writeJSON(w, http.StatusOK, types)
}

func (h *NotificationHandler) GetType(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "notification_type_id")
	if err != nil {
		h.errors.HandleHTTPError(w, r, err)
		return
	}

	t, err := h.types.Get(r.Context(), id)
	if err != nil {
		h.errors.HandleHTTPError(w, r, errors.NewDatabaseQueryFailedError("type_by_id", err))
		return
	}
	if t == nil {
		h.errors.HandleHTTPError(w, r, errors.NewResourceNotFoundError(typeNotFound, ""))
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *NotificationHandler) CreateType(w http.ResponseWriter, r *http.Request) {
	var in models.NotificationTypeCreate
	if err := decodeBody(r, validation.NotificationTypeCreate, &in); err != nil {
		h.errors.HandleHTTPError(w, r, err)
		return
	}

	t, err := h.types.Create(r.Context(), in)
	if err != nil {
		h.errors.HandleHTTPError(w, r, wrapStoreError("type_create", err))
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *NotificationHandler) UpdateType(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "notification_type_id")
	if err != nil {
		h.errors.HandleHTTPError(w, r, err)
		return
	}
	var in models.NotificationTypeUpdate
	if err := decodeBody(r, validation.NotificationTypeUpdate, &in); err != nil {
		h.errors.HandleHTTPError(w, r, err)
		return
	}

	t, err := h.types.Update(r.Context(), id, in)
	if err != nil {
		h.errors.HandleHTTPError(w, r, wrapStoreError("type_update", err))
		return
	}
	if t == nil {
		h.errors.HandleHTTPError(w, r, errors.NewResourceNotFoundError(typeNotFound, ""))
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *NotificationHandler) DeleteType(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "notification_type_id")
	if err != nil {
		h.errors.HandleHTTPError(w, r, err)
		return
	}

	deleted, err := h.types.Delete(r.Context(), id)
	if err != nil {
		h.errors.HandleHTTPError(w, r, errors.NewDatabaseQueryFailedError("type_delete", err))
		return
	}
	if !deleted {
		h.errors.HandleHTTPError(w, r, errors.NewResourceNotFoundError(typeNotFound, ""))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Notification type deleted successfully"})
}

// wrapStoreError keeps StandardErrors raised by the repository and wraps anything else.
func wrapStoreError(queryType string, err error) error {
	var se *errors.StandardError
	if stderrors.As(err, &se) {
		return err
	}
	return errors.NewDatabaseQueryFailedError(queryType, err)
}
