package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"bus-tracking-services/internal/common/errors"
	"bus-tracking-services/internal/common/logger"
	"bus-tracking-services/internal/common/validation"
	"bus-tracking-services/internal/models"
	"bus-tracking-services/internal/repository"
)

// EntityVerifier confirms that an entity id belongs to a user of the given role.
type EntityVerifier interface {
	CheckUserExists(ctx context.Context, id, role string) error
}

type LocationHandler struct {
	repo     repository.LocationRepository
	verifier EntityVerifier
	errors   *errors.ErrorHandler
	logger   logger.Logger
}

// NewLocationHandler builds the handler. A nil verifier skips entity checks.
func NewLocationHandler(repo repository.LocationRepository, verifier EntityVerifier, log logger.Logger) *LocationHandler {
	l := log.WithFields(map[string]interface{}{"handler": "location"})
	return &LocationHandler{
		repo:     repo,
		verifier: verifier,
		errors:   errors.NewErrorHandler(l),
		logger:   l,
	}
}

func (h *LocationHandler) Create(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	entityType, entityID := vars["entity_type"], vars["entity_id"]

	if !models.ValidEntityType(entityType) {
		h.errors.HandleHTTPError(w, r, errors.NewBadRequestError("entity_type must be 'student' or 'bus'"))
		return
	}

	lat, lon, err := coordinates(r)
	if err != nil {
		h.errors.HandleHTTPError(w, r, err)
		return
	}

	if h.verifier != nil {
		if err := h.verifier.CheckUserExists(r.Context(), entityID, entityType); err != nil {
			h.errors.HandleHTTPError(w, r, err)
			return
		}
	}

	if _, err := h.repo.Create(r.Context(), entityID, entityType, lat, lon); err != nil {
		h.errors.HandleHTTPError(w, r, errors.NewDatabaseInsertFailedError(err))
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"message": fmt.Sprintf("Location for %s %s created successfully", entityType, entityID),
	})
}

func (h *LocationHandler) Latest(w http.ResponseWriter, r *http.Request) {
	loc, err := h.repo.Latest(r.Context(), mux.Vars(r)["entity_id"])
	if err != nil {
		h.errors.HandleHTTPError(w, r, errors.NewDatabaseQueryFailedError("location_latest", err))
		return
	}
	if loc == nil {
		h.errors.HandleHTTPError(w, r, errors.NewResourceNotFoundError("Location not found", ""))
		return
	}
	writeJSON(w, http.StatusOK, loc)
}

func (h *LocationHandler) List(w http.ResponseWriter, r *http.Request) {
	skip, limit, err := pagination(r)
	if err != nil {
		h.errors.HandleHTTPError(w, r, err)
		return
	}
	q := r.URL.Query()
	h.list(w, r, models.LocationFilter{
		EntityID:   strings.TrimSpace(q.Get("entity_id")),
		EntityType: strings.TrimSpace(q.Get("entity_type")),
		Skip:       skip,
		Limit:      limit,
	})
}

func (h *LocationHandler) ListByEntity(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if !models.ValidEntityType(vars["entity_type"]) {
		h.errors.HandleHTTPError(w, r, errors.NewValidationError("entity_type must be 'student' or 'bus'"))
		return
	}
	skip, limit, err := pagination(r)
	if err != nil {
		h.errors.HandleHTTPError(w, r, err)
		return
	}
	h.list(w, r, models.LocationFilter{
		EntityID:   vars["entity_id"],
		EntityType: vars["entity_type"],
		Skip:       skip,
		Limit:      limit,
	})
}

func (h *LocationHandler) list(w http.ResponseWriter, r *http.Request, filter models.LocationFilter) {
	locs, err := h.repo.List(r.Context(), filter)
	if err != nil {
		h.errors.HandleHTTPError(w, r, errors.NewDatabaseQueryFailedError("location_list", err))
		return
	}
	writeJSON(w, http.StatusOK, locs)
}

// coordinates reads latitude and longitude from the query string, or from a JSON
// body when the query carries neither.
func coordinates(r *http.Request) (float64, float64, error) {
	q := r.URL.Query()
	rawLat, rawLon := strings.TrimSpace(q.Get("latitude")), strings.TrimSpace(q.Get("longitude"))

	if rawLat == "" && rawLon == "" {
		var in models.LocationCreate
		if err := decodeBody(r, validation.LocationCreate, &in); err != nil {
			return 0, 0, err
		}
		return *in.Latitude, *in.Longitude, nil
	}

	lat, err := strconv.ParseFloat(rawLat, 64)
	if err != nil {
		return 0, 0, errors.NewValidationError("latitude must be a number")
	}
	lon, err := strconv.ParseFloat(rawLon, 64)
	if err != nil {
		return 0, 0, errors.NewValidationError("longitude must be a number")
	}
	if lat < -90 || lat > 90 {
		return 0, 0, errors.NewValidationError("latitude must be between -90 and 90")
	}
	if lon < -180 || lon > 180 {
		return 0, 0, errors.NewValidationError("longitude must be between -180 and 180")
	}
	return lat, lon, nil
}
