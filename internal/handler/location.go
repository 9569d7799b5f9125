package handler

import (
	"context"
	"net/http"

	"geofence/internal/location"
	"geofence/internal/middleware"
	"geofence/pkg/validator"
)

type LocationService interface {
	HandleLocationUpdate(ctx context.Context, userID int64, lat, lon float64) (*location.CheckResult, error)
}

// LocationHandler accepts location updates from devices.
type LocationHandler struct {
	service   LocationService
	validator *validator.Validator
	logger    Logger
}

func NewLocationHandler(service LocationService, val *validator.Validator, log Logger) *LocationHandler {
	return &LocationHandler{service: service, validator: val, logger: log}
}

// Update handles POST /api/v1/location/update. The response is sent once the
// location is stored and evaluated; any alert is dispatched afterwards.
func (h *LocationHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req location.UpdateLocationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if errs := h.validator.ValidateStructured(&req); errs != nil {
		respondValidationErrors(w, errs)
		return
	}
	if !authorized(r, req.UserID) {
		respondError(w, http.StatusForbidden, "Forbidden")
		return
	}

	res, err := h.service.HandleLocationUpdate(r.Context(), req.UserID, *req.Lat, *req.Lon)
	if err != nil {
		respondServiceError(w, h.logger, "Location update", err)
		return
	}

	respondJSON(w, http.StatusOK, res)
}

// authorized reports whether the caller may act for userID. Without
// authentication in front of the handler every caller may.
func authorized(r *http.Request, userID int64) bool {
	caller, ok := middleware.UserIDFromContext(r.Context())
	return !ok || caller == userID
}
