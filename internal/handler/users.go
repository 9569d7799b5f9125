package handler

import (
	"context"
	"net/http"

	"geofence/internal/domain"
	"geofence/internal/user"
	"geofence/pkg/validator"

	"github.com/gorilla/mux"
)

type UserService interface {
	CreateUser(ctx context.Context, req *user.CreateUserRequest) (*domain.User, error)
	CreateGeofence(ctx context.Context, req *user.CreateGeofenceRequest) (*domain.Geofence, error)
	RegisterDevice(ctx context.Context, req *user.RegisterDeviceRequest) (*domain.Device, error)
	ListAlerts(ctx context.Context, limit int) ([]*domain.Alert, error)
	ListUserAlerts(ctx context.Context, userID int64, limit int) ([]*domain.Alert, error)
	GetProfile(ctx context.Context, userID int64) (*domain.UserProfile, error)
}

// UsersHandler serves users, their geofences, devices and alert history.
type UsersHandler struct {
	service   UserService
	validator *validator.Validator
	logger    Logger
}

func NewUsersHandler(service UserService, val *validator.Validator, log Logger) *UsersHandler {
	return &UsersHandler{service: service, validator: val, logger: log}
}

func (h *UsersHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req user.CreateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Username = validator.Sanitize(req.Username)

	if errs := h.validator.ValidateStructured(&req); errs != nil {
		respondValidationErrors(w, errs)
		return
	}

	u, err := h.service.CreateUser(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, "Create user", err)
		return
	}
	respondJSON(w, http.StatusCreated, u)
}

func (h *UsersHandler) CreateGeofence(w http.ResponseWriter, r *http.Request) {
	var req user.CreateGeofenceRequest
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

	gf, err := h.service.CreateGeofence(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, "Create geofence", err)
		return
	}
	respondJSON(w, http.StatusCreated, gf)
}

func (h *UsersHandler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	var req user.RegisterDeviceRequest
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

	device, err := h.service.RegisterDevice(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, "Register device", err)
		return
	}
	respondJSON(w, http.StatusOK, device)
}

func (h *UsersHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.service.ListAlerts(r.Context(), parseLimit(r))
	if err != nil {
		respondServiceError(w, h.logger, "List alerts", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"alerts": alerts,
		"count":  len(alerts),
	})
}

func (h *UsersHandler) ListUserAlerts(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseID(mux.Vars(r)["id"])
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}
	if !authorized(r, userID) {
		respondError(w, http.StatusForbidden, "Forbidden")
		return
	}

	alerts, err := h.service.ListUserAlerts(r.Context(), userID, parseLimit(r))
	if err != nil {
		respondServiceError(w, h.logger, "List user alerts", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"alerts": alerts,
		"count":  len(alerts),
	})
}

func (h *UsersHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseID(mux.Vars(r)["id"])
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}
	if !authorized(r, userID) {
		respondError(w, http.StatusForbidden, "Forbidden")
		return
	}

	profile, err := h.service.GetProfile(r.Context(), userID)
	if err != nil {
		respondServiceError(w, h.logger, "Get profile", err)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}
