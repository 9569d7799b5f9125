// Package handler provides the HTTP handlers for the geofence API.
package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"geofence/pkg/errors"
)

const maxBodyBytes = 1 << 20

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// decodeJSON reads a single JSON object from the body, rejecting unknown
// fields. It writes the error response itself and reports false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		if err == io.EOF {
			respondError(w, http.StatusBadRequest, "Request body is required")
			return false
		}
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, errors.ErrUserNotFound):
		return http.StatusNotFound, "User not found"
	case errors.Is(err, errors.ErrNoGeofenceConfigured):
		return http.StatusBadRequest, "No geofence configured for this user"
	case errors.Is(err, errors.ErrUserAlreadyExists):
		return http.StatusConflict, "User already exists"
	case errors.Is(err, errors.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, "Storage unavailable"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func respondServiceError(w http.ResponseWriter, log Logger, op string, err error) {
	status, message := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error(op+" failed", map[string]interface{}{"error": err.Error()})
	}
	respondError(w, status, message)
}

func parseID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func parseLimit(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		return 0
	}
	return n
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func respondValidationErrors(w http.ResponseWriter, errs map[string]string) {
	respondJSON(w, http.StatusBadRequest, map[string]interface{}{
		"error":             "Validation failed",
		"validation_errors": errs,
	})
}
