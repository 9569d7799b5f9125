// Package errors provides common, reusable error values and helpers.
package errors

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")

	// Returned when a location update arrives for a user that owns no geofence.
	ErrNoGeofenceConfigured = errors.New("user has no geofences configured")

	// Infrastructure errors
	ErrStorageUnavailable     = errors.New("storage unavailable")
	ErrNotificationSendFailed = errors.New("notification send failed")
	ErrPushUnavailable        = errors.New("push provider unavailable")
	ErrQueueClosed            = errors.New("queue closed")
	ErrQueueFull              = errors.New("queue full")
)

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Storage marks err as a persistence failure while keeping the original
// error in the chain.
func Storage(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", message, ErrStorageUnavailable, err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
