// Package domain re-exports core domain types so internal code can import
// `geofence/internal/domain` while using definitions from `geofence/pkg/domain`.
package domain

import pkg "geofence/pkg/domain"

// Coordinate is a latitude/longitude pair in degrees.
type Coordinate = pkg.Coordinate

// User represents a tracked user.
type User = pkg.User

// Geofence represents a circular zone owned by a user.
type Geofence = pkg.Geofence

// Location is a user's latest known position.
type Location = pkg.Location

// Alert is a persisted geofence exit record.
type Alert = pkg.Alert

// Device is a registered push target.
type Device = pkg.Device

// DevicePlatform tags the client application type.
type DevicePlatform = pkg.DevicePlatform

// UserProfile aggregates a user's geofences, devices, location and alerts.
type UserProfile = pkg.UserProfile

// Re-exported device platforms.
const (
	PlatformAndroid = pkg.PlatformAndroid
	PlatformIOS     = pkg.PlatformIOS
	PlatformWeb     = pkg.PlatformWeb
)
