// ==============================================================================
// DOMAIN MODELS - pkg/domain/models.go
// ==============================================================================
package domain

import (
	"time"
)

// Coordinate is a latitude/longitude pair in degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type User struct {
	ID        int64     `json:"id" db:"id"`
	Username  string    `json:"username" db:"username"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Geofence is a circular zone owned by a single user.
type Geofence struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	CenterLat float64   `json:"center_lat" db:"center_lat"`
	CenterLon float64   `json:"center_lon" db:"center_lon"`
	RadiusM   float64   `json:"radius_m" db:"radius_m"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

func (g *Geofence) Center() Coordinate {
	return Coordinate{Lat: g.CenterLat, Lon: g.CenterLon}
}

// Location is the latest known position of a user. There is at most one
// row per user; updates overwrite it.
type Location struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Lat       float64   `json:"lat" db:"lat"`
	Lon       float64   `json:"lon" db:"lon"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Alert is an append-only record of a user leaving their geofence.
type Alert struct {
	ID         int64     `json:"id" db:"id"`
	UserID     int64     `json:"user_id" db:"user_id"`
	GeofenceID *int64    `json:"geofence_id,omitempty" db:"geofence_id"`
	Message    string    `json:"message" db:"message"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// DevicePlatform tags the client application type.
type DevicePlatform string

const (
	PlatformAndroid DevicePlatform = "android"
	PlatformIOS     DevicePlatform = "ios"
	PlatformWeb     DevicePlatform = "web"
)

// Device is a push target. Token is the identity key: registering a known
// token under another user moves the device to that user.
type Device struct {
	ID        int64          `json:"id" db:"id"`
	UserID    int64          `json:"user_id" db:"user_id"`
	Platform  DevicePlatform `json:"platform" db:"platform"`
	Token     string         `json:"fcm_token" db:"fcm_token"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" db:"updated_at"`
}

// UserProfile aggregates everything known about a user.
type UserProfile struct {
	User         *User       `json:"user"`
	Geofences    []*Geofence `json:"geofences"`
	Devices      []*Device   `json:"devices"`
	LastLocation *Location   `json:"last_location"`
	Alerts       []*Alert    `json:"alerts"`
}
