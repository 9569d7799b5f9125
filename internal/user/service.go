package user

import (
	"context"

	"geofence/internal/domain"
	"geofence/pkg/errors"
	"geofence/pkg/logger"
)

const (
	DefaultAlertLimit = 100
	MaxAlertLimit     = 1000
	profileAlertLimit = 50
)

type Repository interface {
	CreateUser(ctx context.Context, username string) (*domain.User, error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)
}

type GeofenceRepository interface {
	CreateGeofence(ctx context.Context, gf *domain.Geofence) error
	GetUserGeofences(ctx context.Context, userID int64) ([]*domain.Geofence, error)
}

type DeviceRepository interface {
	RegisterOrUpdateDevice(ctx context.Context, userID int64, platform domain.DevicePlatform, token string) (*domain.Device, error)
	GetDevicesForUser(ctx context.Context, userID int64) ([]*domain.Device, error)
}

type LocationRepository interface {
	GetLastLocation(ctx context.Context, userID int64) (*domain.Location, error)
}

type AlertRepository interface {
	ListAlerts(ctx context.Context, limit int) ([]*domain.Alert, error)
	ListAlertsForUser(ctx context.Context, userID int64, limit int) ([]*domain.Alert, error)
}

type CreateUserRequest struct {
	Username string `json:"username" validate:"required,min=1,max=50"`
}

type CreateGeofenceRequest struct {
	UserID    int64    `json:"user_id" validate:"required,gt=0"`
	CenterLat *float64 `json:"center_lat" validate:"required,gte=-90,lte=90"`
	CenterLon *float64 `json:"center_lon" validate:"required,gte=-180,lte=180"`
	RadiusM   float64  `json:"radius_m" validate:"gt=0"`
}

type RegisterDeviceRequest struct {
	UserID   int64  `json:"user_id" validate:"required,gt=0"`
	Platform string `json:"platform" validate:"required,oneof=android ios web"`
	FCMToken string `json:"fcm_token" validate:"required,max=255,push_token"`
}

// Service covers the plain CRUD around users: registration, geofences,
// devices and alert history.
type Service struct {
	users     Repository
	geofences GeofenceRepository
	devices   DeviceRepository
	locations LocationRepository
	alerts    AlertRepository
	logger    logger.Logger
}

func NewService(
	users Repository,
	geofences GeofenceRepository,
	devices DeviceRepository,
	locations LocationRepository,
	alerts AlertRepository,
	log logger.Logger,
) *Service {
	return &Service{
		users:     users,
		geofences: geofences,
		devices:   devices,
		locations: locations,
		alerts:    alerts,
		logger:    log,
	}
}

func (s *Service) CreateUser(ctx context.Context, req *CreateUserRequest) (*domain.User, error) {
	user, err := s.users.CreateUser(ctx, req.Username)
	if err != nil {
		return nil, err
	}

	s.logger.Info("User created", map[string]interface{}{
		"user_id":  user.ID,
		"username": user.Username,
	})
	return user, nil
}

// CreateGeofence checks the owner exists before inserting.
func (s *Service) CreateGeofence(ctx context.Context, req *CreateGeofenceRequest) (*domain.Geofence, error) {
	if _, err := s.users.GetUser(ctx, req.UserID); err != nil {
		return nil, err
	}

	gf := &domain.Geofence{
		UserID:    req.UserID,
		CenterLat: *req.CenterLat,
		CenterLon: *req.CenterLon,
		RadiusM:   req.RadiusM,
	}
	if err := s.geofences.CreateGeofence(ctx, gf); err != nil {
		return nil, err
	}

	s.logger.Info("Geofence created", map[string]interface{}{
		"geofence_id": gf.ID,
		"user_id":     gf.UserID,
		"radius_m":    gf.RadiusM,
	})
	return gf, nil
}

// RegisterDevice registers a push token for the user, taking the token
// over if another user held it.
func (s *Service) RegisterDevice(ctx context.Context, req *RegisterDeviceRequest) (*domain.Device, error) {
	if _, err := s.users.GetUser(ctx, req.UserID); err != nil {
		return nil, err
	}

	device, err := s.devices.RegisterOrUpdateDevice(ctx, req.UserID, domain.DevicePlatform(req.Platform), req.FCMToken)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Device registered", map[string]interface{}{
		"device_id": device.ID,
		"user_id":   device.UserID,
		"platform":  device.Platform,
	})
	return device, nil
}

func (s *Service) ListAlerts(ctx context.Context, limit int) ([]*domain.Alert, error) {
	return s.alerts.ListAlerts(ctx, clampLimit(limit))
}

func (s *Service) ListUserAlerts(ctx context.Context, userID int64, limit int) ([]*domain.Alert, error) {
	if _, err := s.users.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.alerts.ListAlertsForUser(ctx, userID, clampLimit(limit))
}

// GetProfile gathers the user, their geofences and devices, the last known
// location (nil if none) and the latest alerts.
func (s *Service) GetProfile(ctx context.Context, userID int64) (*domain.UserProfile, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	geofences, err := s.geofences.GetUserGeofences(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load geofences")
	}
	devices, err := s.devices.GetDevicesForUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load devices")
	}
	last, err := s.locations.GetLastLocation(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load last location")
	}
	alerts, err := s.alerts.ListAlertsForUser(ctx, userID, profileAlertLimit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load alerts")
	}

	return &domain.UserProfile{
		User:         user,
		Geofences:    geofences,
		Devices:      devices,
		LastLocation: last,
		Alerts:       alerts,
	}, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultAlertLimit
	}
	if limit > MaxAlertLimit {
		return MaxAlertLimit
	}
	return limit
}
