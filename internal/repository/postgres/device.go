package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"geofence/internal/domain"
	"geofence/pkg/errors"
)

type DeviceRepository struct {
	db *sqlx.DB
}

func NewDeviceRepository(db *sqlx.DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

// RegisterOrUpdateDevice finds the device by token or creates it. A token
// already registered to another user is moved to userID.
func (r *DeviceRepository) RegisterOrUpdateDevice(ctx context.Context, userID int64, platform domain.DevicePlatform, token string) (*domain.Device, error) {
	device := &domain.Device{}
	query := `
		INSERT INTO devices (user_id, platform, fcm_token, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (fcm_token) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			platform = EXCLUDED.platform,
			updated_at = NOW()
		RETURNING id, user_id, platform, fcm_token, created_at, updated_at
	`
	err := r.db.GetContext(ctx, device, query, userID, platform, token)
	if err != nil {
		if pqCode(err) == pqForeignKeyViolation {
			return nil, errors.ErrUserNotFound
		}
		return nil, errors.Storage(err, "failed to register device")
	}
	return device, nil
}

func (r *DeviceRepository) GetDevicesForUser(ctx context.Context, userID int64) ([]*domain.Device, error) {
	devices := []*domain.Device{}
	query := `
		SELECT id, user_id, platform, fcm_token, created_at, updated_at
		FROM devices
		WHERE user_id = $1
		ORDER BY id ASC
	`
	if err := r.db.SelectContext(ctx, &devices, query, userID); err != nil {
		return nil, errors.Storage(err, "failed to find devices by user id")
	}
	return devices, nil
}
