package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"geofence/internal/domain"
	"geofence/pkg/errors"
)

type GeofenceRepository struct {
	db *sqlx.DB
}

func NewGeofenceRepository(db *sqlx.DB) *GeofenceRepository {
	return &GeofenceRepository{db: db}
}

func (r *GeofenceRepository) CreateGeofence(ctx context.Context, gf *domain.Geofence) error {
	query := `
		INSERT INTO geofences (user_id, center_lat, center_lon, radius_m, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, created_at
	`
	err := r.db.QueryRowxContext(ctx, query, gf.UserID, gf.CenterLat, gf.CenterLon, gf.RadiusM).
		Scan(&gf.ID, &gf.CreatedAt)
	if err != nil {
		if pqCode(err) == pqForeignKeyViolation {
			return errors.ErrUserNotFound
		}
		return errors.Storage(err, "failed to create geofence")
	}
	return nil
}

// GetUserGeofences lists the user's geofences oldest first.
func (r *GeofenceRepository) GetUserGeofences(ctx context.Context, userID int64) ([]*domain.Geofence, error) {
	geofences := []*domain.Geofence{}
	query := `
		SELECT id, user_id, center_lat, center_lon, radius_m, created_at
		FROM geofences
		WHERE user_id = $1
		ORDER BY created_at ASC, id ASC
	`
	if err := r.db.SelectContext(ctx, &geofences, query, userID); err != nil {
		return nil, errors.Storage(err, "failed to find geofences by user id")
	}
	return geofences, nil
}
