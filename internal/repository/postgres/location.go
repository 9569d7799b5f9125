package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"geofence/internal/domain"
	"geofence/pkg/errors"
)

type LocationRepository struct {
	db *sqlx.DB
}

func NewLocationRepository(db *sqlx.DB) *LocationRepository {
	return &LocationRepository{db: db}
}

// UpsertLocation creates the user's location row or overwrites it in place.
// user_id is the row's identity; concurrent writers race and the last wins.
func (r *LocationRepository) UpsertLocation(ctx context.Context, userID int64, lat, lon float64) (*domain.Location, error) {
	loc := &domain.Location{}
	query := `
		INSERT INTO user_locations (user_id, lat, lon, updated_at)
		VALUES ($1, $2, $3, clock_timestamp())
		ON CONFLICT (user_id) DO UPDATE SET
			lat = EXCLUDED.lat,
			lon = EXCLUDED.lon,
			updated_at = EXCLUDED.updated_at
		RETURNING id, user_id, lat, lon, updated_at
	`
	err := r.db.GetContext(ctx, loc, query, userID, lat, lon)
	if err != nil {
		if pqCode(err) == pqForeignKeyViolation {
			return nil, errors.ErrUserNotFound
		}
		return nil, errors.Storage(err, "failed to upsert location")
	}
	return loc, nil
}

// GetLastLocation returns nil without error when the user never reported.
func (r *LocationRepository) GetLastLocation(ctx context.Context, userID int64) (*domain.Location, error) {
	loc := &domain.Location{}
	query := `SELECT id, user_id, lat, lon, updated_at FROM user_locations WHERE user_id = $1`
	err := r.db.GetContext(ctx, loc, query, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Storage(err, "failed to find location by user id")
	}
	return loc, nil
}
