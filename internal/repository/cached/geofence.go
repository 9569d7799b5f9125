// Package cached wraps repositories with a read-through Redis cache.
package cached

import (
	"context"
	"fmt"
	"time"

	"geofence/internal/domain"
	"geofence/pkg/cache"
	"geofence/pkg/logger"
)

type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
}

type GeofenceStore interface {
	CreateGeofence(ctx context.Context, gf *domain.Geofence) error
	GetUserGeofences(ctx context.Context, userID int64) ([]*domain.Geofence, error)
}

// GeofenceRepository caches each user's geofence list. Writes go to the
// store first and then drop the cached list. Cache failures fall back to
// the store.
type GeofenceRepository struct {
	store  GeofenceStore
	cache  Cache
	ttl    time.Duration
	logger logger.Logger
}

func NewGeofenceRepository(store GeofenceStore, c Cache, ttl time.Duration, log logger.Logger) *GeofenceRepository {
	return &GeofenceRepository{store: store, cache: c, ttl: ttl, logger: log}
}

func geofencesKey(userID int64) string {
	return fmt.Sprintf("geofence:user:%d:geofences", userID)
}

func (r *GeofenceRepository) CreateGeofence(ctx context.Context, gf *domain.Geofence) error {
	if err := r.store.CreateGeofence(ctx, gf); err != nil {
		return err
	}

	if err := r.cache.Delete(ctx, geofencesKey(gf.UserID)); err != nil {
		r.logger.Warn("Failed to invalidate geofence cache", map[string]interface{}{
			"user_id": gf.UserID,
			"error":   err.Error(),
		})
	}
	return nil
}

func (r *GeofenceRepository) GetUserGeofences(ctx context.Context, userID int64) ([]*domain.Geofence, error) {
	key := geofencesKey(userID)

	var cached []*domain.Geofence
	err := r.cache.Get(ctx, key, &cached)
	if err == nil {
		return cached, nil
	}
	if err != cache.ErrMiss {
		r.logger.Warn("Geofence cache read failed", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
	}

	geofences, err := r.store.GetUserGeofences(ctx, userID)
	if err != nil {
		return nil, err
	}

	// An empty list is not cached so a first geofence shows up immediately
	// even if the invalidation after its insert was lost.
	if len(geofences) > 0 {
		if err := r.cache.Set(ctx, key, geofences, r.ttl); err != nil {
			r.logger.Warn("Geofence cache write failed", map[string]interface{}{
				"user_id": userID,
				"error":   err.Error(),
			})
		}
	}
	return geofences, nil
}
