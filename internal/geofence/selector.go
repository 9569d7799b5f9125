package geofence

import (
	"geofence/internal/domain"
)

// Selector picks the geofence a location update is evaluated against.
// It returns nil when the set is empty.
type Selector interface {
	Select(geofences []*domain.Geofence) *domain.Geofence
}

// FirstCreated selects the oldest geofence, falling back to the lowest ID
// when creation times tie. Users with several geofences are only ever
// checked against this one.
type FirstCreated struct{}

func (FirstCreated) Select(geofences []*domain.Geofence) *domain.Geofence {
	var first *domain.Geofence
	for _, gf := range geofences {
		if gf == nil {
			continue
		}
		if first == nil || gf.CreatedAt.Before(first.CreatedAt) ||
			(gf.CreatedAt.Equal(first.CreatedAt) && gf.ID < first.ID) {
			first = gf
		}
	}
	return first
}
