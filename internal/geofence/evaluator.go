// Package geofence decides whether a location lies inside a user's zone and
// whether that outcome warrants an alert.
package geofence

import (
	"geofence/internal/domain"
	"geofence/internal/geo"
)

// Containment is the outcome of checking one location against one geofence.
type Containment struct {
	Inside    bool
	DistanceM float64
}

// Decision says whether a containment result should raise an alert.
type Decision struct {
	ShouldAlert bool
}

// Evaluate measures the distance from loc to the geofence center. A point
// exactly on the radius counts as inside.
func Evaluate(loc domain.Coordinate, gf *domain.Geofence) Containment {
	distance := geo.DistanceMeters(loc, gf.Center())
	return Containment{
		Inside:    distance <= gf.RadiusM,
		DistanceM: distance,
	}
}

// Decide alerts on every outside result. There is no cooldown or
// confirmation window; a user who stays outside alerts on each update.
func Decide(c Containment) Decision {
	return Decision{ShouldAlert: !c.Inside}
}
