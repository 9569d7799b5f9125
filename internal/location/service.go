// ==============================================================================
// LOCATION SERVICE - internal/location/service.go
// ==============================================================================
package location

import (
	"context"
	"time"

	"geofence/internal/domain"
	"geofence/internal/geofence"
	"geofence/internal/metrics"
	"geofence/internal/queue"
	"geofence/pkg/errors"
	"geofence/pkg/logger"
)

// OutsideMessage is the alert text used when a user leaves their geofence.
const OutsideMessage = "User is outside geofenced area"

const enqueueTimeout = 5 * time.Second

type UserRepository interface {
	GetUser(ctx context.Context, id int64) (*domain.User, error)
}

type Repository interface {
	UpsertLocation(ctx context.Context, userID int64, lat, lon float64) (*domain.Location, error)
}

type GeofenceRepository interface {
	GetUserGeofences(ctx context.Context, userID int64) ([]*domain.Geofence, error)
}

type UpdateLocationRequest struct {
	UserID int64    `json:"user_id" validate:"required,gt=0"`
	Lat    *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lon    *float64 `json:"lon" validate:"required,gte=-180,lte=180"`
}

// CheckResult is returned to the caller of a location update.
type CheckResult struct {
	Inside    bool    `json:"inside"`
	DistanceM float64 `json:"distance_m"`
	Alert     bool    `json:"alert"`
}

type Service struct {
	users     UserRepository
	locations Repository
	geofences GeofenceRepository
	jobs      queue.Enqueuer
	selector  geofence.Selector
	logger    logger.Logger
	metrics   *metrics.Metrics
}

// NewService wires the orchestrator. A nil selector means FirstCreated.
func NewService(
	users UserRepository,
	locations Repository,
	geofences GeofenceRepository,
	jobs queue.Enqueuer,
	selector geofence.Selector,
	log logger.Logger,
	m *metrics.Metrics,
) *Service {
	if selector == nil {
		selector = geofence.FirstCreated{}
	}
	return &Service{
		users:     users,
		locations: locations,
		geofences: geofences,
		jobs:      jobs,
		selector:  selector,
		logger:    log,
		metrics:   m,
	}
}

// HandleLocationUpdate stores the user's latest position, evaluates it
// against the selected geofence and, when the user is outside, enqueues an
// alert job without waiting for it. The location is written before the
// geofence lookup, so it persists even when no geofence is configured.
func (s *Service) HandleLocationUpdate(ctx context.Context, userID int64, lat, lon float64) (*CheckResult, error) {
	if _, err := s.users.GetUser(ctx, userID); err != nil {
		s.metrics.LocationUpdate(outcomeFor(err))
		return nil, err
	}

	if _, err := s.locations.UpsertLocation(ctx, userID, lat, lon); err != nil {
		s.metrics.LocationUpdate(metrics.OutcomeError)
		return nil, errors.Wrap(err, "failed to store location")
	}

	geofences, err := s.geofences.GetUserGeofences(ctx, userID)
	if err != nil {
		s.metrics.LocationUpdate(metrics.OutcomeError)
		return nil, errors.Wrap(err, "failed to load geofences")
	}

	gf := s.selector.Select(geofences)
	if gf == nil {
		s.metrics.LocationUpdate(metrics.OutcomeNoGeofence)
		return nil, errors.ErrNoGeofenceConfigured
	}

	containment := geofence.Evaluate(domain.Coordinate{Lat: lat, Lon: lon}, gf)
	decision := geofence.Decide(containment)

	if decision.ShouldAlert {
		s.enqueueAlert(ctx, userID, gf.ID)
		s.metrics.LocationUpdate(metrics.OutcomeOutside)
	} else {
		s.metrics.LocationUpdate(metrics.OutcomeInside)
	}

	return &CheckResult{
		Inside:    containment.Inside,
		DistanceM: containment.DistanceM,
		Alert:     decision.ShouldAlert,
	}, nil
}

// enqueueAlert never fails the request; a lost job is logged and counted.
func (s *Service) enqueueAlert(ctx context.Context, userID, geofenceID int64) {
	job := queue.NewJob(userID, &geofenceID, OutsideMessage)

	enqueueCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), enqueueTimeout)
	defer cancel()

	err := s.jobs.Enqueue(enqueueCtx, job)
	s.metrics.AlertEnqueued(err)
	if err != nil {
		s.logger.Error("Failed to enqueue alert job", map[string]interface{}{
			"job_id":      job.ID,
			"user_id":     userID,
			"geofence_id": geofenceID,
			"error":       err.Error(),
		})
		return
	}

	s.logger.Info("Alert job enqueued", map[string]interface{}{
		"job_id":      job.ID,
		"user_id":     userID,
		"geofence_id": geofenceID,
	})
}

func outcomeFor(err error) string {
	if errors.Is(err, errors.ErrUserNotFound) {
		return metrics.OutcomeUserNotFound
	}
	return metrics.OutcomeError
}
