package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"geofence/internal/domain"
	"geofence/pkg/errors"
)

type AlertRepository struct {
	db *sqlx.DB
}

func NewAlertRepository(db *sqlx.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

func (r *AlertRepository) CreateAlert(ctx context.Context, userID int64, geofenceID *int64, message string) (*domain.Alert, error) {
	alert := &domain.Alert{}
	query := `
		INSERT INTO alerts (user_id, geofence_id, message, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, user_id, geofence_id, message, created_at
	`
	if err := r.db.GetContext(ctx, alert, query, userID, geofenceID, message); err != nil {
		return nil, errors.Storage(err, "failed to create alert")
	}
	return alert, nil
}

// ListAlerts returns the most recent alerts across all users.
func (r *AlertRepository) ListAlerts(ctx context.Context, limit int) ([]*domain.Alert, error) {
	alerts := []*domain.Alert{}
	query := `
		SELECT id, user_id, geofence_id, message, created_at
		FROM alerts
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`
	if err := r.db.SelectContext(ctx, &alerts, query, limit); err != nil {
		return nil, errors.Storage(err, "failed to list alerts")
	}
	return alerts, nil
}

func (r *AlertRepository) ListAlertsForUser(ctx context.Context, userID int64, limit int) ([]*domain.Alert, error) {
	alerts := []*domain.Alert{}
	query := `
		SELECT id, user_id, geofence_id, message, created_at
		FROM alerts
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	if err := r.db.SelectContext(ctx, &alerts, query, userID, limit); err != nil {
		return nil, errors.Storage(err, "failed to list alerts by user id")
	}
	return alerts, nil
}
