// Package alert records geofence alerts and fans them out as push
// notifications. It runs inside the worker, never on the request path.
package alert

import (
	"context"
	"strconv"
	"time"

	"geofence/internal/domain"
	"geofence/internal/metrics"
	"geofence/internal/push"
	"geofence/internal/queue"
	"geofence/pkg/errors"
	"geofence/pkg/logger"
)

// NotificationTitle is the title of every geofence push notification.
const NotificationTitle = "Geofence Alert"

type Repository interface {
	CreateAlert(ctx context.Context, userID int64, geofenceID *int64, message string) (*domain.Alert, error)
}

type DeviceRepository interface {
	GetDevicesForUser(ctx context.Context, userID int64) ([]*domain.Device, error)
}

// Report summarises one dispatch.
type Report struct {
	AlertID int64
	Devices int
	Sent    int
	Failed  int
}

type Dispatcher struct {
	alerts  Repository
	devices DeviceRepository
	sender  push.Sender
	logger  logger.Logger
	metrics *metrics.Metrics
}

func NewDispatcher(alerts Repository, devices DeviceRepository, sender push.Sender, log logger.Logger, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		alerts:  alerts,
		devices: devices,
		sender:  sender,
		logger:  log,
		metrics: m,
	}
}

// Dispatch persists the alert and then notifies every device of the user.
// Only a failure to persist the alert is returned; device lookup and send
// failures are logged and reflected in the report.
func (d *Dispatcher) Dispatch(ctx context.Context, job queue.Job) (*Report, error) {
	alert, err := d.alerts.CreateAlert(ctx, job.UserID, job.GeofenceID, job.Message)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create alert")
	}

	report := &Report{AlertID: alert.ID}

	devices, err := d.devices.GetDevicesForUser(ctx, job.UserID)
	if err != nil {
		d.logger.Error("Failed to load devices for alert", map[string]interface{}{
			"alert_id": alert.ID,
			"user_id":  job.UserID,
			"error":    err.Error(),
		})
		return report, nil
	}
	report.Devices = len(devices)

	data := map[string]string{
		"alert_id":    strconv.FormatInt(alert.ID, 10),
		"user_id":     strconv.FormatInt(job.UserID, 10),
		"geofence_id": "0",
	}
	if job.GeofenceID != nil {
		data["geofence_id"] = strconv.FormatInt(*job.GeofenceID, 10)
	}

	for _, device := range devices {
		d.logger.Debug("Sending push notification", map[string]interface{}{
			"alert_id":  alert.ID,
			"user_id":   job.UserID,
			"device_id": device.ID,
		})

		if err := d.sender.Send(ctx, device.Token, NotificationTitle, job.Message, data); err != nil {
			report.Failed++
			d.metrics.Notification(false)
			d.logger.Warn("Push notification failed", map[string]interface{}{
				"alert_id":  alert.ID,
				"user_id":   job.UserID,
				"device_id": device.ID,
				"platform":  device.Platform,
				"error":     err.Error(),
			})
			continue
		}

		report.Sent++
		d.metrics.Notification(true)
	}

	d.logger.Info("Alert dispatched", map[string]interface{}{
		"alert_id": alert.ID,
		"user_id":  job.UserID,
		"job_id":   job.ID,
		"devices":  report.Devices,
		"sent":     report.Sent,
		"failed":   report.Failed,
	})

	return report, nil
}

// Handle adapts Dispatch to queue.Handler.
func (d *Dispatcher) Handle(ctx context.Context, job queue.Job) error {
	start := time.Now()
	_, err := d.Dispatch(ctx, job)
	d.metrics.JobProcessed(err, time.Since(start).Seconds())
	return err
}
