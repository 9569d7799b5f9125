package alert

import (
	"context"
	"testing"

	"geofence/internal/domain"
	"geofence/internal/queue"
	"geofence/pkg/errors"
	"geofence/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- Mocks ---

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateAlert(ctx context.Context, userID int64, geofenceID *int64, message string) (*domain.Alert, error) {
	args := m.Called(ctx, userID, geofenceID, message)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Alert), args.Error(1)
}

type MockDeviceRepository struct {
	mock.Mock
}

func (m *MockDeviceRepository) GetDevicesForUser(ctx context.Context, userID int64) ([]*domain.Device, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Device), args.Error(1)
}

type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	args := m.Called(ctx, token, title, body, data)
	return args.Error(0)
}

func int64Ptr(v int64) *int64 {
	return &v
}

// --- Tests ---

func TestDispatch_OneDeviceFailureDoesNotStopOthers(t *testing.T) {
	alerts := new(MockRepository)
	devices := new(MockDeviceRepository)
	sender := new(MockSender)
	d := NewDispatcher(alerts, devices, sender, logger.NewNop(), nil)
	ctx := context.Background()

	job := queue.NewJob(5, int64Ptr(9), "User is outside geofenced area")
	alerts.On("CreateAlert", ctx, int64(5), job.GeofenceID, job.Message).
		Return(&domain.Alert{ID: 100, UserID: 5, GeofenceID: job.GeofenceID, Message: job.Message}, nil).Once()
	devices.On("GetDevicesForUser", ctx, int64(5)).Return([]*domain.Device{
		{ID: 1, UserID: 5, Token: "tok-1"},
		{ID: 2, UserID: 5, Token: "tok-2"},
		{ID: 3, UserID: 5, Token: "tok-3"},
	}, nil)

	wantData := map[string]string{"alert_id": "100", "user_id": "5", "geofence_id": "9"}
	sender.On("Send", ctx, "tok-1", NotificationTitle, job.Message, wantData).Return(nil).Once()
	sender.On("Send", ctx, "tok-2", NotificationTitle, job.Message, wantData).Return(errors.ErrNotificationSendFailed).Once()
	sender.On("Send", ctx, "tok-3", NotificationTitle, job.Message, wantData).Return(nil).Once()

	report, err := d.Dispatch(ctx, job)

	require.NoError(t, err)
	assert.Equal(t, &Report{AlertID: 100, Devices: 3, Sent: 2, Failed: 1}, report)
	alerts.AssertNumberOfCalls(t, "CreateAlert", 1)
	sender.AssertNumberOfCalls(t, "Send", 3)
	sender.AssertExpectations(t)
}

func TestDispatch_AlertPersistenceFailureSkipsNotifications(t *testing.T) {
	alerts := new(MockRepository)
	devices := new(MockDeviceRepository)
	sender := new(MockSender)
	d := NewDispatcher(alerts, devices, sender, logger.NewNop(), nil)
	ctx := context.Background()

	job := queue.NewJob(5, int64Ptr(9), "User is outside geofenced area")
	alerts.On("CreateAlert", ctx, int64(5), job.GeofenceID, job.Message).Return(nil, errors.ErrStorageUnavailable)

	report, err := d.Dispatch(ctx, job)

	assert.Nil(t, report)
	assert.ErrorIs(t, err, errors.ErrStorageUnavailable)
	devices.AssertNotCalled(t, "GetDevicesForUser", mock.Anything, mock.Anything)
	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatch_NoDevices(t *testing.T) {
	alerts := new(MockRepository)
	devices := new(MockDeviceRepository)
	sender := new(MockSender)
	d := NewDispatcher(alerts, devices, sender, logger.NewNop(), nil)
	ctx := context.Background()

	job := queue.NewJob(5, nil, "User is outside geofenced area")
	alerts.On("CreateAlert", ctx, int64(5), (*int64)(nil), job.Message).Return(&domain.Alert{ID: 1}, nil)
	devices.On("GetDevicesForUser", ctx, int64(5)).Return([]*domain.Device{}, nil)

	report, err := d.Dispatch(ctx, job)

	require.NoError(t, err)
	assert.Equal(t, 0, report.Devices)
	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatch_DeviceLookupFailureIsNotEscalated(t *testing.T) {
	alerts := new(MockRepository)
	devices := new(MockDeviceRepository)
	sender := new(MockSender)
	d := NewDispatcher(alerts, devices, sender, logger.NewNop(), nil)
	ctx := context.Background()

	job := queue.NewJob(5, nil, "msg")
	alerts.On("CreateAlert", ctx, int64(5), (*int64)(nil), "msg").Return(&domain.Alert{ID: 3}, nil)
	devices.On("GetDevicesForUser", ctx, int64(5)).Return(nil, errors.ErrStorageUnavailable)

	report, err := d.Dispatch(ctx, job)

	require.NoError(t, err)
	assert.Equal(t, int64(3), report.AlertID)
	assert.Equal(t, 0, report.Sent)
}

func TestDispatch_MissingGeofenceSerialisesAsZero(t *testing.T) {
	alerts := new(MockRepository)
	devices := new(MockDeviceRepository)
	sender := new(MockSender)
	d := NewDispatcher(alerts, devices, sender, logger.NewNop(), nil)
	ctx := context.Background()

	job := queue.NewJob(8, nil, "msg")
	alerts.On("CreateAlert", ctx, int64(8), (*int64)(nil), "msg").Return(&domain.Alert{ID: 21}, nil)
	devices.On("GetDevicesForUser", ctx, int64(8)).Return([]*domain.Device{{ID: 1, Token: "tok"}}, nil)
	sender.On("Send", ctx, "tok", NotificationTitle, "msg",
		map[string]string{"alert_id": "21", "user_id": "8", "geofence_id": "0"}).Return(nil)

	_, err := d.Dispatch(ctx, job)

	require.NoError(t, err)
	sender.AssertExpectations(t)
}

func TestHandle_ReturnsOnlyPersistenceErrors(t *testing.T) {
	alerts := new(MockRepository)
	devices := new(MockDeviceRepository)
	sender := new(MockSender)
	d := NewDispatcher(alerts, devices, sender, logger.NewNop(), nil)
	ctx := context.Background()

	ok := queue.NewJob(1, nil, "ok")
	bad := queue.NewJob(2, nil, "bad")
	alerts.On("CreateAlert", ctx, int64(1), (*int64)(nil), "ok").Return(&domain.Alert{ID: 1}, nil)
	alerts.On("CreateAlert", ctx, int64(2), (*int64)(nil), "bad").Return(nil, errors.ErrStorageUnavailable)
	devices.On("GetDevicesForUser", ctx, int64(1)).Return([]*domain.Device{{ID: 1, Token: "t"}}, nil)
	sender.On("Send", ctx, "t", NotificationTitle, "ok", mock.Anything).Return(errors.ErrNotificationSendFailed)

	assert.NoError(t, d.Handle(ctx, ok))
	assert.Error(t, d.Handle(ctx, bad))
}
