// Package push delivers notifications to registered devices.
package push

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	fcm "google.golang.org/api/fcm/v1"
	"google.golang.org/api/option"

	"geofence/pkg/errors"
	"geofence/pkg/logger"
)

const messagingScope = "https://www.googleapis.com/auth/firebase.messaging"

// DefaultTimeout bounds a single send so one unreachable endpoint cannot
// stall a whole dispatch job.
const DefaultTimeout = 10 * time.Second

// Sender delivers one notification to one device token. Every data value
// must already be a string.
type Sender interface {
	Send(ctx context.Context, token, title, body string, data map[string]string) error
}

type fcmClient struct {
	service *fcm.Service
	parent  string
}

// FCMSender sends through the FCM HTTP v1 API. Credentials are loaded on
// first use and retried on later sends until they succeed, so a missing
// service account only fails individual sends.
type FCMSender struct {
	timeout time.Duration
	logger  logger.Logger
	connect func(ctx context.Context) (*fcmClient, error)

	mu     sync.Mutex
	client *fcmClient
}

// NewFCMSender returns a sender authenticated with the service account at
// credentialsFile. endpoint overrides the API base URL when non-empty.
func NewFCMSender(credentialsFile, endpoint string, timeout time.Duration, log logger.Logger) *FCMSender {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if credentialsFile == "" {
		log.Warn("FCM_SERVICE_ACCOUNT_FILE is not set, push notifications will fail", nil)
	}

	return &FCMSender{
		timeout: timeout,
		logger:  log,
		connect: func(ctx context.Context) (*fcmClient, error) {
			return connectServiceAccount(ctx, credentialsFile, endpoint, timeout)
		},
	}
}

// NewFCMSenderForProject builds a sender for projectID with explicit client
// options, bypassing service account loading.
func NewFCMSenderForProject(projectID string, timeout time.Duration, log logger.Logger, opts ...option.ClientOption) *FCMSender {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &FCMSender{
		timeout: timeout,
		logger:  log,
		connect: func(ctx context.Context) (*fcmClient, error) {
			return newFCMClient(ctx, projectID, opts...)
		},
	}
}

func connectServiceAccount(ctx context.Context, file, endpoint string, timeout time.Duration) (*fcmClient, error) {
	if file == "" {
		return nil, errors.Wrap(errors.ErrPushUnavailable, "no service account configured")
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("%w: read service account: %v", errors.ErrPushUnavailable, err)
	}

	creds, err := google.CredentialsFromJSON(ctx, data, messagingScope)
	if err != nil {
		return nil, fmt.Errorf("%w: parse service account: %v", errors.ErrPushUnavailable, err)
	}
	if creds.ProjectID == "" {
		return nil, errors.Wrap(errors.ErrPushUnavailable, "service account has no project_id")
	}

	httpClient := oauth2.NewClient(context.Background(), creds.TokenSource)
	httpClient.Timeout = timeout

	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	return newFCMClient(ctx, creds.ProjectID, opts...)
}

func newFCMClient(ctx context.Context, projectID string, opts ...option.ClientOption) (*fcmClient, error) {
	svc, err := fcm.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: create fcm service: %v", errors.ErrPushUnavailable, err)
	}
	return &fcmClient{service: svc, parent: "projects/" + projectID}, nil
}

func (s *FCMSender) ensureClient(ctx context.Context) (*fcmClient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		return s.client, nil
	}
	c, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}
	s.client = c
	s.logger.Info("FCM client ready", map[string]interface{}{"parent": c.parent})
	return c, nil
}

func (s *FCMSender) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	client, err := s.ensureClient(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", errors.ErrNotificationSendFailed, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req := &fcm.SendMessageRequest{
		Message: &fcm.Message{
			Token: token,
			Notification: &fcm.Notification{
				Title: title,
				Body:  body,
			},
			Data: data,
		},
	}

	if _, err := client.service.Projects.Messages.Send(client.parent, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrNotificationSendFailed, err)
	}
	return nil
}
