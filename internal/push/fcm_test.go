package push

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"geofence/pkg/errors"
	"geofence/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

type sendBody struct {
	Message struct {
		Token        string            `json:"token"`
		Notification map[string]string `json:"notification"`
		Data         map[string]string `json:"data"`
	} `json:"message"`
}

func newTestSender(t *testing.T, srv *httptest.Server, timeout time.Duration) *FCMSender {
	t.Helper()
	return NewFCMSenderForProject("test-project", timeout, logger.NewNop(),
		option.WithHTTPClient(srv.Client()),
		option.WithEndpoint(srv.URL+"/"),
	)
}

func TestFCMSender_Send(t *testing.T) {
	var got sendBody
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"name":"projects/test-project/messages/1"}`))
	}))
	defer srv.Close()

	sender := newTestSender(t, srv, time.Second)
	err := sender.Send(context.Background(), "tok-1", "Geofence Alert", "User is outside geofenced area", map[string]string{
		"alert_id":    "11",
		"user_id":     "5",
		"geofence_id": "0",
	})

	require.NoError(t, err)
	assert.Equal(t, "/v1/projects/test-project/messages:send", path)
	assert.Equal(t, "tok-1", got.Message.Token)
	assert.Equal(t, "Geofence Alert", got.Message.Notification["title"])
	assert.Equal(t, "User is outside geofenced area", got.Message.Notification["body"])
	assert.Equal(t, "0", got.Message.Data["geofence_id"])
}

func TestFCMSender_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"code":404,"message":"Requested entity was not found.","status":"NOT_FOUND"}}`))
	}))
	defer srv.Close()

	err := newTestSender(t, srv, time.Second).Send(context.Background(), "stale", "t", "b", nil)
	assert.ErrorIs(t, err, errors.ErrNotificationSendFailed)
}

func TestFCMSender_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	start := time.Now()
	err := newTestSender(t, srv, 50*time.Millisecond).Send(context.Background(), "slow", "t", "b", nil)

	assert.ErrorIs(t, err, errors.ErrNotificationSendFailed)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestFCMSender_MissingCredentialsFailsPerCall(t *testing.T) {
	sender := NewFCMSender("", "", time.Second, logger.NewNop())

	err := sender.Send(context.Background(), "tok", "t", "b", nil)
	assert.ErrorIs(t, err, errors.ErrNotificationSendFailed)
	assert.ErrorIs(t, err, errors.ErrPushUnavailable)

	// still failing, still not panicking
	err = sender.Send(context.Background(), "tok", "t", "b", nil)
	assert.ErrorIs(t, err, errors.ErrPushUnavailable)
}

func TestFCMSender_UnreadableCredentials(t *testing.T) {
	file := filepath.Join(t.TempDir(), "sa.json")
	require.NoError(t, os.WriteFile(file, []byte("not json"), 0o600))

	err := NewFCMSender(file, "", time.Second, logger.NewNop()).Send(context.Background(), "tok", "t", "b", nil)
	assert.ErrorIs(t, err, errors.ErrPushUnavailable)
}
