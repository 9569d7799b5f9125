package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("geofence-test", &buf, "json", slog.LevelInfo)

	log.Debug("hidden", nil)
	log.Info("Alert job enqueued", map[string]interface{}{"user_id": 7})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Alert job enqueued", entry["msg"])
	assert.Equal(t, "geofence-test", entry["service"])
	assert.Equal(t, float64(7), entry["user_id"])
}

func TestTextLogger(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("geofence-test", &buf, "text", slog.LevelWarn)

	log.Info("quiet", nil)
	assert.Zero(t, buf.Len())

	log.Warn("loud", map[string]interface{}{"device_id": 3})
	assert.Contains(t, buf.String(), "loud")
	assert.Contains(t, buf.String(), "device_id")
}

func TestLevelFromString(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, levelFromString("DEBUG"))
	assert.Equal(t, slog.LevelWarn, levelFromString(" warn "))
	assert.Equal(t, slog.LevelError, levelFromString("error"))
	assert.Equal(t, slog.LevelInfo, levelFromString(""))
}
