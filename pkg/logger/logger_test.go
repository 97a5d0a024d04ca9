package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, getLogLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, getLogLevel("warning"))
	assert.Equal(t, slog.LevelError, getLogLevel("error"))
	assert.Equal(t, slog.LevelInfo, getLogLevel("nonsense"))
}

func TestReleaseModeEmitsJSON(t *testing.T) {
	gin.SetMode(gin.ReleaseMode)
	defer gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	log := NewWithWriter(&buf, "info")
	log.WithComponent("bookings").LogSeatConflict(context.Background(), "evt-1", "usr-1", []string{"A2"})

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "Seat Conflict", record["msg"])
	assert.Equal(t, "bookings", record["component"])
	assert.Equal(t, []interface{}{"A2"}, record["conflicting_seats"])
}

func TestErrorWithContextIncludesError(t *testing.T) {
	gin.SetMode(gin.ReleaseMode)
	defer gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	log := NewWithWriter(&buf, "debug")
	log.ErrorWithContext(context.Background(), "sweep failed", errors.New("boom"), map[string]interface{}{"batch": 5})

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "boom", record["error"])
	assert.Equal(t, float64(5), record["batch"])
}

func TestLevelFiltersDebug(t *testing.T) {
	gin.SetMode(gin.ReleaseMode)
	defer gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	log := NewWithWriter(&buf, "warn")
	log.DebugWithContext(context.Background(), "hidden", nil)
	assert.Empty(t, buf.String())
}
