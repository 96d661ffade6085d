package logger

import (
	"bytes"
	"log"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	log.SetOutput(&buf)
	flags := log.Flags()
	log.SetFlags(0)
	t.Cleanup(func() {
		log.SetOutput(os.Stderr)
		log.SetFlags(flags)
	})
	return &buf
}

func TestFormatFieldsIsSorted(t *testing.T) {
	got := formatFields(Fields{"stage": "validate", "attempt": 2, "ratio": 0.5})
	assert.Equal(t, "{attempt=2, ratio=0.50, stage=validate}", got)
	assert.Equal(t, "", formatFields(nil))
}

func TestInfoWritesLevelAndFields(t *testing.T) {
	buf := captureLog(t)
	Info("card generated", Fields{"card_type": "Chords"})
	assert.Contains(t, buf.String(), "[INFO] card generated {card_type=Chords}")
}

func TestWithContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("POST", "/api/generate-card", nil)
	c.Set("request_id", "req-1")
	c.Set("user_id", "user-9")

	fields := WithContext(c)
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "POST", fields["method"])
	assert.Equal(t, "/api/generate-card", fields["path"])
	assert.Equal(t, "user-9", fields["user_id"])
}

func TestLogAPIRequestLevelFollowsStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		status int
		want   string
	}{
		{200, "[INFO] Request completed"},
		{422, "[WARN] Request failed with client error"},
		{502, "[ERROR] Request failed with server error"},
	}

	for _, tt := range tests {
		buf := captureLog(t)
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("DELETE", "/api/v1/cards/abc", nil)
		c.Set("request_id", "req-7")

		LogAPIRequest(c, "/api/v1/cards/:id", 15*time.Millisecond, tt.status)

		out := buf.String()
		assert.Contains(t, out, tt.want)
		assert.Contains(t, out, "route=/api/v1/cards/:id")
		assert.Contains(t, out, "path=/api/v1/cards/abc")
		assert.Contains(t, out, "request_id=req-7")
		assert.Contains(t, out, "duration_ms=15")
	}
}

func TestDebugWritesLevel(t *testing.T) {
	buf := captureLog(t)
	Debug("Prompt built", Fields{"prompt_chars": 1200})
	assert.Contains(t, buf.String(), "[DEBUG] Prompt built {prompt_chars=1200}")
}

func TestLogToSentryWithoutClientIsNoop(t *testing.T) {
	assert.NotPanics(t, func() {
		LogToSentry(sentry.LevelWarning, "Collaborator reply rejected", Fields{"stage": "validate"})
	})
}
