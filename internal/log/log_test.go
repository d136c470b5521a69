package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newBufferLogger(level slog.Level) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(Config{Level: level, Component: ComponentHTTP, Output: &buf}), &buf
}

func TestLoggerComponent(t *testing.T) {
	l, buf := newBufferLogger(slog.LevelInfo)
	l.InfoContext(context.Background(), "hello", "k", 1)
	assert.Contains(t, buf.String(), "component=http")
	assert.Contains(t, buf.String(), "k=1")

	buf.Reset()
	l.WithComponent(ComponentAuth).WarnContext(context.Background(), "denied")
	assert.Contains(t, buf.String(), "component=auth")
	assert.NotContains(t, buf.String(), "component=http")

	buf.Reset()
	l.DebugContext(context.Background(), "hidden")
	assert.Empty(t, buf.String())
}

func TestFieldsBuilder(t *testing.T) {
	f := NewFields().
		WithAppointment(7, 15000).
		WithRequestID("").
		WithError(nil).
		WithError(errors.New("boom"))

	assert.Equal(t, int64(7), f[FieldAppointmentID])
	assert.Equal(t, int64(15000), f[FieldAmountCents])
	assert.Equal(t, "boom", f[FieldError])
	_, hasID := f[FieldRequestID]
	assert.False(t, hasID)
	assert.Len(t, f.ToSlice(), 6)
}

func TestMiddlewareAttachesRequestLogger(t *testing.T) {
	l, buf := newBufferLogger(slog.LevelInfo)
	h := Middleware(l, func(context.Context) string { return "req_abc" })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context()).InfoContext(r.Context(), "inside")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Contains(t, buf.String(), "request_id=req_abc")
}

func TestFromContextDefault(t *testing.T) {
	l := FromContext(context.Background())
	assert.Equal(t, ComponentApp, l.Component())
}

func TestStructuredLoggerLevels(t *testing.T) {
	l, buf := newBufferLogger(slog.LevelInfo)
	sl := NewStructuredLogger(l)
	r := httptest.NewRequest(http.MethodPost, "/appointments", nil)

	sl.LogHTTPEnd(context.Background(), r, "req_1", http.StatusUnprocessableEntity, 3, "10.0.0.1")
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "status_code=422")

	buf.Reset()
	sl.LogHTTPEnd(context.Background(), r, "req_1", http.StatusInternalServerError, 3, "10.0.0.1")
	assert.Contains(t, buf.String(), "level=ERROR")

	buf.Reset()
	sl.LogAppointmentRecorded(context.Background(), 9, 12345)
	assert.Contains(t, buf.String(), "component=appointment")
	assert.Contains(t, buf.String(), "appointment_id=9")

	buf.Reset()
	sl.LogError(context.Background(), "export failed", errors.New("disk"), ComponentReport, OpExport, nil)
	assert.Contains(t, buf.String(), "error=disk")
	assert.Contains(t, buf.String(), "operation=export")
}
