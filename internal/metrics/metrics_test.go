package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNew_ReturnsSharedInstance(t *testing.T) {
	assert.Same(t, New(), New())
}

func TestRecord_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordTransition("request", "accepted")
		m.RecordError("request.submit", "validation")
		m.RecordNotification("request_submitted", "sent")
		m.RecordSweep(3, nil)
		m.RecordHTTP("/api/requests", "POST", "201", 0.01)
	})
}

func TestRecordSweep(t *testing.T) {
	m := New()
	before := testutil.ToFloat64(m.SessionsSwept)

	m.RecordSweep(4, nil)
	m.RecordSweep(10, errors.New("db down"))

	assert.Equal(t, before+4, testutil.ToFloat64(m.SessionsSwept))
}

func TestRecordError_DefaultsKind(t *testing.T) {
	m := New()
	before := testutil.ToFloat64(m.OperationErrors.WithLabelValues("session.schedule", "internal"))

	m.RecordError("session.schedule", "")

	assert.Equal(t, before+1, testutil.ToFloat64(m.OperationErrors.WithLabelValues("session.schedule", "internal")))
}
