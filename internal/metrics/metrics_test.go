package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsCount(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveFlow("book_appointment", "completed")
	m.ObserveFlow("book_appointment", "completed")
	m.ObserveBooking("slot_conflict", 0.01)
	m.ObserveLeave("completed")
	m.ObserveCalendar("failed")
	m.ObserveRetry("time", "lunch_break")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.flowsTotal.WithLabelValues("book_appointment", "completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.bookingsTotal.WithLabelValues("slot_conflict")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.leavesTotal.WithLabelValues("completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.calendarTotal.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.stepRetries.WithLabelValues("time", "lunch_break")))
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveFlow("apply_leave", "timeout")
	m.ObserveBooking("completed", 0.1)
	m.ObserveLeave("persistence_failure")
	m.ObserveCalendar("created")
	m.ObserveRetry("date", "no_input")
}
