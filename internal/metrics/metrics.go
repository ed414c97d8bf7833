package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics собирает счётчики диалогов и записи на приём
type Metrics struct {
	flowsTotal      *prometheus.CounterVec
	bookingsTotal   *prometheus.CounterVec
	leavesTotal     *prometheus.CounterVec
	calendarTotal   *prometheus.CounterVec
	stepRetries     *prometheus.CounterVec
	bookingDuration prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		flowsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "conversation",
			Name:      "flows_total",
			Help:      "Finished conversation flows by flow and outcome",
		}, []string{"flow", "status"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "booking",
			Name:      "transactions_total",
			Help:      "Booking transactions by outcome",
		}, []string{"outcome"}),
		leavesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "leave",
			Name:      "transactions_total",
			Help:      "Leave transactions by outcome",
		}, []string{"outcome"}),
		calendarTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "calendar",
			Name:      "mirror_total",
			Help:      "Calendar mirror attempts by status",
		}, []string{"status"}),
		stepRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "conversation",
			Name:      "step_retries_total",
			Help:      "Re-prompts per field and reason",
		}, []string{"field", "reason"}),
		bookingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "booking",
			Name:      "transaction_seconds",
			Help:      "Latency of the reserve transaction",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.flowsTotal, m.bookingsTotal, m.leavesTotal, m.calendarTotal, m.stepRetries, m.bookingDuration)
	return m
}

func (m *Metrics) ObserveFlow(flow, status string) {
	if m == nil {
		return
	}
	m.flowsTotal.WithLabelValues(flow, status).Inc()
}

func (m *Metrics) ObserveBooking(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(outcome).Inc()
	m.bookingDuration.Observe(seconds)
}

func (m *Metrics) ObserveLeave(outcome string) {
	if m == nil {
		return
	}
	m.leavesTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveCalendar(status string) {
	if m == nil {
		return
	}
	m.calendarTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveRetry(field, reason string) {
	if m == nil {
		return
	}
	m.stepRetries.WithLabelValues(field, reason).Inc()
}
