package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// QueueMetrics exposes Prometheus counters and gauges for queue flows
type QueueMetrics struct {
	bookings      *prometheus.CounterVec
	transitions   *prometheus.CounterVec
	triage        *prometheus.CounterVec
	queueLength   *prometheus.GaugeVec
	notifications *prometheus.CounterVec
}

// NewQueueMetrics registers the queue collectors on reg, or on the default
// registerer when reg is nil
func NewQueueMetrics(reg prometheus.Registerer) *QueueMetrics {
	m := &QueueMetrics{
		bookings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "waitwise",
			Subsystem: "queue",
			Name:      "bookings_total",
			Help:      "Total appointments booked",
		}, []string{"clinic_id"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "waitwise",
			Subsystem: "queue",
			Name:      "transitions_total",
			Help:      "Total appointment status transitions",
		}, []string{"to"}),
		triage: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "waitwise",
			Subsystem: "triage",
			Name:      "classifications_total",
			Help:      "Total symptom classifications by urgency",
		}, []string{"urgency"}),
		queueLength: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "waitwise",
			Subsystem: "queue",
			Name:      "length",
			Help:      "Queued appointments per clinic",
		}, []string{"clinic_id"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "waitwise",
			Subsystem: "notify",
			Name:      "messages_total",
			Help:      "Outbound notifications by channel and status",
		}, []string{"channel", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookings, m.transitions, m.triage, m.queueLength, m.notifications)
	return m
}

func (m *QueueMetrics) ObserveBooking(clinicID string) {
	if m == nil {
		return
	}
	m.bookings.WithLabelValues(clinicID).Inc()
}

func (m *QueueMetrics) ObserveTransition(to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(to).Inc()
}

func (m *QueueMetrics) ObserveTriage(urgency string) {
	if m == nil {
		return
	}
	m.triage.WithLabelValues(urgency).Inc()
}

func (m *QueueMetrics) SetQueueLength(clinicID string, length int) {
	if m == nil {
		return
	}
	m.queueLength.WithLabelValues(clinicID).Set(float64(length))
}

func (m *QueueMetrics) ObserveNotification(channel, status string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(channel, status).Inc()
}
