// Package metrics exposes booking and chat counters to Prometheus.
package metrics

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/meinhoongagan/campus-booking/booking"
	"github.com/meinhoongagan/campus-booking/models"
)

const namespace = "campus_booking"

type Metrics struct {
	registry        *prometheus.Registry
	bookingEvents   *prometheus.CounterVec
	bookingFailures *prometheus.CounterVec
	messages        *prometheus.CounterVec
	ticketStatus    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		bookingEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_events_total",
			Help:      "Booking lifecycle events by type.",
		}, []string{"event"}),
		bookingFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_failures_total",
			Help:      "Refused or failed booking operations by operation and error code.",
		}, []string{"op", "code"}),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_messages_total",
			Help:      "Chat messages sent by sender role.",
		}, []string{"role"}),
		ticketStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_ticket_status_changes_total",
			Help:      "Ticket status changes by new status.",
		}, []string{"status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	m.registry.MustRegister(
		m.bookingEvents,
		m.bookingFailures,
		m.messages,
		m.ticketStatus,
		m.httpDuration,
		collectors.NewGoCollector(),
	)
	return m
}

func (m *Metrics) BookingEvent(ev booking.Event) {
	m.bookingEvents.WithLabelValues(string(ev)).Inc()
}

func (m *Metrics) BookingFailure(op, code string) {
	m.bookingFailures.WithLabelValues(op, code).Inc()
}

func (m *Metrics) MessageSent(role models.Role) {
	m.messages.WithLabelValues(string(role)).Inc()
}

func (m *Metrics) TicketStatusChanged(status models.TicketStatus) {
	m.ticketStatus.WithLabelValues(string(status)).Inc()
}

// Middleware observes request latency under the matched route pattern.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		m.httpDuration.WithLabelValues(
			c.Method(),
			c.Route().Path,
			statusLabel(c.Response().StatusCode()),
		).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func statusLabel(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	}
	return "2xx"
}
