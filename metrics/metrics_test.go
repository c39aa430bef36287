package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/meinhoongagan/campus-booking/booking"
	"github.com/meinhoongagan/campus-booking/models"
)

func TestCounters(t *testing.T) {
	m := New()

	m.BookingEvent(booking.EventApproved)
	m.BookingEvent(booking.EventApproved)
	m.BookingFailure("approve_booking", "SLOT_TAKEN")
	m.MessageSent(models.RoleStudent)
	m.TicketStatusChanged(models.TicketClosed)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.bookingEvents.WithLabelValues("approved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.bookingFailures.WithLabelValues("approve_booking", "SLOT_TAKEN")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.messages.WithLabelValues("STUDENT")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ticketStatus.WithLabelValues("CLOSED")))
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "2xx", statusLabel(201))
	assert.Equal(t, "4xx", statusLabel(409))
	assert.Equal(t, "5xx", statusLabel(500))
}
