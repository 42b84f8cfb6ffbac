// Package queue defines message payloads exchanged over the message broker.
package queue

import "time"

// BookingQueue is the durable queue carrying booking lifecycle events.
const BookingQueue = "booking.events"

// Event types published on BookingQueue.
const (
    EventBookingCreated   = "booking.created"
    EventBookingPaid      = "booking.paid"
    EventBookingFailed    = "booking.failed"
    EventBookingExpired   = "booking.expired"
    EventBookingCancelled = "booking.cancelled"
)

// BookingEvent is published whenever a booking changes state.  It carries
// enough information for downstream consumers to log, notify or trigger
// analytics without querying the primary database.
type BookingEvent struct {
    Type       string    `json:"type"`
    BookingID  uint64    `json:"bookingId"`
    SlotID     uint64    `json:"slotId"`
    ServiceID  uint64    `json:"serviceId"`
    UserID     *uint64   `json:"userId,omitempty"`
    Status     string    `json:"status"`
    Amount     int64     `json:"amount"`
    PaymentRef string    `json:"paymentRef,omitempty"`
    OccurredAt time.Time `json:"occurredAt"`
}
