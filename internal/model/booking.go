package model

import "time"

// BookingStatus is the payment lifecycle state of a booking.
type BookingStatus string

const (
    BookingPending   BookingStatus = "pending"
    BookingPaid      BookingStatus = "paid"
    BookingFailed    BookingStatus = "failed"
    BookingCancelled BookingStatus = "cancelled"
)

// HoldsSeat reports whether a booking in status s still occupies a seat.
func (s BookingStatus) HoldsSeat() bool {
    return s == BookingPending || s == BookingPaid
}

// Booking records one claim on one slot.  The seat is taken when the
// booking is created in the pending state and given back exactly once
// when it moves to failed or cancelled.
//
// Fields:
//  ID            – primary key identifier.
//  ServiceID     – booked service.
//  SlotID        – booked slot.
//  UserID        – owner; nil for anonymous bookings.
//  AmountMinor   – service price captured when the booking was made.
//  Status        – pending, paid, failed or cancelled.
//  PaymentRef    – reference minted at creation, later the gateway payment id.
//  PaymentMethod – free-form method label (card, upi, mock).
type Booking struct {
    ID            uint64        `json:"id"`            // bookings.id
    ServiceID     uint64        `json:"serviceId"`     // bookings.service_id
    SlotID        uint64        `json:"slotId"`        // bookings.slot_id
    UserID        *uint64       `json:"userId"`        // bookings.user_id (nullable)
    AmountMinor   int64         `json:"amount"`        // bookings.amount_minor
    Status        BookingStatus `json:"status"`        // bookings.status
    PaymentRef    *string       `json:"paymentRef"`    // bookings.payment_ref (nullable)
    PaymentMethod string        `json:"paymentMethod"` // bookings.payment_method
    CreatedAt     time.Time     `json:"createdAt"`     // bookings.created_at
    UpdatedAt     time.Time     `json:"updatedAt"`     // bookings.updated_at
}

// SlotSummary is the trimmed view of a slot embedded in booking details.
type SlotSummary struct {
    ID    uint64    `json:"id"`
    Start time.Time `json:"start"`
    End   time.Time `json:"end"`
}

// BookingDetail is a booking joined with its slot and service.
type BookingDetail struct {
    Booking
    Slot    SlotSummary    `json:"slot"`
    Service ServiceSummary `json:"service"`
}
