package model

import "time"

// PaymentStatus tracks a gateway order attached to a booking.
type PaymentStatus string

const (
    PaymentCreated  PaymentStatus = "created"
    PaymentCaptured PaymentStatus = "captured"
    PaymentFailed   PaymentStatus = "failed"
)

// Payment mirrors a gateway order created for a booking.  It belongs to
// the payment bridge and is never used to derive seat state.
type Payment struct {
    ID          uint64        `json:"id"`          // payments.id
    BookingID   uint64        `json:"bookingId"`   // payments.booking_id
    Provider    string        `json:"provider"`    // payments.provider
    OrderID     string        `json:"orderId"`     // payments.order_id
    PaymentID   *string       `json:"paymentId"`   // payments.payment_id (nullable)
    Signature   *string       `json:"-"`           // payments.signature (nullable)
    AmountMinor int64         `json:"amount"`      // payments.amount_minor
    Currency    string        `json:"currency"`    // payments.currency
    Status      PaymentStatus `json:"status"`      // payments.status
    CreatedAt   time.Time     `json:"createdAt"`   // payments.created_at
    UpdatedAt   time.Time     `json:"updatedAt"`   // payments.updated_at
}
