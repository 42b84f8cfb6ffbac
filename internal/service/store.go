package service

import (
	"context"
	"time"

	"github.com/iliyamo/slot-booking/internal/model"
	"github.com/iliyamo/slot-booking/internal/payment"
	"github.com/iliyamo/slot-booking/internal/queue"
)

// ServiceCatalog reads bookable services.
type ServiceCatalog interface {
	GetByID(ctx context.Context, id uint64) (*model.Service, error)
}

// SlotStore persists slots.  DecrementSeat and IncrementSeat must each be
// atomic with respect to every other caller of the same store: a
// decrement succeeds only while seats are left and an increment never
// raises the count above capacity.
type SlotStore interface {
	Create(ctx context.Context, s *model.Slot) error
	CreateBulk(ctx context.Context, slots []model.Slot) (int, error)
	GetByID(ctx context.Context, id uint64) (*model.Slot, error)
	GetView(ctx context.Context, id uint64) (*model.SlotView, error)
	ListAvailable(ctx context.Context, f model.SlotFilter) ([]model.SlotView, error)
	Update(ctx context.Context, id uint64, fn func(*model.Slot) error) (*model.Slot, error)
	Delete(ctx context.Context, id uint64) error
	DecrementSeat(ctx context.Context, id uint64) (bool, error)
	IncrementSeat(ctx context.Context, id uint64) (bool, error)
}

// BookingStore persists bookings.  Transition applies only while the
// booking is in the from state and reports whether it did.
type BookingStore interface {
	Create(ctx context.Context, b *model.Booking) error
	GetByID(ctx context.Context, id uint64) (*model.Booking, error)
	GetDetail(ctx context.Context, id uint64) (*model.BookingDetail, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.BookingDetail, error)
	Transition(ctx context.Context, id uint64, from, to model.BookingStatus, paymentRef *string) (bool, error)
	ListStalePending(ctx context.Context, before time.Time, limit int) ([]model.Booking, error)
}

// PaymentStore persists gateway payment attempts.
type PaymentStore interface {
	Create(ctx context.Context, p *model.Payment) error
	GetByOrderID(ctx context.Context, orderID string) (*model.Payment, error)
	MarkByOrderID(ctx context.Context, orderID string, status model.PaymentStatus, paymentID, signature string) error
}

// EventPublisher delivers booking lifecycle events.
type EventPublisher interface {
	PublishBookingEvent(ctx context.Context, ev queue.BookingEvent) error
}

// Gateway creates payment orders.
type Gateway interface {
	Provider() string
	KeyID() string
	CreateOrder(ctx context.Context, req payment.OrderRequest) (*payment.Order, error)
}

// SignatureVerifier checks gateway signatures.
type SignatureVerifier interface {
	VerifyCheckout(orderID, paymentID, signature string) bool
	VerifyWebhook(body []byte, signature string) bool
}
