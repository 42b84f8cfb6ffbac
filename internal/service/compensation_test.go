package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/slot-booking/internal/model"
)

// ctxSlots fails seat increments on a done context, as database/sql does.
// When failIncrements is positive that many increments fail outright.
type ctxSlots struct {
	SlotStore
	failIncrements atomic.Int32
}

func (s *ctxSlots) IncrementSeat(ctx context.Context, id uint64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if s.failIncrements.Add(-1) >= 0 {
		return false, errors.New("connection reset")
	}
	return s.SlotStore.IncrementSeat(ctx, id)
}

// disconnectingBookings cancels the request right after a status change
// has been stored, the way a client hanging up at that moment would.
type disconnectingBookings struct {
	BookingStore
	cancel context.CancelFunc
}

func (b *disconnectingBookings) Transition(ctx context.Context, id uint64, from, to model.BookingStatus, ref *string) (bool, error) {
	moved, err := b.BookingStore.Transition(ctx, id, from, to, ref)
	b.cancel()
	return moved, err
}

// Create loses the request half way through the insert.
func (b *disconnectingBookings) Create(ctx context.Context, _ *model.Booking) error {
	b.cancel()
	return ctx.Err()
}

func newDisconnectingEngine(f *fixture, cancel context.CancelFunc) *BookingService {
	slots := &ctxSlots{SlotStore: f.store.Slots()}
	bookings := &disconnectingBookings{BookingStore: f.store.Bookings(), cancel: cancel}
	return NewBookingService(f.store.Services(), slots, bookings, nil, f.clock, zap.NewNop())
}

func TestFailedPaymentReleasesSeatAfterClientDisconnects(t *testing.T) {
	f := newFixture(t)
	s := f.slot(t, time.Hour, 1)
	r := f.book(t, s.ID)
	require.Equal(t, 0, f.seatsLeft(t, s.ID))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	engine := newDisconnectingEngine(f, cancel)

	_, _ = engine.ConfirmPayment(ctx, r.BookingID, OutcomeFailed, "pay_1")

	b, err := f.bookings.GetBooking(context.Background(), r.BookingID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingFailed, b.Status)
	assert.Equal(t, 1, f.seatsLeft(t, s.ID))
}

func TestCancelReleasesSeatAfterClientDisconnects(t *testing.T) {
	f := newFixture(t)
	s := f.slot(t, time.Hour, 1)
	r := f.book(t, s.ID)
	_, err := f.bookings.ConfirmPayment(context.Background(), r.BookingID, OutcomeSuccess, "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	engine := newDisconnectingEngine(f, cancel)

	_, _ = engine.CancelBooking(ctx, r.BookingID)

	b, err := f.bookings.GetBooking(context.Background(), r.BookingID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingCancelled, b.Status)
	assert.Equal(t, 1, f.seatsLeft(t, s.ID))
}

func TestInsertAbortedByDisconnectReleasesSeat(t *testing.T) {
	f := newFixture(t)
	s := f.slot(t, time.Hour, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	engine := newDisconnectingEngine(f, cancel)

	_, err := engine.CreateBooking(ctx, CreateBookingInput{ServiceID: f.service.ID, SlotID: s.ID})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, f.seatsLeft(t, s.ID))
}

func TestBookingSettlesWhenSeatReleaseFails(t *testing.T) {
	f := newFixture(t)
	s := f.slot(t, time.Hour, 2)
	r := f.book(t, s.ID)
	other := f.book(t, s.ID)

	slots := &ctxSlots{SlotStore: f.store.Slots()}
	slots.failIncrements.Store(1)
	engine := NewBookingService(f.store.Services(), slots, f.store.Bookings(), nil, f.clock, zap.NewNop())

	// the first release hits a broken connection; the booking still settles
	b, err := engine.ConfirmPayment(context.Background(), r.BookingID, OutcomeFailed, "")
	require.NoError(t, err)
	assert.Equal(t, model.BookingFailed, b.Status)
	assert.Equal(t, 0, f.seatsLeft(t, s.ID))

	// the next release goes through and is counted once
	_, err = engine.ConfirmPayment(context.Background(), other.BookingID, OutcomeFailed, "")
	require.NoError(t, err)
	assert.Equal(t, 1, f.seatsLeft(t, s.ID))
}
