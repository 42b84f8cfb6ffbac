package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/slot-booking/internal/clock"
	"github.com/iliyamo/slot-booking/internal/model"
	"github.com/iliyamo/slot-booking/internal/queue"
	"github.com/iliyamo/slot-booking/internal/repository"
	"github.com/iliyamo/slot-booking/internal/utils"
)

// Payment outcomes accepted by ConfirmPayment.
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
)

const defaultPaymentMethod = "mock"

// BookingService is the reservation engine.  It claims and releases
// seats and moves bookings through their lifecycle:
//
//	pending -> paid -> cancelled   (seat released on cancel)
//	pending -> failed              (seat released; payment failure or expiry)
//
// Every release is made after a conditional status change succeeded, so
// a booking gives its seat back at most once however many callers race.
type BookingService struct {
	services ServiceCatalog
	slots    SlotStore
	bookings BookingStore
	events   EventPublisher
	clock    clock.Clock
	log      *zap.Logger
}

// NewBookingService wires a BookingService.  A nil publisher drops events.
func NewBookingService(services ServiceCatalog, slots SlotStore, bookings BookingStore, events EventPublisher, clk clock.Clock, log *zap.Logger) *BookingService {
	if events == nil {
		events = queue.NoopPublisher{}
	}
	return &BookingService{services: services, slots: slots, bookings: bookings, events: events, clock: clk, log: log}
}

// CreateBookingInput describes a reservation request.
type CreateBookingInput struct {
	ServiceID     uint64
	SlotID        uint64
	UserID        *uint64
	PaymentMethod string
}

// BookingReceipt is returned to the client after a seat was claimed.
type BookingReceipt struct {
	BookingID  uint64              `json:"bookingId"`
	Amount     int64               `json:"amount"`
	PaymentRef string              `json:"paymentRef"`
	Status     model.BookingStatus `json:"status"`
}

// CreateBooking claims one seat on the slot and records a pending
// booking priced at the service's current price.
func (s *BookingService) CreateBooking(ctx context.Context, in CreateBookingInput) (*BookingReceipt, error) {
	if in.ServiceID == 0 || in.SlotID == 0 {
		return nil, validation("serviceId and slotId are required")
	}
	svc, err := s.services.GetByID(ctx, in.ServiceID)
	if errors.Is(err, repository.ErrServiceNotFound) {
		return nil, notFound("service not found")
	}
	if err != nil {
		return nil, fmt.Errorf("load service: %w", err)
	}
	slot, err := s.slots.GetByID(ctx, in.SlotID)
	if errors.Is(err, repository.ErrSlotNotFound) {
		return nil, notFound("slot not found")
	}
	if err != nil {
		return nil, fmt.Errorf("load slot: %w", err)
	}
	if !slot.Active || slot.ServiceID != svc.ID {
		return nil, notFound("slot not found")
	}
	if slot.SeatsLeft <= 0 {
		return nil, conflict("slot full")
	}

	ok, err := s.slots.DecrementSeat(ctx, slot.ID)
	if err != nil {
		return nil, fmt.Errorf("claim seat: %w", err)
	}
	if !ok {
		return nil, conflict("slot just got full")
	}

	method := strings.TrimSpace(in.PaymentMethod)
	if method == "" {
		method = defaultPaymentMethod
	}
	ref := utils.NewPaymentRef(s.clock.Now())
	b := &model.Booking{
		ServiceID:     svc.ID,
		SlotID:        slot.ID,
		UserID:        in.UserID,
		AmountMinor:   svc.PriceMinor,
		Status:        model.BookingPending,
		PaymentRef:    &ref,
		PaymentMethod: method,
	}
	if err := s.bookings.Create(ctx, b); err != nil {
		s.releaseSeat(ctx, slot.ID, 0)
		return nil, fmt.Errorf("create booking: %w", err)
	}
	s.log.Info("booking created", zap.Uint64("booking_id", b.ID), zap.Uint64("slot_id", slot.ID), zap.Int64("amount", b.AmountMinor))
	s.publish(ctx, queue.EventBookingCreated, b)
	return &BookingReceipt{BookingID: b.ID, Amount: b.AmountMinor, PaymentRef: ref, Status: b.Status}, nil
}

// GetBooking returns a booking by id.
func (s *BookingService) GetBooking(ctx context.Context, id uint64) (*model.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if errors.Is(err, repository.ErrBookingNotFound) {
		return nil, notFound("booking not found")
	}
	if err != nil {
		return nil, fmt.Errorf("load booking: %w", err)
	}
	return b, nil
}

// ConfirmPayment finalises a pending booking.  "success" marks it paid;
// "failed" marks it failed and gives the seat back.  A booking that is no
// longer pending is returned unchanged.  A non-empty paymentRef replaces
// the stored reference.
func (s *BookingService) ConfirmPayment(ctx context.Context, bookingID uint64, outcome, paymentRef string) (*model.Booking, error) {
	b, err := s.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	var to model.BookingStatus
	switch outcome {
	case OutcomeSuccess:
		to = model.BookingPaid
	case OutcomeFailed:
		to = model.BookingFailed
	default:
		return nil, validation("status must be success or failed")
	}
	if b.Status != model.BookingPending {
		s.log.Info("confirmation ignored, booking already settled",
			zap.Uint64("booking_id", b.ID), zap.String("status", string(b.Status)), zap.String("outcome", outcome))
		return b, nil
	}
	var ref *string
	if paymentRef = strings.TrimSpace(paymentRef); paymentRef != "" {
		ref = &paymentRef
	}
	moved, err := s.bookings.Transition(ctx, b.ID, model.BookingPending, to, ref)
	if err != nil {
		return nil, fmt.Errorf("confirm booking: %w", err)
	}
	if moved && to == model.BookingFailed {
		s.releaseSeat(ctx, b.SlotID, b.ID)
	}
	if b, err = s.GetBooking(ctx, bookingID); err != nil {
		return nil, err
	}
	if moved {
		ev := queue.EventBookingPaid
		if to == model.BookingFailed {
			ev = queue.EventBookingFailed
		}
		s.log.Info("booking settled", zap.Uint64("booking_id", b.ID), zap.String("status", string(b.Status)))
		s.publish(ctx, ev, b)
	}
	return b, nil
}

// CancelBooking cancels a paid booking before its slot starts and gives
// the seat back.  Nothing is refunded here.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID uint64) (*model.Booking, error) {
	b, err := s.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Status != model.BookingPaid {
		return nil, validation("only paid bookings can be cancelled")
	}
	slot, err := s.slots.GetByID(ctx, b.SlotID)
	if errors.Is(err, repository.ErrSlotNotFound) {
		return nil, notFound("slot not found")
	}
	if err != nil {
		return nil, fmt.Errorf("load slot: %w", err)
	}
	if !slot.Start.After(s.clock.Now()) {
		return nil, validation("cannot cancel a booking whose slot has started")
	}
	moved, err := s.bookings.Transition(ctx, b.ID, model.BookingPaid, model.BookingCancelled, nil)
	if err != nil {
		return nil, fmt.Errorf("cancel booking: %w", err)
	}
	if !moved {
		// a concurrent cancel won
		return nil, validation("only paid bookings can be cancelled")
	}
	s.releaseSeat(ctx, slot.ID, b.ID)
	if b, err = s.GetBooking(ctx, bookingID); err != nil {
		return nil, err
	}
	s.log.Info("booking cancelled", zap.Uint64("booking_id", b.ID), zap.Uint64("slot_id", slot.ID))
	s.publish(ctx, queue.EventBookingCancelled, b)
	return b, nil
}

// ExpireBooking fails a booking that stayed pending too long and gives
// its seat back.  It reports false when the booking had already moved on.
func (s *BookingService) ExpireBooking(ctx context.Context, bookingID uint64) (bool, error) {
	b, err := s.GetBooking(ctx, bookingID)
	if err != nil {
		return false, err
	}
	if b.Status != model.BookingPending {
		return false, nil
	}
	moved, err := s.bookings.Transition(ctx, b.ID, model.BookingPending, model.BookingFailed, nil)
	if err != nil {
		return false, fmt.Errorf("expire booking: %w", err)
	}
	if !moved {
		return false, nil
	}
	s.releaseSeat(ctx, b.SlotID, b.ID)
	b.Status = model.BookingFailed
	s.log.Info("pending booking expired", zap.Uint64("booking_id", b.ID), zap.Uint64("slot_id", b.SlotID))
	s.publish(ctx, queue.EventBookingExpired, b)
	return true, nil
}

// ExpireStale expires up to limit bookings that have been pending for
// longer than ttl and returns how many were expired.
func (s *BookingService) ExpireStale(ctx context.Context, ttl time.Duration, limit int) (int, error) {
	stale, err := s.bookings.ListStalePending(ctx, s.clock.Now().Add(-ttl), limit)
	if err != nil {
		return 0, fmt.Errorf("list stale bookings: %w", err)
	}
	expired := 0
	for _, b := range stale {
		if ctx.Err() != nil {
			return expired, ctx.Err()
		}
		ok, err := s.ExpireBooking(ctx, b.ID)
		if err != nil {
			s.log.Error("expire booking failed", zap.Uint64("booking_id", b.ID), zap.Error(err))
			continue
		}
		if ok {
			expired++
		}
	}
	return expired, nil
}

// MyBookings lists a user's bookings, newest first.
func (s *BookingService) MyBookings(ctx context.Context, userID uint64) ([]model.BookingDetail, error) {
	if userID == 0 {
		return nil, validation("invalid user id")
	}
	out, err := s.bookings.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	if out == nil {
		out = []model.BookingDetail{}
	}
	return out, nil
}

// BookingDetails returns a booking with its slot and service.
func (s *BookingService) BookingDetails(ctx context.Context, id uint64) (*model.BookingDetail, error) {
	if id == 0 {
		return nil, validation("invalid booking id")
	}
	d, err := s.bookings.GetDetail(ctx, id)
	if errors.Is(err, repository.ErrBookingNotFound) {
		return nil, notFound("booking not found")
	}
	if err != nil {
		return nil, fmt.Errorf("load booking: %w", err)
	}
	return d, nil
}

// releaseTimeout bounds a seat release once it is detached from the
// request.
const releaseTimeout = 5 * time.Second

// releaseSeat gives a seat back.  The booking status has already changed
// by the time it runs, so it must not be abandoned with the request: it
// runs on a context that ignores the caller's cancellation.  Failures are
// logged; the count cannot exceed capacity either way.
func (s *BookingService) releaseSeat(ctx context.Context, slotID, bookingID uint64) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()
	ok, err := s.slots.IncrementSeat(ctx, slotID)
	if err != nil {
		s.log.Error("release seat failed", zap.Uint64("slot_id", slotID), zap.Uint64("booking_id", bookingID), zap.Error(err))
		return
	}
	if !ok {
		s.log.Warn("seat not released, slot missing or already at capacity", zap.Uint64("slot_id", slotID), zap.Uint64("booking_id", bookingID))
	}
}

func (s *BookingService) publish(ctx context.Context, typ string, b *model.Booking) {
	ev := queue.BookingEvent{
		Type:       typ,
		BookingID:  b.ID,
		SlotID:     b.SlotID,
		ServiceID:  b.ServiceID,
		UserID:     b.UserID,
		Status:     string(b.Status),
		Amount:     b.AmountMinor,
		OccurredAt: s.clock.Now(),
	}
	if b.PaymentRef != nil {
		ev.PaymentRef = *b.PaymentRef
	}
	if err := s.events.PublishBookingEvent(ctx, ev); err != nil {
		s.log.Warn("publish booking event failed", zap.String("type", typ), zap.Uint64("booking_id", b.ID), zap.Error(err))
	}
}
