package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/slot-booking/internal/model"
	"github.com/iliyamo/slot-booking/internal/payment"
	"github.com/iliyamo/slot-booking/internal/repository"
)

// PaymentService is the bridge between payment outcomes and the
// reservation engine.  It verifies what the client and the gateway tell
// it and then asks the engine to settle the booking; it never writes slot
// or booking rows itself.
type PaymentService struct {
	engine   *BookingService
	payments PaymentStore
	gateway  Gateway
	verifier SignatureVerifier
	currency string
	log      *zap.Logger
}

// NewPaymentService wires a PaymentService.
func NewPaymentService(engine *BookingService, payments PaymentStore, gateway Gateway, verifier SignatureVerifier, currency string, log *zap.Logger) *PaymentService {
	if currency == "" {
		currency = "INR"
	}
	return &PaymentService{engine: engine, payments: payments, gateway: gateway, verifier: verifier, currency: currency, log: log}
}

// ConfirmFromClient relays a client reported outcome to the engine.
func (p *PaymentService) ConfirmFromClient(ctx context.Context, bookingID uint64, paymentRef, status string) (*model.Booking, error) {
	if bookingID == 0 {
		return nil, validation("bookingId is required")
	}
	return p.engine.ConfirmPayment(ctx, bookingID, status, paymentRef)
}

// OrderResult is what a checkout client needs to open the gateway form.
type OrderResult struct {
	OrderID   string `json:"orderId"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	BookingID uint64 `json:"bookingId"`
	KeyID     string `json:"keyId"`
	Provider  string `json:"provider"`
}

// CreateOrder opens a gateway order for a pending booking and records it.
func (p *PaymentService) CreateOrder(ctx context.Context, bookingID uint64) (*OrderResult, error) {
	if bookingID == 0 {
		return nil, validation("bookingId is required")
	}
	b, err := p.engine.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	switch b.Status {
	case model.BookingPending:
	case model.BookingPaid:
		return nil, validation("booking already paid")
	default:
		return nil, validation("booking is not payable")
	}
	if b.AmountMinor <= 0 {
		return nil, validation("invalid booking amount")
	}
	receipt := strconv.FormatUint(b.ID, 10)
	order, err := p.gateway.CreateOrder(ctx, payment.OrderRequest{
		AmountMinor: b.AmountMinor,
		Currency:    p.currency,
		Receipt:     receipt,
		Notes:       map[string]string{"bookingId": receipt},
	})
	if err != nil {
		p.log.Error("gateway order failed", zap.Uint64("booking_id", b.ID), zap.Error(err))
		return nil, upstream("payment gateway unavailable", err)
	}
	rec := &model.Payment{
		BookingID:   b.ID,
		Provider:    p.gateway.Provider(),
		OrderID:     order.ID,
		AmountMinor: order.AmountMinor,
		Currency:    order.Currency,
		Status:      model.PaymentCreated,
	}
	if rec.Currency == "" {
		rec.Currency = p.currency
	}
	if err := p.payments.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("record payment: %w", err)
	}
	p.log.Info("payment order created", zap.Uint64("booking_id", b.ID), zap.String("order_id", order.ID))
	return &OrderResult{
		OrderID:   order.ID,
		Amount:    rec.AmountMinor,
		Currency:  rec.Currency,
		BookingID: b.ID,
		KeyID:     p.gateway.KeyID(),
		Provider:  rec.Provider,
	}, nil
}

// VerifyInput is the checkout callback forwarded by the client.
type VerifyInput struct {
	BookingID uint64
	OrderID   string
	PaymentID string
	Signature string
}

// VerifyCheckout checks the checkout signature.  A valid signature pays
// the booking; an invalid one for an order this service created fails it,
// which gives the seat back.
func (p *PaymentService) VerifyCheckout(ctx context.Context, in VerifyInput) (*model.Booking, error) {
	if in.BookingID == 0 || in.OrderID == "" || in.PaymentID == "" || in.Signature == "" {
		return nil, validation("bookingId, orderId, paymentId and signature are required")
	}
	b, err := p.engine.GetBooking(ctx, in.BookingID)
	if err != nil {
		return nil, err
	}
	if b.Status == model.BookingPaid {
		return b, nil
	}
	rec, err := p.payments.GetByOrderID(ctx, in.OrderID)
	switch {
	case errors.Is(err, repository.ErrPaymentNotFound):
		rec = nil
	case err != nil:
		return nil, fmt.Errorf("load payment: %w", err)
	}
	if rec != nil && rec.BookingID != b.ID {
		return nil, validation("order does not belong to booking")
	}

	if !p.verifier.VerifyCheckout(in.OrderID, in.PaymentID, in.Signature) {
		p.log.Warn("checkout signature mismatch", zap.Uint64("booking_id", b.ID), zap.String("order_id", in.OrderID))
		// An order we never issued says nothing about this booking, so it
		// keeps its seat until a real attempt or the reaper settles it.
		if rec != nil {
			p.markPayment(ctx, in.OrderID, model.PaymentFailed, in.PaymentID, in.Signature)
			if _, err := p.engine.ConfirmPayment(ctx, b.ID, OutcomeFailed, in.PaymentID); err != nil {
				return nil, err
			}
		}
		return nil, validation("payment verification failed")
	}

	paid, err := p.engine.ConfirmPayment(ctx, b.ID, OutcomeSuccess, in.PaymentID)
	if err != nil {
		return nil, err
	}
	if rec != nil {
		p.markPayment(ctx, in.OrderID, model.PaymentCaptured, in.PaymentID, in.Signature)
	}
	return paid, nil
}

type webhookPayload struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID      string          `json:"id"`
				OrderID string          `json:"order_id"`
				Status  string          `json:"status"`
				Notes   json.RawMessage `json:"notes"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// HandleWebhook processes a gateway webhook after checking its signature
// against the raw body.  Events that do not concern a known booking are
// acknowledged and only logged.
func (p *PaymentService) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	if !p.verifier.VerifyWebhook(body, signature) {
		return validation("invalid webhook signature")
	}
	var wh webhookPayload
	if err := json.Unmarshal(body, &wh); err != nil {
		return validation("malformed webhook payload")
	}
	var outcome string
	var payStatus model.PaymentStatus
	switch wh.Event {
	case "payment.captured", "payment.authorized":
		outcome, payStatus = OutcomeSuccess, model.PaymentCaptured
	case "payment.failed":
		outcome, payStatus = OutcomeFailed, model.PaymentFailed
	default:
		p.log.Info("webhook event ignored", zap.String("event", wh.Event))
		return nil
	}
	ent := wh.Payload.Payment.Entity

	var bookingID uint64
	var tracked bool
	if ent.OrderID != "" {
		rec, err := p.payments.GetByOrderID(ctx, ent.OrderID)
		switch {
		case err == nil:
			bookingID, tracked = rec.BookingID, true
		case !errors.Is(err, repository.ErrPaymentNotFound):
			return fmt.Errorf("load payment: %w", err)
		}
	}
	if bookingID == 0 {
		bookingID = noteBookingID(ent.Notes)
	}
	if bookingID == 0 {
		p.log.Warn("webhook for untracked payment", zap.String("event", wh.Event), zap.String("order_id", ent.OrderID))
		return nil
	}

	if _, err := p.engine.ConfirmPayment(ctx, bookingID, outcome, ent.ID); err != nil {
		if errors.Is(err, ErrNotFound) {
			p.log.Warn("webhook for unknown booking", zap.Uint64("booking_id", bookingID))
			return nil
		}
		return err
	}
	if tracked {
		p.markPayment(ctx, ent.OrderID, payStatus, ent.ID, "")
	}
	p.log.Info("webhook applied", zap.String("event", wh.Event), zap.Uint64("booking_id", bookingID))
	return nil
}

func (p *PaymentService) markPayment(ctx context.Context, orderID string, status model.PaymentStatus, paymentID, signature string) {
	if err := p.payments.MarkByOrderID(ctx, orderID, status, paymentID, signature); err != nil {
		p.log.Warn("update payment row failed", zap.String("order_id", orderID), zap.Error(err))
	}
}

// noteBookingID reads notes.bookingId, which gateways send as a string
// but may arrive as a number.  Empty notes come as [] and yield 0.
func noteBookingID(rawNotes json.RawMessage) uint64 {
	var notes map[string]json.RawMessage
	if json.Unmarshal(rawNotes, &notes) != nil {
		return 0
	}
	raw, ok := notes["bookingId"]
	if !ok {
		return 0
	}
	var s string
	if json.Unmarshal(raw, &s) != nil {
		s = string(raw)
	}
	id, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
