package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/slot-booking/internal/model"
	"github.com/iliyamo/slot-booking/internal/payment"
)

const (
	testKeySecret  = "key_secret"
	testHookSecret = "hook_secret"
)

type stubGateway struct {
	err  error
	last payment.OrderRequest
	n    int
}

func (g *stubGateway) Provider() string { return payment.ProviderRazorpay }
func (g *stubGateway) KeyID() string    { return "rzp_test_key" }

func (g *stubGateway) CreateOrder(_ context.Context, req payment.OrderRequest) (*payment.Order, error) {
	if g.err != nil {
		return nil, g.err
	}
	g.n++
	g.last = req
	return &payment.Order{ID: fmt.Sprintf("order_%d", g.n), AmountMinor: req.AmountMinor, Currency: req.Currency, Status: "created"}, nil
}

func newBridge(t *testing.T, f *fixture, gw Gateway) *PaymentService {
	t.Helper()
	return NewPaymentService(f.bookings, f.store.Payments(), gw, payment.NewVerifier(testKeySecret, testHookSecret), "INR", zap.NewNop())
}

func TestCreateOrderRecordsPayment(t *testing.T) {
	f := newFixture(t)
	gw := &stubGateway{}
	bridge := newBridge(t, f, gw)
	s := f.slot(t, time.Hour, 1)
	r := f.book(t, s.ID)

	out, err := bridge.CreateOrder(context.Background(), r.BookingID)
	require.NoError(t, err)
	assert.Equal(t, "order_1", out.OrderID)
	assert.Equal(t, int64(50000), out.Amount)
	assert.Equal(t, "INR", out.Currency)
	assert.Equal(t, "rzp_test_key", out.KeyID)
	assert.Equal(t, fmt.Sprint(r.BookingID), gw.last.Receipt)
	assert.Equal(t, fmt.Sprint(r.BookingID), gw.last.Notes["bookingId"])

	p, err := f.store.Payments().GetByOrderID(context.Background(), "order_1")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentCreated, p.Status)
	assert.Equal(t, r.BookingID, p.BookingID)
}

func TestCreateOrderRejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bridge := newBridge(t, f, &stubGateway{})
	s := f.slot(t, time.Hour, 2)
	paid := f.book(t, s.ID)
	_, err := f.bookings.ConfirmPayment(ctx, paid.BookingID, OutcomeSuccess, "")
	require.NoError(t, err)

	_, err = bridge.CreateOrder(ctx, paid.BookingID)
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "booking already paid", Message(err))

	_, err = bridge.CreateOrder(ctx, 404)
	assert.ErrorIs(t, err, ErrNotFound)

	free := f.store.AddService(model.Service{Name: "Free intro", DurationMinutes: 15, PriceMinor: 0})
	fs, err := f.slots.CreateSlot(ctx, CreateSlotInput{ServiceID: free.ID, Start: s.Start, End: s.End})
	require.NoError(t, err)
	fr, err := f.bookings.CreateBooking(ctx, CreateBookingInput{ServiceID: free.ID, SlotID: fs.ID})
	require.NoError(t, err)
	_, err = bridge.CreateOrder(ctx, fr.BookingID)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateOrderGatewayDown(t *testing.T) {
	f := newFixture(t)
	bridge := newBridge(t, f, &stubGateway{err: errors.New("connection refused")})
	s := f.slot(t, time.Hour, 1)
	r := f.book(t, s.ID)

	_, err := bridge.CreateOrder(context.Background(), r.BookingID)
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestVerifyCheckoutSuccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bridge := newBridge(t, f, &stubGateway{})
	s := f.slot(t, time.Hour, 1)
	r := f.book(t, s.ID)
	order, err := bridge.CreateOrder(ctx, r.BookingID)
	require.NoError(t, err)

	sig := payment.CheckoutSignature(testKeySecret, order.OrderID, "pay_123")
	b, err := bridge.VerifyCheckout(ctx, VerifyInput{BookingID: r.BookingID, OrderID: order.OrderID, PaymentID: "pay_123", Signature: sig})
	require.NoError(t, err)
	assert.Equal(t, model.BookingPaid, b.Status)
	assert.Equal(t, "pay_123", *b.PaymentRef)
	assert.Equal(t, 0, f.seatsLeft(t, s.ID))

	p, err := f.store.Payments().GetByOrderID(ctx, order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentCaptured, p.Status)
	assert.Equal(t, "pay_123", *p.PaymentID)

	// a replay short-circuits on the paid booking
	b, err = bridge.VerifyCheckout(ctx, VerifyInput{BookingID: r.BookingID, OrderID: order.OrderID, PaymentID: "pay_123", Signature: "bogus"})
	require.NoError(t, err)
	assert.Equal(t, model.BookingPaid, b.Status)
}

func TestVerifyCheckoutMismatchRestoresSeat(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bridge := newBridge(t, f, &stubGateway{})
	s := f.slot(t, time.Hour, 1)
	r := f.book(t, s.ID)
	order, err := bridge.CreateOrder(ctx, r.BookingID)
	require.NoError(t, err)

	_, err = bridge.VerifyCheckout(ctx, VerifyInput{BookingID: r.BookingID, OrderID: order.OrderID, PaymentID: "pay_1", Signature: "deadbeef"})
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "payment verification failed", Message(err))

	b, err := f.bookings.GetBooking(ctx, r.BookingID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingFailed, b.Status)
	assert.Equal(t, 1, f.seatsLeft(t, s.ID))
	p, err := f.store.Payments().GetByOrderID(ctx, order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentFailed, p.Status)
}

func TestVerifyCheckoutMismatchOnUnknownOrderKeepsBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bridge := newBridge(t, f, &stubGateway{})
	s := f.slot(t, time.Hour, 1)
	r := f.book(t, s.ID)

	_, err := bridge.VerifyCheckout(ctx, VerifyInput{BookingID: r.BookingID, OrderID: "order_unknown", PaymentID: "pay_1", Signature: "deadbeef"})
	require.ErrorIs(t, err, ErrValidation)

	b, err := f.bookings.GetBooking(ctx, r.BookingID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingPending, b.Status)
	assert.Equal(t, 0, f.seatsLeft(t, s.ID))

	// the real checkout still goes through afterwards
	order, err := bridge.CreateOrder(ctx, r.BookingID)
	require.NoError(t, err)
	sig := payment.CheckoutSignature(testKeySecret, order.OrderID, "pay_2")
	b, err = bridge.VerifyCheckout(ctx, VerifyInput{BookingID: r.BookingID, OrderID: order.OrderID, PaymentID: "pay_2", Signature: sig})
	require.NoError(t, err)
	assert.Equal(t, model.BookingPaid, b.Status)
}

func TestVerifyCheckoutForeignOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bridge := newBridge(t, f, &stubGateway{})
	s := f.slot(t, time.Hour, 2)
	mine := f.book(t, s.ID)
	theirs := f.book(t, s.ID)
	order, err := bridge.CreateOrder(ctx, theirs.BookingID)
	require.NoError(t, err)

	sig := payment.CheckoutSignature(testKeySecret, order.OrderID, "pay_9")
	_, err = bridge.VerifyCheckout(ctx, VerifyInput{BookingID: mine.BookingID, OrderID: order.OrderID, PaymentID: "pay_9", Signature: sig})
	assert.ErrorIs(t, err, ErrValidation)
	b, err := f.bookings.GetBooking(ctx, mine.BookingID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingPending, b.Status)
}

func webhookBody(event, orderID, paymentID, notes string) []byte {
	return []byte(fmt.Sprintf(`{"event":%q,"payload":{"payment":{"entity":{"id":%q,"order_id":%q,"status":"captured","notes":%s}}}}`,
		event, paymentID, orderID, notes))
}

func TestHandleWebhookCaptured(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bridge := newBridge(t, f, &stubGateway{})
	s := f.slot(t, time.Hour, 1)
	r := f.book(t, s.ID)
	order, err := bridge.CreateOrder(ctx, r.BookingID)
	require.NoError(t, err)

	body := webhookBody("payment.captured", order.OrderID, "pay_w1", "[]")
	require.NoError(t, bridge.HandleWebhook(ctx, body, payment.WebhookSignature(testHookSecret, body)))

	b, err := f.bookings.GetBooking(ctx, r.BookingID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingPaid, b.Status)
	p, err := f.store.Payments().GetByOrderID(ctx, order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentCaptured, p.Status)

	// duplicate delivery is harmless
	require.NoError(t, bridge.HandleWebhook(ctx, body, payment.WebhookSignature(testHookSecret, body)))
	assert.Equal(t, 0, f.seatsLeft(t, s.ID))
}

func TestHandleWebhookFallsBackToNotes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bridge := newBridge(t, f, &stubGateway{})
	s := f.slot(t, time.Hour, 1)
	r := f.book(t, s.ID)

	body := webhookBody("payment.failed", "order_unknown", "pay_w2", fmt.Sprintf(`{"bookingId":"%d"}`, r.BookingID))
	require.NoError(t, bridge.HandleWebhook(ctx, body, payment.WebhookSignature(testHookSecret, body)))

	b, err := f.bookings.GetBooking(ctx, r.BookingID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingFailed, b.Status)
	assert.Equal(t, 1, f.seatsLeft(t, s.ID))
}

func TestHandleWebhookRejectsBadSignature(t *testing.T) {
	f := newFixture(t)
	bridge := newBridge(t, f, &stubGateway{})
	body := webhookBody("payment.captured", "order_1", "pay_1", "[]")

	err := bridge.HandleWebhook(context.Background(), body, payment.WebhookSignature("wrong", body))
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "invalid webhook signature", Message(err))
}

func TestHandleWebhookIgnoresUntracked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bridge := newBridge(t, f, &stubGateway{})

	for _, body := range [][]byte{
		webhookBody("order.paid", "order_1", "pay_1", "[]"),
		webhookBody("payment.captured", "order_nobody", "pay_1", "[]"),
		webhookBody("payment.captured", "order_nobody", "pay_1", `{"bookingId":"999"}`),
	} {
		assert.NoError(t, bridge.HandleWebhook(ctx, body, payment.WebhookSignature(testHookSecret, body)))
	}

	garbage := []byte("{not json")
	assert.ErrorIs(t, bridge.HandleWebhook(ctx, garbage, payment.WebhookSignature(testHookSecret, garbage)), ErrValidation)
}

func TestConfirmFromClient(t *testing.T) {
	f := newFixture(t)
	bridge := newBridge(t, f, &stubGateway{})
	s := f.slot(t, time.Hour, 1)
	r := f.book(t, s.ID)

	b, err := bridge.ConfirmFromClient(context.Background(), r.BookingID, "ref_1", OutcomeSuccess)
	require.NoError(t, err)
	assert.Equal(t, model.BookingPaid, b.Status)

	_, err = bridge.ConfirmFromClient(context.Background(), 0, "", OutcomeSuccess)
	assert.ErrorIs(t, err, ErrValidation)
}
