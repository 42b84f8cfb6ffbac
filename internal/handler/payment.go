package handler

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/slot-booking/internal/service"
)

// SignatureHeader carries the webhook HMAC.
const SignatureHeader = "X-Razorpay-Signature"

// PaymentHandler bridges the payment gateway to the reservation engine.
type PaymentHandler struct {
	Payments *service.PaymentService
	Log      *zap.Logger
}

// NewPaymentHandler constructs a PaymentHandler.
func NewPaymentHandler(payments *service.PaymentService, log *zap.Logger) *PaymentHandler {
	if payments == nil {
		panic("nil payment service passed to NewPaymentHandler")
	}
	return &PaymentHandler{Payments: payments, Log: log}
}

// CreateOrder handles POST /payments/order {bookingId}.
func (h *PaymentHandler) CreateOrder(c echo.Context) error {
	var req struct {
		BookingID uint64 `json:"bookingId"`
	}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	order, err := h.Payments.CreateOrder(c.Request().Context(), req.BookingID)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return respond(c, http.StatusOK, "order created", order)
}

type verifyRequest struct {
	BookingID uint64 `json:"bookingId"`
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

// Verify handles POST /payments/verify with the fields the checkout form
// hands back to the client.
func (h *PaymentHandler) Verify(c echo.Context) error {
	var req verifyRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	b, err := h.Payments.VerifyCheckout(c.Request().Context(), service.VerifyInput{
		BookingID: req.BookingID,
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
		Signature: req.Signature,
	})
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return respond(c, http.StatusOK, "payment verified", b)
}

// Webhook handles POST /payments/webhook.  The signature covers the raw
// body, so it is read before any JSON decoding.
func (h *PaymentHandler) Webhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return fail(c, http.StatusBadRequest, "unreadable body")
	}
	if err := h.Payments.HandleWebhook(c.Request().Context(), body, c.Request().Header.Get(SignatureHeader)); err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
