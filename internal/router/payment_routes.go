package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/slot-booking/internal/handler"
)

// RegisterPayments registers the gateway bridge under /payments.  The
// webhook is authenticated by its HMAC signature, not by a JWT.
func RegisterPayments(e *echo.Echo, h *handler.PaymentHandler) {
    g := e.Group("/payments")
    g.POST("/order", h.CreateOrder)
    g.POST("/verify", h.Verify)
    g.POST("/webhook", h.Webhook)
}
