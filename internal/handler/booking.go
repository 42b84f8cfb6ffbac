package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/slot-booking/internal/middleware"
	"github.com/iliyamo/slot-booking/internal/service"
)

// BookingHandler serves the reservation endpoints.  Bookings may be made
// anonymously; when a valid token is present (OptionalJWT) its subject
// takes precedence over any userId in the body.
type BookingHandler struct {
	Bookings *service.BookingService
	Payments *service.PaymentService
	Log      *zap.Logger
}

// NewBookingHandler constructs a BookingHandler.  All dependencies must
// be non-nil.
func NewBookingHandler(bookings *service.BookingService, payments *service.PaymentService, log *zap.Logger) *BookingHandler {
	if bookings == nil || payments == nil {
		panic("nil service passed to NewBookingHandler")
	}
	return &BookingHandler{Bookings: bookings, Payments: payments, Log: log}
}

type createBookingRequest struct {
	ServiceID     uint64  `json:"serviceId"`
	SlotID        uint64  `json:"slotId"`
	UserID        *uint64 `json:"userId"`
	PaymentMethod string  `json:"paymentMethod"`
}

// CreateBooking handles POST /bookings.  It returns 201 with the booking
// id, the amount to pay and the payment reference.
func (h *BookingHandler) CreateBooking(c echo.Context) error {
	var req createBookingRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	userID := req.UserID
	if uid, ok := middleware.UserID(c); ok {
		userID = &uid
	}
	receipt, err := h.Bookings.CreateBooking(c.Request().Context(), service.CreateBookingInput{
		ServiceID:     req.ServiceID,
		SlotID:        req.SlotID,
		UserID:        userID,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return respond(c, http.StatusCreated, "booking created", receipt)
}

type confirmRequest struct {
	BookingID  uint64 `json:"bookingId"`
	PaymentRef string `json:"paymentRef"`
	Status     string `json:"status"`
}

// Confirm handles POST /bookings/confirm with status "success" or
// "failed".  Confirming a booking that is no longer pending returns it
// unchanged.
func (h *BookingHandler) Confirm(c echo.Context) error {
	var req confirmRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	b, err := h.Payments.ConfirmFromClient(c.Request().Context(), req.BookingID, req.PaymentRef, req.Status)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return respond(c, http.StatusOK, "booking "+string(b.Status), b)
}

// ListByUser handles GET /bookings/user/:userId.
func (h *BookingHandler) ListByUser(c echo.Context) error {
	userID, ok := pathID(c, "userId")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid user id")
	}
	list, err := h.Bookings.MyBookings(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return respond(c, http.StatusOK, "bookings", list)
}

// Details handles GET /bookings/details/:id.
func (h *BookingHandler) Details(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid booking id")
	}
	d, err := h.Bookings.BookingDetails(c.Request().Context(), id)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return respond(c, http.StatusOK, "booking", d)
}

// Cancel handles DELETE /bookings/cancel-booking/:id.  Only paid
// bookings whose slot has not started can be cancelled.
func (h *BookingHandler) Cancel(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid booking id")
	}
	if _, err := h.Bookings.CancelBooking(c.Request().Context(), id); err != nil {
		return writeError(c, h.Log, err)
	}
	return respond(c, http.StatusOK, "booking cancelled", echo.Map{"cancelled": true})
}
