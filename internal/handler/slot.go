package handler

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/slot-booking/internal/model"
	"github.com/iliyamo/slot-booking/internal/service"
)

// SlotHandler exposes slot administration and the public availability
// listing.  The /admin routes are expected to sit behind JWTAuth and
// RequireRole.
type SlotHandler struct {
	Slots *service.SlotService
	Log   *zap.Logger
}

// NewSlotHandler constructs an SlotHandler.
func NewSlotHandler(slots *service.SlotService, log *zap.Logger) *SlotHandler {
	if slots == nil {
		panic("nil slot service passed to NewSlotHandler")
	}
	return &SlotHandler{Slots: slots, Log: log}
}

type createSlotRequest struct {
	ServiceID uint64 `json:"serviceId"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Capacity  *int   `json:"capacity"`
	Active    *bool  `json:"active"`
}

// CreateSlot handles POST /admin/slots.
func (h *SlotHandler) CreateSlot(c echo.Context) error {
	var req createSlotRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	start, err := service.ParseInstant(req.Start)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	end, err := service.ParseInstant(req.End)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	slot, err := h.Slots.CreateSlot(c.Request().Context(), service.CreateSlotInput{
		ServiceID: req.ServiceID,
		Start:     start,
		End:       end,
		Capacity:  req.Capacity,
		Active:    req.Active,
	})
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return respond(c, http.StatusCreated, "slot created", slot)
}

type bulkSlotsRequest struct {
	ServiceID uint64          `json:"serviceId"`
	From      string          `json:"from"`
	To        string          `json:"to"`
	Times     json.RawMessage `json:"times"`
	Capacity  *int            `json:"capacity"`
}

// BulkCreateSlots handles POST /admin/slots/bulk.  "times" may be an
// array, a JSON-encoded array or a comma-separated string.
func (h *SlotHandler) BulkCreateSlots(c echo.Context) error {
	var req bulkSlotsRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	n, err := h.Slots.BulkCreateSlots(c.Request().Context(), service.BulkCreateInput{
		ServiceID: req.ServiceID,
		DateFrom:  req.From,
		DateTo:    req.To,
		Times:     normalizeTimes(req.Times),
		Capacity:  req.Capacity,
	})
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return respond(c, http.StatusCreated, "slots created", echo.Map{"count": n})
}

// GetSlot handles GET /admin/slots/:id.
func (h *SlotHandler) GetSlot(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid slot id")
	}
	v, err := h.Slots.GetSlot(c.Request().Context(), id)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return respond(c, http.StatusOK, "slot", v)
}

type updateSlotRequest struct {
	Start     *string `json:"start"`
	End       *string `json:"end"`
	Capacity  *int    `json:"capacity"`
	SeatsLeft *int    `json:"seatsLeft"`
	Active    *bool   `json:"active"`
}

// UpdateSlot handles PATCH /admin/slots/:id.  Omitted fields are kept.
func (h *SlotHandler) UpdateSlot(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid slot id")
	}
	var req updateSlotRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	patch := model.SlotPatch{Capacity: req.Capacity, SeatsLeft: req.SeatsLeft, Active: req.Active}
	if req.Start != nil {
		t, err := service.ParseInstant(*req.Start)
		if err != nil {
			return writeError(c, h.Log, err)
		}
		patch.Start = &t
	}
	if req.End != nil {
		t, err := service.ParseInstant(*req.End)
		if err != nil {
			return writeError(c, h.Log, err)
		}
		patch.End = &t
	}
	slot, err := h.Slots.UpdateSlot(c.Request().Context(), id, patch)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return respond(c, http.StatusOK, "slot updated", slot)
}

// DeleteSlot handles DELETE /admin/slots/:id.
func (h *SlotHandler) DeleteSlot(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid slot id")
	}
	if err := h.Slots.DeleteSlot(c.Request().Context(), id); err != nil {
		return writeError(c, h.Log, err)
	}
	return respond(c, http.StatusOK, "slot deleted", echo.Map{"deleted": true})
}

// Availability handles GET /availability/:serviceId.  month is "YYYY-MM"
// or a single day "YYYY-MM-DD"; without it every upcoming slot is
// listed.  includeFull=true keeps slots with no seats left.
func (h *SlotHandler) Availability(c echo.Context) error {
	serviceID, ok := pathID(c, "serviceId")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid service id")
	}
	includeFull := c.QueryParam("includeFull") == "true" || c.QueryParam("includeFull") == "1"
	slots, err := h.Slots.QueryAvailability(c.Request().Context(), serviceID, c.QueryParam("month"), includeFull)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return respond(c, http.StatusOK, "availability", slots)
}
