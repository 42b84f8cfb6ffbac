package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/slot-booking/internal/handler"
	"github.com/iliyamo/slot-booking/internal/middleware"
)

// RegisterAdmin registers slot administration under /admin.  All routes
// require a valid JWT carrying the admin role.
func RegisterAdmin(e *echo.Echo, h *handler.SlotHandler, jwtSecret, adminRole string) {
	g := e.Group(
		"/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(adminRole),
	)

	// ---- Slots ----
	g.POST("/slots", h.CreateSlot)
	g.POST("/slots/bulk", h.BulkCreateSlots)
	g.GET("/slots/:id", h.GetSlot)
	g.PATCH("/slots/:id", h.UpdateSlot)
	g.DELETE("/slots/:id", h.DeleteSlot)
}
