package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/slot-booking/internal/handler"
)

// RegisterRoutes registers routes that need neither authentication nor
// Redis.  Currently it exposes only the health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}
