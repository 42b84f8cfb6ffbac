package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/slot-booking/internal/config"
	"github.com/iliyamo/slot-booking/internal/handler"
	"github.com/iliyamo/slot-booking/internal/middleware"
)

// PublicOptions carries what the public routes need besides handlers.
// A nil Redis client disables rate limiting and response caching.
type PublicOptions struct {
	JWTSecret string
	RateLimit config.RateLimitConfig
	Cache     config.CacheConfig
	Redis     *redis.Client
	Log       *zap.Logger
}

// RegisterBookings registers availability and booking routes.  Identity
// is optional on these routes: a valid token attaches the user, a
// missing one is fine, an invalid one is rejected.
func RegisterBookings(e *echo.Echo, s *handler.SlotHandler, b *handler.BookingHandler, opts PublicOptions) {
	e.GET("/availability/:serviceId", s.Availability, middleware.ResponseCache(opts.Cache, opts.Redis, opts.Log))

	g := e.Group("/bookings", middleware.OptionalJWT(opts.JWTSecret))
	// only seat claims are rate limited; confirmation must always get through
	g.POST("", b.CreateBooking, middleware.RateLimit(opts.RateLimit, opts.Redis, opts.Log))
	g.POST("/confirm", b.Confirm)
	g.GET("/user/:userId", b.ListByUser)
	g.GET("/details/:id", b.Details)
	g.DELETE("/cancel-booking/:id", b.Cancel)
}
