package routes

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/meinhoongagan/campus-booking/booking"
	"github.com/meinhoongagan/campus-booking/chat"
	"github.com/meinhoongagan/campus-booking/controllers"
	"github.com/meinhoongagan/campus-booking/directory"
	"github.com/meinhoongagan/campus-booking/identity"
	"github.com/meinhoongagan/campus-booking/metrics"
	"github.com/meinhoongagan/campus-booking/middleware"
	"github.com/meinhoongagan/campus-booking/redis"
)

// Deps is everything the HTTP layer needs from the rest of the service.
type Deps struct {
	Accounts     *identity.Accounts
	Directory    *directory.Directory
	Bookings     *booking.Engine
	Chat         *chat.Engine
	Hub          *redis.Hub
	Metrics      *metrics.Metrics
	JWTSecret    []byte
	SecureCookie bool
	CORSOrigins  string
	Log          *zap.Logger
}

// Setup mounts every route group under /api, plus /health and /metrics.
func Setup(app *fiber.App, d Deps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	if d.Metrics != nil {
		app.Get("/metrics", d.Metrics.Handler())
	}

	api := app.Group("/api")
	protected := middleware.Protected(d.JWTSecret, d.Log)

	SetupAuthRoutes(api, controllers.NewAuthController(d.Accounts, d.Directory, d.SecureCookie, d.Log), protected)
	SetupTeacherRoutes(api, controllers.NewTeacherController(d.Directory, d.Bookings, d.Chat), protected)
	SetupSlotRoutes(api, controllers.NewSlotController(d.Bookings), protected)
	SetupBookingRoutes(api, controllers.NewBookingController(d.Bookings), protected)
	SetupTicketRoutes(api, controllers.NewTicketController(d.Chat), protected)
	if d.Hub != nil {
		api.Get("/events", protected, controllers.NewEventsController(d.Hub, d.Log).Stream)
	}
}
