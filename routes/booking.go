package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/meinhoongagan/campus-booking/controllers"
	"github.com/meinhoongagan/campus-booking/middleware"
	"github.com/meinhoongagan/campus-booking/models"
)

// SetupSlotRoutes configures teacher slot management
func SetupSlotRoutes(api fiber.Router, ctrl *controllers.SlotController, protected fiber.Handler) {
	slots := api.Group("/slots", protected, middleware.RequireRole(models.RoleTeacher))
	slots.Post("/", ctrl.Create)
	slots.Patch("/:id/status", ctrl.UpdateStatus)
}

// SetupBookingRoutes configures booking requests and decisions
func SetupBookingRoutes(api fiber.Router, ctrl *controllers.BookingController, protected fiber.Handler) {
	bookings := api.Group("/bookings", protected)
	bookings.Post("/", middleware.RequireRole(models.RoleStudent), ctrl.Create)
	bookings.Get("/mine", middleware.RequireRole(models.RoleStudent), ctrl.Mine)
	bookings.Post("/:id/approve", middleware.RequireRole(models.RoleTeacher), ctrl.Approve)
	bookings.Post("/:id/reject", middleware.RequireRole(models.RoleTeacher), ctrl.Reject)
}
