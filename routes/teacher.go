package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/meinhoongagan/campus-booking/controllers"
	"github.com/meinhoongagan/campus-booking/middleware"
	"github.com/meinhoongagan/campus-booking/models"
)

// SetupTeacherRoutes configures the directory and per-teacher views
func SetupTeacherRoutes(api fiber.Router, ctrl *controllers.TeacherController, protected fiber.Handler) {
	api.Get("/departments", ctrl.Departments)

	teachers := api.Group("/teachers")
	teachers.Get("/", ctrl.List)
	teachers.Get("/:id/schedule", ctrl.Schedule)
	teachers.Get("/:id/bookings/pending", protected, middleware.RequireRole(models.RoleTeacher), ctrl.PendingBookings)
	teachers.Get("/:id/tickets", protected, middleware.RequireRole(models.RoleTeacher), ctrl.Tickets)
}
