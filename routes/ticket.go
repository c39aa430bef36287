package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/meinhoongagan/campus-booking/controllers"
	"github.com/meinhoongagan/campus-booking/middleware"
	"github.com/meinhoongagan/campus-booking/models"
)

// SetupTicketRoutes configures chat tickets and their messages
func SetupTicketRoutes(api fiber.Router, ctrl *controllers.TicketController, protected fiber.Handler) {
	tickets := api.Group("/tickets", protected)
	tickets.Post("/", ctrl.Create)
	tickets.Get("/mine", middleware.RequireRole(models.RoleStudent), ctrl.Mine)
	tickets.Patch("/:id/status", ctrl.UpdateStatus)
	tickets.Get("/:id/messages", ctrl.Messages)
	tickets.Post("/:id/messages", ctrl.SendMessage)
}
