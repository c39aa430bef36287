package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/meinhoongagan/campus-booking/controllers"
	"github.com/meinhoongagan/campus-booking/middleware"
)

// SetupAuthRoutes configures all authentication related routes
func SetupAuthRoutes(api fiber.Router, ctrl *controllers.AuthController, protected fiber.Handler) {
	auth := api.Group("/auth")

	// Public routes
	auth.Post("/register", middleware.LoginRateLimiter(), ctrl.Register)
	auth.Post("/login", middleware.LoginRateLimiter(), ctrl.Login)

	// Protected routes
	auth.Get("/me", protected, ctrl.Me)
	auth.Post("/logout", protected, ctrl.Logout)
}
