package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/telecure-health/telecure/controllers"
	"github.com/telecure-health/telecure/middleware"
)

// SetupAdminRoutes configures the admin penalty and verification surface
func SetupAdminRoutes(app *fiber.App, pc *controllers.PenaltyController) {
	admin := app.Group("/admin", middleware.Protected(), middleware.RequireRole("admin"))
	admin.Post("/penalties", pc.Create)
	admin.Get("/penalties", pc.List)
	admin.Post("/penalties/:id/resolve", pc.Resolve)
	admin.Post("/doctors/:id/verify", controllers.VerifyDoctor)
}
