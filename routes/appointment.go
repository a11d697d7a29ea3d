package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/telecure-health/telecure/controllers"
	"github.com/telecure-health/telecure/middleware"
)

// SetupAppointmentRoutes configures all appointment related routes
func SetupAppointmentRoutes(app *fiber.App, ac *controllers.AppointmentController) {
	appointment := app.Group("/appointments", middleware.Protected())
	appointment.Get("/", ac.List)
	appointment.Post("/", middleware.RequireRole("patient"), ac.Book)
	appointment.Post("/:id/cancel", ac.Cancel)
	appointment.Post("/:id/complete", middleware.RequireVerifiedDoctor(), ac.Complete)
}
