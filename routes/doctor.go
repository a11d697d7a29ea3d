package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/telecure-health/telecure/controllers"
	"github.com/telecure-health/telecure/middleware"
)

// SetupDoctorRoutes configures the doctor directory and onboarding routes
func SetupDoctorRoutes(app *fiber.App) {
	doctors := app.Group("/doctors")
	doctors.Get("/", controllers.ListDoctors)
	doctors.Get("/:id", controllers.GetDoctor)
	doctors.Post("/license", middleware.Protected(), middleware.RequireRole("doctor"), controllers.UploadLicense)
}
