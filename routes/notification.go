package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/telecure-health/telecure/controllers"
	"github.com/telecure-health/telecure/middleware"
)

// SetupNotificationRoutes configures the notification inbox routes
func SetupNotificationRoutes(app *fiber.App) {
	notifications := app.Group("/notifications", middleware.Protected())
	notifications.Get("/", controllers.ListNotifications)
	notifications.Patch("/:id/read", controllers.MarkNotificationRead)
}
