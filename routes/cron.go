package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/telecure-health/telecure/controllers"
	"github.com/telecure-health/telecure/middleware"
)

// SetupCronRoutes configures the externally triggered batch endpoints
func SetupCronRoutes(app *fiber.App, cc *controllers.CronController) {
	cron := app.Group("/cron", middleware.CronSecret())
	cron.Post("/expire-credits", cc.ExpireCredits)
	cron.Post("/update-doctors-balance", cc.UpdateDoctorsBalance)
}
