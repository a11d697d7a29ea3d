package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/telecure-health/telecure/controllers"
	"github.com/telecure-health/telecure/middleware"
)

// SetupCreditRoutes configures credit balance, history and purchase routes,
// plus the payment-gateway callback.
func SetupCreditRoutes(app *fiber.App, cc *controllers.CreditController, pc *controllers.PaymentController) {
	credits := app.Group("/credits", middleware.Protected())
	credits.Get("/", cc.GetBalance)
	credits.Get("/transactions", cc.GetTransactions)
	credits.Post("/purchase", cc.Purchase)

	// Gateway callback; authenticated by payment reference, not by user.
	app.Post("/webhooks/payment", pc.Webhook)
}
