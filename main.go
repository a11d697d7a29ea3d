package main

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/telecure-health/telecure/controllers"
	"github.com/telecure-health/telecure/cron"
	"github.com/telecure-health/telecure/db"
	"github.com/telecure-health/telecure/ledger"
	"github.com/telecure-health/telecure/redis"
	"github.com/telecure-health/telecure/routes"
)

func main() {
	app := fiber.New()
	db.Init()
	redis.InitRedis()

	svc := ledger.NewService(db.DB)

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Telecure API")
	})

	creditCtrl := controllers.NewCreditController(svc)
	paymentCtrl := controllers.NewPaymentController(svc)
	appointmentCtrl := controllers.NewAppointmentController(svc)
	penaltyCtrl := controllers.NewPenaltyController(svc)
	cronCtrl := controllers.NewCronController(svc)

	routes.SetupAuthRoutes(app)
	routes.SetupDoctorRoutes(app)
	routes.SetupCreditRoutes(app, creditCtrl, paymentCtrl)
	routes.SetupAppointmentRoutes(app, appointmentCtrl)
	routes.SetupAdminRoutes(app, penaltyCtrl)
	routes.SetupCronRoutes(app, cronCtrl)
	routes.SetupNotificationRoutes(app)

	cron.StartCronJobs(svc)

	app.Listen(":8000")
	fmt.Println("Server started on port 8000")
}
