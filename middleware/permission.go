package middleware

import (
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/telecure-health/telecure/db"
	"github.com/telecure-health/telecure/models"
)

// RequireRole checks that the authenticated user holds the given role. The
// role is re-read from the database rather than trusted from the token, so a
// demoted user loses access immediately.
func RequireRole(roleName string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals("userID").(uint)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "User ID not found in context",
			})
		}

		var dbUser models.User
		if err := db.DB.Preload("Role").First(&dbUser, userID).Error; err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "User not found",
			})
		}

		if dbUser.Role.Name != roleName {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "You don't have the required role to perform this action",
			})
		}

		return c.Next()
	}
}

// RequireVerifiedDoctor additionally checks the doctor's verification status.
func RequireVerifiedDoctor() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals("userID").(uint)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "User ID not found in context",
			})
		}

		var dbUser models.User
		if err := db.DB.Preload("Role").First(&dbUser, userID).Error; err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "User not found",
			})
		}

		if dbUser.Role.Name != models.RoleDoctor || dbUser.DoctorStatus != models.DoctorVerified {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Only verified doctors can perform this action",
			})
		}

		return c.Next()
	}
}

// CronSecret authorizes the time-triggered batch endpoints with a shared
// bearer token. A missing CRON_SECRET is a deployment error and fails the
// request with 500 rather than silently letting anyone trigger jobs.
func CronSecret() fiber.Handler {
	return func(c *fiber.Ctx) error {
		secret := os.Getenv("CRON_SECRET")
		if secret == "" {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "CRON_SECRET is not configured",
			})
		}

		auth := c.Get("Authorization")
		token := strings.TrimPrefix(auth, "Bearer ")
		if auth == "" || token == auth || token != secret {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid cron token",
			})
		}

		return c.Next()
	}
}
