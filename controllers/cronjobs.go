package controllers

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/telecure-health/telecure/ledger"
	"github.com/telecure-health/telecure/redis"
	"github.com/telecure-health/telecure/utils"
)

// CronController exposes the time-triggered batch endpoints for an external
// scheduler. Both are no-argument triggers guarded by the shared-secret
// middleware and a redis job lock, and return run summaries.
type CronController struct {
	Ledger *ledger.Service
}

func NewCronController(svc *ledger.Service) *CronController {
	return &CronController{Ledger: svc}
}

const jobLockTTL = 10 * time.Minute

// ExpireCredits runs the expiry sweep and the expiry-warning pass.
func (cc *CronController) ExpireCredits(c *fiber.Ctx) error {
	ok, err := redis.AcquireJobLock("expire-credits", jobLockTTL)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to acquire job lock",
			Error:   err.Error(),
		})
	}
	if !ok {
		return c.Status(fiber.StatusConflict).JSON(utils.ErrorResponse{
			Message: "Expiry job already running",
		})
	}
	defer redis.ReleaseJobLock("expire-credits")

	now := time.Now()
	result, err := cc.Ledger.ExpireDueCredits(now)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Expiry job failed",
			Error:   err.Error(),
		})
	}

	warnings, err := cc.Ledger.SendExpiryWarnings(now)
	if err != nil {
		log.Printf("Expiry warnings pass failed: %v", err)
	}

	return c.JSON(fiber.Map{
		"packages_expired": result.PackagesExpired,
		"credits_expired":  result.CreditsExpired,
		"failed":           result.Failed,
		"warnings_sent":    warnings,
	})
}

// UpdateDoctorsBalance runs the payout aggregation.
func (cc *CronController) UpdateDoctorsBalance(c *fiber.Ctx) error {
	ok, err := redis.AcquireJobLock("update-doctors-balance", jobLockTTL)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to acquire job lock",
			Error:   err.Error(),
		})
	}
	if !ok {
		return c.Status(fiber.StatusConflict).JSON(utils.ErrorResponse{
			Message: "Payout job already running",
		})
	}
	defer redis.ReleaseJobLock("update-doctors-balance")

	result, err := cc.Ledger.RunDoctorPayouts(time.Now())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Payout job failed",
			Error:   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"doctors_paid": result.DoctorsPaid,
		"total_amount": result.TotalAmount,
		"failed":       result.Failed,
	})
}
