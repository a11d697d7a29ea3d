package controllers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/telecure-health/telecure/ledger"
	"github.com/telecure-health/telecure/utils"
)

// PaymentController handles the payment-gateway result callback.
type PaymentController struct {
	Ledger *ledger.Service
}

func NewPaymentController(svc *ledger.Service) *PaymentController {
	return &PaymentController{Ledger: svc}
}

type PaymentWebhookInput struct {
	// Reference is the api_ref we handed to the gateway at order creation.
	Reference string `json:"api_ref"`
	InvoiceID string `json:"invoice_id"`
	State     string `json:"state"` // COMPLETE / FAILED per gateway docs
}

// Webhook is the single handler for gateway payment events, idempotent by
// payment reference: a replay of an already-handled reference gets 409 and
// causes no second activation. Only explicit terminal states settle the
// pending payment; intermediate or unrecognized states are acknowledged and
// left PENDING so a later terminal event can still land.
func (pc *PaymentController) Webhook(c *fiber.Ctx) error {
	input := new(PaymentWebhookInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Failed to parse webhook payload",
			Error:   err.Error(),
		})
	}
	if input.Reference == "" {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Missing payment reference",
		})
	}

	var success bool
	switch strings.ToUpper(input.State) {
	case "COMPLETE", "COMPLETED":
		success = true
	case "FAILED", "CANCELED", "CANCELLED":
		success = false
	default:
		return c.JSON(fiber.Map{"status": "ignored", "state": input.State})
	}

	pkg, err := pc.Ledger.ProcessPaymentResult(input.Reference, success, time.Now())
	if err != nil {
		return ledgerError(c, "Failed to process payment result", err)
	}

	if !success {
		return c.JSON(fiber.Map{"status": "failure recorded"})
	}
	return c.JSON(fiber.Map{
		"status":     "package activated",
		"package_id": pkg.ID,
	})
}
