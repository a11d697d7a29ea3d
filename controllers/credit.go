package controllers

import (
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/razorpay/razorpay-go"

	"github.com/telecure-health/telecure/db"
	"github.com/telecure-health/telecure/ledger"
	"github.com/telecure-health/telecure/models"
	"github.com/telecure-health/telecure/redis"
	"github.com/telecure-health/telecure/utils"
)

// CreditController exposes the patient-facing credit endpoints. The ledger
// service is injected at startup.
type CreditController struct {
	Ledger *ledger.Service
}

func NewCreditController(svc *ledger.Service) *CreditController {
	return &CreditController{Ledger: svc}
}

// GetBalance returns the user's aggregate credits and active packages.
func (cc *CreditController) GetBalance(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User ID not found in context",
		})
	}

	var user models.User
	if err := db.DB.First(&user, userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(utils.ErrorResponse{
			Message: "User not found",
			Error:   err.Error(),
		})
	}

	var packages []models.CreditPackage
	if err := db.DB.Where("user_id = ? AND status = ?", userID, models.PackageActive).
		Order("created_at ASC").Find(&packages).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to fetch packages",
			Error:   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"credits":  user.Credits,
		"packages": packages,
	})
}

// GetTransactions returns the user's ledger history, newest first.
func (cc *CreditController) GetTransactions(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User ID not found in context",
		})
	}

	var transactions []models.CreditTransaction
	if err := db.DB.Where("user_id = ?", userID).
		Order("created_at DESC").Limit(100).Find(&transactions).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to fetch transactions",
			Error:   err.Error(),
		})
	}
	return c.JSON(transactions)
}

type PurchaseInput struct {
	PackageType models.PackageType `json:"package_type"`
	Upgrade     bool               `json:"upgrade"`
}

// Purchase creates a payment-gateway order for a credit package and stores
// the pending-payment metadata the webhook will need. Credits are only
// granted when the gateway confirms the payment.
func (cc *CreditController) Purchase(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User ID not found in context",
		})
	}

	input := new(PurchaseInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Failed to parse request body",
			Error:   err.Error(),
		})
	}

	plan, err := ledger.PlanFor(input.PackageType)
	if err != nil {
		return ledgerError(c, "Unknown package type", err)
	}

	reference := uuid.NewString()

	client := razorpay.NewClient(os.Getenv("RAZORPAY_KEY_ID"), os.Getenv("RAZORPAY_KEY_SECRET"))
	order, err := client.Order.Create(map[string]interface{}{
		"amount":   plan.Price,
		"currency": "INR",
		"receipt":  reference,
	}, nil)
	if err != nil {
		log.Printf("Failed to create gateway order for user %d: %v", userID, err)
		return c.Status(fiber.StatusBadGateway).JSON(utils.ErrorResponse{
			Message: "Failed to create payment order",
			Error:   err.Error(),
		})
	}

	orderID, _ := order["id"].(string)
	pending, err := cc.Ledger.CreatePendingPayment(userID, reference, orderID, plan.Type, input.Upgrade)
	if err != nil {
		return ledgerError(c, "Failed to record pending payment", err)
	}

	// Best-effort mirror for quick webhook lookups; the DB row is
	// authoritative.
	if err := redis.CachePendingPayment(reference, userID, 24*time.Hour); err != nil {
		log.Printf("Failed to cache pending payment %s: %v", reference, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"reference":        pending.Reference,
		"gateway_order_id": pending.GatewayOrderID,
		"amount":           pending.Amount,
		"package_type":     pending.PackageType,
	})
}
