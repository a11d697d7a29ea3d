package controllers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/telecure-health/telecure/ledger"
	"github.com/telecure-health/telecure/models"
	"github.com/telecure-health/telecure/utils"
)

// PenaltyController exposes the admin penalty surface.
type PenaltyController struct {
	Ledger *ledger.Service
}

func NewPenaltyController(svc *ledger.Service) *PenaltyController {
	return &PenaltyController{Ledger: svc}
}

// Create issues a penalty against a doctor.
func (pc *PenaltyController) Create(c *fiber.Ctx) error {
	actorID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User ID not found in context",
		})
	}

	input := new(ledger.PenaltyInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Failed to parse request body",
			Error:   err.Error(),
		})
	}

	penalty, err := pc.Ledger.CreatePenalty(actorID, *input)
	if err != nil {
		return ledgerError(c, "Failed to create penalty", err)
	}
	return c.Status(fiber.StatusCreated).JSON(penalty)
}

// List returns penalties, filterable by doctor_id and status query params.
func (pc *PenaltyController) List(c *fiber.Ctx) error {
	var doctorID uint
	if v := c.Query("doctor_id"); v != "" {
		parsed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
				Message: "Invalid doctor_id",
				Error:   err.Error(),
			})
		}
		doctorID = uint(parsed)
	}

	penalties, err := pc.Ledger.ListPenalties(doctorID, models.PenaltyStatus(c.Query("status")))
	if err != nil {
		return ledgerError(c, "Failed to list penalties", err)
	}
	return c.JSON(penalties)
}

type ResolveInput struct {
	Notes string `json:"notes"`
}

// Resolve acknowledges a penalty. The deduction stands.
func (pc *PenaltyController) Resolve(c *fiber.Ctx) error {
	actorID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User ID not found in context",
		})
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Invalid penalty id",
			Error:   err.Error(),
		})
	}

	input := new(ResolveInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Failed to parse request body",
			Error:   err.Error(),
		})
	}

	penalty, err := pc.Ledger.ResolvePenalty(actorID, uint(id), input.Notes)
	if err != nil {
		return ledgerError(c, "Failed to resolve penalty", err)
	}
	return c.JSON(penalty)
}
