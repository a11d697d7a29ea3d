package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/telecure-health/telecure/ledger"
	"github.com/telecure-health/telecure/utils"
)

// ledgerError maps the ledger package's sentinel errors onto HTTP responses.
func ledgerError(c *fiber.Ctx, msg string, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, ledger.ErrInsufficientCredits):
		status = fiber.StatusPaymentRequired
	case errors.Is(err, ledger.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, ledger.ErrUnauthorized):
		status = fiber.StatusForbidden
	case errors.Is(err, ledger.ErrValidation):
		status = fiber.StatusBadRequest
	case errors.Is(err, ledger.ErrPenaltyResolved),
		errors.Is(err, ledger.ErrDuplicateProcessing),
		errors.Is(err, ledger.ErrConflict):
		status = fiber.StatusConflict
	}
	return c.Status(status).JSON(utils.ErrorResponse{
		Message: msg,
		Error:   err.Error(),
	})
}
