package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/telecure-health/telecure/db"
	"github.com/telecure-health/telecure/models"
	"github.com/telecure-health/telecure/utils"
)

// ListNotifications returns the authenticated user's notifications, newest
// first.
func ListNotifications(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User ID not found in context",
		})
	}

	var notifications []models.Notification
	if err := db.DB.Where("user_id = ?", userID).
		Order("created_at DESC").Limit(50).Find(&notifications).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to fetch notifications",
			Error:   err.Error(),
		})
	}
	return c.JSON(notifications)
}

// MarkNotificationRead flags one of the user's notifications as read.
func MarkNotificationRead(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User ID not found in context",
		})
	}

	res := db.DB.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", c.Params("id"), userID).
		Update("read", true)
	if res.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to update notification",
			Error:   res.Error.Error(),
		})
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(utils.ErrorResponse{
			Message: "Notification not found",
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}
