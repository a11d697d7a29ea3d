package controllers

import (
	"fmt"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/telecure-health/telecure/db"
	"github.com/telecure-health/telecure/models"
	"github.com/telecure-health/telecure/utils"
)

// ListDoctors returns verified doctors, optionally filtered by specialty.
func ListDoctors(c *fiber.Ctx) error {
	q := db.DB.Where("doctor_status = ?", models.DoctorVerified)
	if specialty := c.Query("specialty"); specialty != "" {
		q = q.Where("specialty = ?", specialty)
	}

	var doctors []models.User
	if err := q.Select("id", "name", "specialty", "experience", "doctor_status").
		Find(&doctors).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to fetch doctors",
			Error:   err.Error(),
		})
	}
	return c.JSON(doctors)
}

// GetDoctor returns one verified doctor's public profile.
func GetDoctor(c *fiber.Ctx) error {
	var doctor models.User
	if err := db.DB.Where("id = ? AND doctor_status = ?", c.Params("id"), models.DoctorVerified).
		Select("id", "name", "specialty", "experience", "doctor_status").
		First(&doctor).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(utils.ErrorResponse{
			Message: "Doctor not found",
			Error:   err.Error(),
		})
	}
	return c.JSON(doctor)
}

// UploadLicense stores the doctor's license document and attaches the URL to
// their profile, pending admin verification.
func UploadLicense(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User ID not found in context",
		})
	}

	fileHeader, err := c.FormFile("document")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Missing license document",
			Error:   err.Error(),
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to read upload",
			Error:   err.Error(),
		})
	}
	defer file.Close()

	url, err := utils.UploadLicenseDoc(file, fmt.Sprintf("license_%d", userID))
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(utils.ErrorResponse{
			Message: "Failed to upload document",
			Error:   err.Error(),
		})
	}

	if err := db.DB.Model(&models.User{}).Where("id = ?", userID).
		Update("license_doc_url", url).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to save document URL",
			Error:   err.Error(),
		})
	}

	return c.JSON(fiber.Map{"license_doc_url": url})
}

type VerifyInput struct {
	Approve bool   `json:"approve"`
	Reason  string `json:"reason"`
}

// VerifyDoctor is the admin decision on a pending doctor. Approval makes the
// doctor bookable; either way the doctor is notified and the decision is
// audit-logged.
func VerifyDoctor(c *fiber.Ctx) error {
	actorID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User ID not found in context",
		})
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Invalid doctor id",
			Error:   err.Error(),
		})
	}

	input := new(VerifyInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Failed to parse request body",
			Error:   err.Error(),
		})
	}

	var doctor models.User
	if err := db.DB.Preload("Role").First(&doctor, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(utils.ErrorResponse{
			Message: "Doctor not found",
			Error:   err.Error(),
		})
	}
	if !doctor.IsDoctor() {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "User is not a doctor",
		})
	}

	status := models.DoctorVerified
	action := models.ActionDoctorVerified
	nType := models.NotifyDoctorVerified
	title := "Profile verified"
	body := "Your doctor profile has been verified. Patients can now book consultations with you."
	if !input.Approve {
		status = models.DoctorRejected
		action = models.ActionDoctorRejected
		nType = models.NotifyDoctorRejected
		title = "Profile rejected"
		body = "Your doctor profile was rejected: " + input.Reason
	}

	if err := db.DB.Model(&models.User{}).Where("id = ?", doctor.ID).
		Update("doctor_status", status).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to update doctor status",
			Error:   err.Error(),
		})
	}

	targetID := doctor.ID
	if err := db.DB.Create(&models.AdminLog{
		ActorID:  &actorID,
		Action:   action,
		TargetID: &targetID,
		Metadata: fmt.Sprintf(`{"reason":%q}`, input.Reason),
	}).Error; err != nil {
		log.Printf("Failed to record verification decision for doctor %d: %v", doctor.ID, err)
	}
	if err := db.DB.Create(&models.Notification{
		UserID: doctor.ID,
		Type:   nType,
		Title:  title,
		Body:   body,
	}).Error; err != nil {
		log.Printf("Failed to notify doctor %d of verification decision: %v", doctor.ID, err)
	}
	utils.SendEmailAsync(doctor.Email, title, "<p>"+body+"</p>")

	return c.JSON(fiber.Map{"doctor_status": status})
}
