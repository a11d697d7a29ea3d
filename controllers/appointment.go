package controllers

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/telecure-health/telecure/db"
	"github.com/telecure-health/telecure/ledger"
	"github.com/telecure-health/telecure/models"
	"github.com/telecure-health/telecure/utils"
)

const consultationFee int64 = 50000 // smallest currency unit

// AppointmentController wires bookings to the credit ledger.
type AppointmentController struct {
	Ledger *ledger.Service
}

func NewAppointmentController(svc *ledger.Service) *AppointmentController {
	return &AppointmentController{Ledger: svc}
}

// platformFeePercent reads the commission split, defaulting to 20.
func platformFeePercent() int64 {
	if v := os.Getenv("PLATFORM_FEE_PERCENT"); v != "" {
		if p, err := strconv.ParseInt(v, 10, 64); err == nil && p >= 0 && p <= 100 {
			return p
		}
	}
	return 20
}

type BookInput struct {
	DoctorID  uint      `json:"doctor_id"`
	StartTime time.Time `json:"start_time"`
	Notes     string    `json:"notes"`
}

// Book creates a consultation: 2 credits are consumed from the patient's
// oldest eligible package and the appointment row is written in the same
// unit of work.
func (ac *AppointmentController) Book(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User ID not found in context",
		})
	}

	input := new(BookInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Failed to parse request body",
			Error:   err.Error(),
		})
	}
	if input.StartTime.Before(time.Now()) {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Appointment time must be in the future",
		})
	}

	var doctor models.User
	if err := db.DB.Preload("Role").First(&doctor, input.DoctorID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(utils.ErrorResponse{
			Message: "Doctor not found",
			Error:   err.Error(),
		})
	}
	if !doctor.IsDoctor() || doctor.DoctorStatus != models.DoctorVerified {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Doctor is not available for bookings",
		})
	}

	endTime := input.StartTime.Add(30 * time.Minute)
	available, err := utils.CheckAvailability(doctor.ID, input.StartTime, endTime)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Error checking availability",
			Error:   err.Error(),
		})
	}
	if !available {
		return c.Status(fiber.StatusConflict).JSON(utils.ErrorResponse{
			Message: "Time slot not available",
		})
	}

	desc := fmt.Sprintf("Consultation with Dr. %s on %s", doctor.Name, input.StartTime.Format("2006-01-02 15:04"))

	// Credit consumption and the appointment row commit together or not at
	// all; a failure on either side rolls back the other.
	var appointment models.Appointment
	err = db.DB.Transaction(func(tx *gorm.DB) error {
		pkg, err := ac.Ledger.WithTx(tx).ConsumeCredits(userID, time.Now(), desc)
		if err != nil {
			return err
		}
		appointment = models.Appointment{
			StartTime: input.StartTime,
			EndTime:   endTime,
			Status:    models.StatusConfirmed,
			Notes:     input.Notes,
			DoctorID:  doctor.ID,
			PatientID: userID,
			PackageID: &pkg.ID,
			Fee:       consultationFee,
		}
		return tx.Create(&appointment).Error
	})
	if err != nil {
		return ledgerError(c, "Failed to book appointment", err)
	}

	return c.Status(fiber.StatusCreated).JSON(appointment)
}

// Cancel cancels a booking and refunds the consultation credits.
func (ac *AppointmentController) Cancel(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User ID not found in context",
		})
	}

	id := c.Params("id")
	var appointment models.Appointment
	if err := db.DB.First(&appointment, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(utils.ErrorResponse{
			Message: "Appointment not found",
			Error:   err.Error(),
		})
	}
	if appointment.PatientID != userID {
		return c.Status(fiber.StatusForbidden).JSON(utils.ErrorResponse{
			Message: "You can only cancel your own appointments",
		})
	}

	if err := appointment.UpdateStatus(db.DB, models.StatusCanceled); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Cannot cancel this appointment",
			Error:   err.Error(),
		})
	}

	if err := ac.Ledger.RefundBookingCredits(userID, appointment.PackageID, "Refund for canceled consultation"); err != nil {
		return ledgerError(c, "Canceled but failed to refund credits", err)
	}

	return c.JSON(fiber.Map{"status": "canceled", "credits_refunded": ledger.CreditsPerConsultation})
}

// Complete marks a consultation finished and fixes the doctor's earnings
// after the platform commission split. Only the consulting doctor can
// complete it.
func (ac *AppointmentController) Complete(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User ID not found in context",
		})
	}

	id := c.Params("id")
	var appointment models.Appointment
	if err := db.DB.First(&appointment, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(utils.ErrorResponse{
			Message: "Appointment not found",
			Error:   err.Error(),
		})
	}
	if appointment.DoctorID != userID {
		return c.Status(fiber.StatusForbidden).JSON(utils.ErrorResponse{
			Message: "Only the consulting doctor can complete an appointment",
		})
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := appointment.UpdateStatus(tx, models.StatusCompleted); err != nil {
			return err
		}
		// Round half up to the smallest currency unit.
		earnings := (appointment.Fee*(100-platformFeePercent()) + 50) / 100
		return tx.Model(&models.Appointment{}).
			Where("id = ?", appointment.ID).
			Update("doctor_earnings", earnings).Error
	})
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Cannot complete this appointment",
			Error:   err.Error(),
		})
	}

	return c.JSON(fiber.Map{"status": "completed"})
}

// List returns the authenticated user's appointments, doctor or patient side.
func (ac *AppointmentController) List(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User ID not found in context",
		})
	}

	var appointments []models.Appointment
	if err := db.DB.Preload("Doctor").Preload("Patient").
		Where("patient_id = ? OR doctor_id = ?", userID, userID).
		Order("start_time DESC").Find(&appointments).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to fetch appointments",
			Error:   err.Error(),
		})
	}
	return c.JSON(appointments)
}
