package controllers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/telecure-health/telecure/db"
	"github.com/telecure-health/telecure/models"
)

func TestVerifyDoctorRecordsDecision(t *testing.T) {
	gdb := setupTestDB(t)
	db.DB = gdb

	admin := createTestUser(t, gdb, models.RoleAdmin)
	doctor := createTestUser(t, gdb, models.RoleDoctor)

	app := fiber.New()
	app.Post("/admin/doctors/:id/verify", func(c *fiber.Ctx) error {
		c.Locals("userID", admin.ID)
		return c.Next()
	}, VerifyDoctor)

	resp := postJSON(t, app, fmt.Sprintf("/admin/doctors/%d/verify", doctor.ID), fiber.Map{
		"approve": true,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var reloaded models.User
	if err := gdb.First(&reloaded, doctor.ID).Error; err != nil {
		t.Fatal(err)
	}
	if reloaded.DoctorStatus != models.DoctorVerified {
		t.Errorf("expected VERIFIED, got %s", reloaded.DoctorStatus)
	}

	// The decision leaves an audit row and notifies the doctor.
	var audit models.AdminLog
	if err := gdb.Where("action = ? AND target_id = ?", models.ActionDoctorVerified, doctor.ID).
		First(&audit).Error; err != nil {
		t.Fatalf("expected a DOCTOR_VERIFIED audit row: %v", err)
	}
	if audit.ActorID == nil || *audit.ActorID != admin.ID {
		t.Error("audit row should record the deciding admin")
	}

	var notif models.Notification
	if err := gdb.Where("user_id = ? AND type = ?", doctor.ID, models.NotifyDoctorVerified).
		First(&notif).Error; err != nil {
		t.Fatalf("expected a DOCTOR_VERIFIED notification: %v", err)
	}
}
