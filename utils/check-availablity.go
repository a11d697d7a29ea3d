package utils

import (
	"time"

	"github.com/telecure-health/telecure/db"
	"github.com/telecure-health/telecure/models"
)

// CheckAvailability checks if a doctor is free for a given time slot
func CheckAvailability(doctorID uint, startTime, endTime time.Time) (bool, error) {
	// Check if any conflicting appointments exist and lock them
	var existing models.Appointment
	err := db.DB.Raw(`
		SELECT *
		FROM appointments
		WHERE doctor_id = ? AND status IN ('pending', 'confirmed') AND (
			(start_time < ? AND end_time > ?) OR
			(start_time >= ? AND start_time < ?)
		) FOR UPDATE
		LIMIT 1
	`, doctorID, endTime, startTime, startTime, endTime).
		Scan(&existing).Error

	// If there is any conflicting appointment, return false
	if err == nil && existing.ID != 0 {
		return false, nil
	}

	// No conflict, slot is available
	return true, nil
}
