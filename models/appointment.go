package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCanceled  AppointmentStatus = "canceled"
	StatusCompleted AppointmentStatus = "completed"
)

type Appointment struct {
	gorm.Model
	StartTime time.Time         `json:"start_time"`
	EndTime   time.Time         `json:"end_time"`
	Status    AppointmentStatus `json:"status" gorm:"index"`
	Notes     string            `json:"notes"`

	DoctorID  uint `json:"doctor_id" gorm:"index"`
	Doctor    User `json:"doctor" gorm:"foreignKey:DoctorID"`
	PatientID uint `json:"patient_id" gorm:"index"`
	Patient   User `json:"patient" gorm:"foreignKey:PatientID"`

	// Package the booking's 2 credits were drawn from.
	PackageID *uint `json:"package_id,omitempty"`

	// Fee and DoctorEarnings are in the smallest currency unit.
	// DoctorEarnings is set once at completion, after the platform
	// commission split, and is the payout aggregator's input.
	Fee            int64      `json:"fee"`
	DoctorEarnings int64      `json:"doctor_earnings"`
	CompletedAt    *time.Time `json:"completed_at,omitempty" gorm:"index"`
}

func (a *Appointment) BeforeCreate(tx *gorm.DB) error {
	if a.Status == "" {
		a.Status = StatusPending
	}
	return nil
}

// UpdateStatus enforces the appointment state machine and saves the result.
func (a *Appointment) UpdateStatus(tx *gorm.DB, newStatus AppointmentStatus) error {
	switch a.Status {
	case StatusPending:
		if newStatus != StatusConfirmed && newStatus != StatusCanceled {
			return fmt.Errorf("invalid transition from pending to %s", newStatus)
		}
	case StatusConfirmed:
		if newStatus != StatusCompleted && newStatus != StatusCanceled {
			return fmt.Errorf("invalid transition from confirmed to %s", newStatus)
		}
	case StatusCompleted, StatusCanceled:
		return fmt.Errorf("no transitions allowed from %s", a.Status)
	}

	a.Status = newStatus
	if newStatus == StatusCompleted {
		now := time.Now()
		a.CompletedAt = &now
	}
	return tx.Save(a).Error
}
