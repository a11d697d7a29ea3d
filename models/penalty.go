package models

import (
	"time"

	"gorm.io/gorm"
)

type PenaltyType string

const (
	PenaltyNoShow           PenaltyType = "NO_SHOW"
	PenaltyLateCancellation PenaltyType = "LATE_CANCELLATION"
	PenaltyPolicyViolation  PenaltyType = "POLICY_VIOLATION"
)

type PenaltyStatus string

const (
	PenaltyActive   PenaltyStatus = "ACTIVE"
	PenaltyResolved PenaltyStatus = "RESOLVED"
)

// Penalty is an admin-issued deduction against a doctor. Resolving a penalty
// is an administrative acknowledgment only; it never reverses the deduction.
type Penalty struct {
	gorm.Model
	DoctorID        uint          `json:"doctor_id" gorm:"index"`
	Doctor          User          `json:"doctor,omitempty" gorm:"foreignKey:DoctorID"`
	IssuedByID      uint          `json:"issued_by_id"`
	IssuedBy        User          `json:"issued_by,omitempty" gorm:"foreignKey:IssuedByID"`
	Type            PenaltyType   `json:"type"`
	CreditsDeducted int           `json:"credits_deducted"`
	AmountDeducted  int64         `json:"amount_deducted"`
	Reason          string        `json:"reason"`
	Status          PenaltyStatus `json:"status" gorm:"index"`
	ResolutionNotes string        `json:"resolution_notes,omitempty"`
	ResolvedAt      *time.Time    `json:"resolved_at,omitempty"`
}
