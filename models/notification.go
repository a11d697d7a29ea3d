package models

import (
	"time"
)

type NotificationType string

const (
	NotifyExpiryWarning7D NotificationType = "CREDIT_EXPIRY_WARNING_7D"
	NotifyExpiryWarning3D NotificationType = "CREDIT_EXPIRY_WARNING_3D"
	NotifyCreditsExpired  NotificationType = "CREDITS_EXPIRED"
	NotifyPayout          NotificationType = "PAYOUT"
	NotifyPaymentSuccess  NotificationType = "PAYMENT_SUCCESS"
	NotifyPaymentFailed   NotificationType = "PAYMENT_FAILED"
	NotifyPenalty         NotificationType = "PENALTY"
	NotifyDoctorVerified  NotificationType = "DOCTOR_VERIFIED"
	NotifyDoctorRejected  NotificationType = "DOCTOR_REJECTED"
)

// Notification is the durable record handed to the delivery layer. The ledger
// core's obligation ends at creating the row; real-time delivery is the
// sink's problem.
type Notification struct {
	ID        uint             `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time        `json:"created_at" gorm:"index"`
	UserID    uint             `json:"user_id" gorm:"index"`
	User      User             `json:"-" gorm:"foreignKey:UserID"`
	Type      NotificationType `json:"type" gorm:"index"`
	Title     string           `json:"title"`
	Body      string           `json:"body"`
	PackageID *uint            `json:"package_id,omitempty" gorm:"index"`
	Read      bool             `json:"read" gorm:"default:false"`
}
