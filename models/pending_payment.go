package models

import (
	"time"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentFailed    PaymentStatus = "FAILED"
)

// PendingPayment stores the metadata a gateway callback needs to activate a
// package, keyed by the reference id we hand to the gateway. The row doubles
// as the durable already-processed marker: a webhook replay finds the status
// already COMPLETED or FAILED and is rejected.
type PendingPayment struct {
	ID             uint          `json:"id" gorm:"primaryKey"`
	Reference      string        `json:"reference" gorm:"uniqueIndex"`
	UserID         uint          `json:"user_id" gorm:"index"`
	User           User          `json:"-" gorm:"foreignKey:UserID"`
	PackageType    PackageType   `json:"package_type"`
	Upgrade        bool          `json:"upgrade"`
	Amount         int64         `json:"amount"` // smallest currency unit
	GatewayOrderID string        `json:"gateway_order_id"`
	Status         PaymentStatus `json:"status" gorm:"index"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}
