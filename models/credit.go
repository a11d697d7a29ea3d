package models

import (
	"time"

	"gorm.io/gorm"
)

type PackageType string

const (
	PackageIndividual PackageType = "INDIVIDUAL"
	PackageFamily     PackageType = "FAMILY"
)

type PackageStatus string

const (
	PackageActive  PackageStatus = "ACTIVE"
	PackageExpired PackageStatus = "EXPIRED"
)

// CreditPackage is a purchased bundle of credits with an expiry date. Packages
// are never deleted; the expiry job flips them to EXPIRED and they stay around
// for audit.
type CreditPackage struct {
	gorm.Model
	UserID           uint          `json:"user_id" gorm:"index"`
	User             User          `json:"-" gorm:"foreignKey:UserID"`
	PackageType      PackageType   `json:"package_type"`
	Status           PackageStatus `json:"status" gorm:"index"`
	CreditsTotal     int           `json:"credits_total"`
	CreditsRemaining int           `json:"credits_remaining"`
	ExpiresAt        time.Time     `json:"expires_at" gorm:"index"`
	ExpiredAt        *time.Time    `json:"expired_at,omitempty"`
}

type TransactionType string

const (
	TxPurchase    TransactionType = "PURCHASE"
	TxConsumption TransactionType = "CONSUMPTION"
	TxExpiry      TransactionType = "EXPIRY"
	TxRefund      TransactionType = "REFUND"
	TxPenalty     TransactionType = "PENALTY"
	TxPayout      TransactionType = "PAYOUT"
)

// CreditTransaction is an append-only ledger entry. BalanceAfter is always
// BalanceBefore + Amount; the chain of entries for a user reconstructs the
// stored balance exactly.
type CreditTransaction struct {
	ID            uint            `json:"id" gorm:"primaryKey"`
	CreatedAt     time.Time       `json:"created_at"`
	UserID        uint            `json:"user_id" gorm:"index"`
	User          User            `json:"-" gorm:"foreignKey:UserID"`
	PackageID     *uint           `json:"package_id,omitempty"`
	Package       *CreditPackage  `json:"-" gorm:"foreignKey:PackageID"`
	Amount        int64           `json:"amount"`
	Type          TransactionType `json:"type"`
	BalanceBefore int64           `json:"balance_before"`
	BalanceAfter  int64           `json:"balance_after"`
	// Currency entries mutate the doctor's credit_balance instead of the
	// credit count (PAYOUT, and the monetary half of PENALTY).
	Currency    bool   `json:"currency"`
	Description string `json:"description"`
}
