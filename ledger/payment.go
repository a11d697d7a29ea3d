package ledger

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/telecure-health/telecure/models"
)

// CreatePendingPayment records the metadata the gateway callback will need,
// keyed by our reference id. Status starts PENDING.
func (s *Service) CreatePendingPayment(userID uint, reference, gatewayOrderID string, planType models.PackageType, upgrade bool) (*models.PendingPayment, error) {
	plan, err := PlanFor(planType)
	if err != nil {
		return nil, err
	}
	pending := models.PendingPayment{
		Reference:      reference,
		UserID:         userID,
		PackageType:    plan.Type,
		Upgrade:        upgrade,
		Amount:         plan.Price,
		GatewayOrderID: gatewayOrderID,
		Status:         models.PaymentPending,
	}
	if err := s.db.Create(&pending).Error; err != nil {
		return nil, err
	}
	return &pending, nil
}

// ProcessPaymentResult is the single idempotent handler for gateway results.
// The pending-payment row is the durable already-processed marker: the
// PENDING -> COMPLETED/FAILED flip is a guarded update, so a replayed or
// concurrent callback for the same reference gets ErrDuplicateProcessing and
// no second package is ever activated.
func (s *Service) ProcessPaymentResult(reference string, success bool, now time.Time) (*models.CreditPackage, error) {
	var pending models.PendingPayment
	if err := s.db.Where("reference = ?", reference).First(&pending).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if pending.Status != models.PaymentPending {
		return nil, ErrDuplicateProcessing
	}

	target := models.PaymentCompleted
	if !success {
		target = models.PaymentFailed
	}

	var pkg *models.CreditPackage
	err := s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.PendingPayment{}).
			Where("id = ? AND status = ?", pending.ID, models.PaymentPending).
			Update("status", target)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrDuplicateProcessing
		}

		if !success {
			return notify(tx, pending.UserID, models.NotifyPaymentFailed,
				"Payment failed",
				fmt.Sprintf("Your payment for the %s package did not go through. No credits were added.", pending.PackageType),
				nil)
		}

		activated, err := s.WithTx(tx).ActivatePackage(pending.UserID, pending.PackageType, pending.Upgrade, now)
		if err != nil {
			return err
		}
		pkg = activated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pkg, nil
}
