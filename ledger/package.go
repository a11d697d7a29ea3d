package ledger

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/telecure-health/telecure/models"
)

// Plan is a purchasable credit bundle.
type Plan struct {
	Type     models.PackageType
	Credits  int
	Price    int64 // smallest currency unit
	Duration time.Duration
}

var Plans = map[models.PackageType]Plan{
	models.PackageIndividual: {
		Type:     models.PackageIndividual,
		Credits:  10,
		Price:    99900,
		Duration: 30 * 24 * time.Hour,
	},
	models.PackageFamily: {
		Type:     models.PackageFamily,
		Credits:  24,
		Price:    199900,
		Duration: 60 * 24 * time.Hour,
	},
}

// PlanFor validates a package type coming off the wire.
func PlanFor(t models.PackageType) (Plan, error) {
	plan, ok := Plans[t]
	if !ok {
		return Plan{}, fmt.Errorf("%w: unknown package type %q", ErrValidation, t)
	}
	return plan, nil
}

// ActivatePackage creates an ACTIVE package for the user after a successful
// payment: package row, PURCHASE ledger entry and notification in one
// transaction. With upgrade set, the user's newest ACTIVE individual package
// is retired and its remaining credits carry over into the new package (the
// carried credits are already counted in the user's aggregate, so the ledger
// entry covers only the newly purchased ones).
func (s *Service) ActivatePackage(userID uint, planType models.PackageType, upgrade bool, now time.Time) (*models.CreditPackage, error) {
	plan, err := PlanFor(planType)
	if err != nil {
		return nil, err
	}

	var pkg *models.CreditPackage
	err = s.db.Transaction(func(tx *gorm.DB) error {
		carryOver := 0
		if upgrade {
			var old models.CreditPackage
			err := tx.Where("user_id = ? AND status = ? AND package_type = ?",
				userID, models.PackageActive, models.PackageIndividual).
				Order("created_at DESC").
				First(&old).Error
			if err == nil {
				carryOver = old.CreditsRemaining
				retired := now
				res := tx.Model(&models.CreditPackage{}).
					Where("id = ? AND status = ?", old.ID, models.PackageActive).
					Updates(map[string]interface{}{
						"status":            models.PackageExpired,
						"credits_remaining": 0,
						"expired_at":        &retired,
					})
				if res.Error != nil {
					return res.Error
				}
				if res.RowsAffected == 0 {
					return ErrConflict
				}
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}

		created := models.CreditPackage{
			UserID:           userID,
			PackageType:      plan.Type,
			Status:           models.PackageActive,
			CreditsTotal:     plan.Credits + carryOver,
			CreditsRemaining: plan.Credits + carryOver,
			ExpiresAt:        now.Add(plan.Duration),
		}
		if err := tx.Create(&created).Error; err != nil {
			return err
		}

		desc := describePlan(plan.Type)
		if upgrade {
			desc = fmt.Sprintf("%s (upgrade, %d credits carried over)", desc, carryOver)
		}
		if _, err := s.applyCreditTx(tx, userID, int64(plan.Credits), models.TxPurchase, &created.ID, desc); err != nil {
			return err
		}

		if err := notify(tx, userID, models.NotifyPaymentSuccess,
			"Credits added",
			fmt.Sprintf("Your %s package is active with %d credits, valid until %s.",
				plan.Type, created.CreditsRemaining, created.ExpiresAt.Format("2006-01-02")),
			&created.ID); err != nil {
			return err
		}

		pkg = &created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pkg, nil
}

// ConsumeCredits draws the consultation cost from the oldest ACTIVE,
// unexpired package with enough remaining credits. Oldest-first keeps
// early-expiring credits from being stranded. If no single package can cover
// the cost the booking fails with ErrInsufficientCredits.
//
// The package decrement is a compare-and-set on credits_remaining, so two
// concurrent bookings against the same package cannot both succeed past the
// remaining count; the loser retries against the next eligible package.
func (s *Service) ConsumeCredits(userID uint, now time.Time, description string) (*models.CreditPackage, error) {
	var consumed *models.CreditPackage
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var candidates []models.CreditPackage
		err := tx.Where("user_id = ? AND status = ? AND expires_at > ? AND credits_remaining >= ?",
			userID, models.PackageActive, now, CreditsPerConsultation).
			Order("created_at ASC").
			Find(&candidates).Error
		if err != nil {
			return err
		}
		if len(candidates) == 0 {
			return ErrInsufficientCredits
		}

		for i := range candidates {
			pkg := &candidates[i]
			res := tx.Model(&models.CreditPackage{}).
				Where("id = ? AND credits_remaining >= ?", pkg.ID, CreditsPerConsultation).
				UpdateColumn("credits_remaining", gorm.Expr("credits_remaining - ?", CreditsPerConsultation))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				// Raced by another booking; try the next package.
				continue
			}
			if _, err := s.applyCreditTx(tx, userID, -CreditsPerConsultation, models.TxConsumption, &pkg.ID, description); err != nil {
				return err
			}
			pkg.CreditsRemaining -= CreditsPerConsultation
			consumed = pkg
			return nil
		}
		return ErrInsufficientCredits
	})
	if err != nil {
		return nil, err
	}
	return consumed, nil
}

// RefundBookingCredits returns the consultation cost after a cancellation.
// The credits go back onto the original package when it is still ACTIVE;
// otherwise only the aggregate balance is restored.
func (s *Service) RefundBookingCredits(userID uint, packageID *uint, description string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if packageID != nil {
			res := tx.Model(&models.CreditPackage{}).
				Where("id = ? AND status = ?", *packageID, models.PackageActive).
				UpdateColumn("credits_remaining", gorm.Expr("credits_remaining + ?", CreditsPerConsultation))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				// Package expired in the meantime; aggregate-only refund.
				packageID = nil
			}
		}
		_, err := s.applyCreditTx(tx, userID, CreditsPerConsultation, models.TxRefund, packageID, description)
		return err
	})
}
