package ledger

import (
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/telecure-health/telecure/models"
)

// ExpiryResult summarizes one expiry-job run.
type ExpiryResult struct {
	PackagesExpired int   `json:"packages_expired"`
	CreditsExpired  int64 `json:"credits_expired"`
	Failed          int   `json:"failed"`
}

// ExpireDueCredits flips every ACTIVE package with expires_at <= now to
// EXPIRED, removes the remaining credits from the owner's aggregate balance
// with an EXPIRY ledger entry, and records a notification. Each package is
// its own atomic unit: a failure is logged and skipped, and the run carries
// on with the next package. A second run with no time passing finds no
// ACTIVE due rows, so the job is idempotent.
//
// Fully consumed packages follow the same rule: they stay ACTIVE until their
// expires_at passes, and the time-based sweep here is the only place the
// ACTIVE -> EXPIRED transition happens. Zero-credit expiries write no ledger
// entry (no zero-amount rows).
func (s *Service) ExpireDueCredits(now time.Time) (ExpiryResult, error) {
	var due []models.CreditPackage
	err := s.db.Where("status = ? AND expires_at <= ?", models.PackageActive, now).
		Find(&due).Error
	if err != nil {
		return ExpiryResult{}, err
	}

	var result ExpiryResult
	for i := range due {
		pkg := &due[i]
		credits, expired, err := s.expireOne(pkg, now)
		if err != nil {
			log.Printf("Failed to expire package %d for user %d: %v", pkg.ID, pkg.UserID, err)
			result.Failed++
			continue
		}
		if !expired {
			continue
		}
		result.PackagesExpired++
		result.CreditsExpired += int64(credits)
	}

	meta := fmt.Sprintf(`{"packages_expired":%d,"credits_expired":%d,"failed":%d}`,
		result.PackagesExpired, result.CreditsExpired, result.Failed)
	if err := auditLog(s.db, nil, models.ActionExpireCreditsRun, nil, meta); err != nil {
		return result, err
	}
	return result, nil
}

// expireOne flips a single package to EXPIRED and removes its remaining
// credits. The remaining count is re-read inside the transaction and the flip
// is guarded on it, so a booking that consumed from the package after the
// sweep's listing cannot make the EXPIRY entry deduct more than is actually
// left; a lost race defers the package to the next run.
func (s *Service) expireOne(pkg *models.CreditPackage, now time.Time) (int, bool, error) {
	credits := 0
	expiredNow := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var current models.CreditPackage
		if err := tx.First(&current, pkg.ID).Error; err != nil {
			return err
		}
		if current.Status != models.PackageActive {
			// Already expired by a concurrent run.
			return nil
		}

		expired := now
		res := tx.Model(&models.CreditPackage{}).
			Where("id = ? AND status = ? AND credits_remaining = ?",
				current.ID, models.PackageActive, current.CreditsRemaining).
			Updates(map[string]interface{}{
				"status":            models.PackageExpired,
				"credits_remaining": 0,
				"expired_at":        &expired,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}
		expiredNow = true
		credits = current.CreditsRemaining

		if current.CreditsRemaining > 0 {
			desc := fmt.Sprintf("%d credits expired from %s package", current.CreditsRemaining, current.PackageType)
			if _, err := s.applyCreditTx(tx, current.UserID, -int64(current.CreditsRemaining), models.TxExpiry, &current.ID, desc); err != nil {
				return err
			}
		}

		return notify(tx, current.UserID, models.NotifyCreditsExpired,
			"Credits expired",
			fmt.Sprintf("Your %s package expired on %s. %d unused credits were removed.",
				current.PackageType, current.ExpiresAt.Format("2006-01-02"), current.CreditsRemaining),
			&current.ID)
	})
	if err != nil {
		return 0, false, err
	}
	return credits, expiredNow, nil
}

// warningBoundary pairs a notification type with the days-before-expiry
// threshold that triggers it.
type warningBoundary struct {
	nType models.NotificationType
	days  int
}

var warningBoundaries = []warningBoundary{
	{models.NotifyExpiryWarning3D, 3},
	{models.NotifyExpiryWarning7D, 7},
}

// SendExpiryWarnings creates expiry-warning notifications for ACTIVE packages
// with credits left that are inside the 7-day or 3-day window before
// expires_at. At most one warning per package per boundary is created in any
// rolling 24-hour window: before writing, the job looks back 24 hours for an
// existing matching notification.
func (s *Service) SendExpiryWarnings(now time.Time) (int, error) {
	var packages []models.CreditPackage
	err := s.db.Where("status = ? AND credits_remaining > 0 AND expires_at > ? AND expires_at <= ?",
		models.PackageActive, now, now.Add(7*24*time.Hour)).
		Find(&packages).Error
	if err != nil {
		return 0, err
	}

	created := 0
	for i := range packages {
		pkg := &packages[i]
		boundary := boundaryFor(pkg.ExpiresAt.Sub(now))
		if boundary == nil {
			continue
		}

		var existing int64
		err := s.db.Model(&models.Notification{}).
			Where("package_id = ? AND type = ? AND created_at > ?",
				pkg.ID, boundary.nType, now.Add(-24*time.Hour)).
			Count(&existing).Error
		if err != nil {
			log.Printf("Failed to check warning dedupe for package %d: %v", pkg.ID, err)
			continue
		}
		if existing > 0 {
			continue
		}

		body := fmt.Sprintf("Your %s package with %d remaining credits expires on %s.",
			pkg.PackageType, pkg.CreditsRemaining, pkg.ExpiresAt.Format("2006-01-02"))
		err = notify(s.db, pkg.UserID, boundary.nType, "Credits expiring soon", body, &pkg.ID)
		if err != nil {
			log.Printf("Failed to create expiry warning for package %d: %v", pkg.ID, err)
			continue
		}
		created++

		var owner models.User
		if err := s.db.Select("id", "email").First(&owner, pkg.UserID).Error; err != nil {
			log.Printf("Failed to load owner of package %d for warning email: %v", pkg.ID, err)
			continue
		}
		s.sendMail(owner.Email, "Credits expiring soon", "<p>"+body+"</p>")
	}
	return created, nil
}

// boundaryFor picks the tightest warning window containing the time left.
func boundaryFor(remaining time.Duration) *warningBoundary {
	for i := range warningBoundaries {
		b := &warningBoundaries[i]
		if remaining <= time.Duration(b.days)*24*time.Hour {
			return b
		}
	}
	return nil
}
