package ledger

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/telecure-health/telecure/models"
)

// PenaltyInput is the admin-supplied payload for a new penalty.
type PenaltyInput struct {
	DoctorID    uint               `json:"doctor_id"`
	Type        models.PenaltyType `json:"type"`
	CreditUnits int                `json:"credit_units"`
	Amount      int64              `json:"amount"`
	Reason      string             `json:"reason"`
}

func (in PenaltyInput) validate() error {
	switch in.Type {
	case models.PenaltyNoShow, models.PenaltyLateCancellation, models.PenaltyPolicyViolation:
	default:
		return fmt.Errorf("%w: unknown penalty type %q", ErrValidation, in.Type)
	}
	if in.CreditUnits < 0 || in.Amount < 0 {
		return fmt.Errorf("%w: deductions must not be negative", ErrValidation)
	}
	if in.CreditUnits == 0 && in.Amount == 0 {
		return fmt.Errorf("%w: penalty must deduct credits or currency", ErrValidation)
	}
	if in.Reason == "" {
		return fmt.Errorf("%w: reason is required", ErrValidation)
	}
	return nil
}

// CreatePenalty deducts credits and/or currency from a doctor and records an
// ACTIVE penalty, all in one transaction. The actor must be an admin. An
// insufficient balance on either side fails the whole penalty; nothing is
// deducted partially.
func (s *Service) CreatePenalty(actorID uint, in PenaltyInput) (*models.Penalty, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var penalty *models.Penalty
	err := s.db.Transaction(func(tx *gorm.DB) error {
		actor, err := requireAdmin(tx, actorID)
		if err != nil {
			return err
		}

		var doctor models.User
		if err := tx.Preload("Role").First(&doctor, in.DoctorID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if !doctor.IsDoctor() {
			return fmt.Errorf("%w: user %d is not a doctor", ErrValidation, in.DoctorID)
		}

		desc := fmt.Sprintf("Penalty (%s): %s", in.Type, in.Reason)
		if in.CreditUnits > 0 {
			if _, err := s.applyCreditTx(tx, in.DoctorID, -int64(in.CreditUnits), models.TxPenalty, nil, desc); err != nil {
				return err
			}
		}
		if in.Amount > 0 {
			if _, err := s.applyBalanceTx(tx, in.DoctorID, -in.Amount, models.TxPenalty, desc); err != nil {
				return err
			}
		}

		created := models.Penalty{
			DoctorID:        in.DoctorID,
			IssuedByID:      actor.ID,
			Type:            in.Type,
			CreditsDeducted: in.CreditUnits,
			AmountDeducted:  in.Amount,
			Reason:          in.Reason,
			Status:          models.PenaltyActive,
		}
		if err := tx.Create(&created).Error; err != nil {
			return err
		}

		if err := notify(tx, in.DoctorID, models.NotifyPenalty,
			"Penalty issued",
			fmt.Sprintf("A %s penalty was issued: %s", in.Type, in.Reason),
			nil); err != nil {
			return err
		}

		meta := fmt.Sprintf(`{"type":%q,"credits":%d,"amount":%d}`, in.Type, in.CreditUnits, in.Amount)
		if err := auditLog(tx, &actor.ID, models.ActionPenaltyCreated, &created.ID, meta); err != nil {
			return err
		}

		penalty = &created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return penalty, nil
}

// ResolvePenalty transitions a penalty ACTIVE -> RESOLVED exactly once,
// storing the resolution notes. The original deduction stands; a refund, if
// warranted, is a separate explicit REFUND transaction.
func (s *Service) ResolvePenalty(actorID, penaltyID uint, notes string) (*models.Penalty, error) {
	var penalty models.Penalty
	err := s.db.Transaction(func(tx *gorm.DB) error {
		actor, err := requireAdmin(tx, actorID)
		if err != nil {
			return err
		}

		if err := tx.First(&penalty, penaltyID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if penalty.Status == models.PenaltyResolved {
			return ErrPenaltyResolved
		}

		resolved := time.Now()
		res := tx.Model(&models.Penalty{}).
			Where("id = ? AND status = ?", penaltyID, models.PenaltyActive).
			Updates(map[string]interface{}{
				"status":           models.PenaltyResolved,
				"resolution_notes": notes,
				"resolved_at":      &resolved,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrPenaltyResolved
		}
		penalty.Status = models.PenaltyResolved
		penalty.ResolutionNotes = notes
		penalty.ResolvedAt = &resolved

		return auditLog(tx, &actor.ID, models.ActionPenaltyResolved, &penaltyID, "{}")
	})
	if err != nil {
		return nil, err
	}
	return &penalty, nil
}

// ListPenalties returns penalties, optionally filtered by doctor and status.
// The preloaded doctor carries public profile columns only.
func (s *Service) ListPenalties(doctorID uint, status models.PenaltyStatus) ([]models.Penalty, error) {
	q := s.db.Preload("Doctor", func(db *gorm.DB) *gorm.DB {
		return db.Select("id", "name", "specialty", "experience", "doctor_status")
	}).Order("created_at DESC")
	if doctorID != 0 {
		q = q.Where("doctor_id = ?", doctorID)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var penalties []models.Penalty
	if err := q.Find(&penalties).Error; err != nil {
		return nil, err
	}
	return penalties, nil
}
