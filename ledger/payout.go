package ledger

import (
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/telecure-health/telecure/models"
)

// PayoutResult summarizes one payout run.
type PayoutResult struct {
	DoctorsPaid int   `json:"doctors_paid"`
	TotalAmount int64 `json:"total_amount"`
	Failed      int   `json:"failed"`
}

// payoutWatermark returns the completion time of the last payout run, taken
// from the newest UPDATE_DOCTORS_BALANCE_RUN audit row. With no prior run the
// zero time is returned so the first run sweeps all history.
func (s *Service) payoutWatermark() (time.Time, error) {
	var last models.AdminLog
	err := s.db.Where("action = ?", models.ActionDoctorPayoutRun).
		Order("created_at DESC").
		First(&last).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return time.Time{}, nil
		}
		return time.Time{}, err
	}
	return last.CreatedAt, nil
}

// RunDoctorPayouts rolls the earnings of consultations completed since the
// last run into each doctor's withdrawable balance. Earnings are summed per
// doctor over completed appointments with completed_at in (watermark, now];
// every doctor with a positive sum gets a PAYOUT ledger entry and a
// notification in one atomic unit, with per-doctor failures logged, skipped
// and counted.
//
// An audit row is written even when nobody was paid, so the watermark always
// advances and an appointment's earnings are counted at most once across
// runs. Callers serialize invocations (redis lock at the trigger sites);
// overlapping runs before the watermark advances could double-pay.
func (s *Service) RunDoctorPayouts(now time.Time) (PayoutResult, error) {
	since, err := s.payoutWatermark()
	if err != nil {
		return PayoutResult{}, err
	}

	type doctorSum struct {
		DoctorID uint
		Total    int64
	}
	var sums []doctorSum
	err = s.db.Model(&models.Appointment{}).
		Select("doctor_id, COALESCE(SUM(doctor_earnings), 0) as total").
		Where("status = ? AND completed_at > ? AND completed_at <= ?",
			models.StatusCompleted, since, now).
		Group("doctor_id").
		Scan(&sums).Error
	if err != nil {
		return PayoutResult{}, err
	}

	var result PayoutResult
	for _, sum := range sums {
		if sum.Total <= 0 {
			continue
		}
		body := fmt.Sprintf("%d was added to your withdrawable balance.", sum.Total)
		err := s.db.Transaction(func(tx *gorm.DB) error {
			desc := fmt.Sprintf("Consultation earnings through %s", now.Format("2006-01-02 15:04"))
			if _, err := s.applyBalanceTx(tx, sum.DoctorID, sum.Total, models.TxPayout, desc); err != nil {
				return err
			}
			return notify(tx, sum.DoctorID, models.NotifyPayout, "Earnings credited", body, nil)
		})
		if err != nil {
			log.Printf("Failed to pay out doctor %d: %v", sum.DoctorID, err)
			result.Failed++
			continue
		}
		result.DoctorsPaid++
		result.TotalAmount += sum.Total

		var doctor models.User
		if err := s.db.Select("id", "email").First(&doctor, sum.DoctorID).Error; err != nil {
			log.Printf("Failed to load doctor %d for payout email: %v", sum.DoctorID, err)
			continue
		}
		s.sendMail(doctor.Email, "Earnings credited", "<p>"+body+"</p>")
	}

	// The watermark row carries the run boundary itself, not the insert
	// time: the next run's window must start exactly where this one ended.
	meta := fmt.Sprintf(`{"doctors_paid":%d,"total_amount":%d,"failed":%d}`,
		result.DoctorsPaid, result.TotalAmount, result.Failed)
	run := models.AdminLog{
		CreatedAt: now,
		Action:    models.ActionDoctorPayoutRun,
		Metadata:  meta,
	}
	if err := s.db.Create(&run).Error; err != nil {
		return result, err
	}
	return result, nil
}
