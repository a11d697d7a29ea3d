package ledger

import (
	"testing"
	"time"

	"github.com/telecure-health/telecure/models"
)

func createCompletedAppointment(t *testing.T, svc *Service, doctorID, patientID uint, earnings int64, completedAt time.Time) {
	t.Helper()
	appt := models.Appointment{
		StartTime:      completedAt.Add(-30 * time.Minute),
		EndTime:        completedAt,
		Status:         models.StatusCompleted,
		DoctorID:       doctorID,
		PatientID:      patientID,
		Fee:            earnings + earnings/4,
		DoctorEarnings: earnings,
		CompletedAt:    &completedAt,
	}
	if err := svc.DB().Create(&appt).Error; err != nil {
		t.Fatalf("failed to create appointment: %v", err)
	}
}

func TestRunDoctorPayoutsAggregates(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	doctor := createUser(t, db, models.RoleDoctor)
	patient := createUser(t, db, models.RolePatient)
	now := time.Now()

	createCompletedAppointment(t, svc, doctor.ID, patient.ID, 82, now.Add(-2*time.Hour))
	createCompletedAppointment(t, svc, doctor.ID, patient.ID, 41, now.Add(-1*time.Hour))

	result, err := svc.RunDoctorPayouts(now)
	if err != nil {
		t.Fatalf("payout run failed: %v", err)
	}
	if result.DoctorsPaid != 1 {
		t.Errorf("expected 1 doctor paid, got %d", result.DoctorsPaid)
	}
	if result.TotalAmount != 123 {
		t.Errorf("expected total 123, got %d", result.TotalAmount)
	}

	var reloaded models.User
	db.First(&reloaded, doctor.ID)
	if reloaded.CreditBalance != 123 {
		t.Errorf("expected credit balance 123, got %d", reloaded.CreditBalance)
	}

	var entry models.CreditTransaction
	if err := db.Where("user_id = ? AND type = ?", doctor.ID, models.TxPayout).First(&entry).Error; err != nil {
		t.Fatalf("expected a PAYOUT transaction: %v", err)
	}
	if !entry.Currency || entry.Amount != 123 || entry.BalanceAfter != 123 {
		t.Errorf("bad PAYOUT entry: currency=%v amount=%d after=%d", entry.Currency, entry.Amount, entry.BalanceAfter)
	}

	var notif models.Notification
	if err := db.Where("user_id = ? AND type = ?", doctor.ID, models.NotifyPayout).First(&notif).Error; err != nil {
		t.Fatalf("expected a PAYOUT notification: %v", err)
	}
}

func TestRunDoctorPayoutsEmailsDoctor(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	var sent []string
	svc.mailer = func(to, subject, body string) { sent = append(sent, to) }
	doctor := createUser(t, db, models.RoleDoctor)
	patient := createUser(t, db, models.RolePatient)
	now := time.Now()

	createCompletedAppointment(t, svc, doctor.ID, patient.ID, 250, now.Add(-1*time.Hour))

	if _, err := svc.RunDoctorPayouts(now); err != nil {
		t.Fatalf("payout run failed: %v", err)
	}
	if len(sent) != 1 || sent[0] != doctor.Email {
		t.Errorf("expected one payout email to %s, got %v", doctor.Email, sent)
	}
}

func TestRunDoctorPayoutsWatermarkAdvances(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	doctor := createUser(t, db, models.RoleDoctor)
	patient := createUser(t, db, models.RolePatient)
	now := time.Now()

	createCompletedAppointment(t, svc, doctor.ID, patient.ID, 100, now.Add(-1*time.Hour))

	first, err := svc.RunDoctorPayouts(now)
	if err != nil {
		t.Fatalf("first payout run failed: %v", err)
	}
	if first.TotalAmount != 100 {
		t.Fatalf("expected first run to pay 100, got %d", first.TotalAmount)
	}

	// A second run with no new completions finds nothing: the watermark
	// excludes already-counted appointments.
	second, err := svc.RunDoctorPayouts(now.Add(time.Minute))
	if err != nil {
		t.Fatalf("second payout run failed: %v", err)
	}
	if second.DoctorsPaid != 0 || second.TotalAmount != 0 {
		t.Errorf("second run must pay nothing, got %+v", second)
	}

	var reloaded models.User
	db.First(&reloaded, doctor.ID)
	if reloaded.CreditBalance != 100 {
		t.Errorf("double payout: expected balance 100, got %d", reloaded.CreditBalance)
	}

	// The watermark row is written even for the empty run.
	var runs int64
	db.Model(&models.AdminLog{}).
		Where("action = ?", models.ActionDoctorPayoutRun).Count(&runs)
	if runs != 2 {
		t.Errorf("expected 2 payout audit rows, found %d", runs)
	}
}

func TestRunDoctorPayoutsZeroRunStillAdvancesWatermark(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	doctor := createUser(t, db, models.RoleDoctor)
	patient := createUser(t, db, models.RolePatient)
	now := time.Now()

	// Empty first run writes the watermark.
	empty, err := svc.RunDoctorPayouts(now.Add(-2 * time.Hour))
	if err != nil {
		t.Fatalf("empty run failed: %v", err)
	}
	if empty.DoctorsPaid != 0 {
		t.Fatalf("expected empty run, got %+v", empty)
	}

	// An appointment completed before the watermark must never be paid.
	createCompletedAppointment(t, svc, doctor.ID, patient.ID, 500, now.Add(-3*time.Hour))
	createCompletedAppointment(t, svc, doctor.ID, patient.ID, 75, now.Add(-1*time.Hour))

	result, err := svc.RunDoctorPayouts(now)
	if err != nil {
		t.Fatalf("payout run failed: %v", err)
	}
	if result.TotalAmount != 75 {
		t.Errorf("expected only post-watermark earnings 75, got %d", result.TotalAmount)
	}
}

func TestRunDoctorPayoutsSplitsByDoctor(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	doctorA := createUser(t, db, models.RoleDoctor)
	doctorB := createUser(t, db, models.RoleDoctor)
	patient := createUser(t, db, models.RolePatient)
	now := time.Now()

	createCompletedAppointment(t, svc, doctorA.ID, patient.ID, 200, now.Add(-1*time.Hour))
	createCompletedAppointment(t, svc, doctorB.ID, patient.ID, 300, now.Add(-1*time.Hour))
	createCompletedAppointment(t, svc, doctorB.ID, patient.ID, 50, now.Add(-30*time.Minute))

	result, err := svc.RunDoctorPayouts(now)
	if err != nil {
		t.Fatalf("payout run failed: %v", err)
	}
	if result.DoctorsPaid != 2 || result.TotalAmount != 550 {
		t.Errorf("expected 2 doctors / 550 total, got %+v", result)
	}

	var a, b models.User
	db.First(&a, doctorA.ID)
	db.First(&b, doctorB.ID)
	if a.CreditBalance != 200 || b.CreditBalance != 350 {
		t.Errorf("expected balances 200/350, got %d/%d", a.CreditBalance, b.CreditBalance)
	}
}
