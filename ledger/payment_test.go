package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/telecure-health/telecure/models"
)

func TestProcessPaymentResultActivates(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	patient := createUser(t, db, models.RolePatient)
	now := time.Now()

	pending, err := svc.CreatePendingPayment(patient.ID, "ref-1", "order-1", models.PackageIndividual, false)
	if err != nil {
		t.Fatalf("create pending payment failed: %v", err)
	}
	if pending.Amount != Plans[models.PackageIndividual].Price {
		t.Errorf("pending amount should be the plan price, got %d", pending.Amount)
	}

	pkg, err := svc.ProcessPaymentResult("ref-1", true, now)
	if err != nil {
		t.Fatalf("process payment failed: %v", err)
	}
	if pkg == nil || pkg.CreditsRemaining != 10 {
		t.Fatalf("expected an activated 10-credit package, got %+v", pkg)
	}

	var user models.User
	db.First(&user, patient.ID)
	if user.Credits != 10 {
		t.Errorf("expected 10 credits granted, got %d", user.Credits)
	}

	var reloaded models.PendingPayment
	db.First(&reloaded, pending.ID)
	if reloaded.Status != models.PaymentCompleted {
		t.Errorf("expected COMPLETED marker, got %s", reloaded.Status)
	}
}

func TestProcessPaymentResultReplayRejected(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	patient := createUser(t, db, models.RolePatient)
	now := time.Now()

	if _, err := svc.CreatePendingPayment(patient.ID, "ref-2", "order-2", models.PackageIndividual, false); err != nil {
		t.Fatalf("create pending payment failed: %v", err)
	}
	if _, err := svc.ProcessPaymentResult("ref-2", true, now); err != nil {
		t.Fatalf("first processing failed: %v", err)
	}

	_, err := svc.ProcessPaymentResult("ref-2", true, now)
	if !errors.Is(err, ErrDuplicateProcessing) {
		t.Fatalf("expected ErrDuplicateProcessing on replay, got %v", err)
	}

	// The replay must not have activated a second package.
	var count int64
	db.Model(&models.CreditPackage{}).Where("user_id = ?", patient.ID).Count(&count)
	if count != 1 {
		t.Errorf("expected exactly 1 package, found %d", count)
	}

	var user models.User
	db.First(&user, patient.ID)
	if user.Credits != 10 {
		t.Errorf("replay must not grant credits, got %d", user.Credits)
	}
}

func TestProcessPaymentResultFailure(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	patient := createUser(t, db, models.RolePatient)

	if _, err := svc.CreatePendingPayment(patient.ID, "ref-3", "order-3", models.PackageFamily, false); err != nil {
		t.Fatalf("create pending payment failed: %v", err)
	}

	pkg, err := svc.ProcessPaymentResult("ref-3", false, time.Now())
	if err != nil {
		t.Fatalf("processing failure result errored: %v", err)
	}
	if pkg != nil {
		t.Error("failed payment must not return a package")
	}

	var user models.User
	db.First(&user, patient.ID)
	if user.Credits != 0 {
		t.Errorf("failed payment must not grant credits, got %d", user.Credits)
	}

	var notif models.Notification
	if err := db.Where("user_id = ? AND type = ?", patient.ID, models.NotifyPaymentFailed).First(&notif).Error; err != nil {
		t.Fatalf("expected a PAYMENT_FAILED notification: %v", err)
	}

	// A late success for the same reference is still rejected.
	_, err = svc.ProcessPaymentResult("ref-3", true, time.Now())
	if !errors.Is(err, ErrDuplicateProcessing) {
		t.Fatalf("expected ErrDuplicateProcessing, got %v", err)
	}
}

func TestProcessPaymentResultUnknownReference(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)

	_, err := svc.ProcessPaymentResult("no-such-ref", true, time.Now())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
