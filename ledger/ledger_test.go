package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/telecure-health/telecure/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	// A single connection keeps every query on the same in-memory database.
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.Role{},
		&models.User{},
		&models.CreditPackage{},
		&models.CreditTransaction{},
		&models.Appointment{},
		&models.Penalty{},
		&models.Notification{},
		&models.AdminLog{},
		&models.PendingPayment{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}

	roles := []models.Role{
		{Name: models.RoleAdmin},
		{Name: models.RoleDoctor},
		{Name: models.RolePatient},
	}
	for i := range roles {
		if err := db.Create(&roles[i]).Error; err != nil {
			t.Fatalf("failed to seed roles: %v", err)
		}
	}
	return db
}

func createUser(t *testing.T, db *gorm.DB, roleName string) *models.User {
	t.Helper()

	var role models.Role
	if err := db.Where("name = ?", roleName).First(&role).Error; err != nil {
		t.Fatalf("role %s not seeded: %v", roleName, err)
	}
	user := models.User{
		Name:   "Test " + roleName,
		Email:  roleName + "-" + uuid.NewString() + "@example.com",
		RoleID: role.ID,
	}
	if roleName == models.RoleDoctor {
		user.DoctorStatus = models.DoctorVerified
		user.Specialty = "General"
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return &user
}

func mustActivate(t *testing.T, svc *Service, userID uint, planType models.PackageType, now time.Time) *models.CreditPackage {
	t.Helper()
	pkg, err := svc.ActivatePackage(userID, planType, false, now)
	if err != nil {
		t.Fatalf("failed to activate package: %v", err)
	}
	return pkg
}

func assertReconciled(t *testing.T, svc *Service, userID uint) {
	t.Helper()
	stored, fromChain, err := svc.Reconcile(userID)
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if stored != fromChain {
		t.Errorf("ledger out of balance: stored %d, transaction chain sums to %d", stored, fromChain)
	}
}

func TestActivatePackageGrantsCredits(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	patient := createUser(t, db, models.RolePatient)
	now := time.Now()

	pkg := mustActivate(t, svc, patient.ID, models.PackageIndividual, now)

	if pkg.Status != models.PackageActive {
		t.Errorf("expected ACTIVE package, got %s", pkg.Status)
	}
	if pkg.CreditsRemaining != 10 {
		t.Errorf("expected 10 credits remaining, got %d", pkg.CreditsRemaining)
	}
	if want := now.Add(30 * 24 * time.Hour); !pkg.ExpiresAt.Equal(want) {
		t.Errorf("expected expiry %v, got %v", want, pkg.ExpiresAt)
	}

	var user models.User
	if err := db.First(&user, patient.ID).Error; err != nil {
		t.Fatal(err)
	}
	if user.Credits != 10 {
		t.Errorf("expected aggregate credits 10, got %d", user.Credits)
	}

	var entry models.CreditTransaction
	if err := db.Where("user_id = ? AND type = ?", patient.ID, models.TxPurchase).First(&entry).Error; err != nil {
		t.Fatalf("expected a PURCHASE transaction: %v", err)
	}
	if entry.BalanceBefore != 0 || entry.BalanceAfter != 10 || entry.Amount != 10 {
		t.Errorf("bad PURCHASE entry: before=%d amount=%d after=%d", entry.BalanceBefore, entry.Amount, entry.BalanceAfter)
	}
	assertReconciled(t, svc, patient.ID)
}

func TestConsumeCreditsOldestFirst(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	patient := createUser(t, db, models.RolePatient)
	now := time.Now()

	older := mustActivate(t, svc, patient.ID, models.PackageIndividual, now)
	// Force distinct creation order timestamps.
	db.Model(&models.CreditPackage{}).Where("id = ?", older.ID).
		Update("created_at", now.Add(-48*time.Hour))
	newer := mustActivate(t, svc, patient.ID, models.PackageFamily, now)

	consumed, err := svc.ConsumeCredits(patient.ID, now, "booking")
	if err != nil {
		t.Fatalf("consume failed: %v", err)
	}
	if consumed.ID != older.ID {
		t.Errorf("expected consumption from oldest package %d, got %d", older.ID, consumed.ID)
	}
	if consumed.CreditsRemaining != 8 {
		t.Errorf("expected 8 credits remaining, got %d", consumed.CreditsRemaining)
	}

	var untouched models.CreditPackage
	if err := db.First(&untouched, newer.ID).Error; err != nil {
		t.Fatal(err)
	}
	if untouched.CreditsRemaining != 24 {
		t.Errorf("newer package should be untouched, got %d remaining", untouched.CreditsRemaining)
	}
	assertReconciled(t, svc, patient.ID)
}

func TestConsumeCreditsRollsBackWithEnclosingWork(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	patient := createUser(t, db, models.RolePatient)
	now := time.Now()

	pkg := mustActivate(t, svc, patient.ID, models.PackageIndividual, now)

	// A booking folds consumption and the appointment row into one unit of
	// work; when the enclosing work fails, the consumed credits come back.
	bookingFailed := errors.New("appointment insert rejected")
	err := db.Transaction(func(tx *gorm.DB) error {
		consumed, err := svc.WithTx(tx).ConsumeCredits(patient.ID, now, "booking")
		if err != nil {
			return err
		}
		if consumed.ID != pkg.ID {
			t.Errorf("expected consumption from package %d, got %d", pkg.ID, consumed.ID)
		}
		return bookingFailed
	})
	if !errors.Is(err, bookingFailed) {
		t.Fatalf("expected the enclosing error, got %v", err)
	}

	var reloaded models.CreditPackage
	if err := db.First(&reloaded, pkg.ID).Error; err != nil {
		t.Fatal(err)
	}
	if reloaded.CreditsRemaining != 10 {
		t.Errorf("expected package credits restored to 10, got %d", reloaded.CreditsRemaining)
	}

	var user models.User
	db.First(&user, patient.ID)
	if user.Credits != 10 {
		t.Errorf("expected aggregate credits restored to 10, got %d", user.Credits)
	}

	var count int64
	db.Model(&models.CreditTransaction{}).
		Where("user_id = ? AND type = ?", patient.ID, models.TxConsumption).Count(&count)
	if count != 0 {
		t.Errorf("rolled-back booking must leave no CONSUMPTION entry, found %d", count)
	}
	assertReconciled(t, svc, patient.ID)
}

func TestConsumeCreditsInsufficient(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	patient := createUser(t, db, models.RolePatient)

	_, err := svc.ConsumeCredits(patient.ID, time.Now(), "booking")
	if !errors.Is(err, ErrInsufficientCredits) {
		t.Fatalf("expected ErrInsufficientCredits, got %v", err)
	}

	var count int64
	db.Model(&models.CreditTransaction{}).Where("user_id = ?", patient.ID).Count(&count)
	if count != 0 {
		t.Errorf("failed consumption must not write ledger entries, found %d", count)
	}
}

func TestConsumeCreditsSkipsDepletedAndExpiring(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	patient := createUser(t, db, models.RolePatient)
	now := time.Now()

	pkg := mustActivate(t, svc, patient.ID, models.PackageIndividual, now)
	// Drain the package to a single credit: below the consultation cost.
	db.Model(&models.CreditPackage{}).Where("id = ?", pkg.ID).
		Update("credits_remaining", 1)

	_, err := svc.ConsumeCredits(patient.ID, now, "booking")
	if !errors.Is(err, ErrInsufficientCredits) {
		t.Fatalf("expected ErrInsufficientCredits with only partial credits, got %v", err)
	}
}

func TestConsumeToZeroKeepsPackageActive(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	patient := createUser(t, db, models.RolePatient)
	now := time.Now()

	pkg := mustActivate(t, svc, patient.ID, models.PackageIndividual, now)
	db.Model(&models.CreditPackage{}).Where("id = ?", pkg.ID).
		Update("credits_remaining", 2)

	consumed, err := svc.ConsumeCredits(patient.ID, now, "booking")
	if err != nil {
		t.Fatalf("consume failed: %v", err)
	}
	if consumed.CreditsRemaining != 0 {
		t.Errorf("expected 0 credits remaining, got %d", consumed.CreditsRemaining)
	}

	// A depleted package stays ACTIVE until its expiry date passes.
	var reloaded models.CreditPackage
	if err := db.First(&reloaded, pkg.ID).Error; err != nil {
		t.Fatal(err)
	}
	if reloaded.Status != models.PackageActive {
		t.Errorf("depleted package should stay ACTIVE, got %s", reloaded.Status)
	}
}

func TestRefundBookingCredits(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	patient := createUser(t, db, models.RolePatient)
	now := time.Now()

	pkg := mustActivate(t, svc, patient.ID, models.PackageIndividual, now)
	if _, err := svc.ConsumeCredits(patient.ID, now, "booking"); err != nil {
		t.Fatalf("consume failed: %v", err)
	}

	if err := svc.RefundBookingCredits(patient.ID, &pkg.ID, "cancellation"); err != nil {
		t.Fatalf("refund failed: %v", err)
	}

	var reloaded models.CreditPackage
	if err := db.First(&reloaded, pkg.ID).Error; err != nil {
		t.Fatal(err)
	}
	if reloaded.CreditsRemaining != 10 {
		t.Errorf("expected credits back on the package, got %d remaining", reloaded.CreditsRemaining)
	}

	var user models.User
	db.First(&user, patient.ID)
	if user.Credits != 10 {
		t.Errorf("expected aggregate credits restored to 10, got %d", user.Credits)
	}
	assertReconciled(t, svc, patient.ID)
}

func TestUpgradeCarriesOverCredits(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	patient := createUser(t, db, models.RolePatient)
	now := time.Now()

	individual := mustActivate(t, svc, patient.ID, models.PackageIndividual, now)
	db.Model(&models.CreditPackage{}).Where("id = ?", individual.ID).
		Update("credits_remaining", 4)
	db.Model(&models.User{}).Where("id = ?", patient.ID).Update("credits", 4)

	family, err := svc.ActivatePackage(patient.ID, models.PackageFamily, true, now)
	if err != nil {
		t.Fatalf("upgrade failed: %v", err)
	}
	if family.CreditsRemaining != 28 {
		t.Errorf("expected 24 new + 4 carried = 28 credits, got %d", family.CreditsRemaining)
	}

	var retired models.CreditPackage
	db.First(&retired, individual.ID)
	if retired.Status != models.PackageExpired || retired.CreditsRemaining != 0 {
		t.Errorf("old package should be retired empty, got %s with %d", retired.Status, retired.CreditsRemaining)
	}

	var user models.User
	db.First(&user, patient.ID)
	if user.Credits != 28 {
		t.Errorf("expected aggregate 28 credits after upgrade, got %d", user.Credits)
	}
}
