package ledger

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/telecure-health/telecure/models"
	"github.com/telecure-health/telecure/utils"
)

// CreditsPerConsultation is the booking cost. 2 credits = 1 consultation.
const CreditsPerConsultation = 2

// Service owns every mutation of the credit ledger: purchases, consumption,
// expiry, payouts and penalties. It is constructed once in main and injected
// into handlers and cron jobs; nothing in here reaches for package-level
// state.
type Service struct {
	db     *gorm.DB
	mailer func(to, subject, body string)
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db, mailer: utils.SendEmailAsync}
}

// DB exposes the underlying handle for read-only queries in handlers.
func (s *Service) DB() *gorm.DB {
	return s.db
}

// WithTx returns a Service bound to the given transaction, so callers can
// fold ledger writes into a larger unit of work.
func (s *Service) WithTx(tx *gorm.DB) *Service {
	return &Service{db: tx, mailer: s.mailer}
}

// sendMail hands a message to the configured mailer. Delivery is best effort
// and happens outside any transaction; the notification row is the durable
// record.
func (s *Service) sendMail(to, subject, body string) {
	if s.mailer != nil {
		s.mailer(to, subject, body)
	}
}

// applyCreditTx appends one ledger entry against the user's credit count and
// updates the stored balance, inside the caller's transaction. The balance
// write is guarded on the value just read, so a concurrent mutation of the
// same user surfaces as ErrConflict instead of a lost update. Debits that
// would go below zero are rejected before anything is written.
func (s *Service) applyCreditTx(tx *gorm.DB, userID uint, amount int64, txType models.TransactionType, packageID *uint, description string) (*models.CreditTransaction, error) {
	var user models.User
	if err := tx.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	before := int64(user.Credits)
	after := before + amount
	if after < 0 {
		return nil, ErrInsufficientCredits
	}

	res := tx.Model(&models.User{}).
		Where("id = ? AND credits = ?", userID, before).
		Update("credits", after)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrConflict
	}

	entry := models.CreditTransaction{
		UserID:        userID,
		PackageID:     packageID,
		Amount:        amount,
		Type:          txType,
		BalanceBefore: before,
		BalanceAfter:  after,
		Description:   description,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// applyBalanceTx is applyCreditTx's sibling for the doctor's withdrawable
// currency balance (credit_balance, smallest unit).
func (s *Service) applyBalanceTx(tx *gorm.DB, userID uint, amount int64, txType models.TransactionType, description string) (*models.CreditTransaction, error) {
	var user models.User
	if err := tx.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	before := user.CreditBalance
	after := before + amount
	if after < 0 {
		return nil, ErrInsufficientCredits
	}

	res := tx.Model(&models.User{}).
		Where("id = ? AND credit_balance = ?", userID, before).
		Update("credit_balance", after)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrConflict
	}

	entry := models.CreditTransaction{
		UserID:        userID,
		Amount:        amount,
		Type:          txType,
		BalanceBefore: before,
		BalanceAfter:  after,
		Currency:      true,
		Description:   description,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func notify(tx *gorm.DB, userID uint, nType models.NotificationType, title, body string, packageID *uint) error {
	n := models.Notification{
		UserID:    userID,
		Type:      nType,
		Title:     title,
		Body:      body,
		PackageID: packageID,
	}
	return tx.Create(&n).Error
}

func auditLog(tx *gorm.DB, actorID *uint, action models.AdminAction, targetID *uint, metadata string) error {
	entry := models.AdminLog{
		ActorID:  actorID,
		Action:   action,
		TargetID: targetID,
		Metadata: metadata,
	}
	return tx.Create(&entry).Error
}

// requireAdmin loads the actor and checks the admin role.
func requireAdmin(tx *gorm.DB, actorID uint) (*models.User, error) {
	var actor models.User
	if err := tx.Preload("Role").First(&actor, actorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	if actor.Role.Name != models.RoleAdmin {
		return nil, ErrUnauthorized
	}
	return &actor, nil
}

// Reconcile recomputes a user's aggregate credit count from the transaction
// chain and returns it alongside the stored value; the two diverging means
// an entry was written without its balance update or vice versa.
func (s *Service) Reconcile(userID uint) (stored int64, fromChain int64, err error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, 0, ErrNotFound
		}
		return 0, 0, err
	}

	var sum struct{ Total int64 }
	err = s.db.Model(&models.CreditTransaction{}).
		Select("COALESCE(SUM(amount), 0) as total").
		Where("user_id = ? AND currency = ?", userID, false).
		Scan(&sum).Error
	if err != nil {
		return 0, 0, err
	}
	return int64(user.Credits), sum.Total, nil
}

func describePlan(t models.PackageType) string {
	return fmt.Sprintf("%s credit package", t)
}
