package repository

import (
	"context"
	"errors"
	"time"

	"annex-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrPurchaseNotFound         = errors.New("purchase not found")
	ErrPurchaseAlreadyFailed    = errors.New("purchase already failed")
	ErrPurchaseAlreadyCompleted = errors.New("purchase already completed")
)

// PurchaseRepository is the purchase ledger: the single writer of purchase
// state and lesson sales counters.
type PurchaseRepository interface {
	CreatePending(ctx context.Context, purchase *models.Purchase) error
	FindByChargeID(ctx context.Context, chargeID string) (*models.Purchase, error)
	// CompletePurchase flips a pending purchase to completed and increments
	// the lesson's sales count in the same transaction. completedNow reports
	// whether this call performed the transition; a redelivered success event
	// gets the existing row back with completedNow=false.
	CompletePurchase(ctx context.Context, chargeID string) (purchase *models.Purchase, completedNow bool, err error)
	// FailPurchase flips a pending purchase to failed. Failing an already
	// failed purchase is a no-op; failing a completed one returns
	// ErrPurchaseAlreadyCompleted and leaves the row untouched.
	FailPurchase(ctx context.Context, chargeID string) (*models.Purchase, error)
	ListByStudent(ctx context.Context, studentID uuid.UUID) ([]models.Purchase, error)
	ListStalePending(ctx context.Context, olderThan time.Time) ([]models.Purchase, error)
}

type gormPurchaseRepo struct {
	db *gorm.DB
}

func NewGormPurchaseRepo(db *gorm.DB) PurchaseRepository {
	return &gormPurchaseRepo{db: db}
}

func (r *gormPurchaseRepo) CreatePending(ctx context.Context, purchase *models.Purchase) error {
	if purchase.ID == uuid.Nil {
		purchase.ID = uuid.New()
	}
	purchase.Status = models.PurchasePending
	return r.db.WithContext(ctx).Create(purchase).Error
}

func (r *gormPurchaseRepo) FindByChargeID(ctx context.Context, chargeID string) (*models.Purchase, error) {
	var purchase models.Purchase
	err := r.db.WithContext(ctx).Where("charge_id = ?", chargeID).First(&purchase).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPurchaseNotFound
	}
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

func (r *gormPurchaseRepo) CompletePurchase(ctx context.Context, chargeID string) (*models.Purchase, bool, error) {
	var purchase models.Purchase
	completedNow := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Row lock serializes duplicate webhook deliveries for this charge.
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("charge_id = ?", chargeID).
			First(&purchase).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPurchaseNotFound
			}
			return err
		}

		switch purchase.Status {
		case models.PurchaseCompleted:
			return nil // idempotent redelivery
		case models.PurchaseFailed:
			return ErrPurchaseAlreadyFailed
		}

		now := time.Now()
		if err := tx.Model(&models.Purchase{}).
			Where("id = ?", purchase.ID).
			Updates(map[string]interface{}{
				"status":       models.PurchaseCompleted,
				"completed_at": &now,
			}).Error; err != nil {
			return err
		}

		// Expression update, never read-modify-write: concurrent completions
		// of different purchases for the same lesson must not lose counts.
		if err := tx.Model(&models.Lesson{}).
			Where("id = ?", purchase.LessonID).
			UpdateColumn("sales_count", gorm.Expr("sales_count + ?", 1)).Error; err != nil {
			return err
		}

		purchase.Status = models.PurchaseCompleted
		purchase.CompletedAt = &now
		completedNow = true
		return nil
	})

	if err != nil {
		if errors.Is(err, ErrPurchaseAlreadyFailed) {
			return &purchase, false, err
		}
		return nil, false, err
	}
	return &purchase, completedNow, nil
}

func (r *gormPurchaseRepo) FailPurchase(ctx context.Context, chargeID string) (*models.Purchase, error) {
	var purchase models.Purchase

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("charge_id = ?", chargeID).
			First(&purchase).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPurchaseNotFound
			}
			return err
		}

		switch purchase.Status {
		case models.PurchaseFailed:
			return nil // idempotent redelivery
		case models.PurchaseCompleted:
			// A stale failure must never downgrade a completed purchase.
			return ErrPurchaseAlreadyCompleted
		}

		now := time.Now()
		if err := tx.Model(&models.Purchase{}).
			Where("id = ?", purchase.ID).
			Updates(map[string]interface{}{
				"status":    models.PurchaseFailed,
				"failed_at": &now,
			}).Error; err != nil {
			return err
		}

		purchase.Status = models.PurchaseFailed
		purchase.FailedAt = &now
		return nil
	})

	if err != nil {
		if errors.Is(err, ErrPurchaseAlreadyCompleted) {
			return &purchase, err
		}
		return nil, err
	}
	return &purchase, nil
}

func (r *gormPurchaseRepo) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]models.Purchase, error) {
	var purchases []models.Purchase
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Find(&purchases).Error
	return purchases, err
}

func (r *gormPurchaseRepo) ListStalePending(ctx context.Context, olderThan time.Time) ([]models.Purchase, error) {
	var purchases []models.Purchase
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", models.PurchasePending, olderThan).
		Order("created_at ASC").
		Find(&purchases).Error
	return purchases, err
}
