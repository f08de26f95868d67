package services

import (
	"context"
	"errors"
	"fmt"

	"annex-backend/models"
	"annex-backend/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrPayoutNotConfigured means the instructor has no usable payout profile.
// It is terminal: the payout is skipped and needs manual intervention, the
// purchase stays completed.
var ErrPayoutNotConfigured = errors.New("instructor payout profile not configured")

// PayoutDispatcher computes and triggers the instructor's share of a
// completed purchase.
type PayoutDispatcher interface {
	DispatchPayout(ctx context.Context, purchase *models.Purchase) error
}

type PayoutService struct {
	lessons repository.LessonRepository
	users   repository.UserRepository
	gateway PaymentGateway
	logger  *zap.Logger
}

func NewPayoutService(lessons repository.LessonRepository, users repository.UserRepository, gateway PaymentGateway, logger *zap.Logger) *PayoutService {
	return &PayoutService{lessons: lessons, users: users, gateway: gateway, logger: logger}
}

func (s *PayoutService) DispatchPayout(ctx context.Context, purchase *models.Purchase) error {
	lesson, err := s.lessons.FindByID(ctx, purchase.LessonID)
	if err != nil {
		return fmt.Errorf("resolving lesson for payout: %w", err)
	}

	instructor, err := s.users.FindByID(ctx, lesson.TeacherID)
	if err != nil {
		return fmt.Errorf("resolving instructor for payout: %w", err)
	}

	share := purchase.Amount * purchase.PayoutRatio
	// Payout-side idempotency token, distinct from the original charge id.
	payoutRef := "ANNEX-PAYOUT-" + uuid.New().String()

	switch instructor.PayoutMethod {
	case models.PayoutMethodMobileMoney:
		if instructor.Phone == "" || instructor.MobileMoneyOperatorRefID == "" {
			return fmt.Errorf("%w: incomplete mobile money profile for instructor %s", ErrPayoutNotConfigured, instructor.ID)
		}
		_, err = s.gateway.InitiateMobileMoneyPayout(ctx, MobileMoneyPayoutRequest{
			Amount:                   formatAmount(share),
			Mobile:                   normalizeMobile(instructor.Phone),
			MobileMoneyOperatorRefID: instructor.MobileMoneyOperatorRefID,
			ChargeID:                 payoutRef,
		})
	case models.PayoutMethodBank:
		if instructor.BankUUID == "" || instructor.AccountNumber == "" {
			return fmt.Errorf("%w: incomplete bank profile for instructor %s", ErrPayoutNotConfigured, instructor.ID)
		}
		_, err = s.gateway.InitiateBankPayout(ctx, BankPayoutRequest{
			Amount:        formatAmount(share),
			Currency:      "MWK",
			ChargeID:      payoutRef,
			BankUUID:      instructor.BankUUID,
			AccountName:   instructor.AccountName,
			AccountNumber: instructor.AccountNumber,
		})
	default:
		return fmt.Errorf("%w: instructor %s has no payout method", ErrPayoutNotConfigured, instructor.ID)
	}

	if err != nil {
		return fmt.Errorf("payout %s for charge %s: %w", payoutRef, purchase.ChargeID, err)
	}

	s.logger.Info("instructor payout initiated",
		zap.String("payout_ref", payoutRef),
		zap.String("charge_id", purchase.ChargeID),
		zap.String("instructor_id", instructor.ID.String()),
		zap.String("method", instructor.PayoutMethod),
		zap.Float64("share", share),
	)
	return nil
}
