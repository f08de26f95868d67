package services

import (
	"context"
	"errors"
	"time"

	"annex-backend/models"
	"annex-backend/repository"

	"go.uber.org/zap"
)

// PaymentEventPublisher is the fire-and-forget notification hook. Publish
// failures never affect the settlement outcome.
type PaymentEventPublisher interface {
	SendPaymentEvent(event models.PaymentEvent) error
}

// SettlementService applies verified charge outcomes to the ledger and runs
// the post-completion side effects. Both the webhook router and the
// reconciliation sweep settle through here so redelivery and late
// reconciliation behave identically.
type SettlementService struct {
	purchases repository.PurchaseRepository
	payouts   PayoutDispatcher
	events    PaymentEventPublisher
	logger    *zap.Logger
}

func NewSettlementService(purchases repository.PurchaseRepository, payouts PayoutDispatcher, events PaymentEventPublisher, logger *zap.Logger) *SettlementService {
	return &SettlementService{purchases: purchases, payouts: payouts, events: events, logger: logger}
}

// CompleteCharge settles a successful charge. The payout and the settlement
// event fire only when this call actually performed the pending→completed
// transition, so a redelivered webhook cannot double-pay the instructor.
func (s *SettlementService) CompleteCharge(ctx context.Context, chargeID string) (*models.Purchase, error) {
	purchase, completedNow, err := s.purchases.CompletePurchase(ctx, chargeID)
	if err != nil {
		if errors.Is(err, repository.ErrPurchaseAlreadyFailed) {
			s.logger.Warn("success event for already failed purchase discarded",
				zap.String("charge_id", chargeID),
			)
			return purchase, err
		}
		return nil, err
	}

	if !completedNow {
		s.logger.Info("duplicate completion event ignored",
			zap.String("charge_id", chargeID),
		)
		return purchase, nil
	}

	s.logger.Info("purchase completed",
		zap.String("charge_id", chargeID),
		zap.String("purchase_id", purchase.ID.String()),
		zap.Float64("amount", purchase.Amount),
	)

	if err := s.payouts.DispatchPayout(ctx, purchase); err != nil {
		// Terminal but logged: the sale is final regardless of payout outcome.
		s.logger.Error("instructor payout not dispatched",
			zap.String("charge_id", chargeID),
			zap.Error(err),
		)
	}

	s.publish(models.PaymentEvent{
		Type:       "purchase_completed",
		ChargeID:   purchase.ChargeID,
		PurchaseID: purchase.ID.String(),
		StudentID:  purchase.StudentID.String(),
		LessonID:   purchase.LessonID.String(),
		Amount:     purchase.Amount,
		Timestamp:  time.Now().UTC(),
	})

	return purchase, nil
}

// FailCharge settles a failed charge. A failure arriving after completion is
// logged and discarded; it never downgrades the purchase.
func (s *SettlementService) FailCharge(ctx context.Context, chargeID string) (*models.Purchase, error) {
	purchase, err := s.purchases.FailPurchase(ctx, chargeID)
	if err != nil {
		if errors.Is(err, repository.ErrPurchaseAlreadyCompleted) {
			s.logger.Warn("stale failure event for completed purchase discarded",
				zap.String("charge_id", chargeID),
			)
			return purchase, nil
		}
		return nil, err
	}

	s.logger.Info("purchase failed",
		zap.String("charge_id", chargeID),
		zap.String("purchase_id", purchase.ID.String()),
	)

	s.publish(models.PaymentEvent{
		Type:       "purchase_failed",
		ChargeID:   purchase.ChargeID,
		PurchaseID: purchase.ID.String(),
		StudentID:  purchase.StudentID.String(),
		LessonID:   purchase.LessonID.String(),
		Amount:     purchase.Amount,
		Timestamp:  time.Now().UTC(),
	})

	return purchase, nil
}

func (s *SettlementService) publish(event models.PaymentEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.SendPaymentEvent(event); err != nil {
		s.logger.Error("failed to publish settlement event",
			zap.String("event_type", event.Type),
			zap.String("charge_id", event.ChargeID),
			zap.Error(err),
		)
	}
}
