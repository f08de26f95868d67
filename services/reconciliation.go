package services

import (
	"context"
	"time"

	"annex-backend/repository"

	"go.uber.org/zap"
)

// ReconciliationWorker is the safety net for lost webhooks and for charges
// abandoned after an initiation timeout: it periodically asks the gateway
// for the true status of pending purchases past a grace age and settles
// them through the same path the webhook uses.
type ReconciliationWorker struct {
	purchases  repository.PurchaseRepository
	gateway    PaymentGateway
	settlement ChargeSettler
	interval   time.Duration
	maxAge     time.Duration
	logger     *zap.Logger
}

func NewReconciliationWorker(purchases repository.PurchaseRepository, gateway PaymentGateway, settlement ChargeSettler, interval, maxAge time.Duration, logger *zap.Logger) *ReconciliationWorker {
	return &ReconciliationWorker{
		purchases:  purchases,
		gateway:    gateway,
		settlement: settlement,
		interval:   interval,
		maxAge:     maxAge,
		logger:     logger,
	}
}

// Start blocks until ctx is cancelled. Run it in its own goroutine.
func (w *ReconciliationWorker) Start(ctx context.Context) {
	w.logger.Info("reconciliation worker started",
		zap.Duration("interval", w.interval),
		zap.Duration("pending_max_age", w.maxAge),
	)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("reconciliation worker stopped")
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep resolves one batch of stale pending purchases. Verify errors leave
// the purchase pending for the next pass.
func (w *ReconciliationWorker) Sweep(ctx context.Context) {
	cutoff := time.Now().Add(-w.maxAge)
	stale, err := w.purchases.ListStalePending(ctx, cutoff)
	if err != nil {
		w.logger.Error("listing stale pending purchases failed", zap.Error(err))
		return
	}
	if len(stale) == 0 {
		return
	}

	w.logger.Info("reconciling stale pending purchases", zap.Int("count", len(stale)))

	for _, purchase := range stale {
		status, err := w.gateway.VerifyCharge(ctx, purchase.ChargeID)
		if err != nil {
			w.logger.Warn("charge verification failed",
				zap.String("charge_id", purchase.ChargeID),
				zap.Error(err),
			)
			continue
		}

		switch status {
		case ChargeStatusSuccess:
			if _, err := w.settlement.CompleteCharge(ctx, purchase.ChargeID); err != nil {
				w.logger.Error("reconciliation completion failed",
					zap.String("charge_id", purchase.ChargeID),
					zap.Error(err),
				)
			}
		case ChargeStatusFailed:
			if _, err := w.settlement.FailCharge(ctx, purchase.ChargeID); err != nil {
				w.logger.Error("reconciliation failure transition failed",
					zap.String("charge_id", purchase.ChargeID),
					zap.Error(err),
				)
			}
		default:
			// Still pending or indeterminate at the gateway; leave it alone.
		}
	}
}
