package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"annex-backend/models"
	"annex-backend/repository"

	"go.uber.org/zap"
)

var (
	// ErrInvalidSignature covers a missing or mismatched webhook signature.
	// It is the only webhook error that maps to a non-2xx response.
	ErrInvalidSignature = errors.New("invalid webhook signature")
	// ErrWebhookSecretNotConfigured fails closed when no shared secret is set.
	ErrWebhookSecretNotConfigured = errors.New("webhook secret not configured")
)

// ChargeSettler applies verified charge outcomes to the ledger.
type ChargeSettler interface {
	CompleteCharge(ctx context.Context, chargeID string) (*models.Purchase, error)
	FailCharge(ctx context.Context, chargeID string) (*models.Purchase, error)
}

// WebhookService authenticates PayChangu callbacks and routes verified
// outcome events into the settlement service.
type WebhookService struct {
	secret     string
	settlement ChargeSettler
	logger     *zap.Logger
}

func NewWebhookService(secret string, settlement ChargeSettler, logger *zap.Logger) *WebhookService {
	return &WebhookService{secret: secret, settlement: settlement, logger: logger}
}

// VerifySignature computes an HMAC-SHA256 over the exact raw request bytes
// and compares it against the hex signature header. The payload must never
// be re-serialized before this check: whitespace or key-order changes would
// break the digest.
func (s *WebhookService) VerifySignature(signature string, payload []byte) error {
	if s.secret == "" {
		return ErrWebhookSecretNotConfigured
	}
	if signature == "" {
		return fmt.Errorf("%w: missing signature header", ErrInvalidSignature)
	}

	mac := hmac.New(sha256.New, []byte(s.secret))
	mac.Write(payload)
	computed := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(computed), []byte(signature)) {
		return ErrInvalidSignature
	}
	return nil
}

// HandleWebhook verifies and routes one delivery. Business-level problems
// (unknown charge, unrecognized event type) return nil so the caller still
// acknowledges with 2xx — the gateway would otherwise retry forever for
// events this system intentionally ignores.
func (s *WebhookService) HandleWebhook(ctx context.Context, signature string, payload []byte) error {
	if err := s.VerifySignature(signature, payload); err != nil {
		return err
	}

	var event models.WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		s.logger.Warn("webhook payload is not valid JSON", zap.Error(err))
		return nil
	}

	chargeID := event.TransactionChargeID()
	s.logger.Info("verified webhook event",
		zap.String("event_type", event.EventType),
		zap.String("charge_id", chargeID),
	)

	switch event.EventType {
	case "charge.success", "api.charge.payment":
		if _, err := s.settlement.CompleteCharge(ctx, chargeID); err != nil {
			s.logSettlementError("completion", chargeID, err)
		}
	case "charge.failed":
		if _, err := s.settlement.FailCharge(ctx, chargeID); err != nil {
			s.logSettlementError("failure", chargeID, err)
		}
	default:
		s.logger.Info("unhandled webhook event type",
			zap.String("event_type", event.EventType),
		)
	}

	return nil
}

func (s *WebhookService) logSettlementError(kind, chargeID string, err error) {
	if errors.Is(err, repository.ErrPurchaseNotFound) {
		s.logger.Warn("webhook for unknown charge",
			zap.String("kind", kind),
			zap.String("charge_id", chargeID),
		)
		return
	}
	if errors.Is(err, repository.ErrPurchaseAlreadyFailed) {
		s.logger.Warn("stale event for terminal purchase",
			zap.String("kind", kind),
			zap.String("charge_id", chargeID),
		)
		return
	}
	s.logger.Error("webhook settlement failed",
		zap.String("kind", kind),
		zap.String("charge_id", chargeID),
		zap.Error(err),
	)
}
