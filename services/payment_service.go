package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"annex-backend/models"
	"annex-backend/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// mobileMoneyOperators maps the provider name a client sends to the
// operator reference id PayChangu expects.
var mobileMoneyOperators = map[string]string{
	"airtel": "20be6c20-adeb-4b5b-a7ba-0769820df4fb",
	"mpamba": "27494cb5-ba9e-437f-a114-4e7a7686bcca",
}

var ErrInvalidProvider = errors.New("invalid mobile money provider")

// payoutRatio is the instructor's share of each sale. It is snapshotted
// onto every purchase at creation so later changes never affect past sales.
const payoutRatio = 0.80

type MobileMoneyPaymentRequest struct {
	LessonID  string `json:"lesson_id" binding:"required,uuid"`
	Mobile    string `json:"mobile" binding:"required"`
	Provider  string `json:"provider" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
}

type BankTransferPaymentRequest struct {
	LessonID string `json:"lesson_id" binding:"required,uuid"`
	Email    string `json:"email" binding:"required,email"`
}

// PaymentService is the payment initiator: it durably records purchase
// intent before asking the gateway to start a charge.
type PaymentService struct {
	purchases repository.PurchaseRepository
	lessons   repository.LessonRepository
	gateway   PaymentGateway
	logger    *zap.Logger
}

func NewPaymentService(purchases repository.PurchaseRepository, lessons repository.LessonRepository, gateway PaymentGateway, logger *zap.Logger) *PaymentService {
	return &PaymentService{purchases: purchases, lessons: lessons, gateway: gateway, logger: logger}
}

func (s *PaymentService) InitiateMobileMoneyPayment(ctx context.Context, studentID uuid.UUID, req MobileMoneyPaymentRequest) (json.RawMessage, error) {
	operatorRefID, ok := mobileMoneyOperators[strings.ToLower(req.Provider)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidProvider, req.Provider)
	}

	lesson, chargeID, err := s.recordPendingPurchase(ctx, studentID, req.LessonID, "MOMO")
	if err != nil {
		return nil, err
	}

	resp, err := s.gateway.InitializeMobileMoneyCharge(ctx, MobileMoneyChargeRequest{
		Amount:                   formatAmount(lesson.Price),
		Mobile:                   normalizeMobile(req.Mobile),
		MobileMoneyOperatorRefID: operatorRefID,
		ChargeID:                 chargeID,
		Email:                    req.Email,
		FirstName:                req.FirstName,
		LastName:                 req.LastName,
	})
	if err != nil {
		// No rollback: the charge may have been accepted despite the error.
		// The purchase stays pending for the reconciliation sweep.
		s.logger.Error("mobile money initiation failed",
			zap.String("charge_id", chargeID),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("mobile money charge initiated",
		zap.String("charge_id", chargeID),
		zap.String("lesson_id", lesson.ID.String()),
		zap.Float64("amount", lesson.Price),
	)
	return resp, nil
}

func (s *PaymentService) InitiateBankTransferPayment(ctx context.Context, studentID uuid.UUID, req BankTransferPaymentRequest) (json.RawMessage, error) {
	lesson, chargeID, err := s.recordPendingPurchase(ctx, studentID, req.LessonID, "BANK")
	if err != nil {
		return nil, err
	}

	resp, err := s.gateway.InitializeBankTransferCharge(ctx, BankTransferChargeRequest{
		PaymentMethod: "mobile_bank_transfer",
		Amount:        formatAmount(lesson.Price),
		Currency:      "MWK",
		ChargeID:      chargeID,
		Email:         req.Email,
	})
	if err != nil {
		s.logger.Error("bank transfer initiation failed",
			zap.String("charge_id", chargeID),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("bank transfer charge initiated",
		zap.String("charge_id", chargeID),
		zap.String("lesson_id", lesson.ID.String()),
		zap.Float64("amount", lesson.Price),
	)
	return resp, nil
}

// recordPendingPurchase resolves the lesson price and creates the pending
// ledger entry. The row must be committed before the gateway is contacted so
// an immediate webhook can always find it.
func (s *PaymentService) recordPendingPurchase(ctx context.Context, studentID uuid.UUID, lessonID, channel string) (*models.Lesson, string, error) {
	id, err := uuid.Parse(lessonID)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s", repository.ErrLessonNotFound, lessonID)
	}

	lesson, err := s.lessons.FindByID(ctx, id)
	if err != nil {
		return nil, "", err
	}

	chargeID := newChargeID(channel)
	purchase := &models.Purchase{
		ChargeID:    chargeID,
		StudentID:   studentID,
		LessonID:    lesson.ID,
		Amount:      lesson.Price,
		PayoutRatio: payoutRatio,
	}
	if err := s.purchases.CreatePending(ctx, purchase); err != nil {
		return nil, "", err
	}
	return lesson, chargeID, nil
}

func newChargeID(channel string) string {
	token := strings.Split(uuid.New().String(), "-")[0]
	return fmt.Sprintf("ANNEX-%s-%d-%s", channel, time.Now().UnixMilli(), token)
}

func formatAmount(amount float64) string {
	return fmt.Sprintf("%.2f", amount)
}

// normalizeMobile strips spaces and a leading "+"; PayChangu wants bare
// digits with the country prefix.
func normalizeMobile(mobile string) string {
	mobile = strings.ReplaceAll(mobile, " ", "")
	return strings.TrimPrefix(mobile, "+")
}
