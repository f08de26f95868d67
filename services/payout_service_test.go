package services_test

import (
	"context"
	"strings"
	"testing"

	"annex-backend/models"
	"annex-backend/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func completedPurchase(lessonID uuid.UUID) *models.Purchase {
	return &models.Purchase{
		ID:          uuid.New(),
		ChargeID:    "ANNEX-MOMO-42",
		StudentID:   uuid.New(),
		LessonID:    lessonID,
		Amount:      1500,
		PayoutRatio: 0.80,
		Status:      models.PurchaseCompleted,
	}
}

func instructorLesson(teacherID uuid.UUID) *models.Lesson {
	return &models.Lesson{
		ID:        uuid.New(),
		Title:     "Form 4 Chemistry",
		Price:     1500,
		TeacherID: teacherID,
		Status:    models.LessonApproved,
	}
}

func TestDispatchPayout_MobileMoneyShare(t *testing.T) {
	instructor := &models.User{
		ID:                       uuid.New(),
		Role:                     models.RoleTeacher,
		Phone:                    "+265 888 111 222",
		PayoutMethod:             models.PayoutMethodMobileMoney,
		MobileMoneyOperatorRefID: "20be6c20-adeb-4b5b-a7ba-0769820df4fb",
	}
	lesson := instructorLesson(instructor.ID)
	gateway := newFakeGateway()
	svc := services.NewPayoutService(newFakeLessonRepo(lesson), newFakeUserRepo(instructor), gateway, zap.NewNop())

	err := svc.DispatchPayout(context.Background(), completedPurchase(lesson.ID))
	assert.NoError(t, err)

	calls := gateway.callsOfKind("momo-payout")
	assert.Len(t, calls, 1)
	req := calls[0].payload.(services.MobileMoneyPayoutRequest)
	assert.Equal(t, "1200.00", req.Amount)
	assert.Equal(t, "265888111222", req.Mobile)
	assert.Equal(t, instructor.MobileMoneyOperatorRefID, req.MobileMoneyOperatorRefID)
	assert.True(t, strings.HasPrefix(req.ChargeID, "ANNEX-PAYOUT-"))
	assert.NotEqual(t, "ANNEX-MOMO-42", req.ChargeID)
}

func TestDispatchPayout_BankProfile(t *testing.T) {
	instructor := &models.User{
		ID:            uuid.New(),
		Role:          models.RoleTeacher,
		PayoutMethod:  models.PayoutMethodBank,
		BankUUID:      "bank-uuid-1",
		AccountName:   "T. Phiri",
		AccountNumber: "0011223344",
	}
	lesson := instructorLesson(instructor.ID)
	gateway := newFakeGateway()
	svc := services.NewPayoutService(newFakeLessonRepo(lesson), newFakeUserRepo(instructor), gateway, zap.NewNop())

	err := svc.DispatchPayout(context.Background(), completedPurchase(lesson.ID))
	assert.NoError(t, err)

	calls := gateway.callsOfKind("bank-payout")
	assert.Len(t, calls, 1)
	req := calls[0].payload.(services.BankPayoutRequest)
	assert.Equal(t, "1200.00", req.Amount)
	assert.Equal(t, "MWK", req.Currency)
	assert.Equal(t, "bank-uuid-1", req.BankUUID)
	assert.Equal(t, "0011223344", req.AccountNumber)
}

func TestDispatchPayout_NoPayoutMethod(t *testing.T) {
	instructor := &models.User{ID: uuid.New(), Role: models.RoleTeacher}
	lesson := instructorLesson(instructor.ID)
	gateway := newFakeGateway()
	svc := services.NewPayoutService(newFakeLessonRepo(lesson), newFakeUserRepo(instructor), gateway, zap.NewNop())

	err := svc.DispatchPayout(context.Background(), completedPurchase(lesson.ID))
	assert.ErrorIs(t, err, services.ErrPayoutNotConfigured)
	assert.Empty(t, gateway.calls)
}

func TestDispatchPayout_IncompleteMobileMoneyProfile(t *testing.T) {
	instructor := &models.User{
		ID:           uuid.New(),
		Role:         models.RoleTeacher,
		PayoutMethod: models.PayoutMethodMobileMoney,
		// No phone, no operator ref.
	}
	lesson := instructorLesson(instructor.ID)
	gateway := newFakeGateway()
	svc := services.NewPayoutService(newFakeLessonRepo(lesson), newFakeUserRepo(instructor), gateway, zap.NewNop())

	err := svc.DispatchPayout(context.Background(), completedPurchase(lesson.ID))
	assert.ErrorIs(t, err, services.ErrPayoutNotConfigured)
	assert.Empty(t, gateway.calls)
}

func TestDispatchPayout_IncompleteBankProfile(t *testing.T) {
	instructor := &models.User{
		ID:           uuid.New(),
		Role:         models.RoleTeacher,
		PayoutMethod: models.PayoutMethodBank,
		BankUUID:     "bank-uuid-1",
		// No account number.
	}
	lesson := instructorLesson(instructor.ID)
	gateway := newFakeGateway()
	svc := services.NewPayoutService(newFakeLessonRepo(lesson), newFakeUserRepo(instructor), gateway, zap.NewNop())

	err := svc.DispatchPayout(context.Background(), completedPurchase(lesson.ID))
	assert.ErrorIs(t, err, services.ErrPayoutNotConfigured)
	assert.Empty(t, gateway.calls)
}

func TestDispatchPayout_ShareUsesSnapshottedRatio(t *testing.T) {
	instructor := &models.User{
		ID:                       uuid.New(),
		Role:                     models.RoleTeacher,
		Phone:                    "265888111222",
		PayoutMethod:             models.PayoutMethodMobileMoney,
		MobileMoneyOperatorRefID: "op-ref",
	}
	lesson := instructorLesson(instructor.ID)
	gateway := newFakeGateway()
	svc := services.NewPayoutService(newFakeLessonRepo(lesson), newFakeUserRepo(instructor), gateway, zap.NewNop())

	purchase := completedPurchase(lesson.ID)
	purchase.Amount = 2000
	purchase.PayoutRatio = 0.75

	err := svc.DispatchPayout(context.Background(), purchase)
	assert.NoError(t, err)

	req := gateway.callsOfKind("momo-payout")[0].payload.(services.MobileMoneyPayoutRequest)
	assert.Equal(t, "1500.00", req.Amount)
}

func TestDispatchPayout_GatewayErrorPropagates(t *testing.T) {
	instructor := &models.User{
		ID:                       uuid.New(),
		Role:                     models.RoleTeacher,
		Phone:                    "265888111222",
		PayoutMethod:             models.PayoutMethodMobileMoney,
		MobileMoneyOperatorRefID: "op-ref",
	}
	lesson := instructorLesson(instructor.ID)
	gateway := newFakeGateway()
	gateway.payoutErr = services.ErrGatewayUnavailable
	svc := services.NewPayoutService(newFakeLessonRepo(lesson), newFakeUserRepo(instructor), gateway, zap.NewNop())

	err := svc.DispatchPayout(context.Background(), completedPurchase(lesson.ID))
	assert.ErrorIs(t, err, services.ErrGatewayUnavailable)
}
