package services_test

import (
	"context"
	"encoding/json"
	"time"

	"annex-backend/models"
	"annex-backend/repository"
	"annex-backend/services"

	"github.com/google/uuid"
)

// ---- purchase ledger fake ----

type fakePurchaseRepo struct {
	byChargeID map[string]*models.Purchase
	salesCount map[uuid.UUID]int

	createCalls   []string
	completeCalls []string
	failCalls     []string
	createErr     error
}

func newFakePurchaseRepo() *fakePurchaseRepo {
	return &fakePurchaseRepo{
		byChargeID: map[string]*models.Purchase{},
		salesCount: map[uuid.UUID]int{},
	}
}

func (f *fakePurchaseRepo) CreatePending(ctx context.Context, p *models.Purchase) error {
	if f.createErr != nil {
		return f.createErr
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.Status = models.PurchasePending
	p.CreatedAt = time.Now()
	cp := *p
	f.byChargeID[p.ChargeID] = &cp
	f.createCalls = append(f.createCalls, p.ChargeID)
	return nil
}

func (f *fakePurchaseRepo) FindByChargeID(ctx context.Context, chargeID string) (*models.Purchase, error) {
	p, ok := f.byChargeID[chargeID]
	if !ok {
		return nil, repository.ErrPurchaseNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePurchaseRepo) CompletePurchase(ctx context.Context, chargeID string) (*models.Purchase, bool, error) {
	f.completeCalls = append(f.completeCalls, chargeID)
	p, ok := f.byChargeID[chargeID]
	if !ok {
		return nil, false, repository.ErrPurchaseNotFound
	}
	switch p.Status {
	case models.PurchaseCompleted:
		cp := *p
		return &cp, false, nil
	case models.PurchaseFailed:
		cp := *p
		return &cp, false, repository.ErrPurchaseAlreadyFailed
	}
	now := time.Now()
	p.Status = models.PurchaseCompleted
	p.CompletedAt = &now
	f.salesCount[p.LessonID]++
	cp := *p
	return &cp, true, nil
}

func (f *fakePurchaseRepo) FailPurchase(ctx context.Context, chargeID string) (*models.Purchase, error) {
	f.failCalls = append(f.failCalls, chargeID)
	p, ok := f.byChargeID[chargeID]
	if !ok {
		return nil, repository.ErrPurchaseNotFound
	}
	switch p.Status {
	case models.PurchaseFailed:
		cp := *p
		return &cp, nil
	case models.PurchaseCompleted:
		cp := *p
		return &cp, repository.ErrPurchaseAlreadyCompleted
	}
	now := time.Now()
	p.Status = models.PurchaseFailed
	p.FailedAt = &now
	cp := *p
	return &cp, nil
}

func (f *fakePurchaseRepo) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]models.Purchase, error) {
	var out []models.Purchase
	for _, p := range f.byChargeID {
		if p.StudentID == studentID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakePurchaseRepo) ListStalePending(ctx context.Context, olderThan time.Time) ([]models.Purchase, error) {
	var out []models.Purchase
	for _, p := range f.byChargeID {
		if p.Status == models.PurchasePending && p.CreatedAt.Before(olderThan) {
			out = append(out, *p)
		}
	}
	return out, nil
}

// ---- lesson / user fakes ----

type fakeLessonRepo struct {
	lessons map[uuid.UUID]*models.Lesson
}

func newFakeLessonRepo(lessons ...*models.Lesson) *fakeLessonRepo {
	f := &fakeLessonRepo{lessons: map[uuid.UUID]*models.Lesson{}}
	for _, l := range lessons {
		f.lessons[l.ID] = l
	}
	return f
}

func (f *fakeLessonRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Lesson, error) {
	l, ok := f.lessons[id]
	if !ok {
		return nil, repository.ErrLessonNotFound
	}
	cp := *l
	return &cp, nil
}

func (f *fakeLessonRepo) ListApproved(ctx context.Context) ([]models.Lesson, error) {
	var out []models.Lesson
	for _, l := range f.lessons {
		out = append(out, *l)
	}
	return out, nil
}

type fakeUserRepo struct {
	users map[uuid.UUID]*models.User
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	f := &fakeUserRepo{users: map[uuid.UUID]*models.User{}}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

// ---- gateway fake ----

type gatewayCall struct {
	kind    string
	payload interface{}
}

type fakeGateway struct {
	calls        []gatewayCall
	chargeErr    error
	payoutErr    error
	verifyStatus map[string]services.ChargeStatus
	verifyErr    error
	response     json.RawMessage
	onCharge     func()
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		response:     json.RawMessage(`{"status":"success"}`),
		verifyStatus: map[string]services.ChargeStatus{},
	}
}

func (f *fakeGateway) InitializeMobileMoneyCharge(ctx context.Context, req services.MobileMoneyChargeRequest) (json.RawMessage, error) {
	if f.onCharge != nil {
		f.onCharge()
	}
	f.calls = append(f.calls, gatewayCall{kind: "momo-charge", payload: req})
	if f.chargeErr != nil {
		return nil, f.chargeErr
	}
	return f.response, nil
}

func (f *fakeGateway) InitializeBankTransferCharge(ctx context.Context, req services.BankTransferChargeRequest) (json.RawMessage, error) {
	if f.onCharge != nil {
		f.onCharge()
	}
	f.calls = append(f.calls, gatewayCall{kind: "bank-charge", payload: req})
	if f.chargeErr != nil {
		return nil, f.chargeErr
	}
	return f.response, nil
}

func (f *fakeGateway) InitiateMobileMoneyPayout(ctx context.Context, req services.MobileMoneyPayoutRequest) (json.RawMessage, error) {
	f.calls = append(f.calls, gatewayCall{kind: "momo-payout", payload: req})
	if f.payoutErr != nil {
		return nil, f.payoutErr
	}
	return f.response, nil
}

func (f *fakeGateway) InitiateBankPayout(ctx context.Context, req services.BankPayoutRequest) (json.RawMessage, error) {
	f.calls = append(f.calls, gatewayCall{kind: "bank-payout", payload: req})
	if f.payoutErr != nil {
		return nil, f.payoutErr
	}
	return f.response, nil
}

func (f *fakeGateway) VerifyCharge(ctx context.Context, chargeID string) (services.ChargeStatus, error) {
	f.calls = append(f.calls, gatewayCall{kind: "verify", payload: chargeID})
	if f.verifyErr != nil {
		return services.ChargeStatusUnknown, f.verifyErr
	}
	if status, ok := f.verifyStatus[chargeID]; ok {
		return status, nil
	}
	return services.ChargeStatusUnknown, nil
}

func (f *fakeGateway) callsOfKind(kind string) []gatewayCall {
	var out []gatewayCall
	for _, c := range f.calls {
		if c.kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// ---- payout / publisher / settler fakes ----

type fakePayoutDispatcher struct {
	calls []*models.Purchase
	err   error
}

func (f *fakePayoutDispatcher) DispatchPayout(ctx context.Context, purchase *models.Purchase) error {
	f.calls = append(f.calls, purchase)
	return f.err
}

type fakePublisher struct {
	events []models.PaymentEvent
	err    error
}

func (f *fakePublisher) SendPaymentEvent(event models.PaymentEvent) error {
	f.events = append(f.events, event)
	return f.err
}

type fakeSettler struct {
	completed []string
	failed    []string
	err       error
}

func (f *fakeSettler) CompleteCharge(ctx context.Context, chargeID string) (*models.Purchase, error) {
	f.completed = append(f.completed, chargeID)
	if f.err != nil {
		return nil, f.err
	}
	return &models.Purchase{ChargeID: chargeID, Status: models.PurchaseCompleted}, nil
}

func (f *fakeSettler) FailCharge(ctx context.Context, chargeID string) (*models.Purchase, error) {
	f.failed = append(f.failed, chargeID)
	if f.err != nil {
		return nil, f.err
	}
	return &models.Purchase{ChargeID: chargeID, Status: models.PurchaseFailed}, nil
}
