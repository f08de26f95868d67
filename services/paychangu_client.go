package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrGatewayUnavailable marks network failures, timeouts and 5xx responses
// from PayChangu. Callers treat it as "outcome unknown", never as a failed
// charge.
var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

const (
	mobileMoneyChargePath = "/mobile-money/payments/initialize"
	bankTransferPath      = "/direct-charge/payments/initialize"
	mobileMoneyPayoutPath = "/mobile-money/payouts/initialize"
	bankPayoutPath        = "/payouts/initialize"
	verifyPaymentPath     = "/verify-payment/"
)

type MobileMoneyChargeRequest struct {
	Amount                   string `json:"amount"`
	Mobile                   string `json:"mobile"`
	MobileMoneyOperatorRefID string `json:"mobile_money_operator_ref_id"`
	ChargeID                 string `json:"charge_id"`
	Email                    string `json:"email"`
	FirstName                string `json:"first_name"`
	LastName                 string `json:"last_name"`
}

type BankTransferChargeRequest struct {
	PaymentMethod string `json:"payment_method"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	ChargeID      string `json:"charge_id"`
	Email         string `json:"email"`
}

type MobileMoneyPayoutRequest struct {
	Amount                   string `json:"amount"`
	Mobile                   string `json:"mobile"`
	MobileMoneyOperatorRefID string `json:"mobile_money_operator_ref_id"`
	ChargeID                 string `json:"charge_id"`
}

type BankPayoutRequest struct {
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	ChargeID      string `json:"charge_id"`
	BankUUID      string `json:"bank_uuid"`
	AccountName   string `json:"account_name"`
	AccountNumber string `json:"account_number"`
}

// ChargeStatus is the normalized outcome reported by the verify endpoint.
type ChargeStatus string

const (
	ChargeStatusSuccess ChargeStatus = "success"
	ChargeStatusFailed  ChargeStatus = "failed"
	ChargeStatusPending ChargeStatus = "pending"
	ChargeStatusUnknown ChargeStatus = "unknown"
)

// PaymentGateway is the outbound PayChangu surface used by the initiator,
// the payout dispatcher and the reconciliation worker.
type PaymentGateway interface {
	InitializeMobileMoneyCharge(ctx context.Context, req MobileMoneyChargeRequest) (json.RawMessage, error)
	InitializeBankTransferCharge(ctx context.Context, req BankTransferChargeRequest) (json.RawMessage, error)
	InitiateMobileMoneyPayout(ctx context.Context, req MobileMoneyPayoutRequest) (json.RawMessage, error)
	InitiateBankPayout(ctx context.Context, req BankPayoutRequest) (json.RawMessage, error)
	VerifyCharge(ctx context.Context, chargeID string) (ChargeStatus, error)
}

type PaychanguClient struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

func NewPaychanguClient(baseURL, secretKey string, timeout time.Duration) *PaychanguClient {
	return &PaychanguClient{
		baseURL:   baseURL,
		secretKey: secretKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *PaychanguClient) InitializeMobileMoneyCharge(ctx context.Context, req MobileMoneyChargeRequest) (json.RawMessage, error) {
	return c.post(ctx, mobileMoneyChargePath, req)
}

func (c *PaychanguClient) InitializeBankTransferCharge(ctx context.Context, req BankTransferChargeRequest) (json.RawMessage, error) {
	return c.post(ctx, bankTransferPath, req)
}

func (c *PaychanguClient) InitiateMobileMoneyPayout(ctx context.Context, req MobileMoneyPayoutRequest) (json.RawMessage, error) {
	return c.post(ctx, mobileMoneyPayoutPath, req)
}

func (c *PaychanguClient) InitiateBankPayout(ctx context.Context, req BankPayoutRequest) (json.RawMessage, error) {
	return c.post(ctx, bankPayoutPath, req)
}

// VerifyCharge polls the gateway for the authoritative state of a charge.
// Used by the reconciliation sweep for pending purchases whose webhook never
// arrived.
func (c *PaychanguClient) VerifyCharge(ctx context.Context, chargeID string) (ChargeStatus, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+verifyPaymentPath+chargeID, nil)
	if err != nil {
		return ChargeStatusUnknown, err
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return ChargeStatusUnknown, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ChargeStatusUnknown, err
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return ChargeStatusUnknown, fmt.Errorf("%w: verify returned %d", ErrGatewayUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return ChargeStatusUnknown, fmt.Errorf("verify charge %s: gateway returned %d: %s", chargeID, resp.StatusCode, body)
	}

	var out struct {
		Data struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return ChargeStatusUnknown, err
	}

	switch out.Data.Status {
	case "success", "successful":
		return ChargeStatusSuccess, nil
	case "failed":
		return ChargeStatusFailed, nil
	case "pending":
		return ChargeStatusPending, nil
	default:
		return ChargeStatusUnknown, nil
	}
}

func (c *PaychanguClient) post(ctx context.Context, path string, payload interface{}) (json.RawMessage, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: %s returned %d", ErrGatewayUnavailable, path, resp.StatusCode)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("gateway rejected %s: %d: %s", path, resp.StatusCode, body)
	}

	return json.RawMessage(body), nil
}

func (c *PaychanguClient) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
}
