package models

import "time"

// PaymentEvent is the settlement event published to Kafka after a purchase
// reaches a terminal state. Consumers (notifications) must tolerate
// redelivery.
type PaymentEvent struct {
	Type       string    `json:"type"` // "purchase_completed" or "purchase_failed"
	ChargeID   string    `json:"charge_id"`
	PurchaseID string    `json:"purchase_id"`
	StudentID  string    `json:"student_id"`
	LessonID   string    `json:"lesson_id"`
	Amount     float64   `json:"amount"`
	Timestamp  time.Time `json:"timestamp"` // UTC event time
}

// WebhookEvent is the envelope PayChangu delivers to the webhook endpoint.
// The transaction payload shows up either nested under data.transaction or
// flattened at the top level depending on the event family.
type WebhookEvent struct {
	EventType string `json:"event_type"`
	ChargeID  string `json:"charge_id"`
	Data      struct {
		Transaction struct {
			ChargeID string `json:"charge_id"`
		} `json:"transaction"`
	} `json:"data"`
}

// TransactionChargeID returns the correlation id wherever the gateway put it.
func (e *WebhookEvent) TransactionChargeID() string {
	if e.Data.Transaction.ChargeID != "" {
		return e.Data.Transaction.ChargeID
	}
	return e.ChargeID
}
