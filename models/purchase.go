package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	PurchasePending   = "pending"
	PurchaseCompleted = "completed"
	PurchaseFailed    = "failed"
)

// Purchase is the unit of settlement. Rows are created pending by the
// payment initiator and only ever move to one terminal state; they are
// never deleted.
type Purchase struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ChargeID    string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"charge_id"`
	StudentID   uuid.UUID  `gorm:"type:uuid;index;not null" json:"student_id"`
	LessonID    uuid.UUID  `gorm:"type:uuid;index;not null" json:"lesson_id"`
	Amount      float64    `gorm:"type:decimal(10,2);not null" json:"amount"`
	PayoutRatio float64    `gorm:"type:decimal(4,2);not null" json:"payout_ratio"`
	Status      string     `gorm:"type:varchar(20);not null" json:"status"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	FailedAt    *time.Time `json:"failed_at,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
