package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
)

const (
	PayoutMethodBank        = "bank"
	PayoutMethodMobileMoney = "mobile_money"
)

// User is owned by identity. The settlement subsystem only reads the payout
// profile fields; an empty PayoutMethod means payouts for this instructor
// need manual intervention.
type User struct {
	ID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name  string    `gorm:"type:varchar(255);not null" json:"name"`
	Email string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Phone string    `gorm:"type:varchar(32)" json:"phone"`
	Role  string    `gorm:"type:varchar(20);not null" json:"role"`

	PayoutMethod             string `gorm:"type:varchar(20)" json:"payout_method,omitempty"`
	AccountName              string `gorm:"type:varchar(255)" json:"account_name,omitempty"`
	AccountNumber            string `gorm:"type:varchar(64)" json:"account_number,omitempty"`
	BankUUID                 string `gorm:"type:varchar(64)" json:"bank_uuid,omitempty"`
	MobileMoneyOperatorRefID string `gorm:"type:varchar(64)" json:"mobile_money_operator_ref_id,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
